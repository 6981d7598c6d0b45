package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/fcf-scraper/pkg/normalize"
)

var jornadaRe = regexp.MustCompile(`(\d+)`)

// calendarColumns is the expected cell count of a calendar row
const calendarColumns = 7

// FixtureEntry is one calendar row
type FixtureEntry struct {
	Jornada     int
	LocalSlug   string
	VisitorSlug string
}

// Calendar is a group's calendar page. CompetitionSlug and Abbreviation come from the
// first acta link and stay empty when no match has one yet.
type Calendar struct {
	CompetitionSlug string
	Abbreviation    string
	Fixtures        []FixtureEntry
}

// ParseCalendar reads every round table of a calendar page
func ParseCalendar(doc *goquery.Document, log *logrus.Entry) *Calendar {
	cal := &Calendar{}
	doc.Find("table.calendaritable").Each(func(_ int, table *goquery.Selection) {
		head := strings.TrimSpace(table.Find("thead tr th").First().Text())
		m := jornadaRe.FindStringSubmatch(head)
		if m == nil {
			log.WithField("header", head).Warn("Calendar table without jornada number, skipping")
			return
		}
		jornada, _ := strconv.Atoi(m[1])
		rlog := log.WithField("jornada", jornada)

		table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.ChildrenFiltered("td")
			if cells.Length() != calendarColumns {
				rlog.WithField("cells", cells.Length()).Warn("Unexpected calendar row")
			}
			if cal.Abbreviation == "" {
				if href, ok := cells.Eq(3).Find("a").First().Attr("href"); ok {
					cal.CompetitionSlug, cal.Abbreviation = actaLinkParts(href)
				}
			}
			local := teamSlugFromCell(cells.Eq(0))
			if local == "" {
				rlog.Warn("Calendar row without local team link")
				return
			}
			visitor := teamSlugFromCell(cells.Eq(calendarColumns - 1))
			if visitor == "" {
				rlog.Warn("Calendar row without visitor team link")
				return
			}
			cal.Fixtures = append(cal.Fixtures, FixtureEntry{Jornada: jornada, LocalSlug: local, VisitorSlug: visitor})
		})
	})
	return cal
}

func teamSlugFromCell(td *goquery.Selection) string {
	href, _ := td.Find("a").First().Attr("href")
	return normalize.LastPathSegment(href)
}

// actaLinkParts splits an absolute acta URL
// (https://www.fcf.cat/acta/2526/futbol-11/<competition>/<group>/<abbr>/<home>/<abbr>/<away>)
func actaLinkParts(href string) (competitionSlug, abbreviation string) {
	parts := strings.Split(href, "/")
	if len(parts) < 9 {
		return "", ""
	}
	return parts[6], parts[8]
}
