package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/fcf-scraper/pkg/models"
	"github.com/Sriram-PR/fcf-scraper/pkg/normalize"
)

var (
	actaDateRe  = regexp.MustCompile(`Data:\s*(\d{2}-\d{2}-\d{4}),\s*([\d:]+)h`)
	venueCodeRe = regexp.MustCompile(`/camp/(\d+)`)
)

// ParseReport extracts everything the merger needs from an acta page.
// It never fails: absent sections leave the matching fields nil or empty.
func ParseReport(doc *goquery.Document, log *logrus.Entry) *models.Report {
	root := doc.Selection
	r := &models.Report{}

	r.Date, r.Time = parseKickoff(root.Find("div.print-acta-data").First(), log)
	r.Status = MatchStatus(root.Find("div.acta-estat span").First().Text())
	r.GoalsLocal, r.GoalsVisitor = parseScore(root.Find("div.acta-marcador span").First().Text())
	r.VenueCode = parseVenueCode(findTables(root, CaptionStadium).First())
	r.Referee = parseReferee(findTables(root, CaptionReferees).First())

	crests := root.Find("div.acta-escut img")
	r.HomeCrest = crestFile(crests.Eq(0))
	r.AwayCrest = crestFile(crests.Eq(1))

	if home, away := sideTables(root, CaptionStarters, log); home != nil {
		r.Home.Starters = parsePlayers(home, true)
		if away != nil {
			r.Away.Starters = parsePlayers(away, true)
		}
	}
	if home, away := sideTables(root, CaptionSubstitutes, log); home != nil {
		r.Home.Substitutes = parsePlayers(home, false)
		if away != nil {
			r.Away.Substitutes = parsePlayers(away, false)
		}
	}
	if home, away := sideTables(root, CaptionStaff, log); home != nil {
		r.Home.Staff = parseStaff(home)
		if away != nil {
			r.Away.Staff = parseStaff(away)
		}
	}
	if home, away := sideTables(root, CaptionCards, log); home != nil {
		r.Home.Cards = parseCards(home)
		if away != nil {
			r.Away.Cards = parseCards(away)
		}
	}

	// The Gols table is not split per side; attribution comes from the crests.
	goalTables := findTables(root, CaptionGoals)
	if goalTables.Length() == 0 {
		log.WithField("table", CaptionGoals).Info("No table in acta")
	}
	goalTables.Each(func(_ int, t *goquery.Selection) {
		r.Goals = append(r.Goals, parseGoals(t, r.HomeCrest, r.AwayCrest)...)
	})
	for _, g := range r.Goals {
		if g.Side == models.SideUnknown {
			log.WithFields(logrus.Fields{"scorer": normalize.JoinName(g.Scorer), "crest": g.CrestFile}).
				Warn("Goal could not be attributed to a side")
		}
	}

	return r
}

// parseKickoff reads "Data: 21-09-2025, 11:30h" into an ISO date and HH:MM
func parseKickoff(s *goquery.Selection, log *logrus.Entry) (date, clock *string) {
	text := strings.TrimSpace(ownText(s))
	if text == "" {
		text = strings.TrimSpace(s.Text())
	}
	m := actaDateRe.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	if d, err := time.Parse("02-01-2006", m[1]); err == nil {
		iso := d.Format("2006-01-02")
		date = &iso
	} else {
		log.WithField("raw", m[1]).Warn("Malformed acta date")
	}
	if t, err := time.Parse("15:04", m[2]); err == nil {
		hm := t.Format("15:04")
		clock = &hm
	} else {
		log.WithField("raw", m[2]).Warn("Malformed acta time")
	}
	return date, clock
}

// parseScore splits "3-1"; anything else ("—", "", "3-") yields two nils
func parseScore(text string) (local, visitor *int) {
	parts := strings.Split(strings.TrimSpace(text), "-")
	if len(parts) != 2 {
		return nil, nil
	}
	l, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	v, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return nil, nil
	}
	return &l, &v
}

func parseVenueCode(table *goquery.Selection) *string {
	var code *string
	table.Find("tbody a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if m := venueCodeRe.FindStringSubmatch(href); m != nil {
			code = &m[1]
			return false
		}
		return true
	})
	return code
}

// parseReferee reads the main referee from the first row. A name without a comma is not trusted.
func parseReferee(table *goquery.Selection) *models.Referee {
	cell := table.Find("tbody tr").First().Find("td").Eq(1)
	name := normalize.CollapseSpace(ownText(cell))
	if !strings.Contains(name, ",") {
		return nil
	}
	deleg := strings.Trim(strings.TrimSpace(cell.Find("span").First().Text()), "()")
	return &models.Referee{
		Name:       normalize.SplitName(name),
		Delegation: strings.TrimSpace(deleg),
	}
}

func crestFile(img *goquery.Selection) string {
	src, _ := img.Attr("src")
	return normalize.LastPathSegment(src)
}
