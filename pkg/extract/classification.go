package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/fcf-scraper/pkg/normalize"
)

// TeamEntry is one row of a classification table
type TeamEntry struct {
	Name     string
	Slug     string
	ClubSlug string
	ClubName string
	Level    int
	Category *string // from the team name; nil lets the store infer it from the group
}

// ParseClassification lists the teams of a group from its classification page
func ParseClassification(doc *goquery.Document, log *logrus.Entry) []TeamEntry {
	var out []TeamEntry
	doc.Find("table.fcftable-e tbody tr").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("td.tl.resumida a").First()
		name := normalize.CollapseSpace(link.Text())
		href, _ := link.Attr("href")
		if name == "" || strings.TrimSpace(href) == "" {
			log.Debug("Classification row without team link")
			return
		}
		slug := normalize.LastPathSegment(href)
		out = append(out, TeamEntry{
			Name:     name,
			Slug:     slug,
			ClubSlug: normalize.ClubSlug(slug),
			ClubName: normalize.ClubName(name),
			Level:    normalize.TeamLevel(name),
			Category: normalize.CompetitionCategory(name),
		})
	})
	return out
}
