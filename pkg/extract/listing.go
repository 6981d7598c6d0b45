package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/fcf-scraper/pkg/models"
	"github.com/Sriram-PR/fcf-scraper/pkg/normalize"
)

// CohortCounter hands out levels inside an age cohort in listing order:
// the first "S16" competition seen is level 1, the next one level 2, and so on.
// All Juvenil competitions share one cohort.
type CohortCounter struct {
	seen map[string]int
}

// NewCohortCounter returns an empty counter. One counter covers one listing.
func NewCohortCounter() *CohortCounter {
	return &CohortCounter{seen: make(map[string]int)}
}

// Next increments and returns the level for key
func (c *CohortCounter) Next(key string) int {
	c.seen[key]++
	return c.seen[key]
}

// Level returns the cohort level for a competition, or nil when it has no age cap
func (c *CohortCounter) Level(category *string, maxAge *int) *int {
	var key string
	switch {
	case category != nil && *category == models.CategoryJuvenil:
		key = "juvenil"
	case maxAge != nil:
		key = strconv.Itoa(*maxAge)
	default:
		return nil
	}
	l := c.Next(key)
	return &l
}

// ParseCompetitions reads the cargar_competiciones fragment. Untracked competitions
// are dropped before they reach the cohort counter so levels stay dense.
func ParseCompetitions(doc *goquery.Document, log *logrus.Entry) []models.Competition {
	counter := NewCohortCounter()
	var out []models.Competition
	doc.Find("p.competicion").Each(func(_ int, p *goquery.Selection) {
		name := strings.TrimSpace(ownText(p))
		if name == "" {
			name = normalize.CollapseSpace(p.Text())
		}
		if !normalize.IsTrackedCompetition(name) {
			log.WithField("competition", name).Debug("Skipping untracked competition")
			return
		}
		code, _ := p.Attr("title")
		code = strings.TrimSpace(code)
		if code == "" {
			log.WithField("competition", name).Warn("Competition without external code, skipping")
			return
		}
		category := normalize.CompetitionCategory(name)
		maxAge := normalize.MaxAge(name)
		out = append(out, models.Competition{
			Code:      code,
			Name:      name,
			Slug:      normalize.Slugify(name),
			Category:  category,
			MaxAge:    maxAge,
			Organizer: normalize.Organizer(name),
			Level:     counter.Level(category, maxAge),
		})
	})
	return out
}

var groupNumberRe = regexp.MustCompile(`(\d+)`)

// GroupEntry is one group link of the cargar_grupos fragment
type GroupEntry struct {
	Number int
	Slug   string
}

// ParseGroups reads the cargar_grupos fragment. Links without a number are skipped.
func ParseGroups(doc *goquery.Document, log *logrus.Entry) []GroupEntry {
	var out []GroupEntry
	doc.Find("a.grupo").Each(func(_ int, a *goquery.Selection) {
		text := strings.TrimSpace(a.Find("p").First().Text())
		m := groupNumberRe.FindStringSubmatch(text)
		if m == nil {
			log.WithField("text", text).Warn("Group link without a number, skipping")
			return
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return
		}
		href, _ := a.Attr("href")
		slug := normalize.LastPathSegment(href)
		if slug == "" {
			slug = "grup-" + strconv.Itoa(n)
		}
		out = append(out, GroupEntry{Number: n, Slug: slug})
	})
	return out
}
