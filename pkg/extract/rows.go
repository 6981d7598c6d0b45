package extract

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/Sriram-PR/fcf-scraper/pkg/models"
	"github.com/Sriram-PR/fcf-scraper/pkg/normalize"
)

// optionalInt parses a number out of a cell, ignoring nbsp, quotes and padding
func optionalInt(text string) *int {
	t := strings.NewReplacer("\u00a0", "", "'", "").Replace(text)
	t = strings.TrimSpace(t)
	if t == "" {
		return nil
	}
	n, err := strconv.Atoi(t)
	if err != nil {
		return nil
	}
	return &n
}

// ownText returns only the direct text nodes of s, skipping nested elements
func ownText(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
	}
	return b.String()
}

// capitalize upper-cases the first letter and lower-cases the rest ("ENTRENADOR" -> "Entrenador")
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = []rune(strings.ToUpper(string(r[0])))[0]
	return string(r)
}

// parsePlayers reads a Titulars or Suplents table. Rows without a name link are skipped.
func parsePlayers(table *goquery.Selection, starter bool) []models.LineupPlayer {
	var players []models.LineupPlayer
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		name := strings.TrimSpace(cells.Eq(1).Find("a").First().Text())
		if name == "" {
			return
		}
		players = append(players, models.LineupPlayer{
			Name:        normalize.SplitName(name),
			ShirtNumber: optionalInt(cells.Eq(0).Find("span").First().Text()),
			Starter:     starter,
		})
	})
	return players
}

func parseStaff(table *goquery.Selection) []models.StaffMember {
	var staff []models.StaffMember
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		name := normalize.CollapseSpace(cells.Eq(0).Text())
		if name == "" {
			return
		}
		role, _ := cells.Eq(1).Find("span").First().Attr("class")
		staff = append(staff, models.StaffMember{
			Name: normalize.SplitName(name),
			Role: capitalize(strings.TrimSpace(role)),
		})
	})
	return staff
}

// goalType reads the marker class inside div.gol; anything unrecognised counts as a normal goal
func goalType(row *goquery.Selection) string {
	class, _ := row.Find("div.gol div[class*='gol-']").First().Attr("class")
	switch {
	case strings.Contains(class, "gol-penal"):
		return GoalPenalty
	case strings.Contains(class, "gol-propia"):
		return GoalOwn
	}
	return GoalNormal
}

// scorerCrest is the crest image of the scorer's club: the first img of the row outside div.gol
func scorerCrest(row *goquery.Selection) string {
	img := row.Find("img").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.ParentsFiltered("div.gol").Length() == 0
	}).First()
	src, _ := img.Attr("src")
	return normalize.LastPathSegment(src)
}

// attributeSide matches a crest file against the header crests. Equal or empty header
// crests cannot tell the sides apart, so the goal stays unattributed.
func attributeSide(crest, home, away string) models.Side {
	if crest == "" || home == "" || away == "" || home == away {
		return models.SideUnknown
	}
	switch crest {
	case home:
		return models.SideHome
	case away:
		return models.SideAway
	}
	return models.SideUnknown
}

func parseGoals(table *goquery.Selection, homeCrest, awayCrest string) []models.Goal {
	var goals []models.Goal
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		name := strings.TrimSpace(cells.Eq(2).Find("a").First().Text())
		if name == "" {
			return
		}
		typ := goalType(row)
		kind, _ := GoalKind(typ)
		crest := scorerCrest(row)
		goals = append(goals, models.Goal{
			Scorer:    normalize.SplitName(name),
			Type:      typ,
			Kind:      kind,
			Minute:    optionalInt(ownText(cells.Last())),
			CrestFile: crest,
			Side:      attributeSide(crest, homeCrest, awayCrest),
		})
	})
	return goals
}

// cardLabel maps the card icon class to its label; unknown classes return the raw text
func cardLabel(class string) string {
	switch {
	case strings.Contains(class, "groga-2"):
		return CardSecondYellow
	case strings.Contains(class, "groga"):
		return CardYellow
	case strings.Contains(class, "vermella"):
		return CardRed
	}
	return strings.TrimSpace(class)
}

func parseCards(table *goquery.Selection) []models.Card {
	var cards []models.Card
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		name := strings.TrimSpace(row.Find("a").First().Text())
		if name == "" {
			return
		}
		var class string
		row.Find("div.acta-stat-box").Children().EachWithBreak(func(_ int, s *goquery.Selection) bool {
			c, _ := s.Attr("class")
			if strings.Contains(c, "groga") || strings.Contains(c, "vermella") {
				class = c
				return false
			}
			if class == "" {
				class = c
			}
			return true
		})
		label := cardLabel(class)
		cards = append(cards, models.Card{
			Player:      normalize.SplitName(name),
			Label:       label,
			Kind:        CardKind(label),
			Minute:      optionalInt(row.Find("div.acta-minut-targeta").First().Text()),
			ShirtNumber: optionalInt(row.Find("td").Eq(0).Find("span").First().Text()),
		})
	})
	return cards
}
