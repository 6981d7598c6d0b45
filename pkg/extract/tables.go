// Package extract turns fcf.cat pages into typed records. Extractors never fail a whole
// page for a missing node: absent fields come back nil and the gap is logged.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// Caption keywords of the acta tables
const (
	CaptionStarters    = "Titulars"
	CaptionSubstitutes = "Suplents"
	CaptionStaff       = "Equip Tècnic"
	CaptionGoals       = "Gols"
	CaptionCards       = "Targetes"
	CaptionStadium     = "Estadi"
	CaptionReferees    = "Àrbitres"
)

// SideAssignment says how the tables found for one caption map to home and away
type SideAssignment int

const (
	SidesNone     SideAssignment = iota // no table: nothing to extract
	SidesHomeOnly                       // one table where two were expected: it is taken as home
	SidesBoth                           // first table home, second away
	SidesExtra                          // more than two: first two used
)

func (a SideAssignment) String() string {
	switch a {
	case SidesNone:
		return "none"
	case SidesHomeOnly:
		return "home_only"
	case SidesBoth:
		return "both"
	case SidesExtra:
		return "extra"
	}
	return "unknown"
}

// SidePolicy decides the assignment for n tables carrying the same caption
func SidePolicy(n int) SideAssignment {
	switch {
	case n <= 0:
		return SidesNone
	case n == 1:
		return SidesHomeOnly
	case n == 2:
		return SidesBoth
	default:
		return SidesExtra
	}
}

// findTables returns every acta table whose header mentions caption
func findTables(doc *goquery.Selection, caption string) *goquery.Selection {
	return doc.Find("table.acta-table").FilterFunction(func(_ int, t *goquery.Selection) bool {
		return strings.Contains(t.Find("thead tr th").Text(), caption)
	})
}

// sideTables splits the tables for caption into home and away following SidePolicy.
// Either result may be nil.
func sideTables(doc *goquery.Selection, caption string, log *logrus.Entry) (home, away *goquery.Selection) {
	tables := findTables(doc, caption)
	policy := SidePolicy(tables.Length())
	tlog := log.WithFields(logrus.Fields{"table": caption, "count": tables.Length(), "policy": policy})

	switch policy {
	case SidesNone:
		tlog.Info("No table in acta")
		return nil, nil
	case SidesHomeOnly:
		tlog.Warn("Ambiguous single table, assigned to home")
		return tables.Eq(0), nil
	case SidesExtra:
		tlog.Warn("More than two tables, using the first two")
	}
	return tables.Eq(0), tables.Eq(1)
}
