package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Sriram-PR/fcf-scraper/pkg/models"
)

// SplitName splits a "Lastname, Firstname" string on the first comma.
// Without a comma the whole string is the first name and the last name is empty.
func SplitName(s string) models.PersonName {
	s = CollapseSpace(s)
	last, first, found := strings.Cut(s, ",")
	if !found {
		return models.PersonName{First: s}
	}
	return models.PersonName{First: strings.TrimSpace(first), Last: strings.TrimSpace(last)}
}

// JoinName is the inverse of SplitName for names that had a comma
func JoinName(n models.PersonName) string {
	if n.Last == "" {
		return n.First
	}
	return n.Last + ", " + n.First
}

// CollapseSpace trims s and collapses internal whitespace runs (nbsp included) to one space
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var (
	labelPrefix     = regexp.MustCompile(`^[^:]+:\s*`)
	delegationLabel = regexp.MustCompile(`(?i)delegaci[oó]\s*[:\-]?\s*`)
)

// FieldValue strips a "Label:" prefix from a table cell and returns nil when nothing is left
func FieldValue(text string) *string {
	v := CollapseSpace(labelPrefix.ReplaceAllString(CollapseSpace(text), ""))
	if v == "" {
		return nil
	}
	return &v
}

// Delegation drops the "Delegació" label and title-cases the territory name
// ("DELEGACIÓ: BAIX LLOBREGAT" -> "Baix Llobregat").
func Delegation(text string) *string {
	v := CollapseSpace(delegationLabel.ReplaceAllString(CollapseSpace(text), ""))
	if v == "" {
		return nil
	}
	// Casers keep state between calls, so one per call.
	v = cases.Title(language.Catalan).String(strings.ToLower(v))
	return &v
}
