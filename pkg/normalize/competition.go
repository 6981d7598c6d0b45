package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Sriram-PR/fcf-scraper/pkg/models"
)

var (
	youthCompetition = regexp.MustCompile(`(?i)juvenils?`)
	ageSuffix        = regexp.MustCompile(`S(\d+)$`)
)

// juvenilMaxAge is the age limit of every Juvenil competition
const juvenilMaxAge = 19

// IsTrackedCompetition keeps Juvenil leagues and age-capped ("... S16") leagues
func IsTrackedCompetition(name string) bool {
	name = strings.TrimSpace(name)
	return youthCompetition.MatchString(name) || ageSuffix.MatchString(name)
}

// CompetitionCategory maps a competition name to Juvenil/Cadete/Infantil, or nil
func CompetitionCategory(name string) *string {
	upper := strings.ToUpper(name)
	var c string
	switch {
	case strings.Contains(upper, "JUVENIL"):
		c = models.CategoryJuvenil
	case strings.Contains(upper, "CADET"):
		c = models.CategoryCadete
	case strings.Contains(upper, "INFANTIL"):
		c = models.CategoryInfantil
	default:
		return nil
	}
	return &c
}

// Organizer returns RFEF for the national Juvenil tiers (Honor, Nacional), FCF otherwise
func Organizer(name string) string {
	upper := strings.ToUpper(name)
	if strings.Contains(upper, "JUVENIL") && (strings.Contains(upper, "HONOR") || strings.Contains(upper, "NACIONAL")) {
		return models.OrganizerRFEF
	}
	return models.OrganizerFCF
}

// MaxAge is 19 for Juvenil and the "S<n>" suffix otherwise; nil when neither applies
func MaxAge(name string) *int {
	name = strings.TrimSpace(name)
	if strings.Contains(strings.ToUpper(name), "JUVENIL") {
		age := juvenilMaxAge
		return &age
	}
	m := ageSuffix.FindStringSubmatch(name)
	if m == nil {
		return nil
	}
	age, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &age
}
