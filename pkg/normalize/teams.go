package normalize

import (
	"regexp"
	"strings"
)

var (
	levelSuffix     = regexp.MustCompile(`(?i)\s([a-d])[.\s]*$`)
	clubNameSuffix  = regexp.MustCompile(`(?i)\s+[a-d]\.?$`)
	teamSlugSuffix  = regexp.MustCompile(`-(?:[a-h]|u\d+)$`)
	levelFromLetter = map[byte]int{'a': 1, 'b': 2, 'c': 3, 'd': 4}
)

// TeamLevel reads the squad letter at the end of a team name (A=1 .. D=4).
// The letter must be separated by whitespace so club initials like "U.D." are not
// mistaken for a level. Names without a letter are first teams (1).
func TeamLevel(name string) int {
	m := levelSuffix.FindStringSubmatch(CollapseSpace(name))
	if m == nil {
		return 1
	}
	return levelFromLetter[strings.ToLower(m[1])[0]]
}

// ClubName removes the squad letter from a team name to get the club display name
func ClubName(teamName string) string {
	return strings.TrimSpace(clubNameSuffix.ReplaceAllString(CollapseSpace(teamName), ""))
}

// ClubSlug derives the owning club's slug from a team slug by dropping a trailing
// "-<letter>" or "-u<age>" suffix ("espanyol-rcd-a" -> "espanyol-rcd").
func ClubSlug(teamSlug string) string {
	return teamSlugSuffix.ReplaceAllString(strings.TrimSpace(teamSlug), "")
}
