// Package normalize turns the free-form Catalan/Spanish names found on fcf.cat into
// canonical slugs, split person names and team attributes.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

// accentMap folds the accented letters that appear in competition, club and team names
var accentMap = map[rune]rune{
	'à': 'a', 'á': 'a', 'ä': 'a',
	'è': 'e', 'é': 'e', 'ë': 'e',
	'ì': 'i', 'í': 'i', 'ï': 'i',
	'ò': 'o', 'ó': 'o', 'ö': 'o',
	'ù': 'u', 'ú': 'u', 'ü': 'u',
	'ç': 'c', 'ñ': 'n',
}

var hyphenRun = regexp.MustCompile(`-{2,}`)

// Slugify lowercases s, folds accents, maps whitespace to hyphens and drops anything
// outside [a-z0-9-]. Repeated hyphens collapse and leading/trailing ones are trimmed,
// so Slugify(Slugify(s)) == Slugify(s).
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if folded, ok := accentMap[r]; ok {
			r = folded
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', unicode.IsSpace(r):
			b.WriteByte('-')
		}
	}

	return strings.Trim(hyphenRun.ReplaceAllString(b.String(), "-"), "-")
}

// LastPathSegment returns the final non-empty segment of a URL path or href
func LastPathSegment(href string) string {
	href = strings.TrimSpace(href)
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	href = strings.TrimRight(href, "/")
	if i := strings.LastIndex(href, "/"); i >= 0 {
		return href[i+1:]
	}
	return href
}
