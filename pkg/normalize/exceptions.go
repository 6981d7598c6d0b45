package normalize

// clubPageSlugs maps club slugs as they appear in team links to the slug used by the
// club section of the site. Data patch; keep entries as published.
var clubPageSlugs = map[string]string{
	"jesus-y-maria-ud":                "jesus-i-maria-ud",
	"remences-ae-unio":                "remences-associacio-esportiva-unio",
	"costa-daurada-fc":                "costa-daurada-salou-fc",
	"bescano-cd":                      "bescano-ce",
	"palafrugell-cf":                  "palafrugell-fc",
	"efb-ulldecona":                   "escola-futbol-base-ulldecona-assoc",
	"unificacion-cfsantaperpetua":     "unificacion-cfsanta-perpetua",
	"fundacio-esport-hospitalet-at":   "fundacio-esporthospitalet-at",
	"escola-f-pobla-segur-i-comarc":   "escola-f-pobla-segur-i-comarca",
	"vilaseca-cf":                     "vila-seca-cf",
	"agramunt-escolagerard-gatell-cf": "agramunt-escola-gerard-gatell-cf",
	"montroig-at":                     "mont-roig-at",
	"vilanova-geltru-cf":              "vilanova-i-la-geltru-cf",
	"lleida-esportiu-club":            "lleida-ponent-esportiu-club",
	"sant-jaume-denveija-ue":          "sant-jaume-denveja-ue",
	"vila-olimpica-club-esp":          "vila-olimpica-club-esportiu",
	"alcanar-2015-escola-futbol":      "escola-futbol-alcanar-2015",
	"les-corts-de-barcelona-club-esp": "les-corts-de-barcelona-club-esportiu",
}

// SlugExceptions resolves a stored club slug to the slug of its club page
type SlugExceptions map[string]string

// DefaultSlugExceptions returns a copy of the built-in table merged with extra entries.
// Extra entries win over built-in ones.
func DefaultSlugExceptions(extra map[string]string) SlugExceptions {
	out := make(SlugExceptions, len(clubPageSlugs)+len(extra))
	for k, v := range clubPageSlugs {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// ClubPageSlug returns the club-page slug for a stored club slug
func (e SlugExceptions) ClubPageSlug(slug string) string {
	if mapped, ok := e[slug]; ok {
		return mapped
	}
	return slug
}
