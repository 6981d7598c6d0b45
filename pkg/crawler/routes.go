package crawler

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Sriram-PR/fcf-scraper/pkg/config"
	"github.com/Sriram-PR/fcf-scraper/pkg/models"
	"github.com/Sriram-PR/fcf-scraper/pkg/normalize"
	"github.com/Sriram-PR/fcf-scraper/pkg/store"
)

// Routes builds the site URLs and form requests for each target
type Routes struct {
	base         string
	seasonRoute  string
	seasonCode   string
	categoryCode string
	matchType    string
	clubSlugs    normalize.SlugExceptions
}

// NewRoutes reads the site scope from the config. Config.Validate must have run.
func NewRoutes(cfg *config.AppConfig) *Routes {
	return &Routes{
		base:         strings.TrimRight(cfg.BaseURL, "/"),
		seasonRoute:  cfg.SeasonRoute,
		seasonCode:   cfg.SeasonCode,
		categoryCode: cfg.CategoryCode,
		matchType:    cfg.MatchType,
		clubSlugs:    normalize.DefaultSlugExceptions(cfg.ClubSlugExceptions),
	}
}

func (r *Routes) path(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return r.base + "/" + strings.Join(escaped, "/")
}

// Competitions is the POST listing every competition of the season
func (r *Routes) Competitions() models.WorkItem {
	return models.WorkItem{
		Target: models.TargetCompetitions,
		Method: http.MethodPost,
		URL:    r.path("cargar_competiciones"),
		Form: url.Values{
			"temporada": {r.seasonCode},
			"categoria": {r.categoryCode},
		},
	}
}

// Groups is the POST listing the groups of one competition
func (r *Routes) Groups(c models.Competition) models.WorkItem {
	return models.WorkItem{
		Target: models.TargetGroups,
		Method: http.MethodPost,
		URL:    r.path("cargar_grupos"),
		Form: url.Values{
			"tipo":        {r.matchType},
			"categoria":   {r.categoryCode},
			"competicion": {c.Code},
			"temporada":   {r.seasonCode},
		},
		Meta: models.ItemMeta{CompetitionID: c.ID, CompetitionCode: c.Code, CompetitionSlug: c.Slug},
	}
}

// Classification is the standings page a group's teams are read from
func (r *Routes) Classification(g store.GroupRef) models.WorkItem {
	return models.WorkItem{
		Target: models.TargetTeams,
		Method: http.MethodGet,
		URL:    r.path("classificacio", r.seasonRoute, r.matchType, g.CompetitionSlug, groupSlug(g)),
		Meta:   groupMeta(g),
	}
}

// Calendar is the fixture list of a group. The site only serves it under the numbered group path.
func (r *Routes) Calendar(g store.GroupRef) models.WorkItem {
	return models.WorkItem{
		Target: models.TargetCalendars,
		Method: http.MethodGet,
		URL:    r.path("calendari", r.seasonRoute, r.matchType, g.CompetitionSlug, fmt.Sprintf("grup-%d", g.Number)),
		Meta:   groupMeta(g),
	}
}

// Club is a club page. Stored slugs that differ from the club section are mapped first.
func (r *Routes) Club(slug string) models.WorkItem {
	return models.WorkItem{
		Target: models.TargetClubs,
		Method: http.MethodGet,
		URL:    r.path("club", r.seasonRoute, r.clubSlugs.ClubPageSlug(slug)),
		Meta:   models.ItemMeta{ClubSlug: slug},
	}
}

// Venue is a field page keyed by its numeric code
func (r *Routes) Venue(code string) models.WorkItem {
	return models.WorkItem{
		Target: models.TargetVenues,
		Method: http.MethodGet,
		URL:    r.path("camp", code),
		Meta:   models.ItemMeta{VenueCode: code},
	}
}

// Report is the acta of a match. The abbreviation appears twice in the path, once per team.
// It fails when the competition abbreviation or a team slug is not known yet.
func (r *Routes) Report(ref store.ReportRef) (models.WorkItem, error) {
	switch {
	case ref.Abbreviation == nil || *ref.Abbreviation == "":
		return models.WorkItem{}, fmt.Errorf("competition %s has no abbreviation yet", ref.CompetitionSlug)
	case ref.LocalSlug == nil || *ref.LocalSlug == "":
		return models.WorkItem{}, fmt.Errorf("local team %d has no slug", ref.LocalTeamID)
	case ref.VisitorSlug == nil || *ref.VisitorSlug == "":
		return models.WorkItem{}, fmt.Errorf("visitor team %d has no slug", ref.VisitorTeamID)
	}
	abbr := *ref.Abbreviation
	return models.WorkItem{
		Target: models.TargetReports,
		Method: http.MethodGet,
		URL: r.path("acta", r.seasonRoute, r.matchType, ref.CompetitionSlug, ref.GroupSlug,
			abbr, *ref.LocalSlug, abbr, *ref.VisitorSlug),
		Meta: models.ItemMeta{
			CompetitionSlug: ref.CompetitionSlug,
			GroupID:         ref.GroupID,
			LocalTeamID:     ref.LocalTeamID,
			VisitorTeamID:   ref.VisitorTeamID,
			Jornada:         ref.Jornada,
		},
	}, nil
}

func groupSlug(g store.GroupRef) string {
	if g.Slug != "" {
		return g.Slug
	}
	return fmt.Sprintf("grup-%d", g.Number)
}

func groupMeta(g store.GroupRef) models.ItemMeta {
	return models.ItemMeta{
		CompetitionID:   g.CompetitionID,
		CompetitionCode: g.CompetitionCode,
		CompetitionSlug: g.CompetitionSlug,
		GroupID:         g.GroupID,
	}
}
