package crawler

import (
	"context"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/fcf-scraper/pkg/extract"
	"github.com/Sriram-PR/fcf-scraper/pkg/models"
	"github.com/Sriram-PR/fcf-scraper/pkg/utils"
)

// worklist turns what the store already holds into the requests of a target
func (c *Crawler) worklist(ctx context.Context, target models.Target) ([]models.WorkItem, error) {
	switch target {
	case models.TargetCompetitions:
		return []models.WorkItem{c.routes.Competitions()}, nil

	case models.TargetGroups:
		comps, err := c.db.ListCompetitions(ctx)
		if err != nil {
			return nil, err
		}
		items := make([]models.WorkItem, 0, len(comps))
		for _, comp := range comps {
			items = append(items, c.routes.Groups(comp))
		}
		return items, nil

	case models.TargetTeams, models.TargetCalendars:
		groups, err := c.db.ListGroups(ctx, c.cfg.Season)
		if err != nil {
			return nil, err
		}
		items := make([]models.WorkItem, 0, len(groups))
		for _, g := range groups {
			if target == models.TargetTeams {
				items = append(items, c.routes.Classification(g))
			} else {
				items = append(items, c.routes.Calendar(g))
			}
		}
		return items, nil

	case models.TargetClubs:
		slugs, err := c.db.ListClubSlugs(ctx)
		if err != nil {
			return nil, err
		}
		items := make([]models.WorkItem, 0, len(slugs))
		for _, slug := range slugs {
			items = append(items, c.routes.Club(slug))
		}
		return items, nil

	case models.TargetReports:
		refs, err := c.db.ListPendingReports(ctx, c.cfg.Season, c.cfg.WholeSeason, c.now())
		if err != nil {
			return nil, err
		}
		items := make([]models.WorkItem, 0, len(refs))
		for _, ref := range refs {
			item, err := c.routes.Report(ref)
			if err != nil {
				c.log.WithFields(logrus.Fields{"target": target, "group_id": ref.GroupID}).Warnf("Skipping match: %v", err)
				continue
			}
			items = append(items, item)
		}
		return items, nil

	case models.TargetVenues:
		codes, err := c.db.ListVenuesWithoutName(ctx)
		if err != nil {
			return nil, err
		}
		items := make([]models.WorkItem, 0, len(codes))
		for _, code := range codes {
			items = append(items, c.routes.Venue(code))
		}
		return items, nil
	}
	return nil, fmt.Errorf("%w: unknown target %q", utils.ErrConfigValidation, target)
}

// handle stores what a fetched page says, dispatching on the item's target
func (c *Crawler) handle(ctx context.Context, item models.WorkItem, doc *goquery.Document, taskLog *logrus.Entry) error {
	switch item.Target {
	case models.TargetCompetitions:
		return c.handleCompetitions(ctx, doc, taskLog)
	case models.TargetGroups:
		return c.handleGroups(ctx, item.Meta, doc, taskLog)
	case models.TargetTeams:
		return c.handleTeams(ctx, item.Meta, doc, taskLog)
	case models.TargetClubs:
		return c.handleClub(ctx, item.Meta, doc)
	case models.TargetCalendars:
		return c.handleCalendar(ctx, item.Meta, doc, taskLog)
	case models.TargetReports:
		return c.handleReport(ctx, item.Meta, doc, taskLog)
	case models.TargetVenues:
		return c.handleVenue(ctx, item.Meta, doc)
	}
	return fmt.Errorf("no handler for target %q", item.Target)
}

func (c *Crawler) handleCompetitions(ctx context.Context, doc *goquery.Document, taskLog *logrus.Entry) error {
	comps := extract.ParseCompetitions(doc, taskLog)
	if len(comps) == 0 {
		return fmt.Errorf("%w: no tracked competition in listing", utils.ErrMissingData)
	}
	for _, comp := range comps {
		if _, err := c.db.UpsertCompetition(ctx, comp); err != nil {
			return fmt.Errorf("competition %s: %w", comp.Code, err)
		}
	}
	taskLog.Infof("Stored %d competition(s)", len(comps))
	return nil
}

func (c *Crawler) handleGroups(ctx context.Context, meta models.ItemMeta, doc *goquery.Document, taskLog *logrus.Entry) error {
	entries := extract.ParseGroups(doc, taskLog)
	for _, e := range entries {
		_, err := c.db.UpsertGroup(ctx, models.Group{
			CompetitionID: meta.CompetitionID,
			Number:        e.Number,
			Season:        c.cfg.Season,
			Slug:          e.Slug,
		})
		if err != nil {
			return fmt.Errorf("group %d of competition %s: %w", e.Number, meta.CompetitionCode, err)
		}
	}
	taskLog.WithField("competition", meta.CompetitionCode).Infof("Stored %d group(s)", len(entries))
	return nil
}

func (c *Crawler) handleTeams(ctx context.Context, meta models.ItemMeta, doc *goquery.Document, taskLog *logrus.Entry) error {
	entries := extract.ParseClassification(doc, taskLog)
	for _, e := range entries {
		clubName := e.ClubName
		clubID, err := c.db.UpsertClub(ctx, models.Club{Slug: e.ClubSlug, Name: &clubName})
		if err != nil {
			return fmt.Errorf("club %s: %w", e.ClubSlug, err)
		}
		teamSlug := e.Slug
		_, err = c.db.UpsertTeam(ctx, models.Team{
			ClubID:   clubID,
			GroupID:  meta.GroupID,
			Level:    e.Level,
			Category: e.Category,
			Slug:     &teamSlug,
		})
		if err != nil {
			return fmt.Errorf("team %s: %w", e.Slug, err)
		}
	}
	taskLog.WithField("group_id", meta.GroupID).Infof("Stored %d team(s)", len(entries))
	return nil
}

func (c *Crawler) handleClub(ctx context.Context, meta models.ItemMeta, doc *goquery.Document) error {
	d := extract.ParseClub(doc)
	_, err := c.db.UpsertClub(ctx, models.Club{
		Slug:       meta.ClubSlug,
		Locality:   d.Locality,
		Delegation: d.Delegation,
		Province:   d.Province,
	})
	return err
}

// handleCalendar inserts the fixtures of a group. Unknown team slugs are skipped with a
// warning; the competition abbreviation is written the first time a calendar yields one.
func (c *Crawler) handleCalendar(ctx context.Context, meta models.ItemMeta, doc *goquery.Document, taskLog *logrus.Entry) error {
	cal := extract.ParseCalendar(doc, taskLog)
	calLog := taskLog.WithField("group_id", meta.GroupID)

	if cal.Abbreviation != "" {
		if _, done := c.abbreviations.LoadOrStore(meta.CompetitionID, cal.Abbreviation); !done {
			if err := c.db.SetCompetitionAbbreviation(ctx, meta.CompetitionID, cal.Abbreviation); err != nil {
				c.abbreviations.Delete(meta.CompetitionID)
				return fmt.Errorf("abbreviation of competition %s: %w", meta.CompetitionCode, err)
			}
			calLog.WithField("abbreviation", cal.Abbreviation).Info("Competition abbreviation updated")
		}
	}

	inserted, misses := 0, 0
	for _, f := range cal.Fixtures {
		localID, err := c.db.TeamIDBySlug(ctx, meta.GroupID, f.LocalSlug)
		if err == nil {
			var visitorID int64
			visitorID, err = c.db.TeamIDBySlug(ctx, meta.GroupID, f.VisitorSlug)
			if err == nil {
				var ok bool
				ok, err = c.db.InsertFixture(ctx, models.Fixture{
					GroupID:       meta.GroupID,
					LocalTeamID:   localID,
					VisitorTeamID: visitorID,
					Jornada:       f.Jornada,
				})
				if ok {
					inserted++
				}
			}
		}
		if errors.Is(err, utils.ErrLookupMiss) {
			misses++
			calLog.WithFields(logrus.Fields{
				"jornada": f.Jornada,
				"local":   f.LocalSlug,
				"visitor": f.VisitorSlug,
			}).Warn("Fixture team not found, skipping")
			continue
		}
		if err != nil {
			return fmt.Errorf("fixture %s-%s (jornada %d): %w", f.LocalSlug, f.VisitorSlug, f.Jornada, err)
		}
	}
	calLog.Infof("Calendar: %d fixture(s) read, %d inserted, %d unresolved", len(cal.Fixtures), inserted, misses)
	return nil
}

func (c *Crawler) handleReport(ctx context.Context, meta models.ItemMeta, doc *goquery.Document, taskLog *logrus.Entry) error {
	report := extract.ParseReport(doc, taskLog)
	key := models.MatchKey{
		GroupID:       meta.GroupID,
		LocalTeamID:   meta.LocalTeamID,
		VisitorTeamID: meta.VisitorTeamID,
		Jornada:       meta.Jornada,
	}
	res, err := c.merger.Merge(ctx, key, report)
	if err != nil {
		return err
	}
	if res.Failed > 0 && isCancelled(ctx.Err()) {
		return ctx.Err()
	}
	return nil
}

func (c *Crawler) handleVenue(ctx context.Context, meta models.ItemMeta, doc *goquery.Document) error {
	d := extract.ParseVenue(doc)
	if d.Name == nil {
		return fmt.Errorf("%w: venue %s page has no name", utils.ErrMissingData, meta.VenueCode)
	}
	_, err := c.db.UpsertVenue(ctx, models.Venue{
		Code:     meta.VenueCode,
		Name:     d.Name,
		Terrain:  d.Terrain,
		Address:  d.Address,
		Locality: d.Locality,
		Province: d.Province,
	})
	return err
}
