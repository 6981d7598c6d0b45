package store

import (
	"context"
	"time"
)

// ListClubSlugs returns every stored club slug
func (s *Store) ListClubSlugs(ctx context.Context) ([]string, error) {
	var out []string
	if err := s.db.SelectContext(ctx, &out, `SELECT slug FROM clubs ORDER BY id`); err != nil {
		return nil, dbError("list club slugs", err)
	}
	return out, nil
}

// ListVenuesWithoutName returns the codes of venues whose page has not been read yet
func (s *Store) ListVenuesWithoutName(ctx context.Context) ([]string, error) {
	var out []string
	if err := s.db.SelectContext(ctx, &out, `SELECT code FROM venues WHERE name IS NULL ORDER BY id`); err != nil {
		return nil, dbError("list venues without name", err)
	}
	return out, nil
}

// ReportRef is a match whose acta should be fetched, with everything its URL needs
type ReportRef struct {
	GroupID         int64   `db:"group_id"`
	GroupSlug       string  `db:"group_slug"`
	CompetitionSlug string  `db:"competition_slug"`
	Abbreviation    *string `db:"abbreviation"`
	LocalTeamID     int64   `db:"local_team_id"`
	LocalSlug       *string `db:"local_slug"`
	VisitorTeamID   int64   `db:"visitor_team_id"`
	VisitorSlug     *string `db:"visitor_slug"`
	Jornada         int     `db:"jornada"`
}

// ListPendingReports returns the matches whose acta still has to be read: every match of the
// season with wholeSeason, otherwise those not Finished whose date is unknown or before today.
func (s *Store) ListPendingReports(ctx context.Context, season string, wholeSeason bool, today time.Time) ([]ReportRef, error) {
	query := `
		SELECT g.id AS group_id, g.slug AS group_slug,
		       c.slug AS competition_slug, c.abbreviation,
		       m.local_team_id, lt.slug AS local_slug,
		       m.visitor_team_id, vt.slug AS visitor_slug,
		       m.jornada
		FROM matches m
		JOIN competition_groups g ON g.id = m.group_id
		JOIN competitions c ON c.id = g.competition_id
		JOIN teams lt ON lt.id = m.local_team_id
		JOIN teams vt ON vt.id = m.visitor_team_id
		WHERE g.season = ?`
	args := []interface{}{season}
	if !wholeSeason {
		query += `
		  AND (m.status IS NULL OR m.status <> 'Finished')
		  AND (m.match_date IS NULL OR m.match_date < ?)`
		args = append(args, today.Format("2006-01-02"))
	}
	query += ` ORDER BY m.id`

	var out []ReportRef
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(query), args...); err != nil {
		return nil, dbError("list pending reports", err)
	}
	return out, nil
}
