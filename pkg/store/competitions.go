package store

import (
	"context"
	"fmt"

	"github.com/Sriram-PR/fcf-scraper/pkg/models"
)

// UpsertCompetition resolves a competition by its external code. The abbreviation is
// owned by the calendar step and is never touched here.
func (s *Store) UpsertCompetition(ctx context.Context, c models.Competition) (int64, error) {
	return s.getID(ctx, "upsert competition "+c.Code, `
		INSERT INTO competitions (code, name, slug, category, max_age, organizer, level)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (code) DO UPDATE SET
			name      = excluded.name,
			slug      = excluded.slug,
			category  = COALESCE(excluded.category, competitions.category),
			max_age   = COALESCE(excluded.max_age, competitions.max_age),
			organizer = excluded.organizer,
			level     = COALESCE(excluded.level, competitions.level)
		RETURNING id`,
		c.Code, c.Name, c.Slug, c.Category, c.MaxAge, c.Organizer, c.Level)
}

// SetCompetitionAbbreviation stores the abbreviation read from a calendar acta link
func (s *Store) SetCompetitionAbbreviation(ctx context.Context, competitionID int64, abbreviation string) error {
	_, err := s.exec(ctx, fmt.Sprintf("set abbreviation of competition %d", competitionID),
		`UPDATE competitions SET abbreviation = ? WHERE id = ?`, abbreviation, competitionID)
	return err
}

// ListCompetitions returns every stored competition ordered by id
func (s *Store) ListCompetitions(ctx context.Context) ([]models.Competition, error) {
	var out []models.Competition
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, code, name, slug, category, max_age, organizer, level, abbreviation
		FROM competitions ORDER BY id`)
	if err != nil {
		return nil, dbError("list competitions", err)
	}
	return out, nil
}

// UpsertGroup resolves a group by (competition, number, season); region and slug are refreshed
func (s *Store) UpsertGroup(ctx context.Context, g models.Group) (int64, error) {
	return s.getID(ctx, fmt.Sprintf("upsert group %d of competition %d", g.Number, g.CompetitionID), `
		INSERT INTO competition_groups (competition_id, number, season, region, slug)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (competition_id, number, season) DO UPDATE SET
			region = COALESCE(excluded.region, competition_groups.region),
			slug   = excluded.slug
		RETURNING id`,
		g.CompetitionID, g.Number, g.Season, g.Region, g.Slug)
}

// GroupRef is a group joined with the competition fields its URLs need
type GroupRef struct {
	GroupID         int64   `db:"group_id"`
	Number          int     `db:"number"`
	Slug            string  `db:"slug"`
	CompetitionID   int64   `db:"competition_id"`
	CompetitionCode string  `db:"competition_code"`
	CompetitionSlug string  `db:"competition_slug"`
	Abbreviation    *string `db:"abbreviation"`
}

// ListGroups returns the groups of a season with their competition
func (s *Store) ListGroups(ctx context.Context, season string) ([]GroupRef, error) {
	var out []GroupRef
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(`
		SELECT g.id AS group_id, g.number, g.slug,
		       c.id AS competition_id, c.code AS competition_code, c.slug AS competition_slug,
		       c.abbreviation
		FROM competition_groups g
		JOIN competitions c ON c.id = g.competition_id
		WHERE g.season = ?
		ORDER BY g.id`), season)
	if err != nil {
		return nil, dbError("list groups", err)
	}
	return out, nil
}
