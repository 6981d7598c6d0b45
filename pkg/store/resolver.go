package store

import (
	"context"
	"fmt"

	"github.com/Sriram-PR/fcf-scraper/pkg/models"
)

// Every resolve-or-create below is a single INSERT ... ON CONFLICT ... RETURNING statement.
// Conflicting rows merge with COALESCE so a NULL never erases a stored value.

// UpsertClub resolves a club by slug
func (s *Store) UpsertClub(ctx context.Context, c models.Club) (int64, error) {
	return s.getID(ctx, "upsert club "+c.Slug, `
		INSERT INTO clubs (slug, name, locality, delegation, province)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (slug) DO UPDATE SET
			name       = COALESCE(excluded.name, clubs.name),
			locality   = COALESCE(excluded.locality, clubs.locality),
			delegation = COALESCE(excluded.delegation, clubs.delegation),
			province   = COALESCE(excluded.province, clubs.province)
		RETURNING id`,
		c.Slug, c.Name, c.Locality, c.Delegation, c.Province)
}

// GetClub loads a club by slug
func (s *Store) GetClub(ctx context.Context, slug string) (*models.Club, error) {
	var c models.Club
	err := s.db.GetContext(ctx, &c, s.db.Rebind(
		`SELECT id, slug, name, locality, delegation, province FROM clubs WHERE slug = ?`), slug)
	if err != nil {
		return nil, dbError("get club "+slug, err)
	}
	return &c, nil
}

// GroupCategory follows group -> competition to find the category a team inherits
func (s *Store) GroupCategory(ctx context.Context, groupID int64) (*string, error) {
	var category *string
	err := s.db.GetContext(ctx, &category, s.db.Rebind(`
		SELECT c.category
		FROM competition_groups g
		JOIN competitions c ON c.id = g.competition_id
		WHERE g.id = ?`), groupID)
	if err != nil {
		return nil, dbError(fmt.Sprintf("category of group %d", groupID), err)
	}
	return category, nil
}

// UpsertTeam resolves a team by (club, group, level). A nil category is inferred from the group.
func (s *Store) UpsertTeam(ctx context.Context, t models.Team) (int64, error) {
	if t.Level == 0 {
		t.Level = 1
	}
	if t.Category == nil {
		category, err := s.GroupCategory(ctx, t.GroupID)
		if err != nil {
			return 0, err
		}
		t.Category = category
	}
	return s.getID(ctx, fmt.Sprintf("upsert team club=%d group=%d", t.ClubID, t.GroupID), `
		INSERT INTO teams (club_id, group_id, level, category, slug)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (club_id, group_id, level) DO UPDATE SET
			category = COALESCE(excluded.category, teams.category),
			slug     = COALESCE(excluded.slug, teams.slug)
		RETURNING id`,
		t.ClubID, t.GroupID, t.Level, t.Category, t.Slug)
}

// TeamIDBySlug finds a team of a group by its section slug. Missing teams are a lookup miss.
func (s *Store) TeamIDBySlug(ctx context.Context, groupID int64, slug string) (int64, error) {
	return s.getID(ctx, fmt.Sprintf("team %q in group %d", slug, groupID),
		`SELECT id FROM teams WHERE group_id = ? AND slug = ? ORDER BY id LIMIT 1`, groupID, slug)
}

// UpsertPlayer resolves a player by name. Namesakes share a row.
func (s *Store) UpsertPlayer(ctx context.Context, n models.PersonName) (int64, error) {
	return s.getID(ctx, "upsert player", `
		INSERT INTO players (first_name, last_name) VALUES (?, ?)
		ON CONFLICT (first_name, last_name) DO UPDATE SET first_name = excluded.first_name
		RETURNING id`, n.First, n.Last)
}

// UpsertStaff resolves a staff member by name. Namesakes share a row.
func (s *Store) UpsertStaff(ctx context.Context, n models.PersonName) (int64, error) {
	return s.getID(ctx, "upsert staff", `
		INSERT INTO staff (first_name, last_name) VALUES (?, ?)
		ON CONFLICT (first_name, last_name) DO UPDATE SET first_name = excluded.first_name
		RETURNING id`, n.First, n.Last)
}

// UpsertReferee resolves a referee by (first, last, delegation); an unknown delegation is ""
func (s *Store) UpsertReferee(ctx context.Context, r models.Referee) (int64, error) {
	return s.getID(ctx, "upsert referee", `
		INSERT INTO referees (first_name, last_name, delegation) VALUES (?, ?, ?)
		ON CONFLICT (first_name, last_name, delegation) DO UPDATE SET delegation = excluded.delegation
		RETURNING id`, r.Name.First, r.Name.Last, r.Delegation)
}

// UpsertVenue resolves a venue by code
func (s *Store) UpsertVenue(ctx context.Context, v models.Venue) (int64, error) {
	return s.getID(ctx, "upsert venue "+v.Code, `
		INSERT INTO venues (code, name, terrain, address, locality, province)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (code) DO UPDATE SET
			name     = COALESCE(excluded.name, venues.name),
			terrain  = COALESCE(excluded.terrain, venues.terrain),
			address  = COALESCE(excluded.address, venues.address),
			locality = COALESCE(excluded.locality, venues.locality),
			province = COALESCE(excluded.province, venues.province)
		RETURNING id`,
		v.Code, v.Name, v.Terrain, v.Address, v.Locality, v.Province)
}

// GetVenue loads a venue by code
func (s *Store) GetVenue(ctx context.Context, code string) (*models.Venue, error) {
	var v models.Venue
	err := s.db.GetContext(ctx, &v, s.db.Rebind(
		`SELECT id, code, name, terrain, address, locality, province FROM venues WHERE code = ?`), code)
	if err != nil {
		return nil, dbError("get venue "+code, err)
	}
	return &v, nil
}

// AddPlayerMembership links a player to a team once
func (s *Store) AddPlayerMembership(ctx context.Context, playerID, teamID int64) error {
	_, err := s.exec(ctx, "add player membership", `
		INSERT INTO player_memberships (player_id, team_id) VALUES (?, ?)
		ON CONFLICT DO NOTHING`, playerID, teamID)
	return err
}

// AddStaffMembership links a staff member to a team once
func (s *Store) AddStaffMembership(ctx context.Context, staffID, teamID int64) error {
	_, err := s.exec(ctx, "add staff membership", `
		INSERT INTO staff_memberships (staff_id, team_id) VALUES (?, ?)
		ON CONFLICT DO NOTHING`, staffID, teamID)
	return err
}
