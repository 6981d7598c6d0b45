package store

import (
	"context"
	"fmt"

	"github.com/Sriram-PR/fcf-scraper/pkg/models"
	"github.com/Sriram-PR/fcf-scraper/pkg/utils"
)

// Lineups, staff assignments and events are rows derived from one acta. They have no natural
// key: every insert appends, and DeleteDerivedRows is the only way to replace them.

// LineupRow is one player's presence in a match
type LineupRow struct {
	MatchID     int64 `db:"match_id"`
	TeamID      int64 `db:"team_id"`
	PlayerID    int64 `db:"player_id"`
	Starter     bool  `db:"starter"`
	ShirtNumber *int  `db:"shirt_number"`
}

// StaffAssignmentRow is one staff member on a match sheet
type StaffAssignmentRow struct {
	MatchID int64  `db:"match_id"`
	TeamID  int64  `db:"team_id"`
	StaffID int64  `db:"staff_id"`
	Role    string `db:"role"`
}

// EventRow is a goal or card. TeamID is nil for goals that could not be attributed.
type EventRow struct {
	MatchID  int64            `db:"match_id"`
	PlayerID int64            `db:"player_id"`
	TeamID   *int64           `db:"team_id"`
	Minute   *int             `db:"minute"`
	Kind     models.EventKind `db:"kind"`
}

func (s *Store) InsertLineup(ctx context.Context, r LineupRow) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO lineups (match_id, team_id, player_id, starter, shirt_number)
		VALUES (:match_id, :team_id, :player_id, :starter, :shirt_number)`, r)
	if err != nil {
		return dbError("insert lineup", err)
	}
	return nil
}

func (s *Store) InsertStaffAssignment(ctx context.Context, r StaffAssignmentRow) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO staff_assignments (match_id, team_id, staff_id, role)
		VALUES (:match_id, :team_id, :staff_id, :role)`, r)
	if err != nil {
		return dbError("insert staff assignment", err)
	}
	return nil
}

func (s *Store) InsertEvent(ctx context.Context, r EventRow) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO match_events (match_id, player_id, team_id, minute, kind)
		VALUES (:match_id, :player_id, :team_id, :minute, :kind)`, r)
	if err != nil {
		return dbError("insert event", err)
	}
	return nil
}

// DeleteDerivedRows removes the lineups, staff assignments and events of a match in one transaction
func (s *Store) DeleteDerivedRows(ctx context.Context, matchID int64) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return dbError("begin delete derived rows", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.log.WithError(rbErr).Warn("Rollback failed")
			}
		}
	}()

	for _, table := range []string{"lineups", "staff_assignments", "match_events"} {
		if _, err = tx.ExecContext(ctx, tx.Rebind("DELETE FROM "+table+" WHERE match_id = ?"), matchID); err != nil {
			return dbError(fmt.Sprintf("delete %s of match %d", table, matchID), err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit delete derived rows: %w", utils.ErrDatabase, err)
	}
	return nil
}

// DerivedCounts is the number of derived rows stored for a match
type DerivedCounts struct {
	Lineups          int `db:"lineups"`
	StaffAssignments int `db:"staff_assignments"`
	Events           int `db:"events"`
}

// CountDerivedRows reports how many derived rows a match has
func (s *Store) CountDerivedRows(ctx context.Context, matchID int64) (DerivedCounts, error) {
	var c DerivedCounts
	err := s.db.GetContext(ctx, &c, s.db.Rebind(`
		SELECT
			(SELECT COUNT(*) FROM lineups WHERE match_id = ?) AS lineups,
			(SELECT COUNT(*) FROM staff_assignments WHERE match_id = ?) AS staff_assignments,
			(SELECT COUNT(*) FROM match_events WHERE match_id = ?) AS events`),
		matchID, matchID, matchID)
	if err != nil {
		return c, dbError("count derived rows", err)
	}
	return c, nil
}

// ListEvents returns the events of a match in insertion order
func (s *Store) ListEvents(ctx context.Context, matchID int64) ([]EventRow, error) {
	var out []EventRow
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(`
		SELECT match_id, player_id, team_id, minute, kind
		FROM match_events WHERE match_id = ? ORDER BY id`), matchID)
	if err != nil {
		return nil, dbError("list events", err)
	}
	return out, nil
}
