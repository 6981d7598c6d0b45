package store

import (
	"context"
	"fmt"

	"github.com/Sriram-PR/fcf-scraper/pkg/models"
)

// InsertFixture stores a calendar entry. inserted is false when the fixture already existed.
func (s *Store) InsertFixture(ctx context.Context, f models.Fixture) (inserted bool, err error) {
	res, err := s.exec(ctx, "insert fixture", `
		INSERT INTO matches (group_id, local_team_id, visitor_team_id, jornada)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (local_team_id, visitor_team_id, jornada, group_id) DO NOTHING`,
		f.GroupID, f.LocalTeamID, f.VisitorTeamID, f.Jornada)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, dbError("insert fixture rows affected", err)
	}
	return n > 0, nil
}

// MatchUpdate carries the acta header fields. Nil fields keep the stored value.
type MatchUpdate struct {
	Status       *models.MatchStatus
	GoalsLocal   *int
	GoalsVisitor *int
	VenueID      *int64
	RefereeID    *int64
	Date         *string
	Time         *string
}

// matchByKey selects the fixture an acta belongs to. Without a jornada the earliest
// fixture of the pairing in the group wins.
const matchByKey = `
	SELECT id FROM matches
	WHERE local_team_id = ? AND visitor_team_id = ? AND group_id = ?
	  AND (? = 0 OR jornada = ?)
	ORDER BY jornada LIMIT 1`

func keyArgs(key models.MatchKey) []interface{} {
	return []interface{}{key.LocalTeamID, key.VisitorTeamID, key.GroupID, key.Jornada, key.Jornada}
}

func keyOp(op string, key models.MatchKey) string {
	return fmt.Sprintf("%s %d-%d group %d jornada %d", op, key.LocalTeamID, key.VisitorTeamID, key.GroupID, key.Jornada)
}

// MatchID resolves key to its match id. No matching fixture is a lookup miss.
func (s *Store) MatchID(ctx context.Context, key models.MatchKey) (int64, error) {
	return s.getID(ctx, keyOp("match id", key), matchByKey, keyArgs(key)...)
}

// UpdateMatch COALESCE-updates the match identified by key and returns its id.
// No matching fixture is a lookup miss.
func (s *Store) UpdateMatch(ctx context.Context, key models.MatchKey, u MatchUpdate) (int64, error) {
	var status *string
	if u.Status != nil {
		st := string(*u.Status)
		status = &st
	}
	args := []interface{}{status, u.GoalsLocal, u.GoalsVisitor, u.VenueID, u.RefereeID, u.Date, u.Time}
	return s.getID(ctx, keyOp("update match", key), `
		UPDATE matches SET
			status        = COALESCE(?, status),
			goals_local   = COALESCE(?, goals_local),
			goals_visitor = COALESCE(?, goals_visitor),
			venue_id      = COALESCE(?, venue_id),
			referee_id    = COALESCE(?, referee_id),
			match_date    = COALESCE(?, match_date),
			match_time    = COALESCE(?, match_time)
		WHERE id = (`+matchByKey+`)
		RETURNING id`,
		append(args, keyArgs(key)...)...)
}

// MatchStatus returns the stored status of a match (nil when never set)
func (s *Store) MatchStatus(ctx context.Context, key models.MatchKey) (*models.MatchStatus, error) {
	var status *string
	err := s.db.GetContext(ctx, &status, s.db.Rebind(`
		SELECT status FROM matches WHERE id = (`+matchByKey+`)`),
		keyArgs(key)...)
	if err != nil {
		return nil, dbError(keyOp("match status", key), err)
	}
	if status == nil {
		return nil, nil
	}
	st := models.MatchStatus(*status)
	return &st, nil
}

// MatchRow is the stored state of a match
type MatchRow struct {
	ID            int64   `db:"id"`
	GroupID       int64   `db:"group_id"`
	LocalTeamID   int64   `db:"local_team_id"`
	VisitorTeamID int64   `db:"visitor_team_id"`
	Jornada       int     `db:"jornada"`
	Status        *string `db:"status"`
	GoalsLocal    *int    `db:"goals_local"`
	GoalsVisitor  *int    `db:"goals_visitor"`
	VenueID       *int64  `db:"venue_id"`
	RefereeID     *int64  `db:"referee_id"`
}

// GetMatch loads a match by id
func (s *Store) GetMatch(ctx context.Context, id int64) (*MatchRow, error) {
	var m MatchRow
	err := s.db.GetContext(ctx, &m, s.db.Rebind(`
		SELECT id, group_id, local_team_id, visitor_team_id, jornada, status,
		       goals_local, goals_visitor, venue_id, referee_id
		FROM matches WHERE id = ?`), id)
	if err != nil {
		return nil, dbError(fmt.Sprintf("get match %d", id), err)
	}
	return &m, nil
}

// CountMatches returns how many fixtures a group has
func (s *Store) CountMatches(ctx context.Context, groupID int64) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(*) FROM matches WHERE group_id = ?`), groupID); err != nil {
		return 0, dbError("count matches", err)
	}
	return n, nil
}
