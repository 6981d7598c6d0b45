// Package merge applies a parsed acta to the store: one COALESCE update of the match
// row, then the lineups, staff assignments and events derived from the report.
package merge

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/fcf-scraper/pkg/config"
	"github.com/Sriram-PR/fcf-scraper/pkg/models"
	"github.com/Sriram-PR/fcf-scraper/pkg/normalize"
	"github.com/Sriram-PR/fcf-scraper/pkg/store"
	"github.com/Sriram-PR/fcf-scraper/pkg/utils"
)

// Store is the subset of the relational store the merger writes through
type Store interface {
	UpsertVenue(ctx context.Context, v models.Venue) (int64, error)
	UpsertReferee(ctx context.Context, r models.Referee) (int64, error)
	UpsertPlayer(ctx context.Context, n models.PersonName) (int64, error)
	UpsertStaff(ctx context.Context, n models.PersonName) (int64, error)
	AddPlayerMembership(ctx context.Context, playerID, teamID int64) error
	AddStaffMembership(ctx context.Context, staffID, teamID int64) error
	MatchID(ctx context.Context, key models.MatchKey) (int64, error)
	MatchStatus(ctx context.Context, key models.MatchKey) (*models.MatchStatus, error)
	UpdateMatch(ctx context.Context, key models.MatchKey, u store.MatchUpdate) (int64, error)
	DeleteDerivedRows(ctx context.Context, matchID int64) error
	InsertLineup(ctx context.Context, r store.LineupRow) error
	InsertStaffAssignment(ctx context.Context, r store.StaffAssignmentRow) error
	InsertEvent(ctx context.Context, r store.EventRow) error
}

// Options control how derived rows and stale statuses are handled
type Options struct {
	DerivedRows     config.DerivedRowsMode
	ProtectFinished bool
}

// OptionsFromConfig reads the merge options of the application config
func OptionsFromConfig(cfg *config.AppConfig) Options {
	return Options{DerivedRows: cfg.DerivedRows, ProtectFinished: cfg.ProtectFinished}
}

// MergeResult counts what one report wrote
type MergeResult struct {
	MatchID          int64
	Lineups          int
	StaffAssignments int
	Events           int
	Skipped          int  // rows intentionally not stored (unknown card, card without shirt number)
	Failed           int  // rows whose insert failed; logged and skipped
	Replaced         bool // existing derived rows were deleted first
	StatusProtected  bool // an incoming Pending was ignored over a stored Finished
}

// Merger applies reports. It holds no per-report state and is safe to share between workers.
type Merger struct {
	store Store
	opts  Options
	log   *logrus.Entry
}

// NewMerger creates a Merger
func NewMerger(s Store, opts Options, logger *logrus.Entry) *Merger {
	if opts.DerivedRows == "" {
		opts.DerivedRows = config.DerivedRowsAppend
	}
	return &Merger{store: s, opts: opts, log: logger.WithField("component", "merge")}
}

// Merge writes report r onto the match identified by key. An error means the match row
// could not be updated and nothing derived was written; row-level failures are only counted.
func (m *Merger) Merge(ctx context.Context, key models.MatchKey, r *models.Report) (MergeResult, error) {
	var res MergeResult
	log := m.log.WithFields(logrus.Fields{
		"group_id":   key.GroupID,
		"local_id":   key.LocalTeamID,
		"visitor_id": key.VisitorTeamID,
		"jornada":    key.Jornada,
	})

	if _, err := m.store.MatchID(ctx, key); err != nil {
		return res, fmt.Errorf("resolve match: %w", err)
	}

	update, protected, err := m.matchUpdate(ctx, key, r, log)
	if err != nil {
		return res, err
	}
	res.StatusProtected = protected

	matchID, err := m.store.UpdateMatch(ctx, key, update)
	if err != nil {
		return res, fmt.Errorf("update match: %w", err)
	}
	res.MatchID = matchID
	log = log.WithField("match_id", matchID)

	if m.opts.DerivedRows == config.DerivedRowsReplace {
		if err := m.store.DeleteDerivedRows(ctx, matchID); err != nil {
			return res, fmt.Errorf("replace derived rows: %w", err)
		}
		res.Replaced = true
	}

	sides := []struct {
		side   models.Side
		teamID int64
	}{
		{models.SideHome, key.LocalTeamID},
		{models.SideAway, key.VisitorTeamID},
	}
	for _, sd := range sides {
		sheet := r.Sheet(sd.side)
		slog := log.WithField("side", sd.side)
		m.mergeLineups(ctx, matchID, sd.teamID, sheet, &res, slog)
		m.mergeStaff(ctx, matchID, sd.teamID, sheet.Staff, &res, slog)
		m.mergeCards(ctx, matchID, sd.teamID, sheet.Cards, &res, slog)
	}
	m.mergeGoals(ctx, matchID, key, r.Goals, &res, log)

	log.WithFields(logrus.Fields{
		"lineups": res.Lineups,
		"staff":   res.StaffAssignments,
		"events":  res.Events,
		"skipped": res.Skipped,
		"failed":  res.Failed,
	}).Info("Report merged")
	return res, nil
}

// matchUpdate resolves the venue and referee and applies the stale-status guard
func (m *Merger) matchUpdate(ctx context.Context, key models.MatchKey, r *models.Report, log *logrus.Entry) (store.MatchUpdate, bool, error) {
	u := store.MatchUpdate{
		Status:       r.Status,
		GoalsLocal:   r.GoalsLocal,
		GoalsVisitor: r.GoalsVisitor,
		Date:         r.Date,
		Time:         r.Time,
	}

	if r.VenueCode != nil {
		id, err := m.store.UpsertVenue(ctx, models.Venue{Code: *r.VenueCode})
		if err != nil {
			return u, false, fmt.Errorf("resolve venue: %w", err)
		}
		u.VenueID = &id
	} else {
		log.Debug("No venue code in acta")
	}

	if r.Referee != nil {
		id, err := m.store.UpsertReferee(ctx, *r.Referee)
		if err != nil {
			return u, false, fmt.Errorf("resolve referee: %w", err)
		}
		u.RefereeID = &id
	} else {
		log.Debug("No referee in acta")
	}

	protected := false
	if m.opts.ProtectFinished && r.Status != nil && *r.Status == models.StatusPending {
		current, err := m.store.MatchStatus(ctx, key)
		if err != nil {
			return u, false, fmt.Errorf("read match status: %w", err)
		}
		if current != nil && *current == models.StatusFinished {
			log.Warn("Stale Pending status ignored for a Finished match")
			u.Status = nil
			protected = true
		}
	}
	return u, protected, nil
}

func (m *Merger) mergeLineups(ctx context.Context, matchID, teamID int64, sheet *models.TeamSheet, res *MergeResult, log *logrus.Entry) {
	players := make([]models.LineupPlayer, 0, len(sheet.Starters)+len(sheet.Substitutes))
	players = append(players, sheet.Starters...)
	players = append(players, sheet.Substitutes...)

	for _, p := range players {
		plog := log.WithField("player", normalize.JoinName(p.Name))
		playerID, err := m.player(ctx, p.Name, &teamID)
		if err == nil {
			err = m.store.InsertLineup(ctx, store.LineupRow{
				MatchID:     matchID,
				TeamID:      teamID,
				PlayerID:    playerID,
				Starter:     p.Starter,
				ShirtNumber: p.ShirtNumber,
			})
		}
		if err != nil {
			m.rowFailed(res, plog, "lineup", err)
			continue
		}
		res.Lineups++
	}
}

func (m *Merger) mergeStaff(ctx context.Context, matchID, teamID int64, staff []models.StaffMember, res *MergeResult, log *logrus.Entry) {
	for _, st := range staff {
		slog := log.WithField("staff", normalize.JoinName(st.Name))
		staffID, err := m.store.UpsertStaff(ctx, st.Name)
		if err == nil {
			err = m.store.AddStaffMembership(ctx, staffID, teamID)
		}
		if err == nil {
			err = m.store.InsertStaffAssignment(ctx, store.StaffAssignmentRow{
				MatchID: matchID,
				TeamID:  teamID,
				StaffID: staffID,
				Role:    st.Role,
			})
		}
		if err != nil {
			m.rowFailed(res, slog, "staff assignment", err)
			continue
		}
		res.StaffAssignments++
	}
}

// mergeCards stores player cards. Cards on the bench staff carry no shirt number and are skipped.
func (m *Merger) mergeCards(ctx context.Context, matchID, teamID int64, cards []models.Card, res *MergeResult, log *logrus.Entry) {
	for _, c := range cards {
		clog := log.WithFields(logrus.Fields{"player": normalize.JoinName(c.Player), "card": c.Label})
		if c.Kind == nil {
			clog.Debug("Unknown card type, dropped")
			res.Skipped++
			continue
		}
		if c.ShirtNumber == nil {
			clog.Debug("Card without shirt number, skipped")
			res.Skipped++
			continue
		}
		playerID, err := m.player(ctx, c.Player, &teamID)
		if err == nil {
			err = m.store.InsertEvent(ctx, store.EventRow{
				MatchID:  matchID,
				PlayerID: playerID,
				TeamID:   &teamID,
				Minute:   c.Minute,
				Kind:     *c.Kind,
			})
		}
		if err != nil {
			m.rowFailed(res, clog, "card", err)
			continue
		}
		res.Events++
	}
}

// mergeGoals stores goals with the team their crest points to. Unattributed goals keep a nil team.
func (m *Merger) mergeGoals(ctx context.Context, matchID int64, key models.MatchKey, goals []models.Goal, res *MergeResult, log *logrus.Entry) {
	for _, g := range goals {
		glog := log.WithFields(logrus.Fields{"scorer": normalize.JoinName(g.Scorer), "goal": g.Type})
		var teamID *int64
		switch g.Side {
		case models.SideHome:
			teamID = &key.LocalTeamID
		case models.SideAway:
			teamID = &key.VisitorTeamID
		}
		playerID, err := m.player(ctx, g.Scorer, teamID)
		if err == nil {
			err = m.store.InsertEvent(ctx, store.EventRow{
				MatchID:  matchID,
				PlayerID: playerID,
				TeamID:   teamID,
				Minute:   g.Minute,
				Kind:     g.Kind,
			})
		}
		if err != nil {
			m.rowFailed(res, glog, "goal", err)
			continue
		}
		res.Events++
	}
}

// player resolves a player and, when the team is known, records the membership
func (m *Merger) player(ctx context.Context, name models.PersonName, teamID *int64) (int64, error) {
	if name.IsZero() {
		return 0, fmt.Errorf("%w: player name", utils.ErrMissingData)
	}
	id, err := m.store.UpsertPlayer(ctx, name)
	if err != nil {
		return 0, err
	}
	if teamID != nil {
		if err := m.store.AddPlayerMembership(ctx, id, *teamID); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (m *Merger) rowFailed(res *MergeResult, log *logrus.Entry, row string, err error) {
	res.Failed++
	log.WithFields(logrus.Fields{
		"row":        row,
		"error_type": utils.CategorizeError(err),
	}).WithError(err).Warn("Derived row not stored")
}
