// Package storetest opens an in-memory SQLite database carrying the same schema as
// the Postgres migrations, for store and merge tests.
package storetest

import (
	"context"
	"io"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/fcf-scraper/pkg/models"
	"github.com/Sriram-PR/fcf-scraper/pkg/store"
)

// Schema is the SQLite rendition of migrations/0001_init.up.sql. The two change together:
// same tables, columns and keys, with SQLite types.
const Schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE competitions (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    code         TEXT NOT NULL UNIQUE,
    name         TEXT NOT NULL,
    slug         TEXT NOT NULL,
    category     TEXT,
    max_age      INTEGER,
    organizer    TEXT NOT NULL,
    level        INTEGER,
    abbreviation TEXT
);

CREATE TABLE competition_groups (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    competition_id INTEGER NOT NULL REFERENCES competitions(id) ON DELETE CASCADE,
    number         INTEGER NOT NULL,
    season         TEXT NOT NULL,
    region         TEXT,
    slug           TEXT NOT NULL,
    UNIQUE (competition_id, number, season)
);

CREATE TABLE clubs (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    slug       TEXT NOT NULL UNIQUE,
    name       TEXT,
    locality   TEXT,
    delegation TEXT,
    province   TEXT
);

CREATE TABLE teams (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    club_id  INTEGER NOT NULL REFERENCES clubs(id) ON DELETE CASCADE,
    group_id INTEGER NOT NULL REFERENCES competition_groups(id) ON DELETE CASCADE,
    level    INTEGER NOT NULL DEFAULT 1,
    category TEXT,
    slug     TEXT,
    UNIQUE (club_id, group_id, level)
);

CREATE TABLE venues (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    code     TEXT NOT NULL UNIQUE,
    name     TEXT,
    terrain  TEXT,
    address  TEXT,
    locality TEXT,
    province TEXT
);

CREATE TABLE referees (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    first_name TEXT NOT NULL,
    last_name  TEXT NOT NULL,
    delegation TEXT NOT NULL DEFAULT '',
    UNIQUE (first_name, last_name, delegation)
);

CREATE TABLE players (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    first_name TEXT NOT NULL,
    last_name  TEXT NOT NULL,
    UNIQUE (first_name, last_name)
);

CREATE TABLE staff (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    first_name TEXT NOT NULL,
    last_name  TEXT NOT NULL,
    UNIQUE (first_name, last_name)
);

CREATE TABLE player_memberships (
    player_id INTEGER NOT NULL REFERENCES players(id) ON DELETE CASCADE,
    team_id   INTEGER NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
    PRIMARY KEY (player_id, team_id)
);

CREATE TABLE staff_memberships (
    staff_id INTEGER NOT NULL REFERENCES staff(id) ON DELETE CASCADE,
    team_id  INTEGER NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
    PRIMARY KEY (staff_id, team_id)
);

CREATE TABLE matches (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    group_id        INTEGER NOT NULL REFERENCES competition_groups(id) ON DELETE CASCADE,
    local_team_id   INTEGER NOT NULL REFERENCES teams(id),
    visitor_team_id INTEGER NOT NULL REFERENCES teams(id),
    jornada         INTEGER NOT NULL,
    status          TEXT CHECK (status IN ('Pending', 'Finished', 'Suspended')),
    goals_local     INTEGER,
    goals_visitor   INTEGER,
    venue_id        INTEGER REFERENCES venues(id),
    referee_id      INTEGER REFERENCES referees(id),
    match_date      TEXT,
    match_time      TEXT,
    UNIQUE (local_team_id, visitor_team_id, jornada, group_id)
);

CREATE TABLE lineups (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    match_id     INTEGER NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
    team_id      INTEGER NOT NULL REFERENCES teams(id),
    player_id    INTEGER NOT NULL REFERENCES players(id),
    starter      BOOLEAN NOT NULL,
    shirt_number INTEGER
);

CREATE TABLE staff_assignments (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    match_id INTEGER NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
    team_id  INTEGER NOT NULL REFERENCES teams(id),
    staff_id INTEGER NOT NULL REFERENCES staff(id),
    role     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE match_events (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    match_id  INTEGER NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
    player_id INTEGER NOT NULL REFERENCES players(id),
    team_id   INTEGER REFERENCES teams(id),
    minute    INTEGER,
    kind      TEXT NOT NULL CHECK (kind IN ('Goal', 'PenaltyGoal', 'OwnGoal', 'YellowCard', 'SecondYellow', 'RedCard'))
);
`

// Logger returns a logger that discards output
func Logger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

// New returns a Store over a fresh in-memory database, closed when the test ends.
// A single connection keeps every statement on the same in-memory database.
func New(t testing.TB) *store.Store {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec(Schema)
	require.NoError(t, err)

	s := store.New(db, Logger())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Seed is a minimal competition -> group -> two teams graph with one fixture
type Seed struct {
	CompetitionID int64
	GroupID       int64
	HomeClubID    int64
	AwayClubID    int64
	HomeTeamID    int64
	AwayTeamID    int64
}

// SeedFixture stores "girona-fc-a" vs "figueres-ue-a" on jornada 1 of a Juvenil group
func SeedFixture(t testing.TB, s *store.Store) Seed {
	t.Helper()
	ctx := context.Background()
	category := models.CategoryJuvenil
	var seed Seed
	var err error

	seed.CompetitionID, err = s.UpsertCompetition(ctx, models.Competition{
		Code: "1001", Name: "Lliga Juvenil", Slug: "lliga-juvenil", Category: &category, Organizer: models.OrganizerFCF,
	})
	require.NoError(t, err)
	seed.GroupID, err = s.UpsertGroup(ctx, models.Group{CompetitionID: seed.CompetitionID, Number: 1, Season: "2025-26", Slug: "grup-1"})
	require.NoError(t, err)

	seed.HomeClubID, err = s.UpsertClub(ctx, models.Club{Slug: "girona-fc"})
	require.NoError(t, err)
	seed.AwayClubID, err = s.UpsertClub(ctx, models.Club{Slug: "figueres-ue"})
	require.NoError(t, err)

	homeSlug, awaySlug := "girona-fc-a", "figueres-ue-a"
	seed.HomeTeamID, err = s.UpsertTeam(ctx, models.Team{ClubID: seed.HomeClubID, GroupID: seed.GroupID, Level: 1, Slug: &homeSlug})
	require.NoError(t, err)
	seed.AwayTeamID, err = s.UpsertTeam(ctx, models.Team{ClubID: seed.AwayClubID, GroupID: seed.GroupID, Level: 1, Slug: &awaySlug})
	require.NoError(t, err)

	_, err = s.InsertFixture(ctx, models.Fixture{GroupID: seed.GroupID, LocalTeamID: seed.HomeTeamID, VisitorTeamID: seed.AwayTeamID, Jornada: 1})
	require.NoError(t, err)
	return seed
}

// Key identifies the seeded fixture
func (s Seed) Key() models.MatchKey {
	return models.MatchKey{GroupID: s.GroupID, LocalTeamID: s.HomeTeamID, VisitorTeamID: s.AwayTeamID}
}
