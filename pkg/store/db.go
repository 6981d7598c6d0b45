// Package store is the relational side of the scraper: schema migrations, the
// upsert-returning entity resolver and the worklists that drive each crawl target.
// Queries are written with '?' placeholders and rebound for the active driver.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/fcf-scraper/pkg/utils"
)

// Store wraps the sqlx handle shared by every worker. All methods are safe for concurrent use.
type Store struct {
	db  *sqlx.DB
	log *logrus.Entry
}

// Open connects to Postgres and verifies the connection
func Open(ctx context.Context, dsn string, maxConns int, logger *logrus.Entry) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: database url is empty", utils.ErrConfigValidation)
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %w", utils.ErrDatabase, err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	return New(db, logger), nil
}

// New wraps an existing handle (used by tests with an in-memory engine)
func New(db *sqlx.DB, logger *logrus.Entry) *Store {
	return &Store{db: db, log: logger.WithField("component", "store")}
}

// DB exposes the underlying handle
func (s *Store) DB() *sqlx.DB { return s.db }

// Close releases the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

// getID runs a statement that returns a single id column
func (s *Store) getID(ctx context.Context, op, query string, args ...interface{}) (int64, error) {
	var id int64
	if err := s.db.GetContext(ctx, &id, s.db.Rebind(query), args...); err != nil {
		return 0, dbError(op, err)
	}
	return id, nil
}

func (s *Store) exec(ctx context.Context, op, query string, args ...interface{}) (sql.Result, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, dbError(op, err)
	}
	return res, nil
}

// dbError tags store faults; a missing row becomes a lookup miss
func dbError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", utils.ErrLookupMiss, op)
	}
	return fmt.Errorf("%w: %s: %w", utils.ErrDatabase, op, err)
}
