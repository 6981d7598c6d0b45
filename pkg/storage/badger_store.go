package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/fcf-scraper/pkg/log"
	"github.com/Sriram-PR/fcf-scraper/pkg/models"
	"github.com/Sriram-PR/fcf-scraper/pkg/normalize"
	"github.com/Sriram-PR/fcf-scraper/pkg/utils"
)

const (
	requestKeyPrefix = "page:"    // Prefix for request keys in DB
	crawlDBDir       = "crawl_db" // Subdirectory name within stateDir for Badger DB files
)

// BadgerStore implements CrawlState using BadgerDB
type BadgerStore struct {
	db       *badger.DB
	log      *logrus.Entry
	keyCount atomic.Int64 // Cached key count
}

// NewBadgerStore opens the crawl state for one season under stateDir.
// Without resume the existing state for that season is removed first.
func NewBadgerStore(stateDir, season string, resume bool, logger *logrus.Entry) (*BadgerStore, error) {
	store := &BadgerStore{log: logger}

	dirName := crawlDBDir
	if slug := normalize.Slugify(season); slug != "" {
		dirName = slug + "_" + crawlDBDir
	}
	dbPath := filepath.Join(stateDir, dirName)

	if !resume {
		logger.Warnf("Resume flag is false. REMOVING existing state directory: %s", dbPath)
		if err := os.RemoveAll(dbPath); err != nil {
			logger.Errorf("Failed to remove existing state directory %s: %v", dbPath, err)
		}
	}

	logger.Infof("Initializing crawl state database at: %s (Resume: %v)", dbPath, resume)

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("cannot create state directory %s: %w", dbPath, err)
	}

	opts := badger.DefaultOptions(dbPath).
		WithLogger(log.NewBadgerAdapter(logger)).
		WithNumVersionsToKeep(1)

	var err error
	store.db, err = badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger database at %s: %w", utils.ErrDatabase, dbPath, err)
	}

	if resume {
		count, err := store.countKeys()
		if err != nil {
			logger.Warnf("Failed to count existing keys on resume: %v", err)
		} else {
			store.keyCount.Store(int64(count))
			logger.Infof("Loaded %d request records on resume", count)
		}
	}
	return store, nil
}

func (s *BadgerStore) countKeys() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(requestKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

const maxConflictRetries = 10

// dbUpdate retries db.Update on badger.ErrConflict; concurrent workers may touch the same key.
func (s *BadgerStore) dbUpdate(fn func(txn *badger.Txn) error) error {
	for i := range maxConflictRetries {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debugf("BadgerDB transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	return fmt.Errorf("%w: transaction conflict not resolved after %d retries", utils.ErrDatabase, maxConflictRetries)
}

// CheckRequest implements RequestStore
func (s *BadgerStore) CheckRequest(key string) (models.PageStatus, *models.PageDBEntry, error) {
	status := models.PageStatusNotFound
	var entry *models.PageDBEntry
	dbKey := []byte(requestKeyPrefix + key)

	errView := s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get(dbKey)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return nil
		}
		if errGet != nil {
			return fmt.Errorf("%w: get key '%s': %w", utils.ErrDatabase, key, errGet)
		}
		return item.Value(func(val []byte) error {
			var decoded models.PageDBEntry
			if errJSON := json.Unmarshal(val, &decoded); errJSON != nil {
				// A corrupt record is treated as never seen so the request is redone
				s.log.Warnf("Failed to unmarshal PageDBEntry for key '%s': %v", key, errJSON)
				return nil
			}
			entry = &decoded
			status = decoded.Status
			return nil
		})
	})

	if errView != nil {
		s.log.Errorf("DB View error in CheckRequest for key '%s': %v", key, errView)
		return models.PageStatusDBError, nil, errView
	}
	return status, entry, nil
}

// RecordRequest implements RequestStore
func (s *BadgerStore) RecordRequest(key string, entry *models.PageDBEntry) error {
	dbKey := []byte(requestKeyPrefix + key)

	entryBytes, errJSON := json.Marshal(entry)
	if errJSON != nil {
		return fmt.Errorf("%w: marshal PageDBEntry for key '%s': %w", utils.ErrParsing, key, errJSON)
	}

	isNew := false
	err := s.dbUpdate(func(txn *badger.Txn) error {
		isNew = false
		if _, errGet := txn.Get(dbKey); errors.Is(errGet, badger.ErrKeyNotFound) {
			isNew = true
		}
		return txn.SetEntry(badger.NewEntry(dbKey, entryBytes))
	})
	if err != nil {
		s.log.WithField("key", key).Errorf("DB Update error in RecordRequest: %v", err)
		return fmt.Errorf("%w: set status for key '%s': %w", utils.ErrDatabase, key, err)
	}
	if isNew {
		s.keyCount.Add(1)
	}

	s.log.WithFields(logrus.Fields{"key": key, "status": entry.Status}).Debug("Recorded request status")
	return nil
}

// ContentHash implements RequestStore. Only successful records carry a usable hash.
func (s *BadgerStore) ContentHash(key string) (string, bool, error) {
	status, entry, err := s.CheckRequest(key)
	if err != nil {
		return "", false, err
	}
	if status == models.PageStatusSuccess && entry != nil && entry.ContentHash != "" {
		return entry.ContentHash, true, nil
	}
	return "", false, nil
}

// Count implements StoreAdmin
func (s *BadgerStore) Count() int {
	return int(s.keyCount.Load())
}

// Failures implements StoreAdmin. An empty target matches every target.
func (s *BadgerStore) Failures(ctx context.Context, target models.Target) ([]string, error) {
	var keys []string
	prefix := []byte(requestKeyPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			key := string(item.Key()[len(prefix):])

			errValue := item.Value(func(val []byte) error {
				var entry models.PageDBEntry
				if err := json.Unmarshal(val, &entry); err != nil {
					s.log.Warnf("Failures scan: skipping undecodable record '%s': %v", key, err)
					return nil
				}
				if entry.Status == models.PageStatusFailure && (target == "" || entry.Target == target) {
					keys = append(keys, key)
				}
				return nil
			})
			if errValue != nil {
				return errValue
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: scanning failures: %w", utils.ErrDatabase, err)
	}
	return keys, err
}

// RunGC runs BadgerDB's value log garbage collection every interval until ctx is done
func (s *BadgerStore) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.db == nil || s.db.IsClosed() {
				continue
			}
			var err error
			for err == nil {
				err = s.db.RunValueLogGC(0.5)
			}
			if !errors.Is(err, badger.ErrNoRewrite) {
				s.log.Errorf("BadgerDB GC error: %v", err)
			}
		case <-ctx.Done():
			s.log.Debugf("Stopping BadgerDB GC: %v", ctx.Err())
			return
		}
	}
}

// Close implements StoreAdmin
func (s *BadgerStore) Close() error {
	if s.db == nil || s.db.IsClosed() {
		return nil
	}
	if err := s.db.Close(); err != nil {
		s.log.Errorf("Error closing crawl state DB: %v", err)
		return err
	}
	s.log.Info("Crawl state DB closed.")
	return nil
}

var _ CrawlState = (*BadgerStore)(nil)
