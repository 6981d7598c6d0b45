package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/fcf-scraper/pkg/models"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := NewBadgerStore(t.TempDir(), "2526", false, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func successEntry(target models.Target, hash string) *models.PageDBEntry {
	now := time.Now()
	return &models.PageDBEntry{
		Target:      target,
		Status:      models.PageStatusSuccess,
		ProcessedAt: now,
		LastAttempt: now,
		ContentHash: hash,
	}
}

func TestNewBadgerStore(t *testing.T) {
	t.Run("fresh start has zero count", func(t *testing.T) {
		store := newTestStore(t)
		assert.Equal(t, 0, store.Count())
	})

	t.Run("directory named after the season", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewBadgerStore(dir, "2025-26", false, testLogger())
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })

		_, err = os.Stat(filepath.Join(dir, "2025-26_crawl_db"))
		assert.NoError(t, err)
	})

	t.Run("resume preserves data", func(t *testing.T) {
		dir := t.TempDir()

		store1, err := NewBadgerStore(dir, "2526", false, testLogger())
		require.NoError(t, err)
		require.NoError(t, store1.RecordRequest("GET https://www.fcf.cat/camp/1", successEntry(models.TargetVenues, "")))
		require.NoError(t, store1.Close())

		store2, err := NewBadgerStore(dir, "2526", true, testLogger())
		require.NoError(t, err)
		t.Cleanup(func() { store2.Close() })

		assert.Equal(t, 1, store2.Count())
		status, _, err := store2.CheckRequest("GET https://www.fcf.cat/camp/1")
		require.NoError(t, err)
		assert.Equal(t, models.PageStatusSuccess, status)
	})

	t.Run("fresh start wipes data", func(t *testing.T) {
		dir := t.TempDir()

		store1, err := NewBadgerStore(dir, "2526", false, testLogger())
		require.NoError(t, err)
		require.NoError(t, store1.RecordRequest("GET https://www.fcf.cat/camp/1", successEntry(models.TargetVenues, "")))
		require.NoError(t, store1.Close())

		store2, err := NewBadgerStore(dir, "2526", false, testLogger())
		require.NoError(t, err)
		t.Cleanup(func() { store2.Close() })

		assert.Equal(t, 0, store2.Count())
		status, entry, err := store2.CheckRequest("GET https://www.fcf.cat/camp/1")
		require.NoError(t, err)
		assert.Equal(t, models.PageStatusNotFound, status)
		assert.Nil(t, entry)
	})
}

func TestRecordAndCheckRequest(t *testing.T) {
	store := newTestStore(t)
	key := "GET https://www.fcf.cat/acta/2526/futbol-11/x/grup-1/ab/a/ab/b"

	status, entry, err := store.CheckRequest(key)
	require.NoError(t, err)
	assert.Equal(t, models.PageStatusNotFound, status)
	assert.Nil(t, entry)

	failed := &models.PageDBEntry{
		Target:      models.TargetReports,
		Status:      models.PageStatusFailure,
		ErrorType:   "HTTP_5xx",
		LastAttempt: time.Now(),
	}
	require.NoError(t, store.RecordRequest(key, failed))
	assert.Equal(t, 1, store.Count())

	status, entry, err = store.CheckRequest(key)
	require.NoError(t, err)
	assert.Equal(t, models.PageStatusFailure, status)
	require.NotNil(t, entry)
	assert.Equal(t, "HTTP_5xx", entry.ErrorType)
	assert.Equal(t, models.TargetReports, entry.Target)

	// Overwriting does not change the count
	require.NoError(t, store.RecordRequest(key, successEntry(models.TargetReports, "abc")))
	assert.Equal(t, 1, store.Count())
}

func TestContentHash(t *testing.T) {
	store := newTestStore(t)

	_, ok, err := store.ContentHash("GET https://www.fcf.cat/x")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.RecordRequest("GET https://www.fcf.cat/x", successEntry(models.TargetCalendars, "deadbeef")))
	hash, ok, err := store.ContentHash("GET https://www.fcf.cat/x")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "deadbeef", hash)

	// A failed record hides the previous hash
	require.NoError(t, store.RecordRequest("GET https://www.fcf.cat/x", &models.PageDBEntry{
		Target: models.TargetCalendars, Status: models.PageStatusFailure, ContentHash: "deadbeef",
	}))
	_, ok, err = store.ContentHash("GET https://www.fcf.cat/x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFailures(t *testing.T) {
	store := newTestStore(t)

	fail := func(target models.Target) *models.PageDBEntry {
		return &models.PageDBEntry{Target: target, Status: models.PageStatusFailure, LastAttempt: time.Now()}
	}
	require.NoError(t, store.RecordRequest("GET https://www.fcf.cat/camp/1", fail(models.TargetVenues)))
	require.NoError(t, store.RecordRequest("GET https://www.fcf.cat/camp/2", successEntry(models.TargetVenues, "")))
	require.NoError(t, store.RecordRequest("GET https://www.fcf.cat/club/2526/a", fail(models.TargetClubs)))

	venues, err := store.Failures(context.Background(), models.TargetVenues)
	require.NoError(t, err)
	assert.Equal(t, []string{"GET https://www.fcf.cat/camp/1"}, venues)

	all, err := store.Failures(context.Background(), "")
	require.NoError(t, err)
	sort.Strings(all)
	assert.Equal(t, []string{"GET https://www.fcf.cat/camp/1", "GET https://www.fcf.cat/club/2526/a"}, all)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Failures(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentRecord(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := "GET https://www.fcf.cat/camp/" + string(rune('a'+i))
			assert.NoError(t, store.RecordRequest(key, successEntry(models.TargetVenues, "")))
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, store.Count())
}

func TestRunGC_StopsOnCancel(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		store.RunGC(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunGC did not stop on context cancellation")
	}
}

func TestClose_Idempotent(t *testing.T) {
	store, err := NewBadgerStore(t.TempDir(), "2526", false, testLogger())
	require.NoError(t, err)
	require.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
