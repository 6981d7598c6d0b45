package storage

import (
	"context"
	"time"

	"github.com/Sriram-PR/fcf-scraper/pkg/models"
)

// RequestStore records the outcome of each request key
type RequestStore interface {
	// CheckRequest returns the stored status and entry for a request key.
	// An unknown key yields PageStatusNotFound and a nil entry.
	CheckRequest(key string) (status models.PageStatus, entry *models.PageDBEntry, err error)

	// RecordRequest stores the entry for a request key, replacing any previous one
	RecordRequest(key string, entry *models.PageDBEntry) error

	// ContentHash returns the body hash of the last successful fetch of key
	ContentHash(key string) (hash string, exists bool, err error)
}

// StoreAdmin handles lifecycle and reporting
type StoreAdmin interface {
	// Count returns the number of request keys recorded
	Count() int

	// Failures lists the request keys of a target whose last attempt failed
	Failures(ctx context.Context, target models.Target) ([]string, error)

	// RunGC runs periodic garbage collection. Should be run in a goroutine
	RunGC(ctx context.Context, interval time.Duration)

	Close() error
}

// CrawlState combines both interfaces
type CrawlState interface {
	RequestStore
	StoreAdmin
}
