// Package crawler fetches the pages of one target at a time and hands each parsed
// document to the handler that stores it.
package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/fcf-scraper/pkg/config"
	"github.com/Sriram-PR/fcf-scraper/pkg/fetch"
	"github.com/Sriram-PR/fcf-scraper/pkg/merge"
	"github.com/Sriram-PR/fcf-scraper/pkg/models"
	"github.com/Sriram-PR/fcf-scraper/pkg/parse"
	"github.com/Sriram-PR/fcf-scraper/pkg/storage"
	"github.com/Sriram-PR/fcf-scraper/pkg/store"
	"github.com/Sriram-PR/fcf-scraper/pkg/utils"
)

// progressInterval is how often a running target logs its counters
var progressInterval = 30 * time.Second

// Crawler runs targets against the site. One Crawler is shared by every target of a
// pipeline so robots data and the request gate carry over between them.
type Crawler struct {
	log    *logrus.Entry
	cfg    *config.AppConfig
	routes *Routes

	// Core components
	state   storage.CrawlState
	db      *store.Store
	fetcher *fetch.Fetcher
	gate    *fetch.Gate
	robots  *fetch.RobotsHandler
	merger  *merge.Merger

	// abbreviations remembers the competitions whose abbreviation was written this process
	abbreviations sync.Map

	now func() time.Time
}

// NewCrawler wires a Crawler. cfg must already be validated.
func NewCrawler(
	cfg *config.AppConfig,
	state storage.CrawlState,
	db *store.Store,
	fetcher *fetch.Fetcher,
	gate *fetch.Gate,
	baseLogger *logrus.Entry,
) *Crawler {
	logger := baseLogger.WithField("component", "crawler")
	return &Crawler{
		log:     logger,
		cfg:     cfg,
		routes:  NewRoutes(cfg),
		state:   state,
		db:      db,
		fetcher: fetcher,
		gate:    gate,
		robots:  fetch.NewRobotsHandler(fetcher, gate, cfg.UserAgent, logger),
		merger:  merge.NewMerger(db, merge.OptionsFromConfig(cfg), logger),
		now:     time.Now,
	}
}

// RunStats counts the outcome of one target run
type RunStats struct {
	Target    models.Target
	Queued    int
	Processed int64
	Skipped   int64
	Failed    int64
	Duration  time.Duration
}

// targetRun holds the counters of a single Run call
type targetRun struct {
	target    models.Target
	resume    bool
	processed atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
}

// Run builds the worklist of target from the store, fetches every item on a bounded
// worker pool and blocks until all items are done or ctx is cancelled.
// Item failures are recorded and counted; only setup errors and cancellation are returned.
func (c *Crawler) Run(ctx context.Context, target models.Target, resume bool) (RunStats, error) {
	startTime := time.Now()
	runLog := c.log.WithFields(logrus.Fields{"target": target, "resume": resume})
	stats := RunStats{Target: target}

	items, err := c.worklist(ctx, target)
	if err != nil {
		return stats, fmt.Errorf("building %s worklist: %w", target, err)
	}
	stats.Queued = len(items)
	if len(items) == 0 {
		runLog.Warn("Nothing to fetch for this target")
		return stats, nil
	}

	if resume {
		if failed, ferr := c.state.Failures(ctx, target); ferr != nil {
			runLog.Warnf("Could not scan previous failures: %v", ferr)
		} else if len(failed) > 0 {
			runLog.Infof("Resume mode: %d request(s) failed last time and will be retried", len(failed))
		}
	}

	workers := c.cfg.NumWorkers
	if workers <= 0 {
		workers = 1
	}
	runLog.Infof("Run starting: %d item(s), %d worker(s)", len(items), workers)

	pool, err := ants.NewPool(workers)
	if err != nil {
		return stats, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	run := &targetRun{target: target, resume: resume}

	progDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-progDone:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				runLog.WithFields(logrus.Fields{
					"queued":     len(items),
					"processed":  run.processed.Load(),
					"skipped":    run.skipped.Load(),
					"failed":     run.failed.Load(),
					"state_keys": c.state.Count(),
					"hosts":      c.gate.Hosts(),
				}).Info("Crawl progress")
			}
		}
	}()

	var wg sync.WaitGroup
	for i, item := range items {
		if ctx.Err() != nil {
			runLog.Warnf("Context cancelled, %d item(s) not submitted", len(items)-i)
			break
		}
		item := item
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			c.processItem(ctx, run, item)
		}); err != nil {
			wg.Done()
			close(progDone)
			wg.Wait()
			return stats, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}
	wg.Wait()
	close(progDone)

	stats.Processed = run.processed.Load()
	stats.Skipped = run.skipped.Load()
	stats.Failed = run.failed.Load()
	stats.Duration = time.Since(startTime)

	summaryLog := runLog.WithField("duration", stats.Duration.String())
	summaryLog.Info("========================================================================")
	summaryLog.Infof("TARGET FINISHED: %s", target)
	summaryLog.Infof("Queued: %d, Processed: %d, Skipped: %d, Failed: %d",
		stats.Queued, stats.Processed, stats.Skipped, stats.Failed)
	summaryLog.Info("========================================================================")

	return stats, ctx.Err()
}

// processItem runs the pipeline for one request: resume check, robots, permits, fetch,
// body read, incremental check and the target handler. The outcome is recorded in the
// crawl state unless the item was skipped.
func (c *Crawler) processItem(ctx context.Context, run *targetRun, item models.WorkItem) {
	taskLog := c.log.WithFields(logrus.Fields{"target": item.Target, "url": item.URL})
	startTime := time.Now()

	taskCtx := ctx
	if c.cfg.PerPageTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, c.cfg.PerPageTimeout)
		defer cancel()
	}

	var taskErr error
	var skipped bool
	var requestKey string
	var bodyHash string

	defer func() {
		panicked := false
		if r := recover(); r != nil {
			panicked = true
			skipped = false
			taskErr = fmt.Errorf("panic: %v", r)
			taskLog.WithFields(logrus.Fields{
				"panic_info":  r,
				"duration":    time.Since(startTime).String(),
				"stage":       "PanicRecovery",
				"stack_trace": string(debug.Stack()),
			}).Error("PANIC recovered in processItem")
		}

		logFields := logrus.Fields{"duration": time.Since(startTime).String()}
		entry := &models.PageDBEntry{Target: item.Target, LastAttempt: time.Now()}

		switch {
		case taskErr != nil:
			entry.Status = models.PageStatusFailure
			entry.ErrorType = utils.CategorizeError(taskErr)
			logFields["category"] = entry.ErrorType
			if !panicked {
				taskLog.WithFields(logFields).Warnf("Task failed: %v", taskErr)
			}
			run.failed.Add(1)
		case skipped:
			taskLog.WithFields(logFields).Info("Task skipped")
			run.skipped.Add(1)
		default:
			entry.Status = models.PageStatusSuccess
			entry.ProcessedAt = entry.LastAttempt
			entry.ContentHash = bodyHash
			taskLog.WithFields(logFields).Info("Task completed successfully")
			run.processed.Add(1)
		}

		if skipped {
			return
		}
		if requestKey == "" {
			taskLog.Warn("Request key was not set; cannot record status")
			return
		}
		if err := c.state.RecordRequest(requestKey, entry); err != nil {
			taskLog.Errorf("Failed to record status '%s' for '%s': %v", entry.Status, requestKey, err)
		}
	}()

	// 1. Setup & resume check
	parsedURL, key, shouldSkip, err := c.handleSetupAndResumeCheck(item, run.resume, taskLog)
	requestKey = key
	if err != nil {
		taskErr = err
		return
	}
	if shouldSkip {
		skipped = true
		return
	}
	host := parsedURL.Hostname()
	taskLog = taskLog.WithField("host", host)

	// 2. Policy checks
	if err := c.runPolicyChecks(taskCtx, parsedURL, taskLog); err != nil {
		taskErr = err
		return
	}

	// 3. Permits and politeness delay
	release, err := c.gate.Acquire(taskCtx, host)
	if err != nil {
		taskErr = err
		return
	}
	defer release()

	// 4. Fetch
	resp, err := c.fetchPage(taskCtx, item, taskLog)
	if err != nil {
		taskErr = err
		return
	}

	// 5. Read & parse body
	doc, hash, err := c.readAndParseBody(resp, taskLog)
	if err != nil {
		taskErr = err
		return
	}
	bodyHash = hash

	// 6. Incremental check
	if c.cfg.Incremental && incrementalTarget(item.Target) {
		existingHash, exists, hashErr := c.state.ContentHash(requestKey)
		if hashErr != nil {
			taskLog.Warnf("Failed to check content hash for incremental run: %v", hashErr)
		} else if exists && existingHash == bodyHash {
			taskLog.Info("Page unchanged (hash match) - skipping processing")
			skipped = true
			return
		} else if exists {
			taskLog.Debug("Page content changed - will reprocess")
		}
	}

	// 7. Store what the page says
	taskErr = c.handle(taskCtx, item, doc, taskLog)
}

// resumableTarget reports whether a successful request of target can be skipped on resume.
// Reports and calendars change over the season, so they are always fetched again.
func resumableTarget(t models.Target) bool {
	switch t {
	case models.TargetReports, models.TargetCalendars:
		return false
	}
	return true
}

// incrementalTarget reports whether an unchanged body of target may skip processing
func incrementalTarget(t models.Target) bool {
	return !resumableTarget(t)
}

// handleSetupAndResumeCheck parses the URL, builds the request key and consults the crawl state
func (c *Crawler) handleSetupAndResumeCheck(item models.WorkItem, resume bool, taskLog *logrus.Entry) (parsedURL *url.URL, key string, shouldSkip bool, err error) {
	parsedURL, err = url.Parse(item.URL)
	if err != nil {
		return nil, "", false, fmt.Errorf("%w: parsing URL '%s': %w", utils.ErrParsing, item.URL, err)
	}
	if parsedURL.Hostname() == "" {
		return nil, "", false, fmt.Errorf("%w: URL '%s' missing host", utils.ErrParsing, item.URL)
	}
	key, err = parse.RequestKey(item.Method, item.URL, item.Form)
	if err != nil {
		return nil, "", false, fmt.Errorf("%w: request key for URL '%s': %w", utils.ErrParsing, item.URL, err)
	}

	status, _, checkErr := c.state.CheckRequest(key)
	switch {
	case checkErr != nil:
		taskLog.Errorf("State error checking '%s', proceeding as if not found: %v", key, checkErr)
	case status == models.PageStatusSuccess && resume && resumableTarget(item.Target):
		taskLog.Info("Skipping request already processed successfully (from state)")
		return parsedURL, key, true, nil
	case status == models.PageStatusFailure:
		taskLog.Warn("Retrying previously failed request (from state)")
	}
	return parsedURL, key, false, nil
}

// runPolicyChecks applies robots.txt when respect_robots is on
func (c *Crawler) runPolicyChecks(ctx context.Context, parsedURL *url.URL, taskLog *logrus.Entry) error {
	if !c.cfg.EffectiveRespectRobots() {
		return nil
	}
	if !c.robots.TestAgent(ctx, parsedURL) {
		err := fmt.Errorf("%w: URL '%s' disallowed for agent '%s'", utils.ErrRobotsDisallowed, parsedURL.RequestURI(), c.cfg.UserAgent)
		taskLog.Warn(err.Error())
		return err
	}
	return nil
}

// fetchPage sends the request with retries. On success the body is open and owned by the caller.
func (c *Crawler) fetchPage(ctx context.Context, item models.WorkItem, taskLog *logrus.Entry) (*http.Response, error) {
	req, err := c.fetcher.NewRequest(ctx, item.Method, item.URL, item.Form)
	if err != nil {
		return nil, err
	}
	resp, err := c.fetcher.FetchWithRetry(ctx, req)
	if err != nil {
		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		return nil, err
	}

	if final := resp.Request.URL.String(); final != item.URL {
		taskLog.WithField("final_url", final).Info("URL redirected")
	}
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if contentType != "" && !strings.HasPrefix(contentType, "text/html") && !strings.HasPrefix(contentType, "application/xhtml+xml") {
		taskLog.Warnf("Unexpected Content-Type '%s'. Proceeding with parsing attempt.", contentType)
	}
	return resp, nil
}

// readAndParseBody reads at most max_page_size_bytes, hashes the raw body and parses it.
// The body is closed before returning.
func (c *Crawler) readAndParseBody(resp *http.Response, taskLog *logrus.Entry) (*goquery.Document, string, error) {
	defer resp.Body.Close()
	source := resp.Request.URL.String()

	var reader io.Reader = resp.Body
	maxSize := c.cfg.MaxPageSizeBytes
	if maxSize > 0 {
		reader = io.LimitReader(resp.Body, maxSize+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("%w: reading body from '%s': %w", utils.ErrResponseBodyRead, source, err)
	}
	if maxSize > 0 && int64(len(body)) > maxSize {
		return nil, "", fmt.Errorf("%w: page '%s' exceeds max size (%d > %d bytes)", utils.ErrResponseBodyRead, source, len(body), maxSize)
	}
	taskLog.Debugf("Read %d bytes", len(body))

	hash := utils.HashBytes(body)
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, hash, fmt.Errorf("%w: parsing HTML from '%s': %w", utils.ErrParsing, source, err)
	}
	return doc, hash, nil
}

// isCancelled reports whether err comes from a cancelled or expired context
func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
