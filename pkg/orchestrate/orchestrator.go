// Package orchestrate runs scrape targets in dependency order over one shared crawler.
package orchestrate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/fcf-scraper/pkg/config"
	"github.com/Sriram-PR/fcf-scraper/pkg/crawler"
	"github.com/Sriram-PR/fcf-scraper/pkg/fetch"
	"github.com/Sriram-PR/fcf-scraper/pkg/models"
	"github.com/Sriram-PR/fcf-scraper/pkg/storage"
	"github.com/Sriram-PR/fcf-scraper/pkg/store"
	"github.com/Sriram-PR/fcf-scraper/pkg/utils"
)

// Runner runs a single target to completion
type Runner interface {
	Run(ctx context.Context, target models.Target, resume bool) (crawler.RunStats, error)
}

// TargetResult contains the result of running a single target
type TargetResult struct {
	Target   models.Target
	Success  bool
	Error    error
	Stats    crawler.RunStats
	Duration time.Duration
}

// Pipeline runs targets one after the other, each reading what the previous ones stored.
// The fetcher, rate limiter, semaphores and robots cache are shared by every target.
type Pipeline struct {
	cfg    *config.AppConfig
	log    *logrus.Entry
	runner Runner
	resume bool
	runID  string
}

// NewPipeline wires the shared HTTP client, request gate and crawler
func NewPipeline(cfg *config.AppConfig, state storage.CrawlState, db *store.Store, resume bool, log *logrus.Entry) *Pipeline {
	httpClient := fetch.NewClient(cfg.HTTPClientSettings, log)
	fetcher := fetch.NewFetcher(httpClient, cfg, log)
	gate := fetch.NewGate(cfg, log)
	c := crawler.NewCrawler(cfg, state, db, fetcher, gate, log)
	return newPipeline(cfg, c, resume, log)
}

func newPipeline(cfg *config.AppConfig, runner Runner, resume bool, log *logrus.Entry) *Pipeline {
	runID := uuid.NewString()
	return &Pipeline{
		cfg:    cfg,
		log:    log.WithField("run_id", runID),
		runner: runner,
		resume: resume,
		runID:  runID,
	}
}

// RunID identifies this pipeline in logs and watch state
func (p *Pipeline) RunID() string { return p.runID }

// Run executes targets in dependency order. A failed target is reported and the next one
// still runs; cancellation (or global_crawl_timeout) marks the remaining targets as failed.
func (p *Pipeline) Run(ctx context.Context, targets []models.Target) []TargetResult {
	startTime := time.Now()
	ordered := OrderTargets(targets)
	p.log.Infof("Starting run of %d target(s): %v", len(ordered), ordered)

	if p.cfg.GlobalCrawlTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.GlobalCrawlTimeout)
		defer cancel()
	}

	results := make([]TargetResult, 0, len(ordered))
	for _, target := range ordered {
		if err := ctx.Err(); err != nil {
			results = append(results, TargetResult{Target: target, Error: fmt.Errorf("not started: %w", err)})
			continue
		}
		results = append(results, p.runTarget(ctx, target))
	}

	p.logSummary(results, time.Since(startTime))
	return results
}

func (p *Pipeline) runTarget(ctx context.Context, target models.Target) TargetResult {
	startTime := time.Now()
	targetLog := p.log.WithField("target", target)
	targetLog.Info("Starting target")

	stats, err := p.runner.Run(ctx, target, p.resume)
	result := TargetResult{
		Target:   target,
		Stats:    stats,
		Error:    err,
		Success:  err == nil,
		Duration: time.Since(startTime),
	}
	if err != nil {
		targetLog.WithField("error_type", utils.CategorizeError(err)).Errorf("Target failed: %v", err)
	} else {
		targetLog.Info("Target completed")
	}
	return result
}

// logSummary logs a summary of all target results
func (p *Pipeline) logSummary(results []TargetResult, totalDuration time.Duration) {
	p.log.Info("============================================")
	p.log.Infof("Run completed in %v", totalDuration)
	p.log.Info("Target Results:")

	successCount, failCount := 0, 0
	var totalProcessed, totalFailed int64
	for _, r := range results {
		status := "SUCCESS"
		if !r.Success {
			status = "FAILED"
			failCount++
		} else {
			successCount++
		}
		totalProcessed += r.Stats.Processed
		totalFailed += r.Stats.Failed

		p.log.Infof("  %s: %s - %d processed, %d skipped, %d failed in %v",
			r.Target, status, r.Stats.Processed, r.Stats.Skipped, r.Stats.Failed, r.Duration)
		if r.Error != nil {
			p.log.Infof("    Error: %v", r.Error)
		}
	}

	p.log.Info("--------------------------------------------")
	p.log.Infof("Total: %d targets (%d success, %d failed), %d pages processed, %d page failures",
		len(results), successCount, failCount, totalProcessed, totalFailed)
	p.log.Info("============================================")
}

// Failed reports whether any result is not a success
func Failed(results []TargetResult) bool {
	for _, r := range results {
		if !r.Success {
			return true
		}
	}
	return false
}

// OrderTargets deduplicates targets and sorts them in dependency order
func OrderTargets(targets []models.Target) []models.Target {
	rank := make(map[models.Target]int, len(models.AllTargets))
	for i, t := range models.AllTargets {
		rank[t] = i
	}
	seen := make(map[models.Target]bool, len(targets))
	out := make([]models.Target, 0, len(targets))
	for _, t := range targets {
		if _, known := rank[t]; !known || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return rank[out[i]] < rank[out[j]] })
	return out
}

// ResolveTargets maps CLI names to targets. "all" expands to every target.
func ResolveTargets(names []string) ([]models.Target, error) {
	var out []models.Target
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "all" {
			out = append(out, models.AllTargets...)
			continue
		}
		t, ok := models.ParseTarget(name)
		if !ok {
			available := make([]string, 0, len(models.AllTargets))
			for _, k := range models.AllTargets {
				available = append(available, string(k))
			}
			return nil, fmt.Errorf("target '%s' not found. Available targets: %v, all", name, available)
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no target given")
	}
	return OrderTargets(out), nil
}
