// Package watch re-runs a fixed set of targets on an interval and remembers, per target,
// when and how the last run went.
package watch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/fcf-scraper/pkg/models"
	"github.com/Sriram-PR/fcf-scraper/pkg/orchestrate"
)

// Runner runs a batch of targets; *orchestrate.Pipeline satisfies it
type Runner interface {
	Run(ctx context.Context, targets []models.Target) []orchestrate.TargetResult
}

// Scheduler manages periodic runs of the watched targets
type Scheduler struct {
	targets      []models.Target
	interval     time.Duration
	log          *logrus.Entry
	runner       Runner
	stateManager *StateManager

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a new watch scheduler. State is kept under stateDir.
func NewScheduler(targets []models.Target, interval time.Duration, stateDir string, runner Runner, log *logrus.Entry) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		targets:      orchestrate.OrderTargets(targets),
		interval:     interval,
		log:          log.WithField("component", "watch"),
		runner:       runner,
		stateManager: NewStateManager(stateDir),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Run starts the watch scheduler and blocks until Stop is called
func (s *Scheduler) Run() error {
	if err := s.stateManager.Load(); err != nil {
		s.log.Warnf("Failed to load watch state: %v (starting fresh)", err)
	}

	s.log.Infof("Starting watch mode for %d targets with interval %v", len(s.targets), FormatInterval(s.interval))
	s.logSchedule()

	s.runDueTargets()

	ticker := time.NewTicker(s.calculateTickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.log.Info("Watch scheduler shutting down...")
			s.wg.Wait()
			return nil
		case <-ticker.C:
			s.runDueTargets()
		}
	}
}

// Stop cancels the running batch, if any, and makes Run return
func (s *Scheduler) Stop() {
	s.log.Info("Stopping watch scheduler...")
	s.cancel()
}

// runDueTargets starts a batch with the targets due for a run. A tick that arrives while
// a batch is still running is ignored.
func (s *Scheduler) runDueTargets() {
	due := s.getDueTargets()
	if len(due) == 0 {
		s.logNextRun()
		return
	}
	if !s.running.CompareAndSwap(false, true) {
		s.log.Debug("Previous batch still running, skipping tick")
		return
	}

	runID := uuid.NewString()
	s.log.WithField("run_id", runID).Infof("Running %d due targets: %v", len(due), due)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)

		results := s.runner.Run(s.ctx, due)
		for _, result := range results {
			s.stateManager.RecordResult(result, runID)
		}
		if err := s.stateManager.Save(); err != nil {
			s.log.Errorf("Failed to save watch state: %v", err)
		}
		s.logNextRun()
	}()
}

// getDueTargets returns targets that are due for a run
func (s *Scheduler) getDueTargets() []models.Target {
	var due []models.Target
	for _, target := range s.targets {
		if s.stateManager.ShouldRun(string(target), s.interval) {
			due = append(due, target)
		}
	}
	return due
}

// calculateTickInterval returns how often to check for due targets
func (s *Scheduler) calculateTickInterval() time.Duration {
	// Check at least every minute, or every 1/10th of the interval
	checkInterval := s.interval / 10
	if checkInterval < time.Minute {
		checkInterval = time.Minute
	}
	if checkInterval > 10*time.Minute {
		checkInterval = 10 * time.Minute
	}
	return checkInterval
}

func (s *Scheduler) logSchedule() {
	s.log.Info("Watch schedule:")
	for _, target := range s.targets {
		state, exists := s.stateManager.GetTargetState(string(target))
		if !exists {
			s.log.Infof("  %s: never run, will run immediately", target)
			continue
		}
		status := "success"
		if !state.LastRunSuccess {
			status = "failed"
		}
		s.log.Infof("  %s: last run %v (%s, %d pages), next run %v",
			target,
			state.LastRunTime.Format(time.RFC3339),
			status,
			state.PagesProcessed,
			s.stateManager.GetNextRunTime(string(target), s.interval).Format(time.RFC3339))
	}
}

func (s *Scheduler) logNextRun() {
	type nextRun struct {
		target models.Target
		time   time.Time
	}
	var nextRuns []nextRun
	for _, target := range s.targets {
		nextRuns = append(nextRuns, nextRun{target, s.stateManager.GetNextRunTime(string(target), s.interval)})
	}
	if len(nextRuns) == 0 {
		return
	}
	sort.Slice(nextRuns, func(i, j int) bool {
		return nextRuns[i].time.Before(nextRuns[j].time)
	})

	next := nextRuns[0]
	until := time.Until(next.time)
	if until < 0 {
		until = 0
	}
	s.log.Infof("Next run: %s in %v (at %s)", next.target, until.Round(time.Second), next.time.Format("15:04:05"))
}

// GetStatus returns the current status of every watched target
func (s *Scheduler) GetStatus() map[models.Target]TargetStatus {
	status := make(map[models.Target]TargetStatus, len(s.targets))
	for _, target := range s.targets {
		state, exists := s.stateManager.GetTargetState(string(target))
		status[target] = TargetStatus{
			Target:      target,
			State:       state,
			NextRunTime: s.stateManager.GetNextRunTime(string(target), s.interval),
			NeverRun:    !exists,
		}
	}
	return status
}

// TargetStatus contains the status of a watched target
type TargetStatus struct {
	Target      models.Target
	State       TargetState
	NextRunTime time.Time
	NeverRun    bool
}

// FormatInterval formats a duration for display
func FormatInterval(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		mins := int(d.Minutes()) % 60
		if mins > 0 {
			return fmt.Sprintf("%dh%dm", hours, mins)
		}
		return fmt.Sprintf("%dh", hours)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	if hours > 0 {
		return fmt.Sprintf("%dd%dh", days, hours)
	}
	return fmt.Sprintf("%dd", days)
}

// ParseInterval parses a duration string with support for days
func ParseInterval(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}

	var days int
	var remaining string
	n, _ := fmt.Sscanf(s, "%dd%s", &days, &remaining)
	if n >= 1 {
		d = time.Duration(days) * 24 * time.Hour
		if remaining != "" {
			extra, err := time.ParseDuration(remaining)
			if err != nil {
				return 0, fmt.Errorf("invalid interval format: %s", s)
			}
			d += extra
		}
		return d, nil
	}

	return 0, fmt.Errorf("invalid interval format: %s (examples: 30m, 6h, 1d)", s)
}
