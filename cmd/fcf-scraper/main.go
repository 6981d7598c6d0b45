package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/fcf-scraper/pkg/config"
	applog "github.com/Sriram-PR/fcf-scraper/pkg/log"
	"github.com/Sriram-PR/fcf-scraper/pkg/models"
	"github.com/Sriram-PR/fcf-scraper/pkg/orchestrate"
	"github.com/Sriram-PR/fcf-scraper/pkg/storage"
	"github.com/Sriram-PR/fcf-scraper/pkg/store"
	"github.com/Sriram-PR/fcf-scraper/pkg/watch"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "scrape":
		runScrape(os.Args[2:])
	case "migrate":
		runMigrate(os.Args[2:])
	case "watch":
		runWatch(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "status":
		runStatus(os.Args[2:])
	case "targets":
		printTargetsTo(os.Stdout)
	case "version":
		fmt.Printf("fcf-scraper %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printUsageTo(os.Stdout)
}

// printUsageTo writes usage information to the provided writer.
func printUsageTo(w io.Writer) {
	fmt.Fprintln(w, `fcf-scraper - fcf.cat football results scraper

Usage:
  fcf-scraper <command> [options]

Commands:
  scrape      Scrape one or more targets into the database
  migrate     Apply or inspect database schema migrations
  watch       Re-run targets on a schedule
  status      Show the last watch run of each target
  validate    Validate configuration file
  targets     List scrape targets in run order
  version     Show version info

Run 'fcf-scraper <command> -h' for command-specific help.`)
}

// printTargetsTo lists every target in the order a full run visits them
func printTargetsTo(w io.Writer) {
	fmt.Fprintln(w, "Targets (run order):")
	for i, t := range models.AllTargets {
		fmt.Fprintf(w, "  %d. %s\n", i+1, t)
	}
	fmt.Fprintln(w, "  all  (every target above)")
}

// loadConfig reads the config file and applies environment overrides
func loadConfig(path string) (*config.AppConfig, error) {
	return config.Load(path)
}

// overrides holds the CLI flags that take precedence over the config file
type overrides struct {
	season      string
	seasonRoute string
	wholeSeason bool
	incremental bool
	full        bool
	derivedRows string
}

func (o *overrides) register(fs *flag.FlagSet) {
	fs.StringVar(&o.season, "season", "", "Season label stored on groups, e.g. 2025-26")
	fs.StringVar(&o.seasonRoute, "season-route", "", "Season segment used in URLs, e.g. 2526")
	fs.BoolVar(&o.wholeSeason, "whole-season", false, "Fetch every report of the season, not only pending ones")
	fs.BoolVar(&o.incremental, "incremental", false, "Skip reports and calendars whose content did not change")
	fs.BoolVar(&o.full, "full", false, "Force full processing (ignore incremental settings)")
	fs.StringVar(&o.derivedRows, "derived-rows", "", "What to do with lineups/staff/events on re-merge: append or replace")
}

// apply copies the set flags onto cfg. Must run before Validate so defaults fill the rest.
func (o *overrides) apply(cfg *config.AppConfig, log logrus.FieldLogger) {
	if o.season != "" {
		cfg.Season = o.season
		log.Infof("Season overridden via CLI flag: %s", o.season)
	}
	if o.seasonRoute != "" {
		cfg.SeasonRoute = o.seasonRoute
		log.Infof("Season route overridden via CLI flag: %s", o.seasonRoute)
	}
	if o.wholeSeason {
		cfg.WholeSeason = true
		log.Info("Whole-season mode enabled via CLI flag")
	}
	if o.derivedRows != "" {
		cfg.DerivedRows = config.DerivedRowsMode(strings.ToLower(o.derivedRows))
	}
	if o.incremental {
		cfg.Incremental = true
		log.Info("Incremental mode enabled via CLI flag")
	}
	if o.full {
		cfg.Incremental = false
		log.Info("Full mode forced via CLI flag")
	}
}

// runScrape handles the scrape subcommand
func runScrape(args []string) {
	fs := flag.NewFlagSet("scrape", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	jsonLog := fs.Bool("json-log", false, "Log in JSON format")
	resume := fs.Bool("resume", false, "Keep the crawl state and skip listing pages already done")
	pprofAddr := fs.String("pprof", "", "pprof address, e.g. localhost:6060 (disabled by default)")
	var o overrides
	o.register(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fcf-scraper scrape [options] <target...|all>\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  fcf-scraper scrape all\n")
		fmt.Fprintf(os.Stderr, "  fcf-scraper scrape -season 2024-25 -season-route 2425 competitions groups\n")
		fmt.Fprintf(os.Stderr, "  fcf-scraper scrape -incremental -whole-season reports venues\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	targets, err := orchestrate.ResolveTargets(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		fs.Usage()
		os.Exit(1)
	}

	log := setupLogger(*logLevel, *jsonLog)
	appCfg := loadAndValidateConfig(*configFile, &o, log)
	logAppConfig(appCfg, log)
	startPprof(*pprofAddr, log)

	os.Exit(executeScrape(appCfg, targets, *resume, log))
}

// executeScrape opens the database and crawl state, runs the pipeline and returns the exit code
func executeScrape(appCfg *config.AppConfig, targets []models.Target, resume bool, log *logrus.Logger) int {
	ctx, stop := notifyContext(context.Background(), log)
	defer stop()

	entry := logrus.NewEntry(log)

	db, err := store.Open(ctx, appCfg.DatabaseURL, appCfg.NumWorkers+2, entry)
	if err != nil {
		log.Errorf("Failed to open database: %v", err)
		return 1
	}
	defer db.Close()

	state, err := storage.NewBadgerStore(appCfg.StateDir, appCfg.Season, resume, entry)
	if err != nil {
		log.Errorf("Failed to initialize crawl state: %v", err)
		return 1
	}
	defer state.Close()
	go state.RunGC(ctx, appCfg.DBGCInterval)

	pipeline := orchestrate.NewPipeline(appCfg, state, db, resume, entry)
	results := pipeline.Run(ctx, targets)

	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		log.Warn("Scrape cancelled gracefully.")
		return 0
	case orchestrate.Failed(results):
		for _, r := range results {
			if errors.Is(r.Error, context.DeadlineExceeded) {
				log.Error("Scrape timed out (global timeout).")
				break
			}
		}
		return 1
	}
	log.Info("Scrape completed successfully.")
	return 0
}

// runMigrate handles the migrate subcommand
func runMigrate(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fcf-scraper migrate [options] <up|down N|version|force N>\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  fcf-scraper migrate up\n")
		fmt.Fprintf(os.Stderr, "  fcf-scraper migrate down 1\n")
		fmt.Fprintf(os.Stderr, "  fcf-scraper migrate force 3\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	action, n, err := parseMigrateArgs(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		fs.Usage()
		os.Exit(1)
	}

	log := setupLogger(*logLevel, false)
	appCfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	mg, err := store.NewMigrator(appCfg.DatabaseURL, logrus.NewEntry(log))
	if err != nil {
		log.Fatalf("Migrator error: %v", err)
	}
	code := doMigrate(mg, action, n, os.Stdout, os.Stderr)
	mg.Close()
	os.Exit(code)
}

// migrator is the part of *store.Migrator the migrate subcommand drives
type migrator interface {
	Up() error
	Down(steps int) error
	Version() (version uint, dirty bool, ok bool, err error)
	Force(version int) error
}

// parseMigrateArgs validates the positional arguments of the migrate subcommand
func parseMigrateArgs(args []string) (action string, n int, err error) {
	if len(args) == 0 {
		return "", 0, errors.New("missing migrate action")
	}
	action = args[0]
	switch action {
	case "up", "version":
		if len(args) != 1 {
			return "", 0, fmt.Errorf("%s takes no arguments", action)
		}
		return action, 0, nil
	case "down", "force":
		if len(args) != 2 {
			return "", 0, fmt.Errorf("%s requires exactly one number", action)
		}
		n, err = strconv.Atoi(args[1])
		if err != nil {
			return "", 0, fmt.Errorf("%s: invalid number %q", action, args[1])
		}
		if action == "down" && n <= 0 {
			return "", 0, fmt.Errorf("down: steps must be > 0")
		}
		return action, n, nil
	default:
		return "", 0, fmt.Errorf("unknown migrate action %q", action)
	}
}

// doMigrate runs one migrate action and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doMigrate(mg migrator, action string, n int, stdout, stderr io.Writer) int {
	var err error
	switch action {
	case "up":
		err = mg.Up()
	case "down":
		err = mg.Down(n)
	case "force":
		err = mg.Force(n)
	case "version":
		v, dirty, ok, verr := mg.Version()
		if verr != nil {
			err = verr
			break
		}
		if !ok {
			fmt.Fprintln(stdout, "No migrations applied")
			return 0
		}
		fmt.Fprintf(stdout, "Version: %d", v)
		if dirty {
			fmt.Fprint(stdout, " (dirty)")
		}
		fmt.Fprintln(stdout)
		return 0
	default:
		err = fmt.Errorf("unknown migrate action %q", action)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "OK: migrate %s\n", action)
	return 0
}

// runValidate handles the validate subcommand
func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fcf-scraper validate [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(doValidate(*configFile, os.Stdout, os.Stderr))
}

// doValidate performs validation and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doValidate(configPath string, stdout, stderr io.Writer) int {
	appCfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "OK: season %s (route %s), %s\n", appCfg.Season, appCfg.SeasonRoute, appCfg.BaseURL)
	fmt.Fprintf(stdout, "OK: watch %v every %s\n", appCfg.WatchTargets, watch.FormatInterval(appCfg.WatchInterval))
	fmt.Fprintln(stdout, "\nConfiguration valid.")
	return 0
}

// runWatch handles the watch subcommand
func runWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	jsonLog := fs.Bool("json-log", false, "Log in JSON format")
	interval := fs.String("interval", "", "Run interval (e.g., 30m, 6h, 1d); defaults to watch_interval")
	targetList := fs.String("targets", "", "Comma-separated targets; defaults to watch_targets")
	pprofAddr := fs.String("pprof", "", "pprof address, e.g. localhost:6060 (disabled by default)")
	var o overrides
	o.register(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fcf-scraper watch [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  fcf-scraper watch\n")
		fmt.Fprintf(os.Stderr, "  fcf-scraper watch -targets calendars,reports -interval 12h\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	log := setupLogger(*logLevel, *jsonLog)
	appCfg := loadAndValidateConfig(*configFile, &o, log)

	if *interval != "" {
		d, err := watch.ParseInterval(*interval)
		if err != nil {
			log.Fatalf("Invalid interval: %v", err)
		}
		appCfg.WatchInterval = d
	}
	names := appCfg.WatchTargets
	if *targetList != "" {
		names = strings.Split(*targetList, ",")
	}
	targets, err := orchestrate.ResolveTargets(names)
	if err != nil {
		log.Fatalf("Invalid targets: %v", err)
	}

	logAppConfig(appCfg, log)
	startPprof(*pprofAddr, log)
	executeWatch(appCfg, targets, log)
}

// executeWatch runs the watch scheduler until SIGINT/SIGTERM
func executeWatch(appCfg *config.AppConfig, targets []models.Target, log *logrus.Logger) {
	entry := logrus.NewEntry(log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.Open(ctx, appCfg.DatabaseURL, appCfg.NumWorkers+2, entry)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Watch runs reuse the crawl state so incremental hashes survive between batches
	state, err := storage.NewBadgerStore(appCfg.StateDir, appCfg.Season, true, entry)
	if err != nil {
		log.Fatalf("Failed to initialize crawl state: %v", err)
	}
	defer state.Close()
	go state.RunGC(ctx, appCfg.DBGCInterval)

	pipeline := orchestrate.NewPipeline(appCfg, state, db, false, entry)
	scheduler := watch.NewScheduler(targets, appCfg.WatchInterval, appCfg.StateDir, pipeline, entry)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		sig := <-sigChan
		log.Warnf("Received signal %v, stopping watch...", sig)
		scheduler.Stop()
	}()

	if err := scheduler.Run(); err != nil {
		log.Errorf("Watch scheduler error: %v", err)
	}
	status := scheduler.GetStatus()
	for _, target := range targets {
		st := status[target]
		if st.NeverRun {
			log.Infof("  %s: never run", target)
			continue
		}
		log.Infof("  %s: last run %s (success=%t), next run %s",
			target, st.State.LastRunTime.Format(time.RFC3339), st.State.LastRunSuccess, st.NextRunTime.Format(time.RFC3339))
	}
	log.Info("Watch mode stopped")
}

// runStatus handles the status subcommand
func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fcf-scraper status [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	appCfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if _, err := appCfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(doStatus(appCfg.StateDir, os.Stdout, os.Stderr))
}

// doStatus prints the persisted watch state found in stateDir.
// Returns exit code (0 = success, 1 = error).
func doStatus(stateDir string, stdout, stderr io.Writer) int {
	sm := watch.NewStateManager(stateDir)
	if err := sm.Load(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	states := sm.GetAllTargetStates()
	if len(states) == 0 {
		fmt.Fprintln(stdout, "No watch runs recorded.")
		return 0
	}
	for _, target := range models.AllTargets {
		st, ok := states[string(target)]
		if !ok {
			continue
		}
		result := "OK"
		if !st.LastRunSuccess {
			result = "FAILED"
		}
		fmt.Fprintf(stdout, "%-13s %-6s %s  processed=%d failed=%d run=%s\n",
			target, result, st.LastRunTime.Format(time.RFC3339), st.PagesProcessed, st.PagesFailed, st.RunID)
		if st.ErrorMessage != "" {
			fmt.Fprintf(stdout, "              error: %s\n", st.ErrorMessage)
		}
	}
	return 0
}

// setupLogger creates a configured logrus.Logger with the given log level.
func setupLogger(logLevelStr string, jsonFormat bool) *logrus.Logger {
	log, err := applog.New(logLevelStr, jsonFormat, nil)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", logLevelStr, err)
		log.SetLevel(logrus.InfoLevel)
	} else {
		log.Infof("Setting log level to: %s", log.GetLevel().String())
	}
	return log
}

// loadAndValidateConfig loads the config file, applies CLI overrides, validates it, and logs warnings.
func loadAndValidateConfig(configFile string, o *overrides, log *logrus.Logger) *config.AppConfig {
	log.Infof("Loading configuration from %s", configFile)
	appCfg, err := loadConfig(configFile)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	o.apply(appCfg, log)

	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	return appCfg
}

// notifyContext cancels the returned context on the first SIGINT/SIGTERM and forces exit on the second
func notifyContext(parent context.Context, log *logrus.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("PANIC in signal handler: %v", r)
			}
		}()
		var sig os.Signal
		select {
		case sig = <-sigChan:
		case <-ctx.Done():
			return
		}
		log.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig = <-sigChan:
			log.Warnf("Received second signal: %v. Forcing exit.", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn("Graceful shutdown period exceeded after signal. Forcing exit.")
			os.Exit(1)
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// startPprof starts the pprof HTTP server if addr is non-empty.
func startPprof(addr string, log *logrus.Logger) {
	if addr != "" {
		go func() {
			log.Infof("Starting pprof server at http://%s/debug/pprof/", addr)
			if err := http.ListenAndServe(addr, nil); err != nil {
				log.Errorf("pprof server error: %v", err)
			}
		}()
	}
}

// logAppConfig logs the effective configuration
func logAppConfig(appCfg *config.AppConfig, log *logrus.Logger) {
	log.Infof("Config: Season:%s Route:%s SeasonCode:%s Category:%s MatchType:%s",
		appCfg.Season, appCfg.SeasonRoute, appCfg.SeasonCode, appCfg.CategoryCode, appCfg.MatchType)
	log.Infof("Config: Workers:%d, MaxReqs:%d, MaxReqPerHost:%d, DefaultDelay:%v, RespectRobots:%t",
		appCfg.NumWorkers, appCfg.MaxRequests, appCfg.MaxRequestsPerHost, appCfg.DefaultDelayPerHost, appCfg.EffectiveRespectRobots())
	log.Infof("Config Retries: Max:%d, InitialDelay:%v, MaxDelay:%v",
		appCfg.MaxRetries, appCfg.InitialRetryDelay, appCfg.MaxRetryDelay)
	log.Infof("Config Timeouts: SemaphoreAcquire:%v, GlobalCrawl:%v, PerPage:%v",
		appCfg.SemaphoreAcquireTimeout, appCfg.GlobalCrawlTimeout, appCfg.PerPageTimeout)
	log.Infof("Config Merge: DerivedRows:%s, ProtectFinished:%t, WholeSeason:%t, Incremental:%t, StateDir:%s",
		appCfg.DerivedRows, appCfg.ProtectFinished, appCfg.WholeSeason, appCfg.Incremental, appCfg.StateDir)
}
