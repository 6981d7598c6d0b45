package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Sriram-PR/fcf-scraper/pkg/models"
	"github.com/Sriram-PR/fcf-scraper/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// Site scope
	if c.BaseURL == "" {
		c.BaseURL = "https://www.fcf.cat"
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if u, perr := url.Parse(c.BaseURL); perr != nil || u.Scheme == "" || u.Host == "" {
		return warnings, fmt.Errorf("%w: base_url %q is not an absolute URL", utils.ErrConfigValidation, c.BaseURL)
	}
	if c.Season == "" {
		c.Season = "2025-26"
	}
	if c.SeasonRoute == "" {
		c.SeasonRoute = "2526"
	}
	if c.SeasonCode == "" {
		c.SeasonCode = "21"
	}
	if c.CategoryCode == "" {
		c.CategoryCode = "19308233"
	}
	if c.MatchType == "" {
		c.MatchType = "futbol-11"
	}

	// DerivedRows
	switch c.DerivedRows {
	case "":
		c.DerivedRows = DerivedRowsAppend
	case DerivedRowsAppend, DerivedRowsReplace:
	default:
		return warnings, fmt.Errorf("%w: derived_rows must be %q or %q, got %q",
			utils.ErrConfigValidation, DerivedRowsAppend, DerivedRowsReplace, c.DerivedRows)
	}

	if c.UserAgent == "" {
		c.UserAgent = "fcf-scraper/1.0 (+https://github.com/Sriram-PR/fcf-scraper)"
	}
	if c.DefaultDelayPerHost <= 0 {
		c.DefaultDelayPerHost = 500 * time.Millisecond
	}

	// NumWorkers
	if c.NumWorkers <= 0 {
		warnings = append(warnings, "num_workers should be > 0, defaulting to 4")
		c.NumWorkers = 4
	}

	// MaxRequests
	if c.MaxRequests <= 0 {
		warnings = append(warnings, "max_requests should be > 0, defaulting to 10")
		c.MaxRequests = 10
	}

	// MaxRequestsPerHost
	if c.MaxRequestsPerHost <= 0 {
		warnings = append(warnings, "max_requests_per_host should be > 0, defaulting to 2")
		c.MaxRequestsPerHost = 2
	}

	// StateDir
	if c.StateDir == "" {
		warnings = append(warnings, "state_dir is empty, defaulting to './crawler_state'")
		c.StateDir = "./crawler_state"
	}

	// MaxRetries
	if c.MaxRetries < 0 {
		warnings = append(warnings, "max_retries cannot be negative, setting to 0")
		c.MaxRetries = 0
	}
	if c.MaxRetries == 0 && c.InitialRetryDelay == 0 {
		c.MaxRetries = 3
	}

	// Retry delays (only if retries enabled)
	if c.MaxRetries > 0 {
		if c.InitialRetryDelay <= 0 {
			c.InitialRetryDelay = 1 * time.Second
		}
		if c.MaxRetryDelay <= 0 {
			c.MaxRetryDelay = 30 * time.Second
		}
	}
	if c.InitialRetryDelay > c.MaxRetryDelay && c.MaxRetryDelay > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"initial_retry_delay (%v) > max_retry_delay (%v), using max_retry_delay for initial",
			c.InitialRetryDelay, c.MaxRetryDelay))
		c.InitialRetryDelay = c.MaxRetryDelay
	}

	if c.SemaphoreAcquireTimeout <= 0 {
		c.SemaphoreAcquireTimeout = 30 * time.Second
	}
	if c.GlobalCrawlTimeout < 0 {
		warnings = append(warnings, "global_crawl_timeout cannot be negative, disabling timeout")
		c.GlobalCrawlTimeout = 0
	}
	if c.PerPageTimeout < 0 {
		warnings = append(warnings, "per_page_timeout cannot be negative, disabling timeout")
		c.PerPageTimeout = 0
	}
	if c.MaxPageSizeBytes <= 0 {
		c.MaxPageSizeBytes = 10 * 1024 * 1024
	}

	if c.DBGCInterval < 0 {
		warnings = append(warnings, "db_gc_interval cannot be negative, disabling badger GC")
		c.DBGCInterval = 0
	} else if c.DBGCInterval == 0 {
		c.DBGCInterval = 10 * time.Minute
	}

	if c.WatchInterval <= 0 {
		c.WatchInterval = 6 * time.Hour
	}
	if len(c.WatchTargets) == 0 {
		c.WatchTargets = []string{string(models.TargetReports), string(models.TargetVenues)}
	}
	for _, name := range c.WatchTargets {
		if _, ok := models.ParseTarget(name); !ok {
			return warnings, fmt.Errorf("%w: unknown watch target %q", utils.ErrConfigValidation, name)
		}
	}

	for from, to := range c.ClubSlugExceptions {
		if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
			return warnings, fmt.Errorf("%w: club_slug_exceptions has an empty entry (%q -> %q)",
				utils.ErrConfigValidation, from, to)
		}
	}

	if c.DatabaseURL == "" {
		warnings = append(warnings, "database_url is empty; set it in the config or via FCF_DATABASE_URL")
	}

	c.validateHTTPClientSettings()

	return warnings, nil
}

// validateHTTPClientSettings applies defaults to HTTP client settings.
func (c *AppConfig) validateHTTPClientSettings() {
	h := &c.HTTPClientSettings
	if h.Timeout <= 0 {
		h.Timeout = 45 * time.Second
	}
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 100
	}
	if h.MaxIdleConnsPerHost <= 0 {
		h.MaxIdleConnsPerHost = 2
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = 10 * time.Second
	}
	if h.ExpectContinueTimeout <= 0 {
		h.ExpectContinueTimeout = 1 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 15 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}
}
