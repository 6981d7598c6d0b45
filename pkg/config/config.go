package config

import (
	"time"
)

// DerivedRowsMode controls what happens to a match's lineups, staff and events when its acta is merged again
type DerivedRowsMode string

const (
	DerivedRowsAppend  DerivedRowsMode = "append"
	DerivedRowsReplace DerivedRowsMode = "replace"
)

// AppConfig holds the global application configuration
type AppConfig struct {
	// Site scope
	BaseURL      string `yaml:"base_url"`
	Season       string `yaml:"season"`        // stored on groups, e.g. "2025-26"
	SeasonRoute  string `yaml:"season_route"`  // URL segment, e.g. "2526"
	SeasonCode   string `yaml:"season_code"`   // form value for the listing endpoints
	CategoryCode string `yaml:"category_code"` // form value for the listing endpoints
	MatchType    string `yaml:"match_type"`    // URL segment, e.g. "futbol-11"

	// Database and merge behaviour
	DatabaseURL     string          `yaml:"database_url"`
	DerivedRows     DerivedRowsMode `yaml:"derived_rows,omitempty"`
	ProtectFinished bool            `yaml:"protect_finished,omitempty"`
	WholeSeason     bool            `yaml:"whole_season,omitempty"`

	// Crawling
	UserAgent               string        `yaml:"user_agent"`
	DefaultDelayPerHost     time.Duration `yaml:"default_delay_per_host"`
	RespectRobots           *bool         `yaml:"respect_robots,omitempty"`
	NumWorkers              int           `yaml:"num_workers"`
	MaxRequests             int           `yaml:"max_requests"`
	MaxRequestsPerHost      int           `yaml:"max_requests_per_host"`
	MaxRetries              int           `yaml:"max_retries,omitempty"`
	InitialRetryDelay       time.Duration `yaml:"initial_retry_delay,omitempty"`
	MaxRetryDelay           time.Duration `yaml:"max_retry_delay,omitempty"`
	SemaphoreAcquireTimeout time.Duration `yaml:"semaphore_acquire_timeout,omitempty"`
	GlobalCrawlTimeout      time.Duration `yaml:"global_crawl_timeout,omitempty"`
	PerPageTimeout          time.Duration `yaml:"per_page_timeout,omitempty"` // 0 = no timeout
	MaxPageSizeBytes        int64         `yaml:"max_page_size_bytes,omitempty"`

	// Crawl state
	StateDir      string        `yaml:"state_dir"`
	Incremental   bool          `yaml:"incremental,omitempty"`
	DBGCInterval  time.Duration `yaml:"db_gc_interval,omitempty"`
	WatchInterval time.Duration `yaml:"watch_interval,omitempty"`
	WatchTargets  []string      `yaml:"watch_targets,omitempty"`

	HTTPClientSettings HTTPClientConfig  `yaml:"http_client_settings,omitempty"`
	ClubSlugExceptions map[string]string `yaml:"club_slug_exceptions,omitempty"`
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout               time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"`
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"` // nil=default, true=force, false=disable
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`
}

// EffectiveRespectRobots defaults to true when unset
func (c *AppConfig) EffectiveRespectRobots() bool {
	if c.RespectRobots != nil {
		return *c.RespectRobots
	}
	return true
}
