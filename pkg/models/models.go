package models

import (
	"net/url"
	"time"
)

// Target identifies one kind of page the scraper knows how to request and process
type Target string

const (
	TargetCompetitions Target = "competitions"
	TargetGroups       Target = "groups"
	TargetTeams        Target = "teams"
	TargetClubs        Target = "clubs"
	TargetCalendars    Target = "calendars"
	TargetReports      Target = "reports"
	TargetVenues       Target = "venues"
)

// AllTargets lists every target in dependency order (each step reads what the previous ones stored)
var AllTargets = []Target{
	TargetCompetitions,
	TargetGroups,
	TargetTeams,
	TargetClubs,
	TargetCalendars,
	TargetReports,
	TargetVenues,
}

// ParseTarget maps a CLI name to a Target
func ParseTarget(s string) (Target, bool) {
	for _, t := range AllTargets {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// ItemMeta carries the store identifiers a page handler needs to attach its results
type ItemMeta struct {
	CompetitionID   int64
	CompetitionCode string
	CompetitionSlug string
	GroupID         int64
	LocalTeamID     int64
	VisitorTeamID   int64
	Jornada         int
	ClubSlug        string
	VenueCode       string
}

// WorkItem is a single request to be fetched and dispatched by a worker
type WorkItem struct {
	Target Target
	Method string // GET unless Form is set
	URL    string
	Form   url.Values // POST form body (listing endpoints)
	Meta   ItemMeta
}

// PageDBEntry stores the result of processing a request in the crawl state DB
type PageDBEntry struct {
	Target      Target     `json:"target,omitempty"`
	Status      PageStatus `json:"status"`
	ErrorType   string     `json:"error_type,omitempty"`   // Error category (on failure)
	ProcessedAt time.Time  `json:"processed_at,omitempty"` // Timestamp of successful processing
	LastAttempt time.Time  `json:"last_attempt"`
	ContentHash string     `json:"content_hash,omitempty"` // SHA-256 of the raw body, for incremental runs
}

// PageStatus represents the processing status of a request in the crawl state DB
type PageStatus string

const (
	PageStatusUnset    PageStatus = ""
	PageStatusSuccess  PageStatus = "success"
	PageStatusFailure  PageStatus = "failure"
	PageStatusNotFound PageStatus = "not_found" // no record for the request key
	PageStatusDBError  PageStatus = "db_error"
)

// String implements fmt.Stringer for logging
func (s PageStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}
