package fetch

import (
	"context"
	"io"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
)

// RobotsHandler fetches, caches and checks robots.txt per host
type RobotsHandler struct {
	fetcher   *Fetcher
	gate      *Gate
	userAgent string
	cache     map[string]*robotstxt.RobotsData // hostname -> parsed data (nil = allow all)
	cacheMu   sync.Mutex
	log       *logrus.Entry
}

// NewRobotsHandler creates a RobotsHandler
func NewRobotsHandler(fetcher *Fetcher, gate *Gate, userAgent string, log *logrus.Entry) *RobotsHandler {
	return &RobotsHandler{
		fetcher:   fetcher,
		gate:      gate,
		userAgent: userAgent,
		cache:     make(map[string]*robotstxt.RobotsData),
		log:       log,
	}
}

// GetRobotsData returns the parsed robots.txt for target's host, fetching on first use.
// Returns nil on any fetch or parse failure; nil is cached too.
func (rh *RobotsHandler) GetRobotsData(ctx context.Context, target *url.URL) *robotstxt.RobotsData {
	host := target.Hostname()

	rh.cacheMu.Lock()
	data, found := rh.cache[host]
	rh.cacheMu.Unlock()
	if found {
		return data
	}

	data = rh.fetch(ctx, target)

	rh.cacheMu.Lock()
	rh.cache[host] = data
	rh.cacheMu.Unlock()
	return data
}

func (rh *RobotsHandler) fetch(ctx context.Context, target *url.URL) *robotstxt.RobotsData {
	scheme := target.Scheme
	if scheme != "http" && scheme != "https" {
		scheme = "https"
	}
	robotsURL := (&url.URL{Scheme: scheme, Host: target.Host, Path: "/robots.txt"}).String()
	robotsLog := rh.log.WithField("robots_url", robotsURL)
	robotsLog.Info("Fetching robots.txt...")

	release, err := rh.gate.Acquire(ctx, target.Hostname())
	if err != nil {
		robotsLog.Errorf("Error acquiring request permit: %v", err)
		return nil
	}
	defer release()

	req, err := rh.fetcher.NewRequest(ctx, "GET", robotsURL, nil)
	if err != nil {
		robotsLog.Errorf("Error creating request: %v", err)
		return nil
	}

	resp, err := rh.fetcher.FetchWithRetry(ctx, req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		robotsLog.Warnf("robots.txt unavailable, assuming allow-all: %v", err)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		robotsLog.Errorf("Error reading body: %v", err)
		return nil
	}
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		robotsLog.Errorf("Error parsing content: %v", err)
		return nil
	}
	robotsLog.Info("Successfully fetched and parsed robots.txt")
	return data
}

// TestAgent reports whether the configured user agent may fetch target.
// Missing or unreadable robots.txt means allowed.
func (rh *RobotsHandler) TestAgent(ctx context.Context, target *url.URL) bool {
	data := rh.GetRobotsData(ctx, target)
	if data == nil {
		return true
	}
	return data.TestAgent(target.RequestURI(), rh.userAgent)
}
