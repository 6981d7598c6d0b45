// Package parse turns outgoing requests into stable crawl-state keys.
package parse

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// NormalizeURL lowercases scheme and host, drops default ports and the fragment,
// strips a trailing slash (except on "/") and sorts the query.
// Does not modify the input *url.URL
func NormalizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	normalized := *u

	normalized.Scheme = strings.ToLower(normalized.Scheme)
	normalized.Host = strings.ToLower(normalized.Host)

	if host, port, err := net.SplitHostPort(normalized.Host); err == nil {
		if (normalized.Scheme == "http" && port == "80") ||
			(normalized.Scheme == "https" && port == "443") {
			normalized.Host = host
		}
	}

	if normalized.Path == "" {
		normalized.Path = "/"
	} else if len(normalized.Path) > 1 && strings.HasSuffix(normalized.Path, "/") {
		normalized.Path = strings.TrimRight(normalized.Path, "/")
		if normalized.Path == "" {
			normalized.Path = "/"
		}
	}
	normalized.RawPath = ""

	normalized.Fragment = ""
	normalized.RawFragment = ""
	if normalized.RawQuery != "" {
		normalized.RawQuery = normalized.Query().Encode() // Encode sorts by key
	}

	return normalized.String()
}

// ParseAndNormalize parses with url.ParseRequestURI (absolute URL or absolute path) and normalizes.
func ParseAndNormalize(urlStr string) (string, *url.URL, error) {
	parsed, err := url.ParseRequestURI(urlStr)
	if err != nil {
		return "", nil, err
	}
	return NormalizeURL(parsed), parsed, nil
}

// RequestKey identifies a request in the crawl state: "<METHOD> <normalized url>",
// followed by "?<sorted form>" for requests with a form body.
// Two POSTs to the same endpoint with different forms get different keys.
func RequestKey(method, rawURL string, form url.Values) (string, error) {
	normalized, _, err := ParseAndNormalize(rawURL)
	if err != nil {
		return "", err
	}
	if method == "" {
		method = http.MethodGet
	}
	key := strings.ToUpper(method) + " " + normalized
	if len(form) > 0 {
		key += "?" + form.Encode()
	}
	return key, nil
}
