package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL standardizes a URL so the frontier and visited set treat
// trivially different spellings as the same target. It lowercases the
// scheme and host, strips default ports and fragments, and re-encodes
// the query in sorted order.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""

	// Encode() emits keys in sorted order.
	u.RawQuery = u.Query().Encode()

	return u.String(), nil
}

// HostOf returns the lowercased hostname of rawURL, without port.
func HostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}
	return host, nil
}

// SameHost reports whether rawURL's hostname matches host exactly.
// Subdomains do not match.
func SameHost(rawURL, host string) bool {
	got, err := HostOf(rawURL)
	if err != nil {
		return false
	}
	return got == strings.ToLower(host)
}
