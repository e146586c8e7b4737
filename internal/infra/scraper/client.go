package scraper

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// maxBodySize caps how much of a response body is read.
	maxBodySize = 10 * 1024 * 1024

	websiteUserAgent = "Mozilla/5.0 (compatible; SacTechEvents/1.0; +https://sacitcentral.com)"
	apiUserAgent     = "SacTechEvents/1.0"
)

// NewHTTPClient returns a client with the given timeout. When insecure is true
// TLS certificates are not verified.
func NewHTTPClient(timeout time.Duration, insecure bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: insecure, // #nosec G402 -- opt-in per installation for self-signed calendars
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// get issues a single GET and returns the body when the status is 200.
func get(ctx context.Context, client *http.Client, rawURL, userAgent, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// parseSourceURL checks that raw is an absolute http(s) URL.
func parseSourceURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSourceURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSourceURL, raw)
	}
	return u, nil
}

// resolveURL makes ref absolute against the scheme and host of base.
// References that already start with "http" are returned unchanged.
func resolveURL(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	root := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/"}
	return root.ResolveReference(u).String()
}
