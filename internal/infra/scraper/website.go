package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"sactech-events/internal/domain/entity"
	"sactech-events/internal/usecase/fetch"

	"github.com/PuerkitoBio/goquery"
)

// WebsiteAdapter scrapes events from an arbitrary HTML page.
type WebsiteAdapter struct {
	source    *entity.Source
	pageURL   *url.URL
	client    *http.Client
	extractor *Extractor
}

// NewWebsiteAdapter builds an adapter for src using the timeout and TLS
// settings in cfg.
func NewWebsiteAdapter(src *entity.Source, cfg fetch.AdapterConfig) (*WebsiteAdapter, error) {
	u, err := parseSourceURL(src.URL)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()
	return &WebsiteAdapter{
		source:    src,
		pageURL:   u,
		client:    NewHTTPClient(cfg.Timeout, cfg.InsecureSkipVerify),
		extractor: &Extractor{Location: cfg.Location},
	}, nil
}

// Name returns the source display name.
func (a *WebsiteAdapter) Name() string { return a.source.Name }

// Kind returns entity.SourceKindWebsite.
func (a *WebsiteAdapter) Kind() string { return entity.SourceKindWebsite }

// FetchEvents downloads the page once and extracts at most limit events.
// Transport failures and non-200 responses are returned as errors.
func (a *WebsiteAdapter) FetchEvents(ctx context.Context, limit int) ([]entity.RawEvent, error) {
	body, err := get(ctx, a.client, a.pageURL.String(), websiteUserAgent, "text/html,application/xhtml+xml")
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	events := a.extractor.Extract(doc, a.pageURL)
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}

	slog.Debug("website events extracted",
		slog.Int64("source_id", a.source.ID),
		slog.String("url", a.pageURL.String()),
		slog.Int("events", len(events)))
	return events, nil
}
