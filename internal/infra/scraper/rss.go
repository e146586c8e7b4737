package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"sactech-events/internal/domain/entity"
	"sactech-events/internal/usecase/fetch"

	"github.com/mmcdole/gofeed"
)

// RSSAdapter reads events from an RSS or Atom feed. Event times come from the
// RSS 1.0 mod_event elements (ev:startdate, ev:enddate, ev:location,
// ev:organizer) when present, otherwise from the item publish date.
type RSSAdapter struct {
	source   *entity.Source
	feedURL  *url.URL
	parser   *gofeed.Parser
	location *time.Location
}

// NewRSSAdapter builds an adapter for src.
func NewRSSAdapter(src *entity.Source, cfg fetch.AdapterConfig) (*RSSAdapter, error) {
	u, err := parseSourceURL(src.URL)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	parser := gofeed.NewParser()
	parser.UserAgent = apiUserAgent
	parser.Client = NewHTTPClient(cfg.Timeout, cfg.InsecureSkipVerify)

	return &RSSAdapter{source: src, feedURL: u, parser: parser, location: cfg.Location}, nil
}

// Name returns the source display name.
func (a *RSSAdapter) Name() string { return a.source.Name }

// Kind returns entity.SourceKindRSS.
func (a *RSSAdapter) Kind() string { return entity.SourceKindRSS }

// FetchEvents parses the feed and converts at most limit items.
func (a *RSSAdapter) FetchEvents(ctx context.Context, limit int) ([]entity.RawEvent, error) {
	feed, err := a.parser.ParseURLWithContext(a.feedURL.String(), ctx)
	if err != nil {
		var herr gofeed.HTTPError
		if errors.As(err, &herr) {
			return nil, &HTTPError{StatusCode: herr.StatusCode, Status: herr.Status}
		}
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	events := make([]entity.RawEvent, 0, len(feed.Items))
	for _, item := range feed.Items {
		if limit > 0 && len(events) >= limit {
			break
		}
		if ev, ok := a.convert(item); ok {
			events = append(events, ev)
		}
	}
	return events, nil
}

func (a *RSSAdapter) convert(item *gofeed.Item) (entity.RawEvent, bool) {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return entity.RawEvent{}, false
	}

	start, ok := a.startDate(item)
	if !ok {
		return entity.RawEvent{}, false
	}

	ev := entity.RawEvent{
		Title:       title,
		Description: item.Description,
		StartDate:   start,
		URL:         resolveURL(a.feedURL, item.Link),
		ExternalID:  item.GUID,
		Location:    eventExt(item, "location"),
		Organizer:   eventExt(item, "organizer"),
	}
	if ev.Description == "" {
		ev.Description = item.Content
	}
	if end, ok := ParseDate(eventExt(item, "enddate"), a.location); ok {
		ev.EndDate = &end
	}
	if ev.Organizer == "" && item.Author != nil {
		ev.Organizer = item.Author.Name
	}
	ev.ImageURL = itemImage(item)
	return ev, true
}

func (a *RSSAdapter) startDate(item *gofeed.Item) (time.Time, bool) {
	if t, ok := ParseDate(eventExt(item, "startdate"), a.location); ok {
		return t, true
	}
	if item.PublishedParsed != nil {
		return item.PublishedParsed.In(a.location), true
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.In(a.location), true
	}
	return time.Time{}, false
}

// eventExt returns the first mod_event element with the given name.
func eventExt(item *gofeed.Item, name string) string {
	if item.Extensions == nil {
		return ""
	}
	ns, ok := item.Extensions["ev"]
	if !ok {
		return ""
	}
	vals := ns[name]
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0].Value)
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}
