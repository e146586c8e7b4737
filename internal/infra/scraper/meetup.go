package scraper

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sactech-events/internal/domain/entity"
	"sactech-events/internal/usecase/fetch"
)

const meetupFields = "description,featured_photo,group_key_photo,plain_text_description"

// MeetupAdapter reads upcoming events from a Meetup-style JSON API endpoint.
type MeetupAdapter struct {
	source   *entity.Source
	endpoint *url.URL
	client   *http.Client
	location *time.Location
}

type meetupEvent struct {
	ID                   json.RawMessage `json:"id"`
	Name                 string          `json:"name"`
	Time                 json.Number     `json:"time"`
	Duration             json.Number     `json:"duration"`
	Description          string          `json:"description"`
	PlainTextDescription string          `json:"plain_text_description"`
	Link                 string          `json:"link"`
	Venue                *struct {
		Name     string `json:"name"`
		Address1 string `json:"address_1"`
		City     string `json:"city"`
	} `json:"venue"`
	FeaturedPhoto *meetupPhoto `json:"featured_photo"`
	Group         *struct {
		Name     string       `json:"name"`
		KeyPhoto *meetupPhoto `json:"key_photo"`
	} `json:"group"`
}

type meetupPhoto struct {
	PhotoLink string `json:"photo_link"`
}

// NewMeetupAdapter builds an adapter for src. TLS verification is always on
// for API endpoints.
func NewMeetupAdapter(src *entity.Source, cfg fetch.AdapterConfig) (*MeetupAdapter, error) {
	u, err := parseSourceURL(src.URL)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()
	return &MeetupAdapter{
		source:   src,
		endpoint: u,
		client:   NewHTTPClient(cfg.Timeout, false),
		location: cfg.Location,
	}, nil
}

// Name returns the source display name.
func (a *MeetupAdapter) Name() string { return a.source.Name }

// Kind returns entity.SourceKindMeetup.
func (a *MeetupAdapter) Kind() string { return entity.SourceKindMeetup }

// FetchEvents requests one page of upcoming events. Failures are logged and
// whatever was collected is returned; it never returns an error.
func (a *MeetupAdapter) FetchEvents(ctx context.Context, limit int) ([]entity.RawEvent, error) {
	logger := slog.With(slog.Int64("source_id", a.source.ID), slog.String("source_kind", entity.SourceKindMeetup))

	body, err := get(ctx, a.client, a.requestURL(limit), apiUserAgent, "application/json")
	if err != nil {
		logger.Error("meetup request failed", slog.Any("error", err))
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		logger.Error("meetup response is not a JSON array", slog.Any("error", err))
		return nil, nil
	}

	events := make([]entity.RawEvent, 0, len(items))
	for i, raw := range items {
		if limit > 0 && len(events) >= limit {
			break
		}
		var item meetupEvent
		if err := json.Unmarshal(raw, &item); err != nil {
			logger.Debug("skipping malformed meetup item", slog.Int("index", i), slog.Any("error", err))
			continue
		}
		if ev, ok := a.convert(&item); ok {
			events = append(events, ev)
		}
	}
	return events, nil
}

func (a *MeetupAdapter) requestURL(limit int) string {
	u := *a.endpoint
	q := u.Query()
	q.Set("page", strconv.Itoa(limit))
	q.Set("fields", meetupFields)
	q.Set("status", "upcoming")
	u.RawQuery = q.Encode()
	return u.String()
}

func (a *MeetupAdapter) convert(item *meetupEvent) (entity.RawEvent, bool) {
	name := strings.TrimSpace(item.Name)
	startMs, err := item.Time.Int64()
	if name == "" || err != nil || startMs == 0 {
		return entity.RawEvent{}, false
	}

	start := time.UnixMilli(startMs).In(a.location)
	end := start
	if d, err := item.Duration.Int64(); err == nil && d > 0 {
		end = start.Add(time.Duration(d) * time.Millisecond)
	}

	ev := entity.RawEvent{
		Title:       name,
		Description: item.Description,
		StartDate:   start,
		EndDate:     &end,
		URL:         item.Link,
		ExternalID:  rawID(item.ID),
	}
	if ev.Description == "" {
		ev.Description = item.PlainTextDescription
	}

	if v := item.Venue; v != nil {
		var parts []string
		for _, p := range []string{v.Name, v.Address1, v.City} {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		ev.Location = strings.Join(parts, ", ")
	}

	if item.FeaturedPhoto != nil && item.FeaturedPhoto.PhotoLink != "" {
		ev.ImageURL = item.FeaturedPhoto.PhotoLink
	} else if item.Group != nil && item.Group.KeyPhoto != nil {
		ev.ImageURL = item.Group.KeyPhoto.PhotoLink
	}
	if item.Group != nil {
		ev.Organizer = item.Group.Name
	}
	return ev, true
}

// rawID accepts both string and numeric identifiers.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
