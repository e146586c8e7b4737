package scraper

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"

	"sactech-events/internal/domain/entity"

	"github.com/PuerkitoBio/goquery"
)

// postalAddressKeys fixes the order address parts are joined in.
var postalAddressKeys = []string{
	"streetAddress", "addressLocality", "addressRegion", "postalCode", "addressCountry",
}

// extractJSONLD maps embedded schema.org Event objects to raw events.
func (x *Extractor) extractJSONLD(doc *goquery.Document, base *url.URL) []entity.RawEvent {
	var events []entity.RawEvent
	doc.Find(jsonLDSelector).Each(func(i int, s *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			slog.Debug("skipping malformed JSON-LD block", slog.Int("index", i), slog.Any("error", err))
			return
		}
		for _, obj := range jsonLDObjects(data) {
			if !isEventType(obj["@type"]) {
				continue
			}
			if ev, ok := x.mapJSONLDEvent(obj, base); ok {
				events = append(events, ev)
			}
		}
	})
	return events
}

// jsonLDObjects flattens a top-level object, a top-level array, and @graph.
func jsonLDObjects(data any) []map[string]any {
	var out []map[string]any
	switch v := data.(type) {
	case map[string]any:
		out = append(out, v)
		if graph, ok := v["@graph"].([]any); ok {
			for _, g := range graph {
				if m, ok := g.(map[string]any); ok {
					out = append(out, m)
				}
			}
		}
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

func isEventType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "Event" || v == "events"
	case []any:
		for _, item := range v {
			if isEventType(item) {
				return true
			}
		}
	}
	return false
}

func (x *Extractor) mapJSONLDEvent(obj map[string]any, base *url.URL) (entity.RawEvent, bool) {
	ev := entity.RawEvent{
		Title:       strings.TrimSpace(str(obj["name"])),
		Description: strings.TrimSpace(str(obj["description"])),
		Location:    jsonLDLocation(obj["location"]),
		Organizer:   jsonLDName(obj["organizer"]),
	}
	if ev.Title == "" {
		return entity.RawEvent{}, false
	}

	start, ok := ParseDate(str(obj["startDate"]), x.Location)
	if !ok {
		return entity.RawEvent{}, false
	}
	ev.StartDate = start
	if end, ok := ParseDate(str(obj["endDate"]), x.Location); ok {
		ev.EndDate = &end
	}

	if u := str(obj["url"]); u != "" {
		ev.URL = resolveURL(base, u)
	}
	if img := jsonLDImage(obj["image"]); img != "" {
		ev.ImageURL = resolveURL(base, img)
	}
	return ev, true
}

// jsonLDLocation accepts a plain string or a Place with name and address.
func jsonLDLocation(v any) string {
	switch loc := v.(type) {
	case string:
		return strings.TrimSpace(loc)
	case []any:
		if len(loc) > 0 {
			return jsonLDLocation(loc[0])
		}
	case map[string]any:
		parts := []string{}
		if name := strings.TrimSpace(str(loc["name"])); name != "" {
			parts = append(parts, name)
		}
		switch addr := loc["address"].(type) {
		case string:
			if a := strings.TrimSpace(addr); a != "" {
				parts = append(parts, a)
			}
		case map[string]any:
			for _, key := range postalAddressKeys {
				if p := strings.TrimSpace(str(addr[key])); p != "" {
					parts = append(parts, p)
				}
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// jsonLDImage accepts a URL string, an array (first element wins), or an ImageObject.
func jsonLDImage(v any) string {
	switch img := v.(type) {
	case string:
		return img
	case []any:
		if len(img) > 0 {
			return jsonLDImage(img[0])
		}
	case map[string]any:
		return str(img["url"])
	}
	return ""
}

// jsonLDName reads organizer.name, tolerating a bare string or an array.
func jsonLDName(v any) string {
	switch o := v.(type) {
	case string:
		return strings.TrimSpace(o)
	case []any:
		if len(o) > 0 {
			return jsonLDName(o[0])
		}
	case map[string]any:
		return strings.TrimSpace(str(o["name"]))
	}
	return ""
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
