package scraper

import (
	"net/url"
	"strings"
	"time"

	"sactech-events/internal/domain/entity"

	"github.com/PuerkitoBio/goquery"
)

// candidateSelectors locate event-like containers. Every selector is applied
// and every match kept, so one element can yield more than one candidate.
var candidateSelectors = []string{
	`div[class*="event"]`,
	`div[class*="calendar-item"]`,
	`article[class*="event"]`,
	`div[id*="event"]`,
	`li[class*="event"]`,
	`div[class*="tribe-events"]`,
	`div[class*="schedule"]`,
	`div[class*="meetup"]`,
	`div[itemtype*="Event"]`,
	`div[class*="session"]`,
	`div[class*="workshop"]`,
	`div[class*="conference"]`,
	`div[class*="webinar"]`,
}

// Field selectors inside a candidate. Within each group the first element in
// document order wins.
const (
	titleSelector    = `h1, h2, h3, h4, div[class*="title"], span[class*="title"]`
	descSelector     = `div[class*="desc"], p`
	dateSelector     = `time, div[class*="date"], span[class*="date"]`
	locationSelector = `div[class*="location"], span[class*="location"], address`
	linkSelector     = `a[class*="more"], a[class*="link"], a[class*="url"]`
	imageSelector    = `img`
	jsonLDSelector   = `script[type="application/ld+json"]`
)

// Extractor turns an HTML page into raw events.
type Extractor struct {
	// Location is applied to dates without a zone. Nil means UTC.
	Location *time.Location
}

// Extract returns the events found in doc. base is the page URL and is used
// to resolve relative links.
//
// DOM candidates are tried first; embedded JSON-LD is consulted only when no
// DOM candidate matched at all. Candidates without a title or a resolvable
// start date are dropped.
func (x *Extractor) Extract(doc *goquery.Document, base *url.URL) []entity.RawEvent {
	var candidates []*goquery.Selection
	for _, sel := range candidateSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			candidates = append(candidates, s)
		})
	}

	if len(candidates) == 0 {
		return x.extractJSONLD(doc, base)
	}

	events := make([]entity.RawEvent, 0, len(candidates))
	for _, c := range candidates {
		if ev, ok := x.extractCandidate(c, base); ok {
			events = append(events, ev)
		}
	}
	return events
}

func (x *Extractor) extractCandidate(s *goquery.Selection, base *url.URL) (entity.RawEvent, bool) {
	title := firstText(s, titleSelector)
	if title == "" {
		return entity.RawEvent{}, false
	}

	start, ok := x.candidateDate(s)
	if !ok {
		return entity.RawEvent{}, false
	}

	ev := entity.RawEvent{
		Title:       title,
		Description: firstText(s, descSelector),
		StartDate:   start,
		Location:    firstText(s, locationSelector),
	}
	if href, ok := s.Find(linkSelector).First().Attr("href"); ok {
		ev.URL = resolveURL(base, href)
	}
	if src, ok := s.Find(imageSelector).First().Attr("src"); ok {
		ev.ImageURL = resolveURL(base, src)
	}
	return ev, true
}

// candidateDate parses the first date element. A <time> element whose text
// does not parse falls back to its datetime attribute.
func (x *Extractor) candidateDate(s *goquery.Selection) (time.Time, bool) {
	node := s.Find(dateSelector).First()
	if node.Length() == 0 {
		return time.Time{}, false
	}
	if t, ok := ParseDate(node.Text(), x.Location); ok {
		return t, true
	}
	if goquery.NodeName(node) == "time" {
		if attr, ok := node.Attr("datetime"); ok {
			return ParseDate(attr, x.Location)
		}
	}
	return time.Time{}, false
}

func firstText(s *goquery.Selection, selector string) string {
	return strings.TrimSpace(s.Find(selector).First().Text())
}
