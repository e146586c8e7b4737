package filter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"sactech-events/internal/domain/entity"
	"sactech-events/internal/repository"
	"sactech-events/internal/usecase/relevance"
	"sactech-events/internal/usecase/settings"
)

// CategoryHook may rewrite the category map each time it is read.
type CategoryHook func(entity.CategoryMap) entity.CategoryMap

// Rules are the configurable filter criteria.
type Rules struct {
	MinScore  int
	Blacklist []string
	Required  []string
}

// RulesFrom extracts the filter rules from loaded settings.
func RulesFrom(s *settings.Settings) Rules {
	return Rules{
		MinScore:  s.MinRelevanceScore,
		Blacklist: s.BlacklistKeywords,
		Required:  s.RequiredKeywords,
	}
}

// Service evaluates events and resolves their identity in the event store.
type Service struct {
	Settings *settings.Store
	Events   repository.EventRepository
	Scorer   *relevance.Scorer

	// CategoryHook is optional.
	CategoryHook CategoryHook
}

// Filter loads the current rules and categories and evaluates ev.
func (s *Service) Filter(ctx context.Context, ev *entity.RawEvent) (entity.Verdict, error) {
	cfg, err := s.Settings.Load(ctx)
	if err != nil {
		return entity.Verdict{}, fmt.Errorf("filter: %w", err)
	}
	cats, err := s.Categories(ctx)
	if err != nil {
		return entity.Verdict{}, fmt.Errorf("filter: %w", err)
	}
	return s.Evaluate(ev, RulesFrom(cfg), cats), nil
}

// Evaluate applies rules to ev:
//
//  1. a missing title or start date fails with score 0
//  2. the category score must reach rules.MinScore
//  3. when required keywords are configured, at least one must occur
//  4. any blacklisted keyword fails the event
//
// Steps 3 and 4 can only turn a pass into a failure. A blacklist hit always
// reports the blacklist reason.
func (s *Service) Evaluate(ev *entity.RawEvent, rules Rules, cats entity.CategoryMap) entity.Verdict {
	if !ev.HasTitle() {
		return entity.Verdict{Reason: ReasonMissingTitle}
	}
	if !ev.HasStartDate() {
		return entity.Verdict{Reason: ReasonMissingStartDate}
	}

	v := entity.Verdict{Score: s.Scorer.Score(ev, cats)}
	if v.Score >= rules.MinScore {
		v.Passed = true
	} else {
		v.Reason = fmt.Sprintf("Low relevance score: %d (minimum: %d)", v.Score, rules.MinScore)
	}

	content := strings.ToLower(ev.Title + " " + ev.Description)

	if v.Passed && len(rules.Required) > 0 && firstContained(content, rules.Required) == "" {
		v.Passed = false
		v.Reason = ReasonMissingRequired
	}

	if kw := firstContained(content, rules.Blacklist); kw != "" {
		v.Passed = false
		v.Reason = fmt.Sprintf("Contains blacklisted keyword: %s", kw)
	}

	if v.Passed {
		slog.Info("event passed filtering", slog.String("title", ev.Title), slog.Int("score", v.Score))
	} else {
		slog.Info("event failed filtering", slog.String("title", ev.Title), slog.String("reason", v.Reason))
	}
	return v
}

// ContainsBlacklisted returns the first blacklisted keyword found in the
// title or description, case-insensitively.
func ContainsBlacklisted(ev *entity.RawEvent, blacklist []string) (string, bool) {
	kw := firstContained(strings.ToLower(ev.Title+" "+ev.Description), blacklist)
	return kw, kw != ""
}

func firstContained(lowerContent string, keywords []string) string {
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" && strings.Contains(lowerContent, strings.ToLower(kw)) {
			return kw
		}
	}
	return ""
}

// EventExists resolves ev against the store: first by exact URL, then by
// exact title on the same calendar day. It returns the stored ID when found.
func (s *Service) EventExists(ctx context.Context, ev *entity.RawEvent) (int64, bool, error) {
	if ev.URL != "" {
		id, err := s.Events.FindByURL(ctx, ev.URL)
		if err != nil {
			return 0, false, fmt.Errorf("find event by url: %w", err)
		}
		if id != 0 {
			return id, true, nil
		}
	}

	title := strings.TrimSpace(ev.Title)
	if title != "" && ev.HasStartDate() {
		id, err := s.Events.FindByTitleAndDate(ctx, title, ev.StartDate)
		if err != nil {
			return 0, false, fmt.Errorf("find event by title and date: %w", err)
		}
		if id != 0 {
			return id, true, nil
		}
	}
	return 0, false, nil
}

// Categories returns the configured category map after CategoryHook.
func (s *Service) Categories(ctx context.Context) (entity.CategoryMap, error) {
	m, err := s.Settings.CategoryMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	if s.CategoryHook != nil {
		m = s.CategoryHook(m.Clone())
	}
	return m, nil
}

// UpdateCategories replaces the stored category map.
func (s *Service) UpdateCategories(ctx context.Context, m entity.CategoryMap) error {
	if len(m) == 0 {
		return ErrEmptyCategoryMap
	}
	if err := s.Settings.SetCategoryMap(ctx, m); err != nil {
		return fmt.Errorf("update categories: %w", err)
	}
	slog.Info("categories updated", slog.Int("categories", len(m)))
	return nil
}

// DetectCategories returns the sorted names of categories with at least one
// keyword occurring in text.
func DetectCategories(text string, cats entity.CategoryMap) []string {
	text = strings.ToLower(text)
	var out []string
	for name, kws := range cats {
		if firstContained(text, kws) != "" {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
