package fetch_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"sactech-events/internal/domain/entity"
	"sactech-events/internal/usecase/fetch"
)

/* ───────── stubs ───────── */

type stubSourceRepo struct {
	mu      sync.Mutex
	sources []*entity.Source
	touched map[int64]time.Time
	listErr error
}

func (s *stubSourceRepo) Get(_ context.Context, id int64) (*entity.Source, error) {
	for _, src := range s.sources {
		if src.ID == id {
			return src, nil
		}
	}
	return nil, nil
}
func (s *stubSourceRepo) List(context.Context) ([]*entity.Source, error) { return s.sources, nil }
func (s *stubSourceRepo) ListActive(context.Context) ([]*entity.Source, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []*entity.Source
	for _, src := range s.sources {
		if src.IsActive() {
			out = append(out, src)
		}
	}
	return out, nil
}
func (s *stubSourceRepo) Create(context.Context, *entity.Source) error { return nil }
func (s *stubSourceRepo) Update(context.Context, *entity.Source) error { return nil }
func (s *stubSourceRepo) SoftDelete(context.Context, int64) error      { return nil }
func (s *stubSourceRepo) TouchCheckedAt(_ context.Context, id int64, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.touched == nil {
		s.touched = map[int64]time.Time{}
	}
	s.touched[id] = t
	return nil
}

type stubAdapter struct {
	src       *entity.Source
	events    []entity.RawEvent
	err       error
	panicWith any
	gotLimit  *int
}

func (a *stubAdapter) FetchEvents(_ context.Context, limit int) ([]entity.RawEvent, error) {
	if a.gotLimit != nil {
		*a.gotLimit = limit
	}
	if a.panicWith != nil {
		panic(a.panicWith)
	}
	if a.err != nil {
		return nil, a.err
	}
	out := make([]entity.RawEvent, len(a.events))
	copy(out, a.events)
	return out, nil
}
func (a *stubAdapter) Name() string { return a.src.Name }
func (a *stubAdapter) Kind() string { return "stub" }

// registryFor registers a "stub" kind whose adapters are looked up by source ID.
func registryFor(t *testing.T, adapters map[int64]*stubAdapter) *fetch.Registry {
	t.Helper()
	reg := fetch.NewRegistry()
	err := reg.Register("stub", "Stub", func(src *entity.Source, _ fetch.AdapterConfig) (fetch.Adapter, error) {
		a, ok := adapters[src.ID]
		if !ok {
			return nil, fmt.Errorf("no adapter for source %d", src.ID)
		}
		a.src = src
		return a, nil
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return reg
}

func events(prefix string, n int) []entity.RawEvent {
	out := make([]entity.RawEvent, n)
	for i := range out {
		out[i] = entity.RawEvent{Title: fmt.Sprintf("%s-%d", prefix, i+1)}
	}
	return out
}

func titles(evs []entity.RawEvent) []string {
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.Title
	}
	return out
}

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

/* ───────── 1. PerSourceLimit ───────── */

func TestPerSourceLimit(t *testing.T) {
	tests := []struct{ limit, sources, want int }{
		{50, 1, 50},
		{50, 3, 16},
		{50, 20, 5},
		{10, 3, 5},
		{50, 0, 50},
		{0, 4, 5},
	}
	for _, tt := range tests {
		if got := fetch.PerSourceLimit(tt.limit, tt.sources); got != tt.want {
			t.Errorf("PerSourceLimit(%d, %d) = %d, want %d", tt.limit, tt.sources, got, tt.want)
		}
	}
}

/* ───────── 2. FetchAll ───────── */

func TestFetchAll_FaultIsolation(t *testing.T) {
	repo := &stubSourceRepo{sources: []*entity.Source{
		{ID: 1, Name: "one", Kind: "stub", Status: entity.SourceStatusActive},
		{ID: 2, Name: "two", Kind: "stub", Status: entity.SourceStatusActive},
		{ID: 3, Name: "three", Kind: "stub", Status: entity.SourceStatusActive},
	}}
	adapters := map[int64]*stubAdapter{
		1: {events: events("a", 2)},
		2: {err: errors.New("dial tcp: connection refused")},
		3: {events: events("c", 1)},
	}
	svc := &fetch.Service{SourceRepo: repo, Registry: registryFor(t, adapters), Now: func() time.Time { return fixedNow }}

	res, err := svc.FetchAll(context.Background(), 50, fetch.AdapterConfig{})
	if err != nil {
		t.Fatalf("FetchAll() err = %v", err)
	}

	got := titles(res.Events)
	want := []string{"a-1", "a-2", "c-1"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if res.Failed != 1 {
		t.Errorf("Failed = %d, want 1", res.Failed)
	}

	if _, ok := repo.touched[2]; ok {
		t.Error("source 2 failed at transport level; checkpoint must not move")
	}
	for _, id := range []int64{1, 3} {
		if ts, ok := repo.touched[id]; !ok || !ts.Equal(fixedNow) {
			t.Errorf("source %d checkpoint = %v (set=%v), want %v", id, ts, ok, fixedNow)
		}
	}
}

func TestFetchAll_TagsEventsWithSource(t *testing.T) {
	src := &entity.Source{ID: 7, Name: "seven", Kind: "stub", Status: entity.SourceStatusActive}
	repo := &stubSourceRepo{sources: []*entity.Source{src}}
	svc := &fetch.Service{SourceRepo: repo, Registry: registryFor(t, map[int64]*stubAdapter{7: {events: events("x", 2)}})}

	res, err := svc.FetchAll(context.Background(), 10, fetch.AdapterConfig{})
	if err != nil {
		t.Fatal(err)
	}
	for i, ev := range res.Events {
		if ev.Source != src {
			t.Errorf("event %d Source = %v, want source 7", i, ev.Source)
		}
	}
}

func TestFetchAll_TruncatesInIterationOrder(t *testing.T) {
	repo := &stubSourceRepo{sources: []*entity.Source{
		{ID: 1, Name: "a", Kind: "stub", Status: entity.SourceStatusActive},
		{ID: 2, Name: "b", Kind: "stub", Status: entity.SourceStatusActive},
	}}
	var gotLimit int
	adapters := map[int64]*stubAdapter{
		1: {events: events("a", 5), gotLimit: &gotLimit},
		2: {events: events("b", 5)},
	}
	svc := &fetch.Service{SourceRepo: repo, Registry: registryFor(t, adapters)}

	res, err := svc.FetchAll(context.Background(), 6, fetch.AdapterConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if gotLimit != 5 {
		t.Errorf("per-source limit = %d, want 5", gotLimit)
	}
	want := []string{"a-1", "a-2", "a-3", "a-4", "a-5", "b-1"}
	if fmt.Sprint(titles(res.Events)) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", titles(res.Events), want)
	}
	if res.Truncated != 4 {
		t.Errorf("Truncated = %d, want 4", res.Truncated)
	}
}

func TestFetchAll_EmptyResultStillCheckpoints(t *testing.T) {
	repo := &stubSourceRepo{sources: []*entity.Source{
		{ID: 4, Name: "quiet", Kind: "stub", Status: entity.SourceStatusActive},
	}}
	svc := &fetch.Service{SourceRepo: repo, Registry: registryFor(t, map[int64]*stubAdapter{4: {}})}

	if _, err := svc.FetchAll(context.Background(), 10, fetch.AdapterConfig{}); err != nil {
		t.Fatal(err)
	}
	if _, ok := repo.touched[4]; !ok {
		t.Error("a source that answered with zero events is still checked")
	}
}

func TestFetchAll_UnknownKindAndPanicAreIsolated(t *testing.T) {
	repo := &stubSourceRepo{sources: []*entity.Source{
		{ID: 1, Name: "ical", Kind: "ical", Status: entity.SourceStatusActive},
		{ID: 2, Name: "boom", Kind: "stub", Status: entity.SourceStatusActive},
		{ID: 3, Name: "fine", Kind: "stub", Status: entity.SourceStatusActive},
	}}
	adapters := map[int64]*stubAdapter{
		2: {panicWith: "nil map"},
		3: {events: events("f", 1)},
	}
	svc := &fetch.Service{SourceRepo: repo, Registry: registryFor(t, adapters)}

	res, err := svc.FetchAll(context.Background(), 10, fetch.AdapterConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Events) != 1 || res.Events[0].Title != "f-1" {
		t.Errorf("events = %v, want [f-1]", titles(res.Events))
	}
	if res.Failed != 2 {
		t.Errorf("Failed = %d, want 2", res.Failed)
	}
	if len(repo.touched) != 1 {
		t.Errorf("touched = %v, want only source 3", repo.touched)
	}
}

func TestFetchAll_SkipsInactiveSources(t *testing.T) {
	repo := &stubSourceRepo{sources: []*entity.Source{
		{ID: 1, Name: "off", Kind: "stub", Status: entity.SourceStatusInactive},
		{ID: 2, Name: "gone", Kind: "stub", Status: entity.SourceStatusDeleted},
	}}
	svc := &fetch.Service{SourceRepo: repo, Registry: registryFor(t, map[int64]*stubAdapter{})}

	res, err := svc.FetchAll(context.Background(), 10, fetch.AdapterConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Sources != 0 || len(res.Events) != 0 {
		t.Errorf("res = %+v, want nothing fetched", res)
	}
}

func TestFetchAll_ListError(t *testing.T) {
	repo := &stubSourceRepo{listErr: errors.New("db down")}
	svc := &fetch.Service{SourceRepo: repo, Registry: fetch.NewRegistry()}
	if _, err := svc.FetchAll(context.Background(), 10, fetch.AdapterConfig{}); err == nil {
		t.Fatal("want error when sources cannot be listed")
	}
}

/* ───────── 3. FetchSource / TestSource ───────── */

func TestFetchSource(t *testing.T) {
	repo := &stubSourceRepo{sources: []*entity.Source{
		{ID: 9, Name: "nine", Kind: "stub", Status: entity.SourceStatusInactive},
		{ID: 10, Name: "ten", Kind: "stub", Status: entity.SourceStatusDeleted},
	}}
	svc := &fetch.Service{SourceRepo: repo, Registry: registryFor(t, map[int64]*stubAdapter{9: {events: events("n", 3)}})}

	got, err := svc.FetchSource(context.Background(), 9, 3, fetch.AdapterConfig{})
	if err != nil {
		t.Fatalf("FetchSource() err = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	if got[0].Source == nil || got[0].Source.ID != 9 {
		t.Errorf("Source = %v, want source 9", got[0].Source)
	}
	if len(repo.touched) != 0 {
		t.Error("FetchSource must not move checkpoints")
	}

	for _, id := range []int64{10, 404} {
		if _, err := svc.FetchSource(context.Background(), id, 3, fetch.AdapterConfig{}); !errors.Is(err, fetch.ErrSourceNotFound) {
			t.Errorf("FetchSource(%d) err = %v, want ErrSourceNotFound", id, err)
		}
	}
}

func TestTestSource(t *testing.T) {
	reg := fetch.NewRegistry()
	var gotURL string
	_ = reg.Register("stub", "Stub", func(src *entity.Source, _ fetch.AdapterConfig) (fetch.Adapter, error) {
		gotURL = src.URL
		return &stubAdapter{src: src, events: events("s", 8)}, nil
	})
	svc := &fetch.Service{SourceRepo: &stubSourceRepo{}, Registry: reg}

	res, err := svc.TestSource(context.Background(), "stub", "https://example.com/cal", fetch.AdapterConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if gotURL != "https://example.com/cal" {
		t.Errorf("adapter URL = %q", gotURL)
	}
	if res.Count != 5 || len(res.Sample) != 5 {
		t.Errorf("Count = %d, len(Sample) = %d, want 5/5", res.Count, len(res.Sample))
	}

	if _, err := svc.TestSource(context.Background(), "nope", "https://example.com", fetch.AdapterConfig{}); !errors.Is(err, fetch.ErrUnknownKind) {
		t.Errorf("unknown kind err = %v, want ErrUnknownKind", err)
	}
}
