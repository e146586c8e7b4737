package entity_test

import (
	"errors"
	"net"
	"testing"
	"time"

	"sactech-events/internal/domain/entity"
)

func TestValidateURL(t *testing.T) {
	restore := entity.SetLookupIP(func(host string) ([]net.IP, error) {
		switch host {
		case "internal.example":
			return []net.IP{net.ParseIP("10.1.2.3")}, nil
		case "metadata.example":
			return []net.IP{net.ParseIP("169.254.169.254")}, nil
		case "public.example":
			return []net.IP{net.ParseIP("93.184.216.34")}, nil
		}
		return nil, errors.New("no such host")
	})
	defer restore()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"empty", "", true},
		{"ftp scheme", "ftp://public.example/events", true},
		{"no host", "https:///events", true},
		{"private network", "https://internal.example/events", true},
		{"cloud metadata", "http://metadata.example/latest", true},
		{"public", "https://public.example/events", false},
		{"unresolvable host accepted", "https://not-yet-live.example/events", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := entity.ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateURL(%q) err = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if err != nil {
				var ve *entity.ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("want *ValidationError, got %T", err)
				}
			}
		})
	}
}

func TestSourceValidate(t *testing.T) {
	restore := entity.SetLookupIP(func(string) ([]net.IP, error) { return nil, errors.New("offline") })
	defer restore()

	ok := entity.Source{Name: "SacPy", Kind: entity.SourceKindWebsite, URL: "https://www.meetup.com/sacpy/"}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	bad := ok
	bad.Name = "  "
	if err := bad.Validate(); err == nil {
		t.Error("blank name should fail")
	}

	bad = ok
	bad.Status = "archived"
	if err := bad.Validate(); err == nil {
		t.Error("unknown status should fail")
	}
}

func TestRawEventEffectiveEndDate(t *testing.T) {
	start := mustTime(t, "2025-03-05T18:00:00Z")
	ev := entity.RawEvent{StartDate: start}
	if got, want := ev.EffectiveEndDate(), start.Add(2*time.Hour); !got.Equal(want) {
		t.Errorf("EffectiveEndDate() = %v, want %v", got, want)
	}

	end := start.Add(90 * time.Minute)
	ev.EndDate = &end
	if got := ev.EffectiveEndDate(); !got.Equal(end) {
		t.Errorf("EffectiveEndDate() = %v, want %v", got, end)
	}
}

func TestCategoryMapKeywords(t *testing.T) {
	m := entity.CategoryMap{
		"A": {"Go", "rust", " "},
		"B": {"go", "Python"},
	}
	got := m.Keywords()
	want := []string{"go", "python", "rust"}
	if len(got) != len(want) {
		t.Fatalf("Keywords() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keywords()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	clone := m.Clone()
	clone["A"][0] = "changed"
	if m["A"][0] != "Go" {
		t.Error("Clone must not share keyword slices")
	}
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatal(err)
	}
	return tm
}
