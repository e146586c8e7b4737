package scraper_test

import (
	"testing"
	"time"

	"sactech-events/internal/infra/scraper"
)

func TestParseDate_EquivalentFormats(t *testing.T) {
	inputs := []string{"March 5, 2025", "2025-03-05", "03/05/2025"}
	for _, in := range inputs {
		got, ok := scraper.ParseDate(in, time.UTC)
		if !ok {
			t.Fatalf("ParseDate(%q) failed", in)
		}
		if d := got.Format("2006-01-02"); d != "2025-03-05" {
			t.Errorf("ParseDate(%q) = %s, want 2025-03-05", in, d)
		}
	}
}

func TestParseDate_FallbackPatterns(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"slash inside prose", "Doors open 03/05/2025 around six", "2025-03-05"},
		{"dotted is day first", "05.03.2025", "2025-03-05"},
		{"iso inside prose", "Scheduled for 2025-11-20 (tentative)", "2025-11-20"},
		{"long month with weekday", "Tue, Mar. 5th, 2025 - 6:00pm", "2025-03-05"},
		{"long month lowercase", "see you on december 9 2025 folks", "2025-12-09"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := scraper.ParseDate(tt.in, time.UTC)
			if !ok {
				t.Fatalf("ParseDate(%q) failed", tt.in)
			}
			if d := got.Format("2006-01-02"); d != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.in, d, tt.want)
			}
		})
	}
}

func TestParseDate_KeepsTimeOfDay(t *testing.T) {
	got, ok := scraper.ParseDate("2025-04-10T18:30:00Z", time.UTC)
	if !ok {
		t.Fatal("ParseDate failed")
	}
	want := time.Date(2025, 4, 10, 18, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseDate() = %v, want %v", got, want)
	}
}

func TestParseDate_TwelveHourClock(t *testing.T) {
	got, ok := scraper.ParseDate("March 5th, 2025 6pm", time.UTC)
	if !ok {
		t.Fatal("ParseDate failed")
	}
	want := time.Date(2025, 3, 5, 18, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseDate() = %v, want %v", got, want)
	}
}

func TestParseDate_UsesLocation(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)
	got, ok := scraper.ParseDate("05.03.2025", loc)
	if !ok {
		t.Fatal("ParseDate failed")
	}
	if got.Location() != loc || got.Hour() != 0 {
		t.Errorf("ParseDate() = %v, want midnight in %v", got, loc)
	}
}

func TestParseDate_Unparseable(t *testing.T) {
	for _, in := range []string{"", "   ", "???", "13/45/2025"} {
		if got, ok := scraper.ParseDate(in, time.UTC); ok {
			t.Errorf("ParseDate(%q) = %v, want failure", in, got)
		}
	}
}
