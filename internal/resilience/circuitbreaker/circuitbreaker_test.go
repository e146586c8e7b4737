package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sony/gobreaker"
)

func testConfig() Config {
	return Config{
		Name:             "test-circuit",
		MaxRequests:      1,
		Interval:         10 * time.Second,
		Timeout:          20 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      3,
	}
}

func TestNew(t *testing.T) {
	cb := New(testConfig())
	if cb.Name() != "test-circuit" {
		t.Errorf("Name() = %q, want %q", cb.Name(), "test-circuit")
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("initial state = %v, want Closed", cb.State())
	}
}

func TestDo_PassesValueAndError(t *testing.T) {
	cb := New(testConfig())

	got, err := Do(cb, func() (string, error) { return "ok", nil })
	if err != nil || got != "ok" {
		t.Fatalf("Do() = (%q, %v), want (\"ok\", nil)", got, err)
	}

	wantErr := errors.New("boom")
	got, err = Do(cb, func() (string, error) { return "ignored", wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("Do() err = %v, want %v", err, wantErr)
	}
	if got != "" {
		t.Errorf("Do() value on error = %q, want zero", got)
	}
}

func TestCircuitBreaker_TripsOnFailureRatio(t *testing.T) {
	cb := New(testConfig())
	failing := func() (interface{}, error) { return nil, errors.New("down") }

	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(failing)
	}
	if !cb.IsOpen() {
		t.Fatalf("state = %v, want Open after 3/3 failures", cb.State())
	}

	_, err := cb.Execute(func() (interface{}, error) { return "never", nil })
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Execute() on open circuit err = %v, want ErrOpenState", err)
	}
}

func TestTextGenConfig(t *testing.T) {
	cfg := TextGenConfig("openai")
	if cfg.Name != "textgen-openai" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.FailureThreshold <= 0 || cfg.FailureThreshold > 1 {
		t.Errorf("FailureThreshold = %v out of range", cfg.FailureThreshold)
	}
}

func TestDBCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	for i := 0; i < 5; i++ {
		mock.ExpectExec("UPDATE event_sources").WillReturnError(errors.New("connection refused"))
	}

	dcb := NewDBCircuitBreaker(db)
	for i := 0; i < 5; i++ {
		if _, err := dcb.ExecContext(t.Context(), "UPDATE event_sources SET status = 'active'"); err == nil {
			t.Fatalf("attempt %d: want error", i)
		}
	}
	if !dcb.IsOpen() {
		t.Fatal("breaker should be open after 5 failures")
	}
	if _, err := dcb.ExecContext(t.Context(), "UPDATE event_sources SET status = 'active'"); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("err = %v, want ErrOpenState", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
