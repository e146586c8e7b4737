package notify

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"sactech-events/internal/domain/entity"
	"sactech-events/internal/resilience/circuitbreaker"

	"github.com/sony/gobreaker"
)

const (
	workerPoolTimeout   = 5 * time.Second
	notificationTimeout = 30 * time.Second
)

// Service sends new-event notifications to every enabled channel in the
// background. Failures are logged and never reach the caller.
type Service struct {
	channels   []Channel
	breakers   map[string]*circuitbreaker.CircuitBreaker
	workerPool chan struct{}
	wg         sync.WaitGroup

	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// NewService creates a Service that runs at most maxConcurrent sends at a time.
func NewService(channels []Channel, maxConcurrent int) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		channels:       channels,
		breakers:       make(map[string]*circuitbreaker.CircuitBreaker, len(channels)),
		workerPool:     make(chan struct{}, maxConcurrent),
		shutdownCtx:    ctx,
		shutdownCancel: cancel,
	}
	for _, ch := range channels {
		cfg := circuitbreaker.DefaultConfig("notify-" + ch.Name())
		cfg.Timeout = 5 * time.Minute
		s.breakers[ch.Name()] = circuitbreaker.New(cfg)
	}
	return s
}

// NotifyNewEvent returns immediately; each enabled channel is served by its
// own goroutine.
func (s *Service) NotifyNewEvent(ctx context.Context, event *entity.Event, source *entity.Source) {
	if s == nil || event == nil || source == nil {
		return
	}
	for _, ch := range s.channels {
		if !ch.IsEnabled() {
			continue
		}
		s.wg.Add(1)
		go s.notifyChannel(ch, event, source)
	}
}

func (s *Service) notifyChannel(ch Channel, event *entity.Event, source *entity.Source) {
	defer s.wg.Done()
	notificationsInFlight.Inc()
	defer notificationsInFlight.Dec()

	log := slog.With(
		slog.String("channel", ch.Name()),
		slog.Int64("event_id", event.ID),
		slog.String("url", event.URL))

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic in notification channel",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	select {
	case s.workerPool <- struct{}{}:
		defer func() { <-s.workerPool }()
	case <-time.After(workerPoolTimeout):
		log.Warn("notification dropped: worker pool full")
		recordDropped(ch.Name(), dropPoolFull)
		return
	case <-s.shutdownCtx.Done():
		return
	}

	ctx, cancel := context.WithTimeout(s.shutdownCtx, notificationTimeout)
	defer cancel()

	start := time.Now()
	_, err := s.breakers[ch.Name()].Execute(func() (interface{}, error) {
		return nil, ch.Send(ctx, event, source)
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		log.Warn("notification dropped: channel circuit open")
		recordDropped(ch.Name(), dropCircuitOpen)
	case err != nil:
		recordResult(ch.Name(), err, time.Since(start))
		log.Warn("channel notification failed", slog.Any("error", err))
	default:
		recordResult(ch.Name(), nil, time.Since(start))
		log.Info("channel notification sent", slog.String("title", event.Title))
	}
}

// Shutdown cancels in-flight sends and waits for them until ctx is done.
func (s *Service) Shutdown(ctx context.Context) error {
	s.shutdownCancel()
	return s.Wait(ctx)
}

// Wait blocks until every dispatched notification has finished or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		slog.Warn("notification service shutdown timeout")
		return ctx.Err()
	}
}
