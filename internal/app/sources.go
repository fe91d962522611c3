package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/radial-watchface/internal/domain"
)

// EventSink accepts events without blocking.
type EventSink interface {
	Post(ev domain.Event) bool
}

// MinuteTicker posts a Tick at every wall-clock minute boundary. A minute the
// sink cannot accept is lost, not replayed.
type MinuteTicker struct {
	clock  clockwork.Clock
	sink   EventSink
	logger *slog.Logger
}

// NewMinuteTicker creates a ticker driven by clock.
func NewMinuteTicker(clock clockwork.Clock, sink EventSink, logger *slog.Logger) *MinuteTicker {
	return &MinuteTicker{clock: clock, sink: sink, logger: logger}
}

// Run blocks until ctx is cancelled.
func (t *MinuteTicker) Run(ctx context.Context) {
	for {
		now := t.clock.Now()
		next := now.Truncate(time.Minute).Add(time.Minute)

		select {
		case <-ctx.Done():
			return
		case <-t.clock.After(next.Sub(now)):
		}

		reading := domain.NewClockReading(t.clock.Now())
		if !t.sink.Post(domain.Tick{Reading: reading}) {
			t.logger.Warn("minute tick lost", "hour", reading.Hour, "minute", reading.Minute)
		}
	}
}

// BatterySource reports the current battery status on demand.
type BatterySource interface {
	Peek() (domain.BatteryStatus, error)
}

// BatteryWatcher peeks a BatterySource periodically and pushes a
// BatteryChanged event only when the status differs from the last push.
type BatteryWatcher struct {
	source   BatterySource
	sink     EventSink
	clock    clockwork.Clock
	interval time.Duration
	logger   *slog.Logger

	last   domain.BatteryStatus
	primed bool
}

// NewBatteryWatcher creates a watcher polling every interval.
func NewBatteryWatcher(source BatterySource, sink EventSink, clock clockwork.Clock, interval time.Duration, logger *slog.Logger) *BatteryWatcher {
	return &BatteryWatcher{
		source:   source,
		sink:     sink,
		clock:    clock,
		interval: interval,
		logger:   logger,
	}
}

// Prime records a status already delivered so the first poll does not repeat it.
func (w *BatteryWatcher) Prime(s domain.BatteryStatus) {
	w.last = s.Clamp()
	w.primed = true
}

// Run blocks until ctx is cancelled.
func (w *BatteryWatcher) Run(ctx context.Context) {
	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			w.poll()
		}
	}
}

func (w *BatteryWatcher) poll() {
	s, err := w.source.Peek()
	if err != nil {
		w.logger.Warn("battery peek failed", "error", err)
		return
	}
	s = s.Clamp()
	if w.primed && s == w.last {
		return
	}
	if !w.sink.Post(domain.BatteryChanged{Status: s}) {
		return
	}
	w.last = s
	w.primed = true
}
