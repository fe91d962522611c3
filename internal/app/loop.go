// Package app hosts the watchface: it owns the event loop, turns clock and
// battery sources into events, and binds the screen lifecycle to Run.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/radial-watchface/internal/domain"
	"github.com/couchcryptid/radial-watchface/internal/observability"
)

// DefaultQueueSize bounds the number of undelivered events.
const DefaultQueueSize = 64

// Handler consumes events one at a time.
type Handler interface {
	Handle(ev domain.Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ev domain.Event)

func (f HandlerFunc) Handle(ev domain.Event) { f(ev) }

// Flusher redraws whatever the last event marked dirty.
type Flusher interface {
	Flush()
}

// Loop is the single-consumer event dispatcher. Producers on any goroutine
// call Post; only Run calls the handler.
type Loop struct {
	events  chan domain.Event
	handler Handler
	flusher Flusher
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLoop creates a Loop. flusher may be nil.
func NewLoop(handler Handler, flusher Flusher, queueSize int, logger *slog.Logger, metrics *observability.Metrics) *Loop {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Loop{
		events:  make(chan domain.Event, queueSize),
		handler: handler,
		flusher: flusher,
		logger:  logger,
		metrics: metrics,
	}
}

// Post enqueues ev without blocking. It returns false and drops the event
// when the queue is full.
func (l *Loop) Post(ev domain.Event) bool {
	select {
	case l.events <- ev:
		return true
	default:
		l.metrics.EventsDropped.WithLabelValues(ev.Kind()).Inc()
		l.logger.Warn("event queue full, dropping event", "kind", ev.Kind())
		return false
	}
}

// Run dispatches events until the context is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("event loop started", "queue_size", cap(l.events))
	l.metrics.LoopRunning.Set(1)
	defer l.metrics.LoopRunning.Set(0)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("event loop stopping", "reason", ctx.Err())
			return nil
		case ev := <-l.events:
			l.dispatch(ev)
		}
	}
}

// dispatch handles one event. A panic in a handler is logged and the loop
// carries on with the next event.
func (l *Loop) dispatch(ev domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("event handler panicked", "kind", ev.Kind(), "error", fmt.Sprint(r))
		}
	}()

	l.handler.Handle(ev)
	if l.flusher != nil {
		l.flusher.Flush()
	}
}
