// Package channel implements the weather channel: a bounded, best-effort,
// bidirectional message link to the companion peer with at most one outbound
// message in flight.
package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/couchcryptid/radial-watchface/internal/appmsg"
	"github.com/couchcryptid/radial-watchface/internal/domain"
)

var (
	// ErrBusy is returned by Send while a previous send has not completed.
	ErrBusy = errors.New("channel: outbound message in flight")
	// ErrClosed is returned by Send after Close.
	ErrClosed = errors.New("channel: closed")
	// ErrNoTransport is returned by Send when no transport is attached.
	ErrNoTransport = errors.New("channel: no transport attached")
)

// Transport moves encoded envelopes to and from the peer.
//
// Publish must not block the caller for the duration of the delivery: it
// starts the send and invokes done exactly once, from any goroutine, when the
// send has succeeded (nil) or failed.
type Transport interface {
	Publish(ctx context.Context, payload []byte, done func(error))
	Close() error
}

// EventSink receives channel events. Post must not block.
type EventSink interface {
	Post(ev domain.Event) bool
}

// Channel enforces the outbound discipline and bounds both directions.
type Channel struct {
	transport  Transport
	sink       EventSink
	logger     *slog.Logger
	bufferSize int

	busy   atomic.Bool
	closed atomic.Bool

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// New creates a Channel. Transports are attached with Attach once they have
// been built with the channel as their inbound receiver.
func New(sink EventSink, bufferSize int, logger *slog.Logger) *Channel {
	if bufferSize <= 0 {
		bufferSize = appmsg.DefaultBufferSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Channel{
		sink:       sink,
		logger:     logger,
		bufferSize: bufferSize,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Attach sets the transport used for outbound messages.
func (c *Channel) Attach(t Transport) {
	c.transport = t
}

// BufferSize returns the per-direction envelope limit in bytes.
func (c *Channel) BufferSize() int {
	return c.bufferSize
}

// Busy reports whether an outbound message is in flight.
func (c *Channel) Busy() bool {
	return c.busy.Load()
}

// Send encodes d and hands it to the transport. It never blocks: a send while
// another is in flight returns ErrBusy and the message is discarded.
func (c *Channel) Send(d appmsg.Dict) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if c.transport == nil {
		return ErrNoTransport
	}

	payload, err := appmsg.Marshal(d, c.bufferSize)
	if err != nil {
		return err
	}

	if !c.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}

	var once sync.Once
	c.transport.Publish(c.ctx, payload, func(err error) {
		once.Do(func() { c.complete(err) })
	})
	return nil
}

func (c *Channel) complete(err error) {
	c.busy.Store(false)
	if c.closed.Load() {
		return
	}
	if !c.sink.Post(domain.WeatherSendResult{Err: err}) {
		c.logger.Warn("send result not delivered, event queue full", "error", err)
	}
}

// Deliver accepts an inbound envelope from the transport. Envelopes that
// cannot be decoded are reported as WeatherDropped; the rest as
// WeatherReceived. Safe to call from any goroutine.
func (c *Channel) Deliver(payload []byte) {
	if c.closed.Load() {
		return
	}

	var ev domain.Event
	d, err := appmsg.Unmarshal(payload, c.bufferSize)
	if err != nil {
		ev = domain.WeatherDropped{Reason: fmt.Errorf("inbound envelope: %w", err)}
	} else {
		ev = domain.WeatherReceived{Message: d}
	}

	if !c.sink.Post(ev) {
		c.logger.Warn("inbound message not delivered, event queue full", "size", len(payload))
	}
}

// Close stops delivery and closes the transport. Idempotent.
func (c *Channel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.cancel()
		if c.transport != nil {
			err = c.transport.Close()
		}
	})
	return err
}
