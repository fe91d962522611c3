package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/radial-watchface/internal/domain"
)

type chanSink struct {
	events chan domain.Event
}

func newChanSink() *chanSink { return &chanSink{events: make(chan domain.Event, 16)} }

func (s *chanSink) Post(ev domain.Event) bool {
	select {
	case s.events <- ev:
		return true
	default:
		return false
	}
}

func (s *chanSink) next(t *testing.T) domain.Event {
	t.Helper()
	select {
	case ev := <-s.events:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

type stubBattery struct {
	mu     sync.Mutex
	status domain.BatteryStatus
	err    error
}

func (b *stubBattery) Peek() (domain.BatteryStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status, b.err
}

func (b *stubBattery) set(s domain.BatteryStatus, err error) {
	b.mu.Lock()
	b.status, b.err = s, err
	b.mu.Unlock()
}

func TestMinuteTicker_FiresOnBoundaries(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.April, 26, 10, 29, 30, 0, time.UTC))
	sink := newChanSink()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go NewMinuteTicker(clock, sink, discardLogger()).Run(ctx)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(30 * time.Second)
	tick := sink.next(t).(domain.Tick)
	assert.Equal(t, domain.ClockReading{Hour: 10, Minute: 30}, tick.Reading)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Minute)
	tick = sink.next(t).(domain.Tick)
	assert.Equal(t, domain.ClockReading{Hour: 10, Minute: 31}, tick.Reading)
}

func TestMinuteTicker_StopsOnCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		NewMinuteTicker(clock, newChanSink(), discardLogger()).Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ticker did not stop")
	}
}

func TestBatteryWatcher_PushesOnlyChanges(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sink := newChanSink()
	src := &stubBattery{status: domain.BatteryStatus{ChargePercent: 80}}

	w := NewBatteryWatcher(src, sink, clock, 10*time.Second, discardLogger())
	w.Prime(domain.BatteryStatus{ChargePercent: 80})

	w.poll()
	assert.Empty(t, sink.events, "unchanged status is not pushed")

	src.set(domain.BatteryStatus{ChargePercent: 79, IsCharging: true}, nil)
	w.poll()
	ev := sink.next(t).(domain.BatteryChanged)
	assert.Equal(t, domain.BatteryStatus{ChargePercent: 79, IsCharging: true}, ev.Status)

	w.poll()
	assert.Empty(t, sink.events)

	src.set(domain.BatteryStatus{}, errors.New("sysfs gone"))
	w.poll()
	assert.Empty(t, sink.events, "peek errors are not pushed")
}

func TestBatteryWatcher_ClampsAndRetriesWhenQueueFull(t *testing.T) {
	sink := &chanSink{events: make(chan domain.Event)} // unbuffered: Post always fails
	src := &stubBattery{status: domain.BatteryStatus{ChargePercent: 150}}
	w := NewBatteryWatcher(src, sink, clockwork.NewFakeClock(), time.Second, discardLogger())

	w.poll()
	assert.False(t, w.primed, "failed push must be retried on the next poll")

	sink.events = make(chan domain.Event, 1)
	w.poll()
	ev := (<-sink.events).(domain.BatteryChanged)
	assert.Equal(t, 100, ev.Status.ChargePercent)
}

func TestBatteryWatcher_RunPollsOnInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sink := newChanSink()
	src := &stubBattery{status: domain.BatteryStatus{ChargePercent: 42}}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go NewBatteryWatcher(src, sink, clock, 10*time.Second, discardLogger()).Run(ctx)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(10 * time.Second)

	ev := sink.next(t).(domain.BatteryChanged)
	assert.Equal(t, 42, ev.Status.ChargePercent)
}
