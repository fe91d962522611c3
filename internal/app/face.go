package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/radial-watchface/internal/domain"
	"github.com/couchcryptid/radial-watchface/internal/screen"
)

// Coordinator is the part of the coordinator the host drives directly.
type Coordinator interface {
	Handler
	RenderTime(reading domain.ClockReading)
}

// Face binds one window to the event sources. Run shows the window, feeds
// events until the context ends, then hides it.
type Face struct {
	Screen      *screen.Context
	Toolkit     screen.Toolkit
	Coordinator Coordinator
	Loop        *Loop
	Battery     BatterySource
	Clock       clockwork.Clock
	Logger      *slog.Logger

	// BatteryPollInterval defaults to 30s.
	BatteryPollInterval time.Duration
}

// Run blocks until ctx is cancelled.
func (f *Face) Run(ctx context.Context) error {
	if err := f.Screen.Init(f.Toolkit); err != nil {
		return fmt.Errorf("show window: %w", err)
	}
	defer f.Screen.Teardown()

	watcher := NewBatteryWatcher(f.Battery, f.Loop, f.Clock, f.batteryInterval(), f.Logger)

	// Initial frame: battery peek and current time, no weather request.
	if s, err := f.Battery.Peek(); err != nil {
		f.Logger.Warn("initial battery peek failed", "error", err)
	} else {
		f.Coordinator.Handle(domain.BatteryChanged{Status: s})
		watcher.Prime(s)
	}
	f.Coordinator.RenderTime(domain.NewClockReading(f.Clock.Now()))
	if fl, ok := f.Toolkit.(Flusher); ok {
		fl.Flush()
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		NewMinuteTicker(f.Clock, f.Loop, f.Logger).Run(ctx)
	}()
	go func() {
		defer wg.Done()
		watcher.Run(ctx)
	}()

	err := f.Loop.Run(ctx)
	cancel()
	wg.Wait()
	return err
}

func (f *Face) batteryInterval() time.Duration {
	if f.BatteryPollInterval <= 0 {
		return 30 * time.Second
	}
	return f.BatteryPollInterval
}
