// Package coordinator turns watchface events into display mutations and
// schedules the periodic weather request.
package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/couchcryptid/radial-watchface/internal/appmsg"
	"github.com/couchcryptid/radial-watchface/internal/channel"
	"github.com/couchcryptid/radial-watchface/internal/domain"
	"github.com/couchcryptid/radial-watchface/internal/observability"
	"github.com/couchcryptid/radial-watchface/internal/screen"
)

// Sender enqueues an outbound message without blocking.
type Sender interface {
	Send(d appmsg.Dict) error
}

// ClockPreference is the host's 12/24-hour display setting.
type ClockPreference interface {
	Is24Hour() bool
}

// FixedClockPreference is a ClockPreference that never changes.
type FixedClockPreference bool

func (p FixedClockPreference) Is24Hour() bool { return bool(p) }

// Coordinator reacts to events one at a time. Handle must only be called
// from a single goroutine; CheckReadiness may be called from any.
type Coordinator struct {
	screen      *screen.Context
	sender      Sender
	prefs       ClockPreference
	pollMinutes int
	logger      *slog.Logger
	metrics     *observability.Metrics

	rendered atomic.Bool
}

// New creates a Coordinator that draws into sc and requests weather through
// sender every pollMinutes (domain.DefaultPollMinutes when <= 0).
func New(sc *screen.Context, sender Sender, prefs ClockPreference, pollMinutes int, logger *slog.Logger, metrics *observability.Metrics) *Coordinator {
	if pollMinutes <= 0 {
		pollMinutes = domain.DefaultPollMinutes
	}
	return &Coordinator{
		screen:      sc,
		sender:      sender,
		prefs:       prefs,
		pollMinutes: pollMinutes,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once the time has been drawn at least once.
func (c *Coordinator) CheckReadiness(_ context.Context) error {
	if !c.rendered.Load() {
		return errors.New("time has not been rendered yet")
	}
	return nil
}

// Handle dispatches one event.
func (c *Coordinator) Handle(ev domain.Event) {
	c.metrics.EventsHandled.WithLabelValues(ev.Kind()).Inc()

	switch e := ev.(type) {
	case domain.Tick:
		c.onTick(e.Reading)
	case domain.BatteryChanged:
		c.onBatteryChanged(e.Status)
	case domain.WeatherReceived:
		c.onWeatherMessage(e.Message)
	case domain.WeatherSendResult:
		if e.Err != nil {
			c.onWeatherSendFailed(e.Err)
		} else {
			c.onWeatherSendSucceeded()
		}
	case domain.WeatherDropped:
		c.onWeatherDropped(e.Reason)
	default:
		c.logger.Warn("unhandled event", "kind", ev.Kind())
	}
}

// RenderTime draws reading without considering a weather request. The host
// uses it once at window load so the face is never blank.
func (c *Coordinator) RenderTime(reading domain.ClockReading) {
	c.screen.SetTime(
		domain.FormatHour(reading.Hour, c.prefs.Is24Hour()),
		domain.FormatMinute(reading.Minute),
	)
	c.rendered.Store(true)
}

func (c *Coordinator) onTick(reading domain.ClockReading) {
	c.RenderTime(reading)

	if domain.ShouldRequestWeather(reading.Minute, c.pollMinutes) {
		c.requestWeather()
	}
}

func (c *Coordinator) requestWeather() {
	b := appmsg.NewBuilder(appmsg.DefaultBufferSize)
	if err := b.WriteUint8(domain.KeyTemperature, domain.RequestSentinel); err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		c.logger.Error("build weather request", "error", err)
		return
	}

	err := c.sender.Send(b.Dict())
	switch {
	case err == nil:
		c.metrics.WeatherRequests.WithLabelValues("sent").Inc()
		c.logger.Debug("weather request enqueued")
	case errors.Is(err, channel.ErrBusy):
		c.metrics.WeatherRequests.WithLabelValues("busy").Inc()
		c.logger.Debug("weather request skipped, previous send in flight")
	default:
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		c.logger.Warn("weather request not sent", "error", err)
	}
}

func (c *Coordinator) onWeatherMessage(msg appmsg.Dict) {
	tuple, ok := msg.Find(domain.KeyTemperature)
	if !ok {
		c.metrics.WeatherInbound.WithLabelValues("missing").Inc()
		c.logger.Debug("inbound message has no temperature", "tuples", len(msg))
		return
	}

	v, ok := tuple.Int32()
	if !ok {
		c.metrics.WeatherInbound.WithLabelValues("missing").Inc()
		c.logger.Warn("temperature tuple is not an integer",
			"type", tuple.Type.String(),
			"length", len(tuple.Value),
		)
		return
	}

	c.screen.SetWeather(domain.WeatherReading{TemperatureCelsius: int(v), Valid: true})
	c.metrics.WeatherInbound.WithLabelValues("applied").Inc()
	c.metrics.Temperature.Set(float64(v))
	c.logger.Info("temperature updated", "celsius", v)
}

func (c *Coordinator) onWeatherSendSucceeded() {
	c.metrics.WeatherSendResults.WithLabelValues("succeeded").Inc()
	c.logger.Info("outbox send success")
}

func (c *Coordinator) onWeatherSendFailed(reason error) {
	c.metrics.WeatherSendResults.WithLabelValues("failed").Inc()
	c.logger.Warn("outbox send failed", "error", reason)
}

func (c *Coordinator) onWeatherDropped(reason error) {
	c.metrics.WeatherInbound.WithLabelValues("dropped").Inc()
	c.logger.Warn("inbound message dropped", "error", reason)
}

func (c *Coordinator) onBatteryChanged(status domain.BatteryStatus) {
	c.screen.SetBattery(status)

	s := c.screen.State().Battery
	c.metrics.BatteryPercent.Set(float64(s.ChargePercent))
	if s.IsCharging {
		c.metrics.Charging.Set(1)
	} else {
		c.metrics.Charging.Set(0)
	}
}
