package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and gauges for the watchface.
type Metrics struct {
	EventsHandled *prometheus.CounterVec // labels: kind
	EventsDropped *prometheus.CounterVec // labels: kind
	LoopRunning   prometheus.Gauge
	FramesDrawn   prometheus.Counter

	// Weather channel metrics.
	WeatherRequests    *prometheus.CounterVec // labels: outcome={sent,busy,error}
	WeatherSendResults *prometheus.CounterVec // labels: result={succeeded,failed}
	WeatherInbound     *prometheus.CounterVec // labels: outcome={applied,missing,dropped}
	Temperature        prometheus.Gauge

	// Battery metrics.
	BatteryPercent prometheus.Gauge
	Charging       prometheus.Gauge
}

// NewMetrics creates and registers all watchface metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		EventsHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "watchface",
			Name:      "events_handled_total",
			Help:      "Events dispatched to the coordinator by kind.",
		}, []string{"kind"}),
		EventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "watchface",
			Name:      "events_dropped_total",
			Help:      "Events discarded because the event queue was full.",
		}, []string{"kind"}),
		LoopRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "watchface",
			Name:      "event_loop_running",
			Help:      "1 while the event loop is dispatching, 0 otherwise.",
		}),
		FramesDrawn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "watchface",
			Name:      "frames_drawn_total",
			Help:      "Frames composed after a region was marked dirty.",
		}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "watchface",
			Name:      "weather_requests_total",
			Help:      "Weather requests by outcome at enqueue time.",
		}, []string{"outcome"}),
		WeatherSendResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "watchface",
			Name:      "weather_send_results_total",
			Help:      "Completed weather sends by result.",
		}, []string{"result"}),
		WeatherInbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "watchface",
			Name:      "weather_inbound_total",
			Help:      "Inbound weather messages by outcome.",
		}, []string{"outcome"}),
		Temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "watchface",
			Name:      "temperature_celsius",
			Help:      "Last temperature shown on the face.",
		}),
		BatteryPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "watchface",
			Name:      "battery_percent",
			Help:      "Last battery charge shown on the ring.",
		}),
		Charging: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "watchface",
			Name:      "battery_charging",
			Help:      "1 while the charging glyph is shown.",
		}),
	}

	prometheus.MustRegister(
		m.EventsHandled,
		m.EventsDropped,
		m.LoopRunning,
		m.FramesDrawn,
		m.WeatherRequests,
		m.WeatherSendResults,
		m.WeatherInbound,
		m.Temperature,
		m.BatteryPercent,
		m.Charging,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		EventsHandled:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "watchface", Name: "events_handled_total"}, []string{"kind"}),
		EventsDropped:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "watchface", Name: "events_dropped_total"}, []string{"kind"}),
		LoopRunning:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "watchface", Name: "event_loop_running"}),
		FramesDrawn:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "watchface", Name: "frames_drawn_total"}),
		WeatherRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "watchface", Name: "weather_requests_total"}, []string{"outcome"}),
		WeatherSendResults: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "watchface", Name: "weather_send_results_total"}, []string{"result"}),
		WeatherInbound:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "watchface", Name: "weather_inbound_total"}, []string{"outcome"}),
		Temperature:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "watchface", Name: "temperature_celsius"}),
		BatteryPercent:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "watchface", Name: "battery_percent"}),
		Charging:           prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "watchface", Name: "battery_charging"}),
	}
}
