package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/radial-watchface/internal/adapter/battery"
	httpadapter "github.com/couchcryptid/radial-watchface/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/radial-watchface/internal/adapter/kafka"
	mqttadapter "github.com/couchcryptid/radial-watchface/internal/adapter/mqtt"
	"github.com/couchcryptid/radial-watchface/internal/adapter/oled"
	"github.com/couchcryptid/radial-watchface/internal/adapter/raster"
	"github.com/couchcryptid/radial-watchface/internal/app"
	"github.com/couchcryptid/radial-watchface/internal/channel"
	"github.com/couchcryptid/radial-watchface/internal/config"
	"github.com/couchcryptid/radial-watchface/internal/coordinator"
	"github.com/couchcryptid/radial-watchface/internal/domain"
	"github.com/couchcryptid/radial-watchface/internal/observability"
	"github.com/couchcryptid/radial-watchface/internal/screen"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional SSD1306 panel (feature-flagged via OLED_ENABLED).
	var presenters []raster.Presenter
	if cfg.OLEDEnabled {
		panel, err := oled.Open(cfg.OLEDI2CBus, logger)
		if err != nil {
			logger.Error("failed to open oled panel", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := panel.Close(); err != nil {
				logger.Error("oled close error", "error", err)
			}
		}()
		presenters = append(presenters, panel)
	} else {
		logger.Info("oled output disabled")
	}

	toolkit := raster.NewToolkit(cfg.DisplayWidth, cfg.DisplayHeight, logger, metrics, presenters...)
	sc := screen.NewContext()

	// The loop, channel and coordinator refer to each other; the handler is
	// bound once the coordinator exists, before the loop runs.
	var coord *coordinator.Coordinator
	loop := app.NewLoop(app.HandlerFunc(func(ev domain.Event) { coord.Handle(ev) }), toolkit, app.DefaultQueueSize, logger, metrics)
	ch := channel.New(loop, cfg.ChannelBufferSize, logger)
	coord = coordinator.New(sc, ch, coordinator.FixedClockPreference(cfg.Use24Hour), cfg.WeatherPollMinutes, logger, metrics)

	attachTransport(ctx, cfg, ch, logger)

	var source app.BatterySource = battery.FixedSource{Status: domain.BatteryStatus{ChargePercent: 100}}
	if cfg.BatterySupply != "" {
		source = battery.NewSysfsSource(cfg.BatterySupply)
		logger.Info("reading battery from sysfs", "supply", cfg.BatterySupply)
	}

	face := &app.Face{
		Screen:              sc,
		Toolkit:             toolkit,
		Coordinator:         coord,
		Loop:                loop,
		Battery:             source,
		Clock:               domain.Clock(),
		Logger:              logger,
		BatteryPollInterval: cfg.BatteryPollInterval,
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, coord, toolkit, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Show the watchface.
	faceDone := make(chan struct{})
	go func() {
		defer close(faceDone)
		if err := face.Run(ctx); err != nil {
			logger.Error("watchface error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-faceDone:
	case <-shutdownCtx.Done():
		logger.Warn("watchface did not stop before shutdown timeout")
	}
	if err := ch.Close(); err != nil {
		logger.Error("weather channel close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// attachTransport connects the weather channel to the configured peer
// transport. Connection happens in the background; sends fail until it is up.
func attachTransport(ctx context.Context, cfg *config.Config, ch *channel.Channel, logger *slog.Logger) {
	switch cfg.ChannelTransport {
	case config.TransportMQTT:
		t := mqttadapter.NewTransport(mqttadapter.Config{
			Broker:      cfg.MQTTBroker,
			ClientID:    cfg.MQTTClientID,
			OutboxTopic: cfg.MQTTOutboxTopic,
			InboxTopic:  cfg.MQTTInboxTopic,
		}, ch.Deliver, logger)
		ch.Attach(t)
		go func() {
			if err := t.Connect(ctx); err != nil && ctx.Err() == nil {
				logger.Error("mqtt connect error", "error", err)
			}
		}()
		logger.Info("weather channel over mqtt", "broker", cfg.MQTTBroker,
			"outbox", cfg.MQTTOutboxTopic, "inbox", cfg.MQTTInboxTopic)

	case config.TransportKafka:
		t := kafkaadapter.NewTransport(cfg, ch.Deliver, logger)
		ch.Attach(t)
		go func() {
			if err := t.Run(ctx); err != nil {
				logger.Error("kafka inbox error", "error", err)
			}
		}()
		logger.Info("weather channel over kafka", "brokers", cfg.KafkaBrokers,
			"outbox", cfg.KafkaOutboxTopic, "inbox", cfg.KafkaInboxTopic)

	default:
		logger.Info("weather channel disabled")
	}
}
