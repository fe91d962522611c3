package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Transport names accepted by CHANNEL_TRANSPORT.
const (
	TransportMQTT  = "mqtt"
	TransportKafka = "kafka"
	TransportNone  = "none"
)

// Config holds all watchface settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Display preferences.
	Use24Hour          bool
	WeatherPollMinutes int
	DisplayWidth       int
	DisplayHeight      int

	// Weather channel.
	ChannelTransport  string
	ChannelBufferSize int

	MQTTBroker      string
	MQTTClientID    string
	MQTTOutboxTopic string
	MQTTInboxTopic  string

	KafkaBrokers     []string
	KafkaOutboxTopic string
	KafkaInboxTopic  string
	KafkaGroupID     string

	// Battery source.
	BatterySupply       string
	BatteryPollInterval time.Duration

	// SSD1306 output.
	OLEDEnabled bool
	OLEDI2CBus  string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	use24h, err := parseClockStyle(sharedcfg.EnvOrDefault("CLOCK_STYLE", "24h"))
	if err != nil {
		return nil, err
	}

	pollMinutes, err := parsePollMinutes()
	if err != nil {
		return nil, err
	}

	bufferSize, err := parseIntInRange("CHANNEL_BUFFER_SIZE", "128", 16, 1024)
	if err != nil {
		return nil, err
	}

	width, err := parseIntInRange("DISPLAY_WIDTH", "144", 64, 1024)
	if err != nil {
		return nil, err
	}
	height, err := parseIntInRange("DISPLAY_HEIGHT", "168", 64, 1024)
	if err != nil {
		return nil, err
	}

	batteryPoll, err := time.ParseDuration(sharedcfg.EnvOrDefault("BATTERY_POLL_INTERVAL", "30s"))
	if err != nil || batteryPoll <= 0 {
		return nil, errors.New("invalid BATTERY_POLL_INTERVAL")
	}

	batterySupply, ok := os.LookupEnv("BATTERY_SUPPLY")
	if !ok {
		batterySupply = "/sys/class/power_supply/BAT0"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        strings.ToLower(sharedcfg.EnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(sharedcfg.EnvOrDefault("LOG_FORMAT", "json")),
		ShutdownTimeout: shutdownTimeout,

		Use24Hour:          use24h,
		WeatherPollMinutes: pollMinutes,
		DisplayWidth:       width,
		DisplayHeight:      height,

		ChannelTransport:  strings.ToLower(sharedcfg.EnvOrDefault("CHANNEL_TRANSPORT", TransportMQTT)),
		ChannelBufferSize: bufferSize,

		MQTTBroker:      sharedcfg.EnvOrDefault("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID:    sharedcfg.EnvOrDefault("MQTT_CLIENT_ID", "radial-watchface"),
		MQTTOutboxTopic: sharedcfg.EnvOrDefault("MQTT_OUTBOX_TOPIC", "watchface/outbox"),
		MQTTInboxTopic:  sharedcfg.EnvOrDefault("MQTT_INBOX_TOPIC", "watchface/inbox"),

		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaOutboxTopic: sharedcfg.EnvOrDefault("KAFKA_OUTBOX_TOPIC", "watchface-outbox"),
		KafkaInboxTopic:  sharedcfg.EnvOrDefault("KAFKA_INBOX_TOPIC", "watchface-inbox"),
		KafkaGroupID:     sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "radial-watchface"),

		BatterySupply:       batterySupply,
		BatteryPollInterval: batteryPoll,

		OLEDEnabled: os.Getenv("OLED_ENABLED") == "true",
		OLEDI2CBus:  os.Getenv("OLED_I2C_BUS"),
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return nil, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", cfg.LogLevel)
	}

	switch cfg.ChannelTransport {
	case TransportMQTT:
		if cfg.MQTTBroker == "" {
			return nil, errors.New("MQTT_BROKER is required")
		}
		if cfg.MQTTOutboxTopic == "" || cfg.MQTTInboxTopic == "" {
			return nil, errors.New("MQTT_OUTBOX_TOPIC and MQTT_INBOX_TOPIC are required")
		}
	case TransportKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaOutboxTopic == "" || cfg.KafkaInboxTopic == "" {
			return nil, errors.New("KAFKA_OUTBOX_TOPIC and KAFKA_INBOX_TOPIC are required")
		}
	case TransportNone:
	default:
		return nil, fmt.Errorf("invalid CHANNEL_TRANSPORT %q (allowed: mqtt, kafka, none)", cfg.ChannelTransport)
	}

	return cfg, nil
}

func parseClockStyle(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "24h", "24":
		return true, nil
	case "12h", "12":
		return false, nil
	default:
		return false, fmt.Errorf("invalid CLOCK_STYLE %q (allowed: 12h, 24h)", s)
	}
}

// parsePollMinutes reads WEATHER_POLL_MINUTES. The period must divide 60 so
// every hour has the same request boundaries.
func parsePollMinutes() (int, error) {
	n, err := parseIntInRange("WEATHER_POLL_MINUTES", "30", 1, 60)
	if err != nil {
		return 0, err
	}
	if 60%n != 0 {
		return 0, fmt.Errorf("invalid WEATHER_POLL_MINUTES %d: must divide 60", n)
	}
	return n, nil
}

func parseIntInRange(key, def string, lo, hi int) (int, error) {
	s := sharedcfg.EnvOrDefault(key, def)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s %d: must be between %d and %d", key, n, lo, hi)
	}
	return n, nil
}
