// Package mqtt carries weather channel envelopes over an MQTT broker. The
// companion publishes replies on the inbox topic; requests go to the outbox.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	qos            = byte(1) // at least once
	publishTimeout = 5 * time.Second
	subscribeWait  = 5 * time.Second
)

var errStopped = errors.New("mqtt transport stopped")

// Config selects the broker and topics.
type Config struct {
	Broker      string
	ClientID    string
	OutboxTopic string
	InboxTopic  string
}

// Transport implements channel.Transport on top of a paho client.
type Transport struct {
	client  mqtt.Client
	cfg     Config
	receive func([]byte)
	logger  *slog.Logger

	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewTransport creates a transport that hands every inbox payload to receive.
// Call Connect before publishing.
func NewTransport(cfg Config, receive func([]byte), logger *slog.Logger) *Transport {
	t := newTransport(nil, cfg, receive, logger)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// Clean sessions drop subscriptions, so subscribe on every (re)connect.
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		t.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.Broker)
		if err := t.subscribe(); err != nil {
			logger.Error("mqtt subscribe failed", "topic", cfg.InboxTopic, "error", err)
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		t.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	t.client = mqtt.NewClient(opts)
	return t
}

func newTransport(client mqtt.Client, cfg Config, receive func([]byte), logger *slog.Logger) *Transport {
	return &Transport{
		client:  client,
		cfg:     cfg,
		receive: receive,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Connect waits for the initial broker connection. It respects ctx and Close.
func (t *Transport) Connect(ctx context.Context) error {
	select {
	case <-t.stopCh:
		return errStopped
	default:
	}

	if t.IsConnected() {
		return nil
	}

	token := t.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			t.client.Disconnect(0)
			return ctx.Err()
		case <-t.stopCh:
			t.client.Disconnect(0)
			return errStopped
		default:
		}
	}
}

func (t *Transport) subscribe() error {
	token := t.client.Subscribe(t.cfg.InboxTopic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		t.handleMessage(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(subscribeWait) {
		return fmt.Errorf("subscribe timeout for topic %s", t.cfg.InboxTopic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", t.cfg.InboxTopic, err)
	}
	t.logger.Info("subscribed to mqtt topic", "topic", t.cfg.InboxTopic, "qos", qos)
	return nil
}

func (t *Transport) handleMessage(topic string, payload []byte) {
	t.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))
	if t.receive != nil {
		t.receive(payload)
	}
}

// Publish sends payload to the outbox topic and reports the outcome through
// done from a separate goroutine.
func (t *Transport) Publish(ctx context.Context, payload []byte, done func(error)) {
	if !t.IsConnected() {
		go done(errors.New("mqtt client not connected"))
		return
	}

	token := t.client.Publish(t.cfg.OutboxTopic, qos, false, payload)
	go func() {
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()

		select {
		case <-token.Done():
			if err := token.Error(); err != nil {
				done(fmt.Errorf("publish to %s: %w", t.cfg.OutboxTopic, err))
				return
			}
			t.logger.Debug("published envelope", "topic", t.cfg.OutboxTopic, "size", len(payload))
			done(nil)
		case <-timer.C:
			done(fmt.Errorf("publish timeout for topic %s", t.cfg.OutboxTopic))
		case <-ctx.Done():
			done(ctx.Err())
		}
	}()
}

// IsConnected reports whether the broker connection is up.
func (t *Transport) IsConnected() bool {
	t.mu.RLock()
	connected := t.connected
	t.mu.RUnlock()
	return connected && t.client.IsConnected()
}

// Close disconnects from the broker. Idempotent.
func (t *Transport) Close() error {
	t.stopOnce.Do(func() {
		close(t.stopCh)
		if t.client != nil {
			t.client.Disconnect(250)
		}
		t.setConnected(false)
		t.logger.Info("mqtt disconnected")
	})
	return nil
}

func (t *Transport) setConnected(v bool) {
	t.mu.Lock()
	t.connected = v
	t.mu.Unlock()
}
