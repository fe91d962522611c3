package kafka

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/couchcryptid/radial-watchface/internal/config"
	kafkago "github.com/segmentio/kafka-go"
)

// Content type header value for appmessage envelopes.
const contentType = "application/x-appmessage"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces weather requests to the outbox topic.
type Writer struct {
	writer   messageWriter
	clientID string
	logger   *slog.Logger
}

// NewWriter creates a Kafka producer for the configured outbox topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaOutboxTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, clientID: cfg.KafkaGroupID, logger: logger}
}

// Publish writes payload in the background and reports the outcome through done.
func (w *Writer) Publish(ctx context.Context, payload []byte, done func(error)) {
	msg := newMessage(w.clientID, payload)
	go func() {
		err := w.writer.WriteMessages(ctx, msg)
		if err == nil {
			w.logger.Debug("published envelope", "size", len(payload))
		}
		done(err)
	}()
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// newMessage wraps an encoded envelope in a Kafka message keyed by the
// watchface's client id, so one watchface's requests stay ordered.
func newMessage(clientID string, payload []byte) kafkago.Message {
	return kafkago.Message{
		Key:   []byte(clientID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "content_type", Value: []byte(contentType)},
			{Key: "size", Value: []byte(strconv.Itoa(len(payload)))},
		},
	}
}
