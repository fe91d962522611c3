package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/radial-watchface/internal/config"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Reader consumes weather replies from the inbox topic.
type Reader struct {
	reader  messageReader
	receive func([]byte)
	logger  *slog.Logger
}

// NewReader creates a consumer-group reader for the configured inbox topic.
func NewReader(cfg *config.Config, receive func([]byte), logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaInboxTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})
	return &Reader{reader: r, receive: receive, logger: logger}
}

// Run fetches messages until ctx is cancelled, handing each value to the
// receiver before committing it. Fetch errors back off exponentially:
// start at 200ms, double each retry, cap at 5s.
func (r *Reader) Run(ctx context.Context) error {
	backoff := initialBackoff
	for {
		msg, err := r.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			r.logger.Warn("fetch inbox message failed", "error", err, "backoff", backoff)
			if !sleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = initialBackoff

		r.logger.Debug("received inbox message",
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "size", len(msg.Value))
		r.receive(msg.Value)

		if err := r.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			r.logger.Warn("commit offset failed", "error", err,
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
		}
	}
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
