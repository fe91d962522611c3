// Package kafka carries weather channel envelopes over a pair of Kafka
// topics: requests are produced to the outbox, replies consumed from the inbox.
package kafka

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/radial-watchface/internal/config"
)

// Transport implements channel.Transport with a Writer and a Reader.
type Transport struct {
	*Writer
	reader *Reader
}

// NewTransport builds the producer and consumer. Run must be started for
// replies to arrive.
func NewTransport(cfg *config.Config, receive func([]byte), logger *slog.Logger) *Transport {
	return &Transport{
		Writer: NewWriter(cfg, logger),
		reader: NewReader(cfg, receive, logger),
	}
}

// Run consumes the inbox topic until ctx is cancelled.
func (t *Transport) Run(ctx context.Context) error {
	return t.reader.Run(ctx)
}

// Close closes the consumer and the producer.
func (t *Transport) Close() error {
	return errors.Join(t.reader.Close(), t.Writer.Close())
}
