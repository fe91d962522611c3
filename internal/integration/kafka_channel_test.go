//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/couchcryptid/radial-watchface/internal/adapter/kafka"
	"github.com/couchcryptid/radial-watchface/internal/appmsg"
	"github.com/couchcryptid/radial-watchface/internal/channel"
	"github.com/couchcryptid/radial-watchface/internal/config"
	"github.com/couchcryptid/radial-watchface/internal/domain"
)

const (
	testOutboxTopic = "test-outbox"
	testInboxTopic  = "test-inbox"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("watchface-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
}

// collectingSink records channel events.
type collectingSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *collectingSink) Post(ev domain.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return true
}

func (s *collectingSink) find(kind string) (domain.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.events {
		if ev.Kind() == kind {
			return ev, true
		}
	}
	return nil, false
}

// TestKafkaChannelRoundTrip sends a weather request through the channel,
// reads it from the outbox like a companion would, and answers on the inbox.
func TestKafkaChannelRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testOutboxTopic)
	createTopic(t, broker, testInboxTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaOutboxTopic: testOutboxTopic,
		KafkaInboxTopic:  testInboxTopic,
		KafkaGroupID:     fmt.Sprintf("test-watchface-%d", time.Now().UnixNano()),
	}

	sink := &collectingSink{}
	ch := channel.New(sink, appmsg.DefaultBufferSize, discardLogger())
	transport := kafkaadapter.NewTransport(cfg, ch.Deliver, discardLogger())
	ch.Attach(transport)
	t.Cleanup(func() { _ = ch.Close() })
	go func() { _ = transport.Run(ctx) }()

	// Outbound request.
	b := appmsg.NewBuilder(appmsg.DefaultBufferSize)
	require.NoError(t, b.WriteUint8(domain.KeyTemperature, domain.RequestSentinel))
	require.NoError(t, ch.Send(b.Dict()))

	require.Eventually(t, func() bool {
		_, ok := sink.find("weather_send_result")
		return ok
	}, 60*time.Second, 100*time.Millisecond)
	res, _ := sink.find("weather_send_result")
	require.NoError(t, res.(domain.WeatherSendResult).Err)
	assert.False(t, ch.Busy())

	companion := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testOutboxTopic,
		GroupID:     fmt.Sprintf("test-companion-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = companion.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	req, err := companion.ReadMessage(readCtx)
	require.NoError(t, err, "read from outbox topic")
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 2, 1, 0, 0}, req.Value)

	// Inbound reply: -5 degrees.
	reply := appmsg.NewBuilder(appmsg.DefaultBufferSize)
	require.NoError(t, reply.WriteInt32(domain.KeyTemperature, -5))
	payload, err := appmsg.Marshal(reply.Dict(), appmsg.DefaultBufferSize)
	require.NoError(t, err)

	w := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testInboxTopic}
	t.Cleanup(func() { _ = w.Close() })
	require.NoError(t, w.WriteMessages(ctx, kafkago.Message{Value: payload}))

	require.Eventually(t, func() bool {
		_, ok := sink.find("weather_received")
		return ok
	}, 60*time.Second, 100*time.Millisecond)
	ev, _ := sink.find("weather_received")
	tuple, ok := ev.(domain.WeatherReceived).Message.Find(domain.KeyTemperature)
	require.True(t, ok)
	v, ok := tuple.Int32()
	require.True(t, ok)
	assert.Equal(t, int32(-5), v)
}
