package kafka

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// Producer publishes through a segmentio/kafka-go writer.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer builds a synchronous writer that waits for all in-sync
// replicas and hashes message keys to partitions. No connection is made
// until the first Publish.
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Publish blocks until the message is acknowledged or ctx is done.
func (p *Producer) Publish(ctx context.Context, key, value []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
	})
	return errors.Wrap(err, "kafka-go write")
}

// Close flushes pending writes and closes the broker connections.
func (p *Producer) Close() error {
	return p.writer.Close()
}
