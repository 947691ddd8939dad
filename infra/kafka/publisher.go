package kafka

import "context"

// Publisher delivers one event to the events topic. Publish returns only
// once the broker has acknowledged the message.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
	Close() error
}

const (
	ClientKafkaGo = "kafka-go"
	ClientSarama  = "sarama"
)

// NewPublisher connects the client named by client, defaulting to kafka-go.
func NewPublisher(client string, brokers []string, topic string) (Publisher, error) {
	if client == ClientSarama {
		return DialSarama(brokers, topic)
	}
	return NewProducer(brokers, topic), nil
}
