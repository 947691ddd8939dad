package config

import (
	"time"

	"github.com/pkg/errors"

	"rbset/infra/kafka"
)

// Config holds everything cmd/server needs to start.
type Config struct {
	GRPCAddr string

	WALDir         string
	WALSegmentSize int64
	WALSegmentAge  time.Duration
	WALSyncEveryOp bool
	OutboxDir      string
	SnapshotDir    string
	SnapshotEvery  time.Duration

	KafkaBrokers      []string
	KafkaTopic        string
	KafkaClient       string
	BroadcastEvery    time.Duration
	BroadcastMaxRetry uint32

	LogLevel  string
	LogFormat string
}

var ErrInvalid = errors.New("config: invalid")

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		GRPCAddr:          ":50051",
		WALDir:            "./data/wal",
		WALSegmentSize:    2 << 20,
		WALSegmentAge:     time.Minute,
		OutboxDir:         "./data/outbox",
		SnapshotDir:       "./data/snapshot",
		SnapshotEvery:     30 * time.Second,
		KafkaTopic:        "rbset.events",
		KafkaClient:       kafka.ClientKafkaGo,
		BroadcastEvery:    250 * time.Millisecond,
		BroadcastMaxRetry: 5,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// BroadcastEnabled reports whether events are published to Kafka.
func (c Config) BroadcastEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func (c Config) Validate() error {
	switch {
	case c.GRPCAddr == "":
		return errors.Wrap(ErrInvalid, "grpc address is empty")
	case c.WALDir == "":
		return errors.Wrap(ErrInvalid, "wal dir is empty")
	case c.OutboxDir == "":
		return errors.Wrap(ErrInvalid, "outbox dir is empty")
	case c.SnapshotDir == "":
		return errors.Wrap(ErrInvalid, "snapshot dir is empty")
	case c.WALSegmentSize <= 0:
		return errors.Wrapf(ErrInvalid, "wal segment size %d", c.WALSegmentSize)
	case c.WALSegmentAge < 0:
		return errors.Wrapf(ErrInvalid, "wal segment age %s", c.WALSegmentAge)
	case c.SnapshotEvery <= 0:
		return errors.Wrapf(ErrInvalid, "snapshot interval %s", c.SnapshotEvery)
	}

	switch c.KafkaClient {
	case "", kafka.ClientKafkaGo, kafka.ClientSarama:
	default:
		return errors.Wrapf(ErrInvalid, "unknown kafka client %q", c.KafkaClient)
	}
	if c.BroadcastEnabled() {
		if c.KafkaTopic == "" {
			return errors.Wrap(ErrInvalid, "kafka topic is empty")
		}
		if c.BroadcastEvery <= 0 {
			return errors.Wrapf(ErrInvalid, "broadcast interval %s", c.BroadcastEvery)
		}
	}
	return nil
}
