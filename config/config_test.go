package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "rbset"}
	BindFlags(cmd)
	require.NoError(t, cmd.PersistentFlags().Parse(args))
	return cmd
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newCommand(t))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.False(t, cfg.BroadcastEnabled())
}

func TestLoadFlags(t *testing.T) {
	cfg, err := Load(newCommand(t,
		"--grpc.addr=:6000",
		"--wal.dir=/tmp/w",
		"--wal.sync",
		"--snapshot.interval=5s",
		"--kafka.brokers=a:9092,b:9092",
		"--kafka.client=sarama",
		"--broadcast.max-retries=9",
	))
	require.NoError(t, err)
	assert.Equal(t, ":6000", cfg.GRPCAddr)
	assert.Equal(t, "/tmp/w", cfg.WALDir)
	assert.True(t, cfg.WALSyncEveryOp)
	assert.Equal(t, 5*time.Second, cfg.SnapshotEvery)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "sarama", cfg.KafkaClient)
	assert.Equal(t, uint32(9), cfg.BroadcastMaxRetry)
	assert.True(t, cfg.BroadcastEnabled())
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("RBSET_OUTBOX_DIR", "/var/outbox")
	t.Setenv("RBSET_WAL_SEGMENT_SIZE", "4096")
	t.Setenv("RBSET_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("RBSET_LOG_LEVEL", "debug")

	cfg, err := Load(newCommand(t, "--log.level=warn"))
	require.NoError(t, err)
	assert.Equal(t, "/var/outbox", cfg.OutboxDir)
	assert.Equal(t, int64(4096), cfg.WALSegmentSize)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "warn", cfg.LogLevel, "flags win over the environment")
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rbset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
snapshot:
  dir: /srv/snap
kafka:
  topic: keys
log:
  format: json
`), 0o600))

	cfg, err := Load(newCommand(t, "--config="+path))
	require.NoError(t, err)
	assert.Equal(t, "/srv/snap", cfg.SnapshotDir)
	assert.Equal(t, "keys", cfg.KafkaTopic)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(newCommand(t, "--config="+filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty wal dir", func(c *Config) { c.WALDir = "" }},
		{"empty outbox dir", func(c *Config) { c.OutboxDir = "" }},
		{"empty snapshot dir", func(c *Config) { c.SnapshotDir = "" }},
		{"empty grpc addr", func(c *Config) { c.GRPCAddr = "" }},
		{"zero segment size", func(c *Config) { c.WALSegmentSize = 0 }},
		{"negative segment age", func(c *Config) { c.WALSegmentAge = -time.Second }},
		{"zero snapshot interval", func(c *Config) { c.SnapshotEvery = 0 }},
		{"unknown kafka client", func(c *Config) { c.KafkaClient = "confluent" }},
		{"broadcast without topic", func(c *Config) {
			c.KafkaBrokers = []string{"k:9092"}
			c.KafkaTopic = ""
		}},
		{"broadcast without interval", func(c *Config) {
			c.KafkaBrokers = []string{"k:9092"}
			c.BroadcastEvery = 0
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, ErrInvalid, errors.Cause(err))
		})
	}

	cfg := Default()
	cfg.KafkaClient = ""
	cfg.BroadcastEvery = 0
	assert.NoError(t, cfg.Validate(), "broadcast settings are ignored without brokers")
}
