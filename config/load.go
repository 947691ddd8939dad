package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "RBSET"

// Flag names double as viper keys, so RBSET_WAL_DIR sets "wal.dir".
const (
	keyConfigFile       = "config"
	keyGRPCAddr         = "grpc.addr"
	keyWALDir           = "wal.dir"
	keyWALSegmentSize   = "wal.segment-size"
	keyWALSegmentAge    = "wal.segment-age"
	keyWALSync          = "wal.sync"
	keyOutboxDir        = "outbox.dir"
	keySnapshotDir      = "snapshot.dir"
	keySnapshotEvery    = "snapshot.interval"
	keyKafkaBrokers     = "kafka.brokers"
	keyKafkaTopic       = "kafka.topic"
	keyKafkaClient      = "kafka.client"
	keyBroadcastEvery   = "broadcast.interval"
	keyBroadcastRetries = "broadcast.max-retries"
	keyLogLevel         = "log.level"
	keyLogFormat        = "log.format"
)

// BindFlags registers the server flags on cmd, defaulted from Default.
func BindFlags(cmd *cobra.Command) {
	d := Default()
	fs := cmd.PersistentFlags()

	fs.String(keyConfigFile, "", "optional config file (yaml, json or toml)")
	fs.String(keyGRPCAddr, d.GRPCAddr, "gRPC listen address")

	fs.String(keyWALDir, d.WALDir, "directory of the write-ahead log")
	fs.Int64(keyWALSegmentSize, d.WALSegmentSize, "rotate WAL segments at this many bytes")
	fs.Duration(keyWALSegmentAge, d.WALSegmentAge, "rotate WAL segments older than this, 0 disables")
	fs.Bool(keyWALSync, d.WALSyncEveryOp, "fsync the WAL after every append")

	fs.String(keyOutboxDir, d.OutboxDir, "directory of the event outbox")
	fs.String(keySnapshotDir, d.SnapshotDir, "directory of the snapshot file")
	fs.Duration(keySnapshotEvery, d.SnapshotEvery, "interval between snapshots")

	fs.StringSlice(keyKafkaBrokers, nil, "kafka brokers, events are not published when empty")
	fs.String(keyKafkaTopic, d.KafkaTopic, "kafka topic for key set events")
	fs.String(keyKafkaClient, d.KafkaClient, "kafka client: kafka-go or sarama")
	fs.Duration(keyBroadcastEvery, d.BroadcastEvery, "interval between outbox drains")
	fs.Uint32(keyBroadcastRetries, d.BroadcastMaxRetry, "publish attempts per event before giving up")

	fs.String(keyLogLevel, d.LogLevel, "log level")
	fs.String(keyLogFormat, d.LogFormat, "log format: text or json")
}

// Load resolves the configuration of cmd. Flags set on the command line win
// over environment variables, which win over the config file.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	fs := cmd.PersistentFlags()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, errors.Wrap(err, "bind flags")
	}

	if file := v.GetString(keyConfigFile); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", file)
		}
	}

	cfg := Config{
		GRPCAddr:          v.GetString(keyGRPCAddr),
		WALDir:            v.GetString(keyWALDir),
		WALSegmentSize:    v.GetInt64(keyWALSegmentSize),
		WALSegmentAge:     v.GetDuration(keyWALSegmentAge),
		WALSyncEveryOp:    v.GetBool(keyWALSync),
		OutboxDir:         v.GetString(keyOutboxDir),
		SnapshotDir:       v.GetString(keySnapshotDir),
		SnapshotEvery:     v.GetDuration(keySnapshotEvery),
		KafkaBrokers:      brokers(v, fs),
		KafkaTopic:        v.GetString(keyKafkaTopic),
		KafkaClient:       v.GetString(keyKafkaClient),
		BroadcastEvery:    v.GetDuration(keyBroadcastEvery),
		BroadcastMaxRetry: v.GetUint32(keyBroadcastRetries),
		LogLevel:          v.GetString(keyLogLevel),
		LogFormat:         v.GetString(keyLogFormat),
	}
	return cfg, cfg.Validate()
}

// brokers accepts both a list and a comma separated string, which is how
// the value arrives from the environment.
func brokers(v *viper.Viper, fs *pflag.FlagSet) []string {
	var out []string
	if fs.Changed(keyKafkaBrokers) {
		out, _ = fs.GetStringSlice(keyKafkaBrokers)
	} else {
		for _, b := range v.GetStringSlice(keyKafkaBrokers) {
			out = append(out, strings.Split(b, ",")...)
		}
	}
	var clean []string
	for _, b := range out {
		if b = strings.TrimSpace(b); b != "" {
			clean = append(clean, b)
		}
	}
	return clean
}
