package broadcaster

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"rbset/infra/kafka"
	"rbset/infra/outbox"
)

const (
	DefaultInterval   = 250 * time.Millisecond
	DefaultMaxRetries = 5
)

type Config struct {
	Interval   time.Duration
	MaxRetries uint32

	// KeyFunc derives the message key from an event payload. A nil
	// KeyFunc publishes without a key.
	KeyFunc func(payload []byte) []byte
}

// Broadcaster publishes queued outbox events and records the outcome of
// every attempt back in the outbox.
type Broadcaster struct {
	outbox    *outbox.Outbox
	publisher kafka.Publisher
	cfg       Config
	log       logrus.FieldLogger
}

// Stats counts what a single pass did.
type Stats struct {
	Acked  int
	Failed int
}

// ------------------------------------------------
// CONSTRUCTOR
// ------------------------------------------------

func New(ob *outbox.Outbox, pub kafka.Publisher, cfg Config, log logrus.FieldLogger) *Broadcaster {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	return &Broadcaster{
		outbox:    ob,
		publisher: pub,
		cfg:       cfg,
		log:       log.WithField("component", "broadcaster"),
	}
}

// ------------------------------------------------
// LOOP
// ------------------------------------------------

// Run drains the outbox every interval until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.WithField("interval", b.cfg.Interval).Info("started")
	defer b.log.Info("stopped")

	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := b.RunOnce(ctx); err != nil && ctx.Err() == nil {
				b.log.WithError(err).Error("pass failed")
			}
		}
	}
}

// RunOnce publishes pending entries in sequence order: NEW ones, SENT ones
// left behind by a crash between publish and ACK, and FAILED ones that still
// have retries left. The pass stops at the first failed publish, so a later
// event never overtakes an earlier one; the failed entry leads the next pass.
func (b *Broadcaster) RunOnce(ctx context.Context) (Stats, error) {
	var stats Stats

	pending, err := b.pending()
	if err != nil {
		return stats, err
	}

	for _, e := range pending {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		ok, err := b.deliver(ctx, e)
		if err != nil {
			return stats, err
		}
		if !ok {
			stats.Failed++
			return stats, nil
		}
		stats.Acked++
	}
	return stats, nil
}

// pending collects the entries up front so state updates never race the
// iterator. Entries out of retries are skipped and no longer hold back the
// ones after them.
func (b *Broadcaster) pending() ([]outbox.Entry, error) {
	var entries []outbox.Entry
	err := b.outbox.Scan(func(e outbox.Entry) error {
		switch e.State {
		case outbox.StateNew, outbox.StateSent:
		case outbox.StateFailed:
			if e.Retries >= b.cfg.MaxRetries {
				return nil
			}
		default:
			return nil
		}
		entries = append(entries, e)
		return nil
	})
	return entries, errors.Wrap(err, "scan outbox")
}

// deliver reports whether e was acknowledged. The error is non-nil only when
// the outbox itself could not be updated.
func (b *Broadcaster) deliver(ctx context.Context, e outbox.Entry) (bool, error) {
	log := b.log.WithFields(logrus.Fields{"seq": e.Seq, "retries": e.Retries})

	if err := b.outbox.UpdateState(e.Seq, outbox.StateSent, e.Retries); err != nil {
		return false, err
	}

	var key []byte
	if b.cfg.KeyFunc != nil {
		key = b.cfg.KeyFunc(e.Payload)
	}
	if err := b.publisher.Publish(ctx, key, e.Payload); err != nil {
		retries := e.Retries + 1
		if retries >= b.cfg.MaxRetries {
			log.WithError(err).Error("giving up on event")
		} else {
			log.WithError(err).Warn("publish failed")
		}
		return false, b.outbox.UpdateState(e.Seq, outbox.StateFailed, retries)
	}

	log.Debug("event acked")
	return true, b.outbox.UpdateState(e.Seq, outbox.StateAcked, e.Retries)
}
