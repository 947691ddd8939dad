package service

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"rbset/domain/rbtree"
	"rbset/infra/outbox"
	"rbset/infra/sequence"
	"rbset/infra/wal"
	"rbset/snapshot"
)

/*
KeySetService is the ONLY write entry point into the tree.

A mutation is committed once its WAL record is appended: the tree is
changed right after, and the outbox entry is written last. A failed outbox
write is logged and does not undo the mutation.
*/
type KeySetService struct {
	mu     sync.Mutex
	tree   *rbtree.Tree
	seqGen *sequence.Sequencer
	wal    *wal.WAL
	outbox *outbox.Outbox
	log    logrus.FieldLogger
}

// NewKeySetService wires the dependencies. ob may be nil when events are not
// published.
func NewKeySetService(
	tree *rbtree.Tree,
	seqGen *sequence.Sequencer,
	w *wal.WAL,
	ob *outbox.Outbox,
	log logrus.FieldLogger,
) *KeySetService {
	return &KeySetService{
		tree:   tree,
		seqGen: seqGen,
		wal:    w,
		outbox: ob,
		log:    log.WithField("component", "keyset"),
	}
}

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

// Insert adds key and returns the sequence number assigned to the insert.
func (s *KeySetService) Insert(key int64) (uint64, error) {
	data, err := wal.EncodeKey(key)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.seqGen.Next()
	if err := s.wal.Append(wal.NewRecord(wal.RecordInsert, seq, data)); err != nil {
		return 0, errors.Wrapf(err, "log insert of %d", key)
	}
	s.tree.Insert(key)
	s.enqueue(EventInsert, key, seq)
	return seq, nil
}

// Remove deletes one copy of key. Removing an absent key is a no-op that
// assigns no sequence number and writes nothing.
func (s *KeySetService) Remove(key int64) (removed bool, seq uint64, err error) {
	data, err := wal.EncodeKey(key)
	if err != nil {
		return false, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tree.Contains(key) {
		return false, 0, nil
	}

	seq = s.seqGen.Next()
	if err := s.wal.Append(wal.NewRecord(wal.RecordRemove, seq, data)); err != nil {
		return false, 0, errors.Wrapf(err, "log remove of %d", key)
	}
	s.tree.Remove(key)
	s.enqueue(EventRemove, key, seq)
	return true, seq, nil
}

func (s *KeySetService) enqueue(typ string, key int64, seq uint64) {
	if s.outbox == nil {
		return
	}
	log := s.log.WithFields(logrus.Fields{"op": typ, "key": key, "seq": seq})
	payload, err := encodeEvent(typ, key, seq)
	if err != nil {
		log.WithError(err).Error("event not queued")
		return
	}
	if err := s.outbox.PutNew(seq, payload); err != nil {
		log.WithError(err).Error("event not queued")
	}
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

func (s *KeySetService) Contains(key int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Contains(key)
}

func (s *KeySetService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Len()
}

// Keys returns every stored key in ascending order.
func (s *KeySetService) Keys() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Keys()
}

// LastSeq returns the sequence number of the latest mutation.
func (s *KeySetService) LastSeq() uint64 {
	return s.seqGen.Current()
}

//
// ──────────────────────────────────────────────────────────
// Snapshots
// ──────────────────────────────────────────────────────────
//

// WriteSnapshot stores the current keys, then drops the WAL segments and
// acknowledged outbox entries the snapshot covers.
func (s *KeySetService) WriteSnapshot(w *snapshot.Writer) (uint64, error) {
	s.mu.Lock()
	seq := s.seqGen.Current()
	keys := s.tree.Keys()
	s.mu.Unlock()

	if err := w.Write(seq, keys); err != nil {
		return 0, err
	}

	log := s.log.WithFields(logrus.Fields{"op": "snapshot", "seq": seq, "keys": len(keys)})
	segments, err := s.wal.TruncateBefore(seq)
	if err != nil {
		log.WithError(err).Warn("wal truncation failed")
	}
	acked := 0
	if s.outbox != nil {
		if acked, err = s.outbox.TruncateAckedUpTo(seq); err != nil {
			log.WithError(err).Warn("outbox truncation failed")
		}
	}
	log.WithFields(logrus.Fields{"segments": segments, "acked": acked}).Info("snapshot written")
	return seq, nil
}

// RunSnapshots writes a snapshot to dir every interval until ctx is done.
func (s *KeySetService) RunSnapshots(ctx context.Context, dir string, interval time.Duration) {
	w := &snapshot.Writer{Dir: dir}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.WriteSnapshot(w); err != nil {
				s.log.WithError(err).Error("snapshot failed")
			}
		}
	}
}
