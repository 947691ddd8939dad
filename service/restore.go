package service

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"rbset/infra/wal"
	"rbset/snapshot"
)

// RestoreStats describes what Restore rebuilt the tree from.
type RestoreStats struct {
	SnapshotSeq  uint64
	SnapshotKeys int
	Replayed     int
	LastSeq      uint64
}

/*
Restore rebuilds the tree from the snapshot in snapshotDir and the WAL
records after it, then resumes sequencing after the last one seen.

IMPORTANT: this MUST run on an empty tree before accepting traffic.
*/
func (s *KeySetService) Restore(snapshotDir string) (RestoreStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats RestoreStats
	if s.tree.Len() != 0 {
		return stats, errors.New("restore into a non-empty tree")
	}

	snap, ok, err := snapshot.Load(snapshotDir)
	if err != nil {
		return stats, err
	}
	if ok {
		for _, k := range snap.Keys {
			s.tree.Insert(k)
		}
		stats.SnapshotSeq = snap.Seq
		stats.SnapshotKeys = len(snap.Keys)
	}

	lastSeq, err := wal.Replay(s.wal.Dir(), stats.SnapshotSeq, func(rec *wal.Record) error {
		key, err := wal.DecodeKey(rec.Data)
		if err != nil {
			return errors.Wrapf(err, "record %d", rec.Seq)
		}
		switch rec.Type {
		case wal.RecordInsert:
			s.tree.Insert(key)
		case wal.RecordRemove:
			if !s.tree.Remove(key) {
				s.log.WithFields(logrus.Fields{"seq": rec.Seq, "key": key}).Warn("replayed remove of absent key")
			}
		default:
			return errors.Errorf("record %d: unknown type %d", rec.Seq, rec.Type)
		}
		stats.Replayed++
		return nil
	})
	if err != nil {
		return stats, errors.Wrap(err, "wal replay")
	}

	stats.LastSeq = max(lastSeq, stats.SnapshotSeq)
	s.seqGen.Reset(stats.LastSeq)

	s.log.WithFields(logrus.Fields{
		"snapshot_seq": stats.SnapshotSeq,
		"replayed":     stats.Replayed,
		"last_seq":     stats.LastSeq,
		"keys":         s.tree.Len(),
	}).Info("restore completed")
	return stats, nil
}
