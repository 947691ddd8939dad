package service

import (
	"sync/atomic"
	"testing"

	"rbset/domain/rbtree"
	"rbset/infra/logging"
	"rbset/infra/outbox"
	"rbset/infra/sequence"
	"rbset/infra/wal"
)

func BenchmarkInsert_WALOnly(b *testing.B) {
	w, _ := wal.Open(wal.Config{
		Dir:         b.TempDir(),
		SegmentSize: 64 << 20,
	})
	defer w.Close()

	svc := NewKeySetService(rbtree.New(), sequence.New(0), w, nil, logging.Discard())

	var next atomic.Int64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = svc.Insert(next.Add(1))
		}
	})
}

func BenchmarkInsert_WithOutbox(b *testing.B) {
	w, _ := wal.Open(wal.Config{
		Dir:         b.TempDir(),
		SegmentSize: 64 << 20,
	})
	defer w.Close()
	ob, _ := outbox.Open(b.TempDir())
	defer ob.Close()

	svc := NewKeySetService(rbtree.New(), sequence.New(0), w, ob, logging.Discard())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = svc.Insert(int64(i))
	}
}
