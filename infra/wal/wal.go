package wal

import (
	"encoding/binary"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"rbset/infra/memory"
)

type Config struct {
	Dir             string
	SegmentSize     int64
	SegmentDuration time.Duration

	// SyncEveryAppend fsyncs the active segment after each record.
	SyncEveryAppend bool

	// Log receives failures that do not fail an append. Defaults to the
	// logrus standard logger.
	Log logrus.FieldLogger
}

const defaultSegmentSize = 2 * 1024 * 1024

// WAL is an append-only log of tree mutations split into numbered segments.
// It is safe for concurrent use.
type WAL struct {
	mu sync.Mutex

	dir         string
	segSize     int64
	segDuration time.Duration
	syncAppend  bool

	current    *segment
	lastRotate time.Time
	bufs       *memory.Pool[[]byte]
	closed     bool
	// failed is set once the active segment may hold a partial frame. Every
	// later append returns it.
	failed error
	log    logrus.FieldLogger

	// indexMu orders index appends against TruncateBefore's rewrite.
	indexMu sync.Mutex
}

// Open creates cfg.Dir if needed and starts a new segment after the highest
// one already present, so earlier segments are never appended to again.
func Open(cfg Config) (*WAL, error) {
	if cfg.Dir == "" {
		return nil, errors.New("wal: empty directory")
	}
	if cfg.SegmentSize <= 0 {
		cfg.SegmentSize = defaultSegmentSize
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create wal dir %s", cfg.Dir)
	}

	existing, err := listSegments(cfg.Dir)
	if err != nil {
		return nil, err
	}
	next := 0
	if n := len(existing); n > 0 {
		lastSeg := existing[n-1]
		if _, err := trimTornTail(lastSeg.path); err != nil {
			return nil, errors.Wrapf(err, "repair segment %d", lastSeg.index)
		}
		next = lastSeg.index + 1
	}

	seg, err := openSegment(cfg.Dir, next)
	if err != nil {
		return nil, err
	}

	return &WAL{
		dir:         cfg.Dir,
		segSize:     cfg.SegmentSize,
		segDuration: cfg.SegmentDuration,
		syncAppend:  cfg.SyncEveryAppend,
		current:     seg,
		lastRotate:  time.Now(),
		bufs:        memory.NewBufferPool(256),
		log:         cfg.Log.WithField("component", "wal"),
	}, nil
}

// Dir returns the directory holding the segments.
func (w *WAL) Dir() string { return w.dir }

// Append frames r and writes it to the active segment. A nil error means
// the record is in the log; a non-nil one means it is not, except after
// ErrFailed, when the log has to be reopened. Rotating to a new segment
// happens after the write: a rotation failure is logged, does not fail the
// append and is retried by the next one.
func (w *WAL) Append(r *Record) error {
	if len(r.Data) > MaxPayload {
		return errors.Errorf("wal: payload of %d bytes exceeds %d", len(r.Data), MaxPayload)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if w.failed != nil {
		return w.failed
	}

	prev := w.current.offset
	bp := w.bufs.Get()
	buf := encodeFrame((*bp)[:0], r)
	err := w.current.append(buf)
	*bp = buf[:0]
	w.bufs.Put(bp)
	if err != nil {
		if errors.Is(err, ErrFailed) {
			w.failed = err
		}
		return err
	}

	if w.syncAppend {
		if err := w.current.sync(); err != nil {
			// After a failed fsync the page cache can no longer be trusted,
			// so the frame is dropped and the log stops taking appends.
			if rerr := w.current.rollback(prev); rerr != nil {
				err = errors.Wrapf(err, "rollback: %v", rerr)
			}
			w.failed = errors.Wrapf(ErrFailed, "%v", err)
			return w.failed
		}
	}
	w.current.track(r.Seq)

	if w.shouldRotate() {
		if err := w.rotate(); err != nil {
			w.log.WithError(err).WithField("segment", w.current.index).Warn("rotation failed, retrying on next append")
		}
	}
	return nil
}

func encodeFrame(buf []byte, r *Record) []byte {
	var header [headerSize]byte
	header[0] = byte(r.Type)
	binary.BigEndian.PutUint64(header[1:9], r.Seq)
	binary.BigEndian.PutUint64(header[9:17], uint64(r.Time))
	binary.BigEndian.PutUint32(header[17:21], uint32(len(r.Data)))

	buf = append(buf, header[:]...)
	buf = append(buf, r.Data...)
	return binary.BigEndian.AppendUint32(buf, CRC32(buf))
}

func (w *WAL) shouldRotate() bool {
	if w.current.offset >= w.segSize {
		return true
	}
	return w.segDuration > 0 && time.Since(w.lastRotate) >= w.segDuration
}

// rotate opens the next segment before sealing the active one, so a failure
// to open leaves the active segment in place.
func (w *WAL) rotate() error {
	seg, err := openSegment(w.dir, w.current.index+1)
	if err != nil {
		return err
	}
	old := w.current
	w.current = seg
	w.lastRotate = time.Now()
	return w.seal(old)
}

// seal syncs and closes s and records it in the index. A segment missing
// from the index is scanned by TruncateBefore, so an index failure is only
// logged.
func (w *WAL) seal(s *segment) error {
	err := s.sync()
	if cerr := s.close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	w.indexMu.Lock()
	defer w.indexMu.Unlock()
	if err := appendIndexEntry(w.dir, s.indexEntry()); err != nil {
		w.log.WithError(err).WithField("segment", s.index).Warn("segment left out of the index")
	}
	return nil
}

// Sync flushes the active segment to stable storage.
func (w *WAL) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if w.failed != nil {
		return w.failed
	}
	return w.current.sync()
}

func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.seal(w.current)
}

// TruncateBefore deletes every closed segment whose records all carry a
// sequence number at or below seq. The active segment is always kept.
// Segments missing from the index are scanned for their last sequence.
func (w *WAL) TruncateBefore(seq uint64) (removed int, err error) {
	w.mu.Lock()
	active := w.current.index
	w.mu.Unlock()

	w.indexMu.Lock()
	defer w.indexMu.Unlock()

	files, err := listSegments(w.dir)
	if err != nil {
		return 0, err
	}
	index, err := LoadIndex(w.dir)
	if err != nil {
		return 0, err
	}
	lastSeq := make(map[int]uint64, len(index))
	for _, e := range index {
		lastSeq[e.Segment] = e.LastSeq
	}

	gone := make(map[int]bool)
	for _, f := range files {
		if f.index >= active {
			continue
		}
		maxSeq, ok := lastSeq[f.index]
		if !ok {
			if maxSeq, err = maxSeqInSegment(f.path); err != nil {
				continue
			}
		}
		if maxSeq <= seq {
			if err := os.Remove(f.path); err != nil {
				return removed, errors.Wrapf(err, "remove segment %d", f.index)
			}
			gone[f.index] = true
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}

	kept := index[:0]
	for _, e := range index {
		if !gone[e.Segment] {
			kept = append(kept, e)
		}
	}
	return removed, rewriteIndex(w.dir, kept)
}
