package outbox

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
)

// -------------------- State --------------------

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

var (
	ErrNotFound      = errors.New("outbox: entry not found")
	ErrInvalidRecord = errors.New("outbox: invalid record")
)

// -------------------- Entry --------------------

// Entry is the stored state of one mutation event awaiting publication.
type Entry struct {
	Seq         uint64
	State       State
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

const entryHeaderSize = 1 + 4 + 8

// binary encoding: [state:1][retries:4][lastAttempt:8][payload]
func encodeEntry(e Entry) []byte {
	buf := make([]byte, entryHeaderSize+len(e.Payload))
	buf[0] = byte(e.State)
	binary.BigEndian.PutUint32(buf[1:5], e.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(e.LastAttempt))
	copy(buf[entryHeaderSize:], e.Payload)
	return buf
}

func decodeEntry(seq uint64, b []byte) (Entry, error) {
	if len(b) < entryHeaderSize {
		return Entry{}, errors.Wrapf(ErrInvalidRecord, "seq %d: %d bytes", seq, len(b))
	}
	return Entry{
		Seq:         seq,
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     append([]byte(nil), b[entryHeaderSize:]...),
	}, nil
}

// -------------------- Outbox --------------------

// Outbox is a pebble-backed store of mutation events keyed by sequence
// number. The service writes NEW entries and the broadcaster moves them
// through SENT to ACKED or FAILED.
type Outbox struct {
	db     *pebble.DB
	closed atomic.Bool
}

func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "open outbox %s", dir)
	}
	return &Outbox{db: db}, nil
}

// Close releases the store. Calls after the first are no-ops.
func (o *Outbox) Close() error {
	if !o.closed.CompareAndSwap(false, true) {
		return nil
	}
	return o.db.Close()
}

// PutNew stores a NEW entry for seq.
func (o *Outbox) PutNew(seq uint64, payload []byte) error {
	e := Entry{Seq: seq, State: StateNew, Payload: payload}
	return errors.Wrapf(o.db.Set(keyFor(seq), encodeEntry(e), pebble.Sync), "put seq %d", seq)
}

// UpdateState records a send attempt outcome, keeping the payload.
func (o *Outbox) UpdateState(seq uint64, state State, retries uint32) error {
	e, err := o.Get(seq)
	if err != nil {
		return err
	}
	e.State = state
	e.Retries = retries
	e.LastAttempt = time.Now().UnixNano()
	return errors.Wrapf(o.db.Set(keyFor(seq), encodeEntry(e), pebble.Sync), "update seq %d", seq)
}

func (o *Outbox) Get(seq uint64) (Entry, error) {
	val, closer, err := o.db.Get(keyFor(seq))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return Entry{}, errors.Wrapf(ErrNotFound, "seq %d", seq)
		}
		return Entry{}, errors.Wrapf(err, "get seq %d", seq)
	}
	defer closer.Close()

	return decodeEntry(seq, val)
}

func (o *Outbox) Delete(seq uint64) error {
	return errors.Wrapf(o.db.Delete(keyFor(seq), pebble.Sync), "delete seq %d", seq)
}

// -------------------- Scan --------------------

// ScanByState calls fn for every entry in state, in sequence order. An error
// from fn stops the scan and is returned.
func (o *Outbox) ScanByState(state State, fn func(Entry) error) error {
	return o.scan(func(e Entry) (bool, error) {
		if e.State != state {
			return true, nil
		}
		return true, fn(e)
	})
}

// Scan calls fn for every entry in sequence order, whatever its state. An
// error from fn stops the scan and is returned.
func (o *Outbox) Scan(fn func(Entry) error) error {
	return o.scan(func(e Entry) (bool, error) {
		return true, fn(e)
	})
}

// TruncateAckedUpTo deletes ACKED entries with a sequence at or below seq.
func (o *Outbox) TruncateAckedUpTo(seq uint64) (int, error) {
	batch := o.db.NewBatch()
	defer batch.Close()

	n := 0
	err := o.scan(func(e Entry) (bool, error) {
		if e.Seq > seq {
			return false, nil
		}
		if e.State == StateAcked {
			n++
			return true, batch.Delete(keyFor(e.Seq), nil)
		}
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	return n, errors.Wrap(batch.Commit(pebble.Sync), "commit truncation")
}

func (o *Outbox) scan(fn func(Entry) (bool, error)) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return errors.Wrap(err, "open iterator")
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		e, err := decodeEntry(seq, iter.Value())
		if err != nil {
			return err
		}
		more, err := fn(e)
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return iter.Error()
}

// -------------------- Helpers --------------------

const keyPrefix = "event/"

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, seq))
}

func parseKey(b []byte) (uint64, error) {
	seq, err := strconv.ParseUint(string(bytes.TrimPrefix(b, []byte(keyPrefix))), 10, 64)
	return seq, errors.Wrapf(err, "parse key %q", b)
}
