package sequence

import "sync/atomic"

// Sequencer hands out the sequence numbers stamped on every tree mutation.
// Numbers start after the value the sequencer was created or reset with.
type Sequencer struct {
	last atomic.Uint64
}

// New creates a sequencer whose first Next returns start+1.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

// Next returns the next sequence number.
func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Current returns the last sequence number handed out.
func (s *Sequencer) Current() uint64 {
	return s.last.Load()
}

// Reset moves the sequencer to v after a snapshot load and WAL replay. It
// never moves backwards.
func (s *Sequencer) Reset(v uint64) {
	for {
		cur := s.last.Load()
		if v <= cur || s.last.CompareAndSwap(cur, v) {
			return
		}
	}
}
