package wal

import "time"

// RecordType is the tree mutation a record logs.
type RecordType uint8

const (
	RecordInsert RecordType = iota + 1
	RecordRemove
)

func (t RecordType) String() string {
	switch t {
	case RecordInsert:
		return "INSERT"
	case RecordRemove:
		return "REMOVE"
	default:
		return "UNKNOWN"
	}
}

// Record is one framed WAL entry.
type Record struct {
	Type RecordType
	Seq  uint64
	Time int64
	Data []byte
}

func NewRecord(t RecordType, seq uint64, data []byte) *Record {
	return &Record{
		Type: t,
		Seq:  seq,
		Time: time.Now().UnixNano(),
		Data: data,
	}
}

// Frame:
// [type:1][seq:8][time:8][len:4][payload][crc:4]
const (
	headerSize = 1 + 8 + 8 + 4
	crcSize    = 4

	// MaxPayload bounds the length field so a corrupt header cannot trigger
	// a huge allocation during replay.
	MaxPayload = 1 << 20
)
