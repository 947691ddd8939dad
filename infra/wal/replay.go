package wal

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

var (
	ErrClosed       = errors.New("wal: closed")
	ErrCRCMismatch  = errors.New("wal: crc mismatch")
	ErrNonMonotonic = errors.New("wal: non-monotonic sequence")
	ErrCorrupt      = errors.New("wal: corrupt frame")
	ErrFailed       = errors.New("wal: failed, reopen to recover")
)

type ReplayHandler func(*Record) error

// Replay reads every segment in dir in order and calls fn for each record
// whose sequence is above after. It returns the highest sequence found in
// the log, including records at or below after.
//
// A frame cut short at the end of the last segment is the trace of a crash
// mid-append and ends the replay without error. The same damage in an
// earlier segment is reported.
func Replay(dir string, after uint64, fn ReplayHandler) (lastSeq uint64, err error) {
	files, err := listSegments(dir)
	if err != nil {
		return 0, err
	}

	for i, sf := range files {
		last := i == len(files)-1
		lastSeq, err = replaySegment(sf, last, after, lastSeq, fn)
		if err != nil {
			return lastSeq, err
		}
	}
	return lastSeq, nil
}

func replaySegment(sf segmentFile, last bool, after, lastSeq uint64, fn ReplayHandler) (uint64, error) {
	f, err := os.Open(sf.path)
	if err != nil {
		return lastSeq, errors.Wrapf(err, "open segment %d", sf.index)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		rec, err := readRecord(r)
		switch {
		case err == io.EOF:
			return lastSeq, nil
		case err == io.ErrUnexpectedEOF && last:
			return lastSeq, nil
		case err != nil:
			return lastSeq, errors.Wrapf(err, "segment %d", sf.index)
		}

		if rec.Seq <= lastSeq {
			return lastSeq, errors.Wrapf(ErrNonMonotonic, "segment %d: seq %d after %d", sf.index, rec.Seq, lastSeq)
		}
		lastSeq = rec.Seq

		if rec.Seq <= after {
			continue
		}
		if err := fn(rec); err != nil {
			return lastSeq, err
		}
	}
}

func readRecord(r io.Reader) (*Record, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	t := RecordType(header[0])
	seq := binary.BigEndian.Uint64(header[1:9])
	ts := binary.BigEndian.Uint64(header[9:17])
	l := binary.BigEndian.Uint32(header[17:21])
	if l > MaxPayload {
		return nil, errors.Wrapf(ErrCorrupt, "payload length %d", l)
	}

	data := make([]byte, int(l)+crcSize)
	if _, err := io.ReadFull(r, data); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	payload := data[:l]
	crc := binary.BigEndian.Uint32(data[l:])
	if !CRC32Valid(append(header, payload...), crc) {
		return nil, errors.Wrapf(ErrCRCMismatch, "seq %d", seq)
	}

	return &Record{
		Type: t,
		Seq:  seq,
		Time: int64(ts),
		Data: payload,
	}, nil
}
