package wal

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
)

// maxSeqInSegment scans a segment's headers and returns the highest sequence
// number in it. Only TruncateBefore uses it.
func maxSeqInSegment(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var max uint64
	header := make([]byte, headerSize)
	for {
		if _, err := io.ReadFull(f, header); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return max, nil
			}
			return max, err
		}

		if seq := binary.BigEndian.Uint64(header[1:9]); seq > max {
			max = seq
		}

		// Skip payload + CRC
		payloadLen := binary.BigEndian.Uint32(header[17:21])
		if _, err := f.Seek(int64(payloadLen)+crcSize, io.SeekCurrent); err != nil {
			return max, err
		}
	}
}

// trimTornTail cuts a frame left incomplete by a crash off the end of the
// segment at path, so the segment stays valid once a newer one follows it.
// It returns the number of bytes removed. Other damage is left for Replay
// to report.
func trimTornTail(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return 0, err
	}

	r := bufio.NewReader(f)
	var good int64
	for {
		rec, err := readRecord(r)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			_ = f.Close()
			return 0, nil
		}
		good += int64(headerSize + len(rec.Data) + crcSize)
	}
	if err := f.Close(); err != nil {
		return 0, err
	}

	if good == st.Size() {
		return 0, nil
	}
	return st.Size() - good, os.Truncate(path, good)
}
