package wal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

const indexFile = "wal_index.json"

// IndexEntry describes one sealed segment. The index is a JSON line per
// segment, appended when the segment is closed.
type IndexEntry struct {
	Segment  int       `json:"segment"`
	FirstSeq uint64    `json:"first_seq"`
	LastSeq  uint64    `json:"last_seq"`
	Records  int       `json:"records"`
	Sealed   time.Time `json:"sealed"`
}

func appendIndexEntry(dir string, e IndexEntry) error {
	f, err := os.OpenFile(filepath.Join(dir, indexFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open wal index")
	}
	defer f.Close()

	data, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "encode wal index entry")
	}
	_, err = f.Write(append(data, '\n'))
	return errors.Wrap(err, "append wal index entry")
}

// LoadIndex returns the entries of the sealed segments in dir. A missing
// index is empty. Lines that do not parse, such as a torn last line, are
// skipped; segments without an entry are scanned instead.
func LoadIndex(dir string) ([]IndexEntry, error) {
	b, err := os.ReadFile(filepath.Join(dir, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read wal index")
	}

	var entries []IndexEntry
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e IndexEntry
		if err := json.Unmarshal(line, &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries, errors.Wrap(sc.Err(), "scan wal index")
}

// rewriteIndex replaces the index with entries via a temporary file.
func rewriteIndex(dir string, entries []IndexEntry) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return errors.Wrap(err, "encode wal index entry")
		}
	}
	tmp := filepath.Join(dir, indexFile+".tmp")
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, "write wal index")
	}
	return errors.Wrap(os.Rename(tmp, filepath.Join(dir, indexFile)), "install wal index")
}
