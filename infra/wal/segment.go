package wal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	segmentPrefix = "segment-"
	segmentSuffix = ".wal"
)

// file is the part of *os.File a segment writes through.
type file interface {
	Write(b []byte) (int, error)
	Truncate(size int64) error
	Sync() error
	Close() error
	Stat() (os.FileInfo, error)
}

// openFile opens a segment for appending. Tests replace it to inject
// failing files.
var openFile = func(path string) (file, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
}

type segment struct {
	file   file
	index  int
	offset int64

	firstSeq uint64
	lastSeq  uint64
	records  int
}

func segmentPath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("%s%06d%s", segmentPrefix, index, segmentSuffix))
}

func openSegment(dir string, index int) (*segment, error) {
	path := segmentPath(dir, index)
	f, err := openFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open segment %d", index)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "stat segment %d", index)
	}
	return &segment{file: f, index: index, offset: st.Size()}, nil
}

// append writes one frame. A frame written only in part is cut off again so
// the next frame starts on a boundary; when that fails too the segment is
// damaged and the error wraps ErrFailed.
func (s *segment) append(b []byte) error {
	n, err := s.file.Write(b)
	if err == nil {
		s.offset += int64(n)
		return nil
	}
	err = errors.Wrapf(err, "append to segment %d", s.index)
	if n == 0 {
		return err
	}
	if terr := s.file.Truncate(s.offset); terr != nil {
		s.offset += int64(n)
		return errors.Wrapf(ErrFailed, "%v, rollback: %v", err, terr)
	}
	return err
}

// rollback drops everything written after offset.
func (s *segment) rollback(offset int64) error {
	if err := s.file.Truncate(offset); err != nil {
		return errors.Wrapf(err, "truncate segment %d", s.index)
	}
	s.offset = offset
	return nil
}

func (s *segment) track(seq uint64) {
	if s.records == 0 {
		s.firstSeq = seq
	}
	s.lastSeq = seq
	s.records++
}

func (s *segment) indexEntry() IndexEntry {
	return IndexEntry{
		Segment:  s.index,
		FirstSeq: s.firstSeq,
		LastSeq:  s.lastSeq,
		Records:  s.records,
		Sealed:   time.Now(),
	}
}

func (s *segment) sync() error {
	return errors.Wrapf(s.file.Sync(), "sync segment %d", s.index)
}

func (s *segment) close() error {
	return errors.Wrapf(s.file.Close(), "close segment %d", s.index)
}

type segmentFile struct {
	path  string
	index int
}

// listSegments returns the segments in dir ordered by index.
func listSegments(dir string) ([]segmentFile, error) {
	paths, err := filepath.Glob(filepath.Join(dir, segmentPrefix+"*"+segmentSuffix))
	if err != nil {
		return nil, errors.Wrap(err, "list segments")
	}
	out := make([]segmentFile, 0, len(paths))
	for _, p := range paths {
		name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(p), segmentPrefix), segmentSuffix)
		idx, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		out = append(out, segmentFile{path: p, index: idx})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out, nil
}
