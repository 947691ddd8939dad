package wal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestWAL(t *testing.T, dir string, segSize int64) *WAL {
	t.Helper()
	w, err := Open(Config{Dir: dir, SegmentSize: segSize})
	require.NoError(t, err)
	return w
}

func appendKeys(t *testing.T, w *WAL, typ RecordType, firstSeq uint64, keys ...int64) {
	t.Helper()
	for i, k := range keys {
		data, err := EncodeKey(k)
		require.NoError(t, err)
		require.NoError(t, w.Append(NewRecord(typ, firstSeq+uint64(i), data)))
	}
}

func replayAll(t *testing.T, dir string, after uint64) ([]*Record, uint64) {
	t.Helper()
	var recs []*Record
	last, err := Replay(dir, after, func(r *Record) error {
		recs = append(recs, r)
		return nil
	})
	require.NoError(t, err)
	return recs, last
}

func TestWALAppendAndReplay(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 0)

	appendKeys(t, w, RecordInsert, 1, 5, 3, 8)
	appendKeys(t, w, RecordRemove, 4, 8)
	require.NoError(t, w.Close())

	recs, last := replayAll(t, dir, 0)
	require.Len(t, recs, 4)
	assert.Equal(t, uint64(4), last)

	var keys []int64
	for _, r := range recs {
		k, err := DecodeKey(r.Data)
		require.NoError(t, err)
		keys = append(keys, k)
	}
	assert.Equal(t, []int64{5, 3, 8, 8}, keys)
	assert.Equal(t, RecordRemove, recs[3].Type)
	assert.NotZero(t, recs[0].Time)
}

func TestWALReplayAfter(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 0)
	appendKeys(t, w, RecordInsert, 1, 10, 20, 30, 40)
	require.NoError(t, w.Close())

	recs, last := replayAll(t, dir, 2)
	require.Len(t, recs, 2)
	assert.Equal(t, uint64(3), recs[0].Seq)
	assert.Equal(t, uint64(4), last)

	recs, last = replayAll(t, dir, 10)
	assert.Empty(t, recs)
	assert.Equal(t, uint64(4), last)
}

func TestWALRotation(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 64)
	appendKeys(t, w, RecordInsert, 1, 1, 2, 3, 4, 5, 6, 7, 8)
	require.NoError(t, w.Close())

	files, err := listSegments(dir)
	require.NoError(t, err)
	assert.Greater(t, len(files), 2)

	recs, last := replayAll(t, dir, 0)
	assert.Len(t, recs, 8)
	assert.Equal(t, uint64(8), last)
}

func TestWALReopenStartsNewSegment(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 0)
	appendKeys(t, w, RecordInsert, 1, 1, 2)
	require.NoError(t, w.Close())

	w = openTestWAL(t, dir, 0)
	appendKeys(t, w, RecordInsert, 3, 3)
	require.NoError(t, w.Close())

	files, err := listSegments(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, 0, files[0].index)
	assert.Equal(t, 1, files[1].index)

	recs, _ := replayAll(t, dir, 0)
	assert.Len(t, recs, 3)
}

func TestWALCRCMismatch(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 0)
	appendKeys(t, w, RecordInsert, 1, 99)
	require.NoError(t, w.Close())

	f, err := os.OpenFile(segmentPath(dir, 0), os.O_RDWR, 0)
	require.NoError(t, err)
	// flip a byte inside the timestamp
	_, err = f.WriteAt([]byte{0xFF}, 10)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Replay(dir, 0, func(*Record) error { return nil })
	assert.Equal(t, ErrCRCMismatch, errors.Cause(err))
}

func TestWALTornTailIsIgnored(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 0)
	appendKeys(t, w, RecordInsert, 1, 1, 2)
	require.NoError(t, w.Close())

	path := segmentPath(dir, 0)
	st, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, st.Size()-3))

	recs, last := replayAll(t, dir, 0)
	assert.Len(t, recs, 1)
	assert.Equal(t, uint64(1), last)
}

func TestWALTornFrameInEarlierSegmentFails(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 0)
	appendKeys(t, w, RecordInsert, 1, 1, 2)
	require.NoError(t, w.Close())
	w = openTestWAL(t, dir, 0)
	appendKeys(t, w, RecordInsert, 3, 3)
	require.NoError(t, w.Close())

	path := segmentPath(dir, 0)
	st, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, st.Size()-3))

	_, err = Replay(dir, 0, func(*Record) error { return nil })
	assert.Error(t, err)
}

func TestWALNonMonotonic(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 0)
	appendKeys(t, w, RecordInsert, 5, 1)
	appendKeys(t, w, RecordInsert, 5, 2)
	require.NoError(t, w.Close())

	_, err := Replay(dir, 0, func(*Record) error { return nil })
	assert.Equal(t, ErrNonMonotonic, errors.Cause(err))
}

func TestWALHandlerErrorStopsReplay(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 0)
	appendKeys(t, w, RecordInsert, 1, 1, 2, 3)
	require.NoError(t, w.Close())

	boom := errors.New("boom")
	calls := 0
	_, err := Replay(dir, 0, func(*Record) error {
		calls++
		return boom
	})
	assert.Equal(t, boom, err)
	assert.Equal(t, 1, calls)
}

func TestWALTruncateBefore(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 64)
	appendKeys(t, w, RecordInsert, 1, 1, 2, 3, 4, 5, 6, 7, 8)

	before, err := listSegments(dir)
	require.NoError(t, err)

	removed, err := w.TruncateBefore(4)
	require.NoError(t, err)
	assert.Greater(t, removed, 0)

	after, err := listSegments(dir)
	require.NoError(t, err)
	assert.Equal(t, len(before)-removed, len(after))

	recs, _ := replayAll(t, dir, 0)
	require.NotEmpty(t, recs)
	assert.Greater(t, recs[0].Seq, uint64(1))
	assert.Equal(t, uint64(8), recs[len(recs)-1].Seq)

	// The active segment survives even when every record is covered.
	_, err = w.TruncateBefore(100)
	require.NoError(t, err)
	left, err := listSegments(dir)
	require.NoError(t, err)
	assert.Len(t, left, 1)
	require.NoError(t, w.Close())
}

func TestWALClosed(t *testing.T) {
	w := openTestWAL(t, t.TempDir(), 0)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Equal(t, ErrClosed, w.Append(NewRecord(RecordInsert, 1, nil)))
	assert.Equal(t, ErrClosed, w.Sync())
}

func TestWALOversizedPayload(t *testing.T) {
	w := openTestWAL(t, t.TempDir(), 0)
	defer w.Close()
	err := w.Append(NewRecord(RecordInsert, 1, make([]byte, MaxPayload+1)))
	assert.Error(t, err)
}

func TestKeyCodec(t *testing.T) {
	for _, k := range []int64{0, -1, 1 << 62, -(1 << 62)} {
		b, err := EncodeKey(k)
		require.NoError(t, err)
		got, err := DecodeKey(b)
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := DecodeKey([]byte{0xFF, 0xFF})
	assert.Error(t, err)
}

func TestRecordTypeString(t *testing.T) {
	assert.Equal(t, "INSERT", RecordInsert.String())
	assert.Equal(t, "REMOVE", RecordRemove.String())
	assert.Equal(t, "UNKNOWN", RecordType(0).String())
}

func TestWALIndexRecordsSealedSegments(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 64)
	appendKeys(t, w, RecordInsert, 1, 1, 2, 3, 4, 5, 6, 7, 8)
	require.NoError(t, w.Close())

	index, err := LoadIndex(dir)
	require.NoError(t, err)
	files, err := listSegments(dir)
	require.NoError(t, err)
	require.Len(t, index, len(files))

	total := 0
	var prev uint64
	for i, e := range index {
		assert.Equal(t, files[i].index, e.Segment)
		if e.Records == 0 {
			continue
		}
		assert.Greater(t, e.FirstSeq, prev)
		assert.LessOrEqual(t, e.FirstSeq, e.LastSeq)
		prev = e.LastSeq
		total += e.Records
	}
	assert.Equal(t, 8, total)
	assert.Equal(t, uint64(8), prev)
}

func TestWALTruncateBeforeRewritesIndex(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 64)
	defer w.Close()
	appendKeys(t, w, RecordInsert, 1, 1, 2, 3, 4, 5, 6, 7, 8)

	removed, err := w.TruncateBefore(100)
	require.NoError(t, err)
	assert.Greater(t, removed, 0)

	index, err := LoadIndex(dir)
	require.NoError(t, err)
	assert.Empty(t, index)
}

func TestWALTruncateBeforeWithoutIndex(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 64)
	appendKeys(t, w, RecordInsert, 1, 1, 2, 3, 4, 5, 6, 7, 8)
	require.NoError(t, os.Remove(filepath.Join(dir, indexFile)))

	removed, err := w.TruncateBefore(100)
	require.NoError(t, err)
	assert.Greater(t, removed, 0)
	require.NoError(t, w.Close())
}

func TestLoadIndexSkipsTornLine(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, appendIndexEntry(dir, IndexEntry{Segment: 0, FirstSeq: 1, LastSeq: 4, Records: 4}))
	f, err := os.OpenFile(filepath.Join(dir, indexFile), os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.Write([]byte(`{"segment":1,"first`))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	index, err := LoadIndex(dir)
	require.NoError(t, err)
	require.Len(t, index, 1)
	assert.Equal(t, uint64(4), index[0].LastSeq)
}

func TestWALOpenTrimsTornTail(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 0)
	appendKeys(t, w, RecordInsert, 1, 1, 2)
	require.NoError(t, w.Close())

	path := segmentPath(dir, 0)
	st, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, st.Size()-3))

	// The damaged segment is no longer the last one once Open starts the
	// next, so the torn frame has to be gone by then.
	w = openTestWAL(t, dir, 0)
	appendKeys(t, w, RecordInsert, 2, 3)
	require.NoError(t, w.Close())

	recs, last := replayAll(t, dir, 0)
	require.Len(t, recs, 2)
	assert.Equal(t, uint64(1), recs[0].Seq)
	assert.Equal(t, uint64(2), last)
}
