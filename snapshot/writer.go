package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

type Writer struct {
	Dir string
}

// Path returns the file Write replaces.
func (w *Writer) Path() string {
	return filepath.Join(w.Dir, fileName)
}

// Write stores keys as the state after seq. The file is written under a
// temporary name and renamed, so a crash leaves the previous snapshot intact.
func (w *Writer) Write(seq uint64, keys []int64) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return errors.Wrapf(err, "create snapshot dir %s", w.Dir)
	}

	f, err := os.CreateTemp(w.Dir, fileName+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create snapshot file")
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	s := Snapshot{
		Seq:     seq,
		Created: time.Now(),
		Keys:    keys,
	}
	if err := gob.NewEncoder(f).Encode(&s); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "encode snapshot")
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "sync snapshot")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close snapshot")
	}
	return errors.Wrap(os.Rename(tmp, w.Path()), "install snapshot")
}

// Load reads the snapshot in dir. ok is false when none has been written yet.
func Load(dir string) (s Snapshot, ok bool, err error) {
	f, err := os.Open(filepath.Join(dir, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, errors.Wrap(err, "open snapshot")
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return Snapshot{}, false, errors.Wrap(err, "decode snapshot")
	}
	return s, true, nil
}
