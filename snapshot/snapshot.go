package snapshot

import "time"

const fileName = "snapshot.bin"

type Snapshot struct {
	Seq     uint64
	Created time.Time
	// Keys are in ascending order, one entry per stored copy.
	Keys []int64
}
