package service

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

const eventVersion = 1

const (
	EventInsert = "insert"
	EventRemove = "remove"
)

// Event is the payload published for every applied mutation.
type Event struct {
	V    int    `json:"v"`
	Type string `json:"type"`
	Key  int64  `json:"key"`
	Seq  uint64 `json:"seq"`
}

func encodeEvent(typ string, key int64, seq uint64) ([]byte, error) {
	b, err := json.Marshal(Event{V: eventVersion, Type: typ, Key: key, Seq: seq})
	return b, errors.Wrap(err, "encode event")
}

// DecodeEvent parses a payload stored in the outbox.
func DecodeEvent(b []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(b, &e)
	return e, errors.Wrap(err, "decode event")
}

// EventKey is the message key events are published under, so all events for
// one tree key land on the same partition.
func EventKey(e Event) []byte {
	return []byte(strconv.FormatInt(e.Key, 10))
}

// PayloadKey returns the message key of a stored event payload, or nil when
// the payload does not decode.
func PayloadKey(payload []byte) []byte {
	e, err := DecodeEvent(payload)
	if err != nil {
		return nil
	}
	return EventKey(e)
}
