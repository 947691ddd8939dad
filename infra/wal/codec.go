package wal

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// EncodeKey serializes a tree key as a protobuf Int64Value, the payload of
// insert and remove records.
func EncodeKey(key int64) ([]byte, error) {
	b, err := proto.Marshal(wrapperspb.Int64(key))
	if err != nil {
		return nil, errors.Wrap(err, "encode key")
	}
	return b, nil
}

// DecodeKey is the inverse of EncodeKey.
func DecodeKey(b []byte) (int64, error) {
	var v wrapperspb.Int64Value
	if err := proto.Unmarshal(b, &v); err != nil {
		return 0, errors.Wrap(err, "decode key")
	}
	return v.GetValue(), nil
}
