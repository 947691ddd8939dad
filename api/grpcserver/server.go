package grpcserver

import (
	"context"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// KeySet is the part of the key set service exposed over gRPC.
type KeySet interface {
	Insert(key int64) (uint64, error)
	Remove(key int64) (bool, uint64, error)
	Contains(key int64) bool
	Len() int
}

// Server adapts a KeySet to rbset.v1.KeySet.
type Server struct {
	svc KeySet
	log logrus.FieldLogger
}

var _ KeySetServer = (*Server)(nil)

func NewServer(svc KeySet, log logrus.FieldLogger) *Server {
	return &Server{svc: svc, log: log.WithField("component", "grpc")}
}

// -------------------- Commands --------------------

func (s *Server) Insert(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.UInt64Value, error) {
	key := req.GetValue()
	seq, err := s.svc.Insert(key)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Error("insert failed")
		return nil, status.Errorf(codes.Internal, "insert %d: %v", key, err)
	}
	s.log.WithFields(logrus.Fields{"key": key, "seq": seq}).Debug("insert")
	return wrapperspb.UInt64(seq), nil
}

func (s *Server) Remove(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error) {
	key := req.GetValue()
	removed, seq, err := s.svc.Remove(key)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Error("remove failed")
		return nil, status.Errorf(codes.Internal, "remove %d: %v", key, err)
	}
	s.log.WithFields(logrus.Fields{"key": key, "removed": removed, "seq": seq}).Debug("remove")
	return wrapperspb.Bool(removed), nil
}

// -------------------- Queries --------------------

func (s *Server) Contains(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error) {
	return wrapperspb.Bool(s.svc.Contains(req.GetValue())), nil
}

func (s *Server) Len(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	return wrapperspb.Int64(int64(s.svc.Len())), nil
}
