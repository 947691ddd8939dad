package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"rbset/api/grpcserver"
	"rbset/config"
	"rbset/domain/rbtree"
	"rbset/infra/kafka"
	"rbset/infra/logging"
	"rbset/infra/outbox"
	"rbset/infra/sequence"
	"rbset/infra/wal"
	"rbset/jobs/broadcaster"
	"rbset/service"
	"rbset/snapshot"
)

func main() {
	cmd := &cobra.Command{
		Use:           "rbset-server",
		Short:         "Serve a durable red-black key set over gRPC",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, log)
		},
	}
	config.BindFlags(cmd)

	if err := cmd.Execute(); err != nil {
		logrus.WithError(err).Error("rbset-server exited")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	// ---------------- WAL ----------------

	entryWAL, err := wal.Open(wal.Config{
		Dir:             cfg.WALDir,
		SegmentSize:     cfg.WALSegmentSize,
		SegmentDuration: cfg.WALSegmentAge,
		SyncEveryAppend: cfg.WALSyncEveryOp,
		Log:             log,
	})
	if err != nil {
		return errors.Wrap(err, "entry wal init")
	}
	defer entryWAL.Close()

	// ---------------- Outbox ----------------

	ob, err := outbox.Open(cfg.OutboxDir)
	if err != nil {
		return errors.Wrap(err, "outbox init")
	}
	defer ob.Close()

	// ---------------- Service + restore ----------------

	svc := service.NewKeySetService(rbtree.New(), sequence.New(0), entryWAL, ob, log)
	if _, err := svc.Restore(cfg.SnapshotDir); err != nil {
		return errors.Wrap(err, "restore")
	}

	// ---------------- Publisher ----------------

	var pub kafka.Publisher
	if cfg.BroadcastEnabled() {
		if pub, err = kafka.NewPublisher(cfg.KafkaClient, cfg.KafkaBrokers, cfg.KafkaTopic); err != nil {
			return errors.Wrap(err, "kafka publisher")
		}
		defer pub.Close()
	} else {
		log.Info("no kafka brokers configured, events stay in the outbox")
	}

	// ---------------- Background jobs ----------------

	// Jobs stop before the stores and the publisher are closed.
	ctx, cancel := context.WithCancel(ctx)
	var jobs sync.WaitGroup
	defer jobs.Wait()
	defer cancel()

	jobs.Add(1)
	go func() {
		defer jobs.Done()
		svc.RunSnapshots(ctx, cfg.SnapshotDir, cfg.SnapshotEvery)
	}()

	if pub != nil {
		bc := broadcaster.New(ob, pub, broadcaster.Config{
			Interval:   cfg.BroadcastEvery,
			MaxRetries: cfg.BroadcastMaxRetry,
			KeyFunc:    service.PayloadKey,
		}, log)
		jobs.Add(1)
		go func() {
			defer jobs.Done()
			bc.Run(ctx)
		}()
	}

	// ---------------- gRPC ----------------

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", cfg.GRPCAddr)
	}

	grpcSrv := grpc.NewServer()
	grpcserver.Register(grpcSrv, grpcserver.NewServer(svc, log))

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		grpcSrv.GracefulStop()
	}()

	log.WithFields(logrus.Fields{"addr": lis.Addr().String(), "keys": svc.Len()}).Info("rbset serving")
	serveErr := grpcSrv.Serve(lis)

	cancel()
	jobs.Wait()

	if _, err := svc.WriteSnapshot(&snapshot.Writer{Dir: cfg.SnapshotDir}); err != nil {
		log.WithError(err).Warn("final snapshot failed")
	}
	return errors.Wrap(serveErr, "grpc serve")
}
