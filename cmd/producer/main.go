package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/your-org/mediasink/internal/producer"
	"github.com/your-org/mediasink/pkg/config"
	"github.com/your-org/mediasink/pkg/logger"
	"github.com/your-org/mediasink/pkg/rpc/mediaupload"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logr, err := logger.New(cfg.App.LogLevel, cfg.App.Environment)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	conn, err := grpc.NewClient(cfg.Producer.ServerAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(mediaupload.CallOption()))
	if err != nil {
		logr.Fatal("connect to server", zap.Error(err))
	}
	defer conn.Close() //nolint:errcheck

	client := mediaupload.NewMediaUploadClient(conn)

	producers := make([]*producer.Producer, 0, cfg.Producer.Count)
	var wg sync.WaitGroup
	for i := 1; i <= cfg.Producer.Count; i++ {
		p := producer.New(producer.Options{
			ID:          i,
			InputDir:    fmt.Sprintf("%s/producer_%d", cfg.Producer.InputDir, i),
			ChunkSize:   cfg.Producer.ChunkSize,
			PollQueue:   cfg.Producer.PollQueue,
			MaxRetries:  cfg.Producer.MaxRetries,
			UploadPause: cfg.Producer.UploadPause,
		}, client, logr)
		producers = append(producers, p)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Run(ctx); err != nil && ctx.Err() == nil {
				logr.Error("producer run failed", zap.Error(err))
			}
		}()
	}

	wg.Wait()

	var uploaded, failed int64
	for _, p := range producers {
		uploaded += p.Uploaded()
		failed += p.Failed()
	}
	rate := 0.0
	if uploaded+failed > 0 {
		rate = float64(uploaded) * 100 / float64(uploaded+failed)
	}
	logr.Info("all producers finished",
		zap.Int64("total_uploaded", uploaded),
		zap.Int64("total_failed", failed),
		zap.String("success_rate", fmt.Sprintf("%.2f%%", rate)))
}
