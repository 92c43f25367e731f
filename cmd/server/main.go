package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/your-org/mediasink/internal/dashboard"
	"github.com/your-org/mediasink/internal/ingest"
	"github.com/your-org/mediasink/pkg/config"
	"github.com/your-org/mediasink/pkg/kafka"
	"github.com/your-org/mediasink/pkg/logger"
	"github.com/your-org/mediasink/pkg/rpc/mediaupload"
	"github.com/your-org/mediasink/pkg/storage/blobstore"
	"github.com/your-org/mediasink/pkg/tracing"
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

	traceShutdown, err := tracing.Init(ctx, tracing.Config{
		Endpoint:     cfg.Tracing.Endpoint,
		Insecure:     cfg.Tracing.Insecure,
		SampleRatio:  cfg.Tracing.SampleRatio,
		ResourceAttr: cfg.Tracing.ResourceAttr,
		ServiceName:  cfg.App.Name,
	})
	if err != nil {
		logr.Fatal("init tracing", zap.Error(err))
	}
	defer traceShutdown(context.Background()) //nolint:errcheck

	store, err := blobstore.New(blobstore.Config{
		Provider:  cfg.Storage.Provider,
		Root:      cfg.Storage.OutputDir,
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		Bucket:    cfg.Storage.Bucket,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		logr.Fatal("init blob store", zap.Error(err))
	}

	var index ingest.DedupIndex
	switch cfg.Dedup.Provider {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Dedup.RedisAddr})
		index = ingest.NewRedisDedupIndex(client, cfg.Dedup.RedisKey)
	default:
		index = ingest.NewMemoryDedupIndex()
	}

	hooks := []ingest.PostProcessor{&ingest.ThumbnailStub{Logger: logr}}
	var notifier *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		notifier = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.StoredTopic,
			BatchSize:    cfg.Kafka.BatchSize,
			BatchTimeout: cfg.Kafka.BatchTimeout,
			Compression:  kafka.CompressionFromString(cfg.Kafka.CompressionCodec),
			MaxAttempts:  cfg.Kafka.Retries,
		})
		hooks = append(hooks, &ingest.KafkaNotifier{Producer: notifier})
	}

	queue := ingest.NewTaskQueue(cfg.Pipeline.QueueCapacity)
	meta := ingest.NewMetadataStore()

	service := ingest.NewService(ingest.Params{
		Queue:  queue,
		Index:  index,
		Meta:   meta,
		Logger: logr,
	})

	pool := ingest.NewWorkerPool(ingest.PoolParams{
		Queue:   queue,
		Store:   store,
		Index:   index,
		Meta:    meta,
		Hooks:   hooks,
		Logger:  logr,
		Workers: cfg.Pipeline.Workers,
		Delay:   cfg.Pipeline.WorkerDelay,
	})
	pool.Start()

	grpcServer := grpc.NewServer()
	mediaupload.RegisterMediaUploadServer(grpcServer, service)

	listener, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		logr.Fatal("listen grpc", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      dashboard.NewHandler(service, logr).Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logr.Info("ingestion rpc listening", zap.String("addr", cfg.GRPC.Addr))
		if err := grpcServer.Serve(listener); err != nil {
			logr.Error("grpc server failed", zap.Error(err))
		}
	}()

	go func() {
		logr.Info("dashboard listening", zap.String("addr", cfg.HTTP.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Error("http server failed", zap.Error(err))
		}
	}()

	logr.Info("server started",
		zap.Int("workers", cfg.Pipeline.Workers),
		zap.Int("queue_capacity", cfg.Pipeline.QueueCapacity),
		zap.String("output_dir", cfg.Storage.OutputDir))

	<-ctx.Done()
	logr.Info("shutting down")

	// Stop admitting new uploads, then drain the queue before releasing
	// resources.
	grpcServer.GracefulStop()
	pool.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logr.Error("http server shutdown failed", zap.Error(err))
	}
	if notifier != nil {
		if err := notifier.Close(); err != nil {
			logr.Error("kafka producer close failed", zap.Error(err))
		}
	}
	if err := store.Close(); err != nil {
		logr.Error("blob store close failed", zap.Error(err))
	}
}
