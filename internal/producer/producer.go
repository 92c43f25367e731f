// Package producer implements the upload client: it discovers video files,
// streams them to the server in bounded chunks, and retries transient
// failures with exponential backoff. All retry policy lives here; the
// server never retries anything.
package producer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/your-org/mediasink/pkg/rpc/mediaupload"
)

var errQueueFull = errors.New("server queue full")

// Options configures one producer worker.
type Options struct {
	ID          int
	InputDir    string
	ChunkSize   int
	PollQueue   bool
	MaxRetries  uint
	UploadPause time.Duration
}

// Producer uploads every video file in its input directory, one at a time.
type Producer struct {
	opts   Options
	client mediaupload.MediaUploadClient
	logger *zap.Logger

	uploaded atomic.Int64
	failed   atomic.Int64
}

// New constructs a producer worker on a shared RPC client.
func New(opts Options, client mediaupload.MediaUploadClient, logger *zap.Logger) *Producer {
	return &Producer{
		opts:   opts,
		client: client,
		logger: logger.With(zap.Int("producer_id", opts.ID)),
	}
}

func (p *Producer) Uploaded() int64 { return p.uploaded.Load() }
func (p *Producer) Failed() int64   { return p.failed.Load() }

// Run uploads the directory's files sequentially until done or the context
// is cancelled.
func (p *Producer) Run(ctx context.Context) error {
	files, err := ScanDir(p.opts.InputDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		p.logger.Warn("no video files found", zap.String("dir", p.opts.InputDir))
		return nil
	}
	p.logger.Info("producer started",
		zap.String("dir", p.opts.InputDir),
		zap.Int("files", len(files)))

	for i, file := range files {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := p.uploadWithRetry(ctx, file); err != nil {
			p.failed.Add(1)
			p.logger.Error("upload failed",
				zap.String("file", filepath.Base(file)),
				zap.Error(err))
		} else {
			p.uploaded.Add(1)
		}

		if i < len(files)-1 && p.opts.UploadPause > 0 {
			select {
			case <-time.After(p.opts.UploadPause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	p.logger.Info("producer finished",
		zap.Int64("uploaded", p.uploaded.Load()),
		zap.Int64("failed", p.failed.Load()))
	return nil
}

// uploadWithRetry retries transport failures and queue-full rejections;
// terminal rejections (empty or duplicate content) are not retried.
func (p *Producer) uploadWithRetry(ctx context.Context, file string) error {
	operation := func() (struct{}, error) {
		return struct{}{}, p.uploadFile(ctx, file)
	}
	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(p.opts.MaxRetries))
	return err
}

func (p *Producer) uploadFile(ctx context.Context, file string) error {
	if p.opts.PollQueue {
		status, err := p.client.GetQueueStatus(ctx, &mediaupload.QueueStatusRequest{})
		if err != nil {
			// Status polling is advisory; try the upload anyway.
			p.logger.Debug("queue status check failed", zap.Error(err))
		} else if status.IsFull {
			p.logger.Warn("server queue full, backing off",
				zap.Int("current_size", status.CurrentSize),
				zap.Int("max_size", status.MaxSize))
			return errQueueFull
		}
	}

	f, err := os.Open(file)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("open %s: %w", file, err))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return backoff.Permanent(fmt.Errorf("stat %s: %w", file, err))
	}

	filename := filepath.Base(file)
	videoID := fmt.Sprintf("vid-%d-%s", p.opts.ID, uuid.NewString())

	p.logger.Info("starting upload",
		zap.String("video_id", videoID),
		zap.String("filename", filename),
		zap.Int64("size", info.Size()))

	stream, err := p.client.UploadVideo(ctx)
	if err != nil {
		return fmt.Errorf("open upload stream: %w", err)
	}

	buf := make([]byte, p.opts.ChunkSize)
	var sent int64
	chunkNumber := 0
	for sent < info.Size() {
		n, err := f.Read(buf)
		if n > 0 {
			sent += int64(n)
			chunk := &mediaupload.VideoChunk{
				VideoID:     videoID,
				Filename:    filename,
				ProducerID:  p.opts.ID,
				Data:        buf[:n],
				ChunkNumber: chunkNumber,
				IsLast:      sent >= info.Size(),
				TotalSize:   info.Size(),
			}
			if err := stream.Send(chunk); err != nil {
				return fmt.Errorf("send chunk %d: %w", chunkNumber, err)
			}
			chunkNumber++
		}
		if err != nil {
			break
		}
	}

	resp, err := stream.CloseAndRecv()
	if err != nil {
		return fmt.Errorf("close upload stream: %w", err)
	}
	if !resp.Success {
		if resp.Message == "queue full - video dropped" {
			return errQueueFull
		}
		return backoff.Permanent(fmt.Errorf("server rejected upload: %s", resp.Message))
	}

	p.logger.Info("upload accepted",
		zap.String("video_id", videoID),
		zap.Int("chunks", chunkNumber),
		zap.String("server_message", resp.Message))
	return nil
}
