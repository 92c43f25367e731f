package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/mediasink/pkg/kafka"
)

// PostProcessor runs after a worker has persisted a payload. Hooks are best
// effort: a failing hook is logged by the worker and never fails the upload.
type PostProcessor interface {
	Process(ctx context.Context, rec VideoRecord) error
}

// ThumbnailStub stands in for real thumbnail extraction. It only logs where
// a frame grab (ffmpeg -ss 00:00:01 -vframes 1) would run.
type ThumbnailStub struct {
	Logger *zap.Logger
}

func (t *ThumbnailStub) Process(_ context.Context, rec VideoRecord) error {
	t.Logger.Debug("thumbnail generation skipped (stub)",
		zap.String("video_id", rec.VideoID),
		zap.String("path", rec.FilePath))
	return nil
}

// StoredEvent is emitted once a payload has been persisted and recorded.
type StoredEvent struct {
	VideoID    string    `json:"video_id"`
	Filename   string    `json:"filename"`
	FilePath   string    `json:"file_path"`
	Digest     string    `json:"digest"`
	SizeBytes  int64     `json:"size_bytes"`
	ProducerID int       `json:"producer_id"`
	WorkerID   int       `json:"worker_id"`
	StoredAt   time.Time `json:"stored_at"`
}

// KafkaNotifier publishes a StoredEvent per persisted upload.
type KafkaNotifier struct {
	Producer *kafka.Producer
}

func (k *KafkaNotifier) Process(ctx context.Context, rec VideoRecord) error {
	event := StoredEvent{
		VideoID:    rec.VideoID,
		Filename:   rec.Filename,
		FilePath:   rec.FilePath,
		Digest:     rec.Digest,
		SizeBytes:  rec.Size,
		ProducerID: rec.ProducerID,
		WorkerID:   rec.WorkerID,
		StoredAt:   time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal stored event: %w", err)
	}

	headers := map[string]string{
		"video_id":   rec.VideoID,
		"event_type": "media.stored",
	}
	return k.Producer.Publish(ctx, []byte(rec.VideoID), payload, headers)
}
