package ingest

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/your-org/mediasink/pkg/rpc/mediaupload"
)

// QueueStatus is an instantaneous view of the admission queue.
type QueueStatus struct {
	CurrentSize    int  `json:"current_size"`
	MaxSize        int  `json:"max_size"`
	IsFull         bool `json:"is_full"`
	AvailableSlots int  `json:"available_slots"`
}

// Service is the ingestion protocol handler. It reassembles upload streams,
// gates them through the dedup index and the bounded queue, and serves the
// status and statistics queries. The dashboard reads the same state through
// Snapshot, Counters, and QueueStatus.
type Service struct {
	queue  *TaskQueue
	index  DedupIndex
	meta   *MetadataStore
	logger *zap.Logger
	tracer trace.Tracer
}

type Params struct {
	Queue  *TaskQueue
	Index  DedupIndex
	Meta   *MetadataStore
	Logger *zap.Logger
}

// NewService constructs the ingestion service.
func NewService(p Params) *Service {
	return &Service{
		queue:  p.Queue,
		index:  p.Index,
		meta:   p.Meta,
		logger: p.Logger,
		tracer: otel.Tracer("mediasink/ingest"),
	}
}

// UploadVideo drains one chunk stream and produces exactly one in-band
// response. The order of gates is fixed: empty check, dedup check, admission
// check. All rejections are reported with Success=false and a nil transport
// error.
func (s *Service) UploadVideo(stream mediaupload.MediaUploadService_UploadVideoServer) error {
	ctx, span := s.tracer.Start(stream.Context(), "ingest.UploadVideo")
	defer span.End()

	var (
		data       []byte
		videoID    string
		filename   string
		producerID int
		totalSize  int64
		chunks     int
	)

	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if chunks == 0 {
			videoID = chunk.VideoID
			filename = chunk.Filename
			producerID = chunk.ProducerID
			totalSize = chunk.TotalSize
			s.logger.Info("receiving upload",
				zap.String("video_id", videoID),
				zap.String("filename", filename),
				zap.Int("producer_id", producerID))
		}
		data = append(data, chunk.Data...)
		chunks++
		if chunk.IsLast {
			break
		}
	}

	if len(data) == 0 {
		return stream.SendAndClose(&mediaupload.UploadResponse{
			Success: false,
			Message: "no data received",
		})
	}

	if videoID == "" {
		videoID = uuid.NewString()
	}
	if totalSize == 0 {
		totalSize = int64(len(data))
	}

	digest := ComputeDigest(data)
	span.SetAttributes(
		attribute.String("upload.video_id", videoID),
		attribute.Int("upload.chunks", chunks),
		attribute.Int("upload.bytes", len(data)),
	)

	seen, err := s.index.Contains(ctx, digest)
	if err != nil {
		// Fail open: an unreachable index degrades to accepting
		// duplicates, never to rejecting uploads.
		s.logger.Warn("dedup index lookup failed", zap.Error(err))
		seen = false
	}
	if seen {
		s.meta.IncDuplicates()
		s.meta.Append(VideoRecord{
			VideoID:    videoID,
			Filename:   filename,
			Digest:     digest,
			ProducerID: producerID,
			UploadedAt: time.Now().UTC(),
			Duplicate:  true,
		})
		s.logger.Info("duplicate detected",
			zap.String("video_id", videoID),
			zap.String("digest", digest[:8]))
		return stream.SendAndClose(&mediaupload.UploadResponse{
			Success: false,
			Message: "duplicate file detected",
		})
	}

	task := &UploadTask{
		VideoID:    videoID,
		Filename:   filename,
		ProducerID: producerID,
		Data:       data,
		Digest:     digest,
		TotalSize:  totalSize,
	}

	if !s.queue.TryEnqueue(task) {
		s.meta.IncDropped()
		s.logger.Warn("queue full, dropping upload",
			zap.String("video_id", videoID),
			zap.Int("queue_size", s.queue.Len()),
			zap.Int("capacity", s.queue.Cap()))
		return stream.SendAndClose(&mediaupload.UploadResponse{
			Success: false,
			Message: "queue full - video dropped",
		})
	}

	s.meta.IncReceived()
	s.logger.Info("upload queued",
		zap.String("video_id", videoID),
		zap.Int("queue_size", s.queue.Len()),
		zap.Int("capacity", s.queue.Cap()))
	return stream.SendAndClose(&mediaupload.UploadResponse{
		Success: true,
		Message: "video queued for processing",
	})
}

// GetQueueStatus serves the admission snapshot producers poll before
// uploading.
func (s *Service) GetQueueStatus(_ context.Context, _ *mediaupload.QueueStatusRequest) (*mediaupload.QueueStatusResponse, error) {
	st := s.QueueStatus()
	return &mediaupload.QueueStatusResponse{
		CurrentSize:    st.CurrentSize,
		MaxSize:        st.MaxSize,
		IsFull:         st.IsFull,
		AvailableSlots: st.AvailableSlots,
	}, nil
}

// GetStatistics serves the aggregate counters.
func (s *Service) GetStatistics(_ context.Context, _ *mediaupload.StatisticsRequest) (*mediaupload.StatisticsResponse, error) {
	c := s.meta.Counters()
	return &mediaupload.StatisticsResponse{
		TotalReceived:   c.Received,
		TotalProcessed:  c.Processed,
		TotalDropped:    c.Dropped,
		TotalDuplicates: c.Duplicates,
		QueueSize:       s.queue.Len(),
	}, nil
}

// QueueStatus returns the current admission snapshot.
func (s *Service) QueueStatus() QueueStatus {
	size := s.queue.Len()
	capacity := s.queue.Cap()
	return QueueStatus{
		CurrentSize:    size,
		MaxSize:        capacity,
		IsFull:         size >= capacity,
		AvailableSlots: capacity - size,
	}
}

// Counters returns the aggregate counters.
func (s *Service) Counters() Counters {
	return s.meta.Counters()
}

// Snapshot returns a copy of the upload record log.
func (s *Service) Snapshot() []VideoRecord {
	return s.meta.Snapshot()
}
