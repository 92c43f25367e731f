// Package ingest implements the server-side upload pipeline: stream
// reassembly, content-hash deduplication, bounded admission, and a worker
// pool that persists accepted payloads and records their metadata.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// UploadTask is one accepted, not-yet-persisted upload. It is created by the
// upload handler once a stream has fully drained, handed to the queue, and
// consumed by exactly one worker.
type UploadTask struct {
	VideoID    string
	Filename   string
	ProducerID int
	Data       []byte
	Digest     string
	TotalSize  int64
}

// VideoRecord is the immutable log entry for one upload outcome. Persisted
// uploads carry a resolved path, size, worker id, and timestamp; duplicate
// rejections carry only the identifying fields and the duplicate flag.
// Capacity drops produce no record at all, only a counter increment.
type VideoRecord struct {
	VideoID    string    `json:"video_id"`
	Filename   string    `json:"filename"`
	FilePath   string    `json:"file_path,omitempty"`
	Digest     string    `json:"digest"`
	ProducerID int       `json:"producer_id"`
	WorkerID   int       `json:"worker_id,omitempty"`
	Size       int64     `json:"size,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
	Duplicate  bool      `json:"duplicate"`
}

// ComputeDigest returns the hex SHA-256 of the full payload. It is the
// content address used for duplicate detection.
func ComputeDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
