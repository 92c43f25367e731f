// Package mediaupload defines the wire contract for the media upload RPC
// service: a client-streaming upload plus unary queue-status and statistics
// queries. Messages are plain structs carried over gRPC by the JSON codec
// registered in this package.
package mediaupload

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "mediaupload.MediaUploadService"

// VideoChunk is one fragment of a streamed upload. The first chunk of a
// stream carries the identifying fields and the declared total size; every
// chunk carries a data fragment, and the final one sets IsLast.
type VideoChunk struct {
	VideoID     string `json:"video_id"`
	Filename    string `json:"filename"`
	ProducerID  int    `json:"producer_id"`
	Data        []byte `json:"data"`
	ChunkNumber int    `json:"chunk_number"`
	IsLast      bool   `json:"is_last"`
	TotalSize   int64  `json:"total_size"`
}

// UploadResponse is the single in-band result of an upload stream. Rejections
// (empty upload, duplicate, queue full) are reported here with Success=false,
// never as transport errors.
type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type QueueStatusRequest struct{}

// QueueStatusResponse is an instantaneous snapshot of the admission queue.
type QueueStatusResponse struct {
	CurrentSize    int  `json:"current_size"`
	MaxSize        int  `json:"max_size"`
	IsFull         bool `json:"is_full"`
	AvailableSlots int  `json:"available_slots"`
}

type StatisticsRequest struct{}

// StatisticsResponse carries the aggregate pipeline counters.
type StatisticsResponse struct {
	TotalReceived   int64 `json:"total_received"`
	TotalProcessed  int64 `json:"total_processed"`
	TotalDropped    int64 `json:"total_dropped"`
	TotalDuplicates int64 `json:"total_duplicates"`
	QueueSize       int   `json:"queue_size"`
}
