package ingest

import (
	"context"
	"io"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/your-org/mediasink/pkg/rpc/mediaupload"
	"github.com/your-org/mediasink/pkg/storage/blobstore"
)

// fakeUploadStream feeds a canned chunk sequence to the handler and captures
// the single in-band response.
type fakeUploadStream struct {
	grpc.ServerStream
	chunks []*mediaupload.VideoChunk
	resp   *mediaupload.UploadResponse
}

func (f *fakeUploadStream) Context() context.Context {
	return context.Background()
}

func (f *fakeUploadStream) Recv() (*mediaupload.VideoChunk, error) {
	if len(f.chunks) == 0 {
		return nil, io.EOF
	}
	c := f.chunks[0]
	f.chunks = f.chunks[1:]
	return c, nil
}

func (f *fakeUploadStream) SendAndClose(r *mediaupload.UploadResponse) error {
	f.resp = r
	return nil
}

func chunked(videoID string, producerID int, payload []byte, chunkSize int) []*mediaupload.VideoChunk {
	var chunks []*mediaupload.VideoChunk
	for i := 0; i < len(payload); i += chunkSize {
		end := i + chunkSize
		if end > len(payload) {
			end = len(payload)
		}
		chunks = append(chunks, &mediaupload.VideoChunk{
			VideoID:     videoID,
			Filename:    videoID + ".mp4",
			ProducerID:  producerID,
			Data:        payload[i:end],
			ChunkNumber: i / chunkSize,
			IsLast:      end == len(payload),
			TotalSize:   int64(len(payload)),
		})
	}
	return chunks
}

func upload(t *testing.T, svc *Service, videoID string, payload []byte) *mediaupload.UploadResponse {
	t.Helper()
	stream := &fakeUploadStream{chunks: chunked(videoID, 1, payload, 4)}
	if err := svc.UploadVideo(stream); err != nil {
		t.Fatalf("UploadVideo(%s): %v", videoID, err)
	}
	if stream.resp == nil {
		t.Fatalf("UploadVideo(%s): no response sent", videoID)
	}
	return stream.resp
}

type pipeline struct {
	svc   *Service
	queue *TaskQueue
	meta  *MetadataStore
	index DedupIndex
	pool  *WorkerPool
}

func newPipeline(t *testing.T, capacity, workers int) *pipeline {
	t.Helper()

	store, err := blobstore.New(blobstore.Config{Provider: "filesystem", Root: t.TempDir()})
	if err != nil {
		t.Fatalf("blobstore: %v", err)
	}

	queue := NewTaskQueue(capacity)
	meta := NewMetadataStore()
	index := NewMemoryDedupIndex()
	logger := zap.NewNop()

	p := &pipeline{
		svc:   NewService(Params{Queue: queue, Index: index, Meta: meta, Logger: logger}),
		queue: queue,
		meta:  meta,
		index: index,
	}
	if workers > 0 {
		p.pool = NewWorkerPool(PoolParams{
			Queue:   queue,
			Store:   store,
			Index:   index,
			Meta:    meta,
			Logger:  logger,
			Workers: workers,
		})
		p.pool.Start()
		t.Cleanup(p.pool.Stop)
	}
	return p
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestUploadSinglePayloadProducesOneRecord(t *testing.T) {
	p := newPipeline(t, 4, 2)

	resp := upload(t, p.svc, "v1", []byte("single payload"))
	if !resp.Success {
		t.Fatalf("upload rejected: %s", resp.Message)
	}

	waitFor(t, func() bool { return p.meta.Counters().Processed == 1 })

	records := p.meta.Snapshot()
	if len(records) != 1 {
		t.Fatalf("expected exactly 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Duplicate {
		t.Error("persisted record flagged duplicate")
	}
	if rec.FilePath == "" {
		t.Error("persisted record has no path")
	}
	if rec.WorkerID == 0 {
		t.Error("persisted record has no worker id")
	}
	if rec.Digest != ComputeDigest([]byte("single payload")) {
		t.Error("record digest does not match payload")
	}
}

func TestUploadDuplicateAfterPersistIsRejected(t *testing.T) {
	p := newPipeline(t, 4, 1)
	payload := []byte("identical bytes")

	if resp := upload(t, p.svc, "first", payload); !resp.Success {
		t.Fatalf("first upload rejected: %s", resp.Message)
	}
	waitFor(t, func() bool { return p.meta.Counters().Processed == 1 })

	resp := upload(t, p.svc, "second", payload)
	if resp.Success {
		t.Fatal("duplicate upload accepted")
	}
	if resp.Message != "duplicate file detected" {
		t.Fatalf("unexpected message: %s", resp.Message)
	}

	c := p.meta.Counters()
	if c.Duplicates != 1 {
		t.Errorf("duplicates = %d, want 1", c.Duplicates)
	}

	var dups, persisted int
	for _, rec := range p.meta.Snapshot() {
		if rec.Duplicate {
			dups++
			if rec.FilePath != "" || rec.Size != 0 {
				t.Error("duplicate record carries path or size")
			}
		} else {
			persisted++
		}
	}
	if persisted != 1 || dups != 1 {
		t.Fatalf("records: persisted=%d dups=%d, want 1/1", persisted, dups)
	}
}

func TestUploadQueueFullDropsWithoutRecord(t *testing.T) {
	// No workers: the queue cannot drain.
	p := newPipeline(t, 2, 0)

	for i, id := range []string{"a", "b"} {
		if resp := upload(t, p.svc, id, []byte(id+" payload")); !resp.Success {
			t.Fatalf("upload %d rejected below capacity: %s", i, resp.Message)
		}
	}

	resp := upload(t, p.svc, "c", []byte("c payload"))
	if resp.Success {
		t.Fatal("upload accepted past capacity")
	}
	if resp.Message != "queue full - video dropped" {
		t.Fatalf("unexpected message: %s", resp.Message)
	}

	c := p.meta.Counters()
	if c.Dropped != 1 {
		t.Errorf("dropped = %d, want 1", c.Dropped)
	}
	if c.Received != 2 {
		t.Errorf("received = %d, want 2", c.Received)
	}
	// Capacity drops leave no record, unlike duplicate rejections.
	if n := len(p.meta.Snapshot()); n != 0 {
		t.Errorf("expected no records, got %d", n)
	}
}

func TestUploadEmptyStreamMutatesNothing(t *testing.T) {
	p := newPipeline(t, 2, 0)

	for name, chunks := range map[string][]*mediaupload.VideoChunk{
		"no chunks":    nil,
		"empty chunks": {{VideoID: "e", Filename: "e.mp4", IsLast: true}},
	} {
		stream := &fakeUploadStream{chunks: chunks}
		if err := p.svc.UploadVideo(stream); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if stream.resp.Success {
			t.Fatalf("%s: empty upload accepted", name)
		}
		if stream.resp.Message != "no data received" {
			t.Fatalf("%s: unexpected message %s", name, stream.resp.Message)
		}
	}

	c := p.meta.Counters()
	if c.Received != 0 || c.Dropped != 0 || c.Duplicates != 0 {
		t.Fatalf("empty uploads mutated counters: %+v", c)
	}
	if p.queue.Len() != 0 {
		t.Fatal("empty upload reached the queue")
	}
	if len(p.meta.Snapshot()) != 0 {
		t.Fatal("empty upload appended a record")
	}
}

func TestConcurrentIdenticalUploadsBothAccepted(t *testing.T) {
	// The digest only enters the index after persistence, so two identical
	// payloads admitted before either persists are both accepted. This
	// window is part of the design, not a bug.
	p := newPipeline(t, 4, 0)
	payload := []byte("raced payload")

	for _, id := range []string{"r1", "r2"} {
		if resp := upload(t, p.svc, id, payload); !resp.Success {
			t.Fatalf("upload %s rejected: %s", id, resp.Message)
		}
	}
	if c := p.meta.Counters(); c.Duplicates != 0 {
		t.Fatalf("duplicates = %d, want 0", c.Duplicates)
	}

	// Drain with a pool; both must persist with the same digest.
	store, err := blobstore.New(blobstore.Config{Provider: "filesystem", Root: t.TempDir()})
	if err != nil {
		t.Fatalf("blobstore: %v", err)
	}
	pool := NewWorkerPool(PoolParams{
		Queue:   p.queue,
		Store:   store,
		Index:   p.index,
		Meta:    p.meta,
		Logger:  zap.NewNop(),
		Workers: 2,
	})
	pool.Start()
	waitFor(t, func() bool { return p.meta.Counters().Processed == 2 })
	pool.Stop()

	records := p.meta.Snapshot()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Digest != records[1].Digest {
		t.Error("raced records should share a digest")
	}
	for _, rec := range records {
		if rec.Duplicate {
			t.Error("raced record flagged duplicate")
		}
	}
}

func TestStatisticsAndQueueStatusRPCs(t *testing.T) {
	p := newPipeline(t, 3, 0)
	ctx := context.Background()

	upload(t, p.svc, "s1", []byte("stat payload"))

	qs, err := p.svc.GetQueueStatus(ctx, &mediaupload.QueueStatusRequest{})
	if err != nil {
		t.Fatalf("GetQueueStatus: %v", err)
	}
	if qs.CurrentSize != 1 || qs.MaxSize != 3 || qs.IsFull || qs.AvailableSlots != 2 {
		t.Fatalf("unexpected queue status: %+v", qs)
	}

	stats, err := p.svc.GetStatistics(ctx, &mediaupload.StatisticsRequest{})
	if err != nil {
		t.Fatalf("GetStatistics: %v", err)
	}
	if stats.TotalReceived != 1 || stats.QueueSize != 1 {
		t.Fatalf("unexpected statistics: %+v", stats)
	}
	if stats.TotalProcessed != 0 {
		t.Fatalf("processed = %d before any worker ran", stats.TotalProcessed)
	}
}

func TestCountersConsistentAtQuiescence(t *testing.T) {
	p := newPipeline(t, 8, 3)

	payloads := []string{"one", "two", "three", "four", "five"}
	for _, s := range payloads {
		if resp := upload(t, p.svc, "q-"+s, []byte("payload "+s)); !resp.Success {
			t.Fatalf("upload %s rejected: %s", s, resp.Message)
		}
	}

	waitFor(t, func() bool {
		return p.queue.Len() == 0 && p.meta.Counters().Processed == int64(len(payloads))
	})

	c := p.meta.Counters()
	if c.Received != c.Processed {
		t.Fatalf("at quiescence received=%d processed=%d", c.Received, c.Processed)
	}
}

func TestStatusReadableAfterShutdown(t *testing.T) {
	p := newPipeline(t, 4, 2)

	upload(t, p.svc, "pre", []byte("pre-shutdown payload"))
	waitFor(t, func() bool { return p.meta.Counters().Processed == 1 })

	p.pool.Stop()

	// A second Stop must return immediately rather than hang on an empty
	// queue.
	done := make(chan struct{})
	go func() {
		p.pool.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop hung on an already-stopped pool")
	}

	qs := p.svc.QueueStatus()
	if qs.CurrentSize != 0 {
		t.Fatalf("queue not empty after shutdown: %+v", qs)
	}
	if c := p.svc.Counters(); c.Processed != 1 {
		t.Fatalf("counters unreadable after shutdown: %+v", c)
	}
}
