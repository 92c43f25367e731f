package ingest

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/mediasink/pkg/storage/blobstore"
)

// WorkerPool drains the task queue with a fixed set of long-lived workers.
// Each task is dequeued by exactly one worker, persisted through the blob
// store, recorded in the metadata store, and its digest inserted into the
// dedup index. A failed persist is logged and dropped: no record, no digest,
// no retry. The caller already received its admission response, so nothing
// is surfaced upstream.
type WorkerPool struct {
	queue  *TaskQueue
	store  blobstore.Client
	index  DedupIndex
	meta   *MetadataStore
	hooks  []PostProcessor
	logger *zap.Logger
	count  int
	delay  time.Duration
	wg     sync.WaitGroup
}

type PoolParams struct {
	Queue   *TaskQueue
	Store   blobstore.Client
	Index   DedupIndex
	Meta    *MetadataStore
	Hooks   []PostProcessor
	Logger  *zap.Logger
	Workers int
	// Delay is an optional pause after each task, modelling processing
	// cost. Zero disables it.
	Delay time.Duration
}

// NewWorkerPool constructs the pool without starting it.
func NewWorkerPool(p PoolParams) *WorkerPool {
	return &WorkerPool{
		queue:  p.Queue,
		store:  p.Store,
		index:  p.Index,
		meta:   p.Meta,
		hooks:  p.Hooks,
		logger: p.Logger,
		count:  p.Workers,
		delay:  p.Delay,
	}
}

// Start launches the workers.
func (p *WorkerPool) Start() {
	for i := 1; i <= p.count; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
	p.logger.Info("worker pool started", zap.Int("workers", p.count))
}

// Stop shuts the queue down and waits for the workers. Tasks already queued
// are drained to completion before the workers exit; nothing is preempted
// mid-task.
func (p *WorkerPool) Stop() {
	p.queue.Shutdown()
	p.wg.Wait()

	c := p.meta.Counters()
	rate := 0.0
	if c.Received > 0 {
		rate = float64(c.Processed) * 100 / float64(c.Received)
	}
	p.logger.Info("worker pool stopped",
		zap.Int64("total_received", c.Received),
		zap.Int64("total_processed", c.Processed),
		zap.Int64("total_dropped", c.Dropped),
		zap.Int64("total_duplicates", c.Duplicates),
		zap.String("success_rate", fmt.Sprintf("%.2f%%", rate)))
}

func (p *WorkerPool) run(id int) {
	defer p.wg.Done()
	log := p.logger.With(zap.Int("worker_id", id))
	log.Debug("worker started")

	for {
		task, ok := p.queue.Dequeue()
		if !ok {
			break
		}
		p.process(context.Background(), id, task, log)
		if p.delay > 0 {
			time.Sleep(p.delay)
		}
	}

	log.Debug("worker stopped")
}

func (p *WorkerPool) process(ctx context.Context, id int, task *UploadTask, log *zap.Logger) {
	start := time.Now()
	key := task.VideoID + "_" + task.Filename

	location, err := p.store.Put(ctx, key, bytes.NewReader(task.Data), int64(len(task.Data)), map[string]string{
		"original_filename": task.Filename,
		"producer_id":       strconv.Itoa(task.ProducerID),
		"digest":            task.Digest,
	})
	if err != nil {
		log.Error("persist failed, dropping task",
			zap.String("video_id", task.VideoID),
			zap.String("filename", task.Filename),
			zap.Error(err))
		return
	}

	rec := VideoRecord{
		VideoID:    task.VideoID,
		Filename:   task.Filename,
		FilePath:   location,
		Digest:     task.Digest,
		ProducerID: task.ProducerID,
		WorkerID:   id,
		Size:       task.TotalSize,
		UploadedAt: time.Now().UTC(),
		Duplicate:  false,
	}
	p.meta.Append(rec)

	if err := p.index.Insert(ctx, task.Digest); err != nil {
		log.Warn("dedup index insert failed", zap.Error(err))
	}

	for _, hook := range p.hooks {
		if err := hook.Process(ctx, rec); err != nil {
			log.Warn("post-processing hook failed",
				zap.String("video_id", task.VideoID),
				zap.Error(err))
		}
	}

	log.Info("upload persisted",
		zap.String("video_id", task.VideoID),
		zap.String("path", location),
		zap.Int64("size", task.TotalSize),
		zap.Duration("elapsed", time.Since(start)))
}
