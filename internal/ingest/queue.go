package ingest

import "sync"

// TaskQueue is a fixed-capacity FIFO hand-off between the upload handler and
// the worker pool. Enqueue never blocks: once the queue is at capacity (or
// shut down) new tasks are rejected, which is the drop-new-on-full admission
// policy. Dequeue blocks while the queue is empty and open.
type TaskQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	tasks    []*UploadTask
	capacity int
	closed   bool
}

// NewTaskQueue builds a queue with the given capacity. Capacity must be at
// least 1.
func NewTaskQueue(capacity int) *TaskQueue {
	q := &TaskQueue{capacity: capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// TryEnqueue appends the task at the tail iff there is room. It returns
// false without blocking when the queue is full or shut down.
func (q *TaskQueue) TryEnqueue(t *UploadTask) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || len(q.tasks) >= q.capacity {
		return false
	}
	q.tasks = append(q.tasks, t)
	q.notEmpty.Signal()
	return true
}

// Dequeue removes and returns the head, blocking while the queue is empty
// and open. After Shutdown the remaining tasks are still handed out in
// order; ok is false only once the queue is both closed and empty.
func (q *TaskQueue) Dequeue() (t *UploadTask, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.tasks) == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if len(q.tasks) == 0 {
		return nil, false
	}
	t = q.tasks[0]
	q.tasks = q.tasks[1:]
	return t, true
}

// Len reports the instantaneous queue length.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Cap reports the fixed capacity.
func (q *TaskQueue) Cap() int {
	return q.capacity
}

// Shutdown closes the queue and wakes every blocked Dequeue. New enqueues
// are rejected immediately; queued tasks remain dequeuable until drained.
func (q *TaskQueue) Shutdown() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.notEmpty.Broadcast()
}
