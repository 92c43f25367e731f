package ingest

import (
	"sync"
	"sync/atomic"
)

// Counters is the aggregate view of pipeline throughput. Processed is
// derived from the record log rather than tracked separately, so it cannot
// drift from the appended records.
type Counters struct {
	Received   int64 `json:"total_received"`
	Processed  int64 `json:"total_processed"`
	Dropped    int64 `json:"total_dropped"`
	Duplicates int64 `json:"total_duplicates"`
}

// MetadataStore is the append-only log of upload outcomes plus the
// monotonically increasing admission counters. Records are never mutated or
// deleted for the life of the process.
type MetadataStore struct {
	mu      sync.Mutex
	records []VideoRecord

	received   atomic.Int64
	dropped    atomic.Int64
	duplicates atomic.Int64
}

func NewMetadataStore() *MetadataStore {
	return &MetadataStore{}
}

// Append adds one record to the log.
func (s *MetadataStore) Append(rec VideoRecord) {
	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
}

// Snapshot returns a copy of the record log; callers never observe a
// partially appended entry.
func (s *MetadataStore) Snapshot() []VideoRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]VideoRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *MetadataStore) IncReceived()   { s.received.Add(1) }
func (s *MetadataStore) IncDropped()    { s.dropped.Add(1) }
func (s *MetadataStore) IncDuplicates() { s.duplicates.Add(1) }

// Counters returns the aggregate counters. Processed counts the persisted
// non-duplicate records in the log.
func (s *MetadataStore) Counters() Counters {
	s.mu.Lock()
	var processed int64
	for _, rec := range s.records {
		if !rec.Duplicate && rec.FilePath != "" {
			processed++
		}
	}
	s.mu.Unlock()

	return Counters{
		Received:   s.received.Load(),
		Processed:  processed,
		Dropped:    s.dropped.Load(),
		Duplicates: s.duplicates.Load(),
	}
}
