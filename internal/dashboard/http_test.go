package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/mediasink/internal/ingest"
)

type fakeSource struct {
	records []ingest.VideoRecord
	status  ingest.QueueStatus
	count   ingest.Counters
}

func (f *fakeSource) Snapshot() []ingest.VideoRecord  { return f.records }
func (f *fakeSource) Counters() ingest.Counters       { return f.count }
func (f *fakeSource) QueueStatus() ingest.QueueStatus { return f.status }

func get(t *testing.T, handler http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("GET %s: invalid JSON: %v", path, err)
	}
	return rr, body
}

func TestHealthEndpoint(t *testing.T) {
	h := NewHandler(&fakeSource{}, zap.NewNop())
	rr, body := get(t, h.Router(), "/healthz")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestStatisticsEndpoint(t *testing.T) {
	src := &fakeSource{count: ingest.Counters{
		Received:   7,
		Processed:  5,
		Dropped:    1,
		Duplicates: 2,
	}}
	h := NewHandler(src, zap.NewNop())

	rr, body := get(t, h.Router(), "/api/v1/statistics")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if body["total_received"].(float64) != 7 || body["total_processed"].(float64) != 5 {
		t.Fatalf("body = %v", body)
	}
	if body["total_dropped"].(float64) != 1 || body["total_duplicates"].(float64) != 2 {
		t.Fatalf("body = %v", body)
	}
}

func TestQueueEndpoint(t *testing.T) {
	src := &fakeSource{status: ingest.QueueStatus{
		CurrentSize:    3,
		MaxSize:        10,
		AvailableSlots: 7,
	}}
	h := NewHandler(src, zap.NewNop())

	rr, body := get(t, h.Router(), "/api/v1/queue")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if body["current_size"].(float64) != 3 || body["max_size"].(float64) != 10 {
		t.Fatalf("body = %v", body)
	}
	if body["is_full"].(bool) {
		t.Fatal("queue reported full")
	}
}

func TestVideosEndpoint(t *testing.T) {
	src := &fakeSource{records: []ingest.VideoRecord{
		{VideoID: "v1", Filename: "a.mp4", FilePath: "/out/v1_a.mp4", UploadedAt: time.Now()},
		{VideoID: "v2", Filename: "a.mp4", Duplicate: true, UploadedAt: time.Now()},
	}}
	h := NewHandler(src, zap.NewNop())

	rr, body := get(t, h.Router(), "/api/v1/videos")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if body["count"].(float64) != 2 {
		t.Fatalf("count = %v", body["count"])
	}
	videos := body["videos"].([]any)
	first := videos[0].(map[string]any)
	if first["video_id"] != "v1" {
		t.Fatalf("videos[0] = %v", first)
	}
}

func TestUnknownAPIPathIs404(t *testing.T) {
	h := NewHandler(&fakeSource{}, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	rr := httptest.NewRecorder()
	h.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}
