package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/seantiz/dguard/internal/model"
)

func TestGetStatsEmpty(t *testing.T) {
	srv := newTestServer(t)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/stats")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	var stats statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if stats.Total != 0 {
		t.Errorf("total = %d, want 0", stats.Total)
	}
	if stats.AvgDurationMS != 0 {
		t.Errorf("avg_duration_ms = %f, want 0", stats.AvgDurationMS)
	}
	if !stats.Running {
		t.Error("running = false, want true")
	}
}

func TestGetStatsPopulated(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	// Three completed encodes.
	for range 3 {
		task := &model.Task{
			ID: model.NewID(), Operation: model.OpEncode, Status: model.StatusPending,
			Input: "x", CreatedAt: time.Now().UTC(),
		}
		if err := srv.store.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
		if err := srv.store.MarkRunning(ctx, task.ID, time.Now().UTC()); err != nil {
			t.Fatalf("pending→running: %v", err)
		}
		dur := 100
		if err := srv.store.FinishTask(ctx, &model.Task{
			ID: task.ID, Status: model.StatusCompleted, Output: "eA==", DurationMS: &dur,
		}); err != nil {
			t.Fatalf("FinishTask: %v", err)
		}
	}

	// One cancelled decode.
	ct := &model.Task{
		ID: model.NewID(), Operation: model.OpDecode, Status: model.StatusPending,
		Input: "x", CreatedAt: time.Now().UTC(),
	}
	if err := srv.store.CreateTask(ctx, ct); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if err := srv.store.FinishTask(ctx, &model.Task{ID: ct.ID, Status: model.StatusCancelled}); err != nil {
		t.Fatalf("pending→cancelled: %v", err)
	}

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/stats")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var stats statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if stats.Total != 4 {
		t.Errorf("total = %d, want 4", stats.Total)
	}
	if stats.ByStatus[model.StatusCompleted] != 3 {
		t.Errorf("by_status[completed] = %d, want 3", stats.ByStatus[model.StatusCompleted])
	}
	if stats.ByStatus[model.StatusCancelled] != 1 {
		t.Errorf("by_status[cancelled] = %d, want 1", stats.ByStatus[model.StatusCancelled])
	}
	if stats.ByOperation["encode"] != 3 || stats.ByOperation["decode"] != 1 {
		t.Errorf("by_operation = %v", stats.ByOperation)
	}
	if stats.AvgDurationMS != 100 {
		t.Errorf("avg_duration_ms = %f, want 100", stats.AvgDurationMS)
	}
}
