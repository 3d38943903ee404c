package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/krafton-jungle/mediagen-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func TestRegistryCreateStartsPending(t *testing.T) {
	r := NewRegistry(testLogger(t))
	job := r.Create("job-1")
	if job.Status != LiveStatusPending {
		t.Fatalf("Status=%q, want %q", job.Status, LiveStatusPending)
	}
	if job.TerminalStatus() {
		t.Fatalf("fresh job reported terminal")
	}
	if _, ok := r.Get("job-1"); !ok {
		t.Fatalf("Get after Create returned not found")
	}
}

func TestRegistryUpdateOverlaysAndNotifies(t *testing.T) {
	r := NewRegistry(testLogger(t))
	job := r.Create("job-1")

	status := LiveStatusCompleted
	assetID := uint(7)
	url := "/storage/images/job-1.png"
	r.Update("job-1", LiveUpdate{Status: &status, AssetID: &assetID, ResultURL: &url})

	snap, ok := r.Snapshot("job-1")
	if !ok {
		t.Fatalf("Snapshot returned not found")
	}
	if snap.Status != LiveStatusCompleted {
		t.Fatalf("Status=%q, want completed", snap.Status)
	}
	if snap.AssetID == nil || *snap.AssetID != 7 {
		t.Fatalf("AssetID=%v, want 7", snap.AssetID)
	}
	if snap.ResultURL == nil || *snap.ResultURL != url {
		t.Fatalf("ResultURL=%v, want %q", snap.ResultURL, url)
	}
	if !snap.TerminalStatus() {
		t.Fatalf("completed job not reported terminal")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := job.Notifier().Wait(ctx); err != nil {
		t.Fatalf("notifier did not fire on update: %v", err)
	}
}

func TestRegistryUpdatePreservesUnsetFields(t *testing.T) {
	r := NewRegistry(testLogger(t))
	r.Create("job-1")

	processing := LiveStatusProcessing
	r.Update("job-1", LiveUpdate{Status: &processing})
	msg := "boom"
	r.Update("job-1", LiveUpdate{ErrorMessage: &msg})

	snap, _ := r.Snapshot("job-1")
	if snap.Status != LiveStatusProcessing {
		t.Fatalf("Status=%q, want processing after partial update", snap.Status)
	}
	if snap.ErrorMessage == nil || *snap.ErrorMessage != "boom" {
		t.Fatalf("ErrorMessage=%v, want boom", snap.ErrorMessage)
	}
}

func TestRegistryUpdateUnknownIDIsNoop(t *testing.T) {
	r := NewRegistry(testLogger(t))
	status := LiveStatusFailed
	r.Update("ghost", LiveUpdate{Status: &status})
	if _, ok := r.Get("ghost"); ok {
		t.Fatalf("Update created an entry for an unknown id")
	}
}

func TestRegistryStats(t *testing.T) {
	r := NewRegistry(testLogger(t))
	r.Create("a")
	r.Create("b")
	failed := LiveStatusFailed
	r.Update("b", LiveUpdate{Status: &failed})

	stats := r.Stats()
	if stats[LiveStatusPending] != 1 || stats[LiveStatusFailed] != 1 {
		t.Fatalf("Stats()=%v, want 1 pending / 1 failed", stats)
	}
}
