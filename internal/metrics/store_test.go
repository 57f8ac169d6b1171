package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wellness-planner/internal/database"
	"wellness-planner/internal/shared"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "metrics.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	s := NewStore(db.SQL)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndDailyUsage(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	meta := shared.AgentMeta{
		AgentName: "Planner",
		Usage:     shared.TokenUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150, Model: "gemini-2.5-flash"},
		Latency:   2 * time.Second,
	}
	if err := s.RecordMeta(ctx, meta, false); err != nil {
		t.Fatalf("RecordMeta failed: %v", err)
	}
	if err := s.RecordMeta(ctx, meta, true); err != nil {
		t.Fatalf("RecordMeta failed: %v", err)
	}
	// No usage and no failure: nothing reached the model.
	if err := s.RecordMeta(ctx, shared.AgentMeta{AgentName: "Planner"}, false); err != nil {
		t.Fatalf("RecordMeta failed: %v", err)
	}

	usage, err := s.GetDailyUsage(ctx, 7)
	if err != nil {
		t.Fatalf("GetDailyUsage failed: %v", err)
	}
	if len(usage) != 1 {
		t.Fatalf("Expected 1 day of usage, got %d", len(usage))
	}

	day := usage[0]
	if day.Date != time.Now().UTC().Format("2006-01-02") {
		t.Errorf("Unexpected date %q", day.Date)
	}
	if day.TotalExecution != 2 || day.Failed != 1 {
		t.Errorf("Expected 2 executions with 1 failure, got %+v", day)
	}
	if day.TotalPrompt != 200 || day.TotalCompletion != 100 {
		t.Errorf("Unexpected token totals: %+v", day)
	}
}

func TestStore_Cleanup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	old := ExecutionMetric{AgentName: "Planner", Model: "m", PromptTokens: 1, Timestamp: time.Now().AddDate(0, 0, -40)}
	recent := ExecutionMetric{AgentName: "Planner", Model: "m", PromptTokens: 1}
	for _, m := range []ExecutionMetric{old, old, recent} {
		if err := s.Record(ctx, m); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	removed, err := s.Cleanup(ctx, 30)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 rows removed, got %d", removed)
	}

	usage, err := s.GetDailyUsage(ctx, 90)
	if err != nil {
		t.Fatalf("GetDailyUsage failed: %v", err)
	}
	if len(usage) != 1 || usage[0].TotalExecution != 1 {
		t.Errorf("Expected only the recent record to remain, got %+v", usage)
	}
}

func TestGetSysHealth(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "metrics.db"), make([]byte, 2048), 0644); err != nil {
		t.Fatal(err)
	}

	health := GetSysHealth(dir)
	if health.Goroutines == 0 {
		t.Error("Expected at least one goroutine")
	}
	if health.DataDiskSize != "2.0 KB" {
		t.Errorf("Unexpected disk size format %q", health.DataDiskSize)
	}
	if health.HostMemUsedPercent < 0 || health.HostMemUsedPercent > 100 {
		t.Errorf("Host memory percentage out of range: %f", health.HostMemUsedPercent)
	}
}

func TestFormatBytes(t *testing.T) {
	cases := map[int64]string{0: "0 B", 512: "512 B", 2048: "2.0 KB", 5 * 1024 * 1024: "5.0 MB"}
	for in, want := range cases {
		if got := formatBytes(in); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
