package aggregator

import (
	"context"
	"testing"
	"time"

	"github.com/praveen420coder/sf-log-analyzer/internal/model"
)

func newTestAggregator(results <-chan model.AnalysisResult) *Aggregator {
	return New(results, func() int64 { return 7 }, func() int { return 3 })
}

func TestAggregatorRecord(t *testing.T) {
	results := make(chan model.AnalysisResult)
	a := newTestAggregator(results)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Start(ctx)

	results <- model.AnalysisResult{
		Path:     "/tmp/a.log",
		ParsedAt: time.Now(),
		Insights: []model.Insight{
			{Title: "Critical CPU Usage", Severity: model.SeverityHigh},
			{Title: "Slow Queries Found", Severity: model.SeverityMedium},
		},
	}
	results <- model.AnalysisResult{
		Path:     "/tmp/b.log",
		ParsedAt: time.Now(),
		Err:      "unparseable debug log: binary content (NUL byte)",
	}
	close(results)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if a.Snapshot().LogsAnalyzed == 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	stats := a.Snapshot()
	if stats.LogsAnalyzed != 2 {
		t.Fatalf("expected 2 analyzed, got %d", stats.LogsAnalyzed)
	}
	if stats.ParseFailures != 1 {
		t.Errorf("expected 1 failure, got %d", stats.ParseFailures)
	}
	if stats.InsightCounts["high"] != 1 || stats.InsightCounts["medium"] != 1 {
		t.Errorf("unexpected insight counts: %+v", stats.InsightCounts)
	}
	if stats.FilesWatched != 3 || stats.DroppedResults != 7 {
		t.Errorf("expected live watcher/hub values, got %+v", stats)
	}
	if stats.LastPath != "/tmp/b.log" {
		t.Errorf("expected last path /tmp/b.log, got %q", stats.LastPath)
	}
	if stats.LastAnalyzedAt == "" {
		t.Error("expected a last analyzed timestamp")
	}
}

func TestAggregatorLast(t *testing.T) {
	a := newTestAggregator(nil)
	if a.Last() != nil {
		t.Error("expected nil last result before any record")
	}

	a.record(model.AnalysisResult{Path: "/tmp/a.log", RootCount: 2})

	last := a.Last()
	if last == nil || last.Path != "/tmp/a.log" || last.RootCount != 2 {
		t.Fatalf("unexpected last result: %+v", last)
	}

	// The returned value is a copy; mutating it must not affect the stored one.
	last.Path = "mutated"
	if a.Last().Path != "/tmp/a.log" {
		t.Error("Last must return a copy")
	}
}

func TestAggregatorSnapshotIsolation(t *testing.T) {
	a := newTestAggregator(nil)
	a.record(model.AnalysisResult{
		Insights: []model.Insight{{Severity: model.SeverityLow}},
	})

	stats := a.Snapshot()
	stats.InsightCounts["low"] = 99

	if a.Snapshot().InsightCounts["low"] != 1 {
		t.Error("snapshot map must be a copy")
	}
}
