// Package aggregator keeps session-level statistics over the stream of
// analysis results.
package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/praveen420coder/sf-log-analyzer/internal/model"
)

// Stats holds a point-in-time snapshot of session metrics.
type Stats struct {
	Uptime         string           `json:"uptime"`
	LogsAnalyzed   int64            `json:"logs_analyzed"`
	ParseFailures  int64            `json:"parse_failures"`
	InsightCounts  map[string]int64 `json:"insight_counts"` // keyed by severity
	FilesWatched   int              `json:"files_watched"`
	DroppedResults int64            `json:"dropped_results"`
	LastPath       string           `json:"last_path,omitempty"`
	LastAnalyzedAt string           `json:"last_analyzed_at,omitempty"`
}

// Aggregator subscribes to the Hub and tallies analysis outcomes.
type Aggregator struct {
	mu            sync.RWMutex
	startTime     time.Time
	analyzed      int64
	failures      int64
	insightCounts map[string]int64
	last          *model.AnalysisResult
	dropped       func() int64
	fileCount     func() int
	results       <-chan model.AnalysisResult
}

// New creates an Aggregator reading from the given Hub subscriber channel.
// droppedFn and fileCountFn provide live values from Hub and Watcher.
func New(results <-chan model.AnalysisResult, droppedFn func() int64, fileCountFn func() int) *Aggregator {
	return &Aggregator{
		startTime:     time.Now(),
		insightCounts: make(map[string]int64),
		dropped:       droppedFn,
		fileCount:     fileCountFn,
		results:       results,
	}
}

// Snapshot returns the current session statistics.
func (a *Aggregator) Snapshot() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	counts := make(map[string]int64, len(a.insightCounts))
	for k, v := range a.insightCounts {
		counts[k] = v
	}

	stats := Stats{
		Uptime:         time.Since(a.startTime).Truncate(time.Second).String(),
		LogsAnalyzed:   a.analyzed,
		ParseFailures:  a.failures,
		InsightCounts:  counts,
		FilesWatched:   a.fileCount(),
		DroppedResults: a.dropped(),
	}
	if a.last != nil {
		stats.LastPath = a.last.Path
		stats.LastAnalyzedAt = a.last.ParsedAt.Format(time.RFC3339)
	}
	return stats
}

// Last returns a copy of the most recent analysis result, or nil.
func (a *Aggregator) Last() *model.AnalysisResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.last == nil {
		return nil
	}
	res := *a.last
	return &res
}

// Start begins consuming results and updating statistics. Blocks until the
// context is cancelled or the channel closes.
func (a *Aggregator) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case res, ok := <-a.results:
			if !ok {
				return
			}
			a.record(res)
		}
	}
}

func (a *Aggregator) record(res model.AnalysisResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.analyzed++
	if res.Err != "" {
		a.failures++
	}
	for _, in := range res.Insights {
		a.insightCounts[string(in.Severity)]++
	}
	a.last = &res
}
