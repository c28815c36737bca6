// Package hub runs the parse/analyze pipeline over incoming trace documents
// and fans the results out to subscribers.
package hub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/praveen420coder/sf-log-analyzer/internal/analyzer"
	"github.com/praveen420coder/sf-log-analyzer/internal/model"
	"github.com/praveen420coder/sf-log-analyzer/internal/parser"
)

const subscriberBuffer = 64

// Hub receives raw trace documents, parses and analyzes them, and broadcasts
// AnalysisResult values to all subscribers.
type Hub struct {
	input       <-chan model.RawLog
	mu          sync.RWMutex
	subscribers []chan model.AnalysisResult
	dropped     atomic.Int64
}

// New creates a Hub that reads trace documents from the input channel.
func New(input <-chan model.RawLog) *Hub {
	return &Hub{input: input}
}

// Subscribe returns a buffered channel that will receive analysis results.
// Multiple consumers can subscribe; each gets a copy of every result.
func (h *Hub) Subscribe() <-chan model.AnalysisResult {
	ch := make(chan model.AnalysisResult, subscriberBuffer)
	h.mu.Lock()
	h.subscribers = append(h.subscribers, ch)
	h.mu.Unlock()
	return ch
}

// Dropped returns the total number of results dropped due to slow consumers.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Start begins reading, analyzing, and broadcasting. Blocks until the
// context is cancelled or the input channel is closed.
func (h *Hub) Start(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-h.input:
			if !ok {
				return
			}
			h.broadcast(h.process(raw))
		}
	}
}

// process runs one trace through the engine. A parse failure becomes a
// result carrying the error string, not a dropped document.
func (h *Hub) process(raw model.RawLog) model.AnalysisResult {
	res := model.AnalysisResult{
		Path:     raw.Path,
		ParsedAt: time.Now(),
	}

	parsed, err := parser.Parse(raw.Text)
	if err != nil {
		log.Warn().Err(err).Str("path", raw.Path).Msg("trace parse failed")
		res.Err = err.Error()
		return res
	}

	res.Insights, res.Metrics = analyzer.Analyze(parsed, "")
	res.RootCount = len(parsed.Roots)
	res.EventCount = len(parsed.Timeline)
	res.QueryCount = len(parsed.Queries)
	res.DmlCount = len(parsed.DmlOps)
	return res
}

// broadcast sends a result to all subscribers. If a subscriber's channel is
// full, the result is dropped for that subscriber.
func (h *Hub) broadcast(res model.AnalysisResult) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- res:
		default:
			total := h.dropped.Add(1)
			log.Debug().Int64("total_dropped", total).Msg("dropped result for slow consumer")
		}
	}
}

// closeAll closes all subscriber channels.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = nil
}
