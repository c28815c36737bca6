// Package monitor re-reads watched debug log files when they change and
// emits complete trace documents for parsing. Debug logs are written as
// whole files, so a change means the trace was replaced, not appended to;
// tailing individual lines would hand the parser torn half-traces.
package monitor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/praveen420coder/sf-log-analyzer/internal/model"
	"github.com/praveen420coder/sf-log-analyzer/internal/watcher"
)

// Monitor reads changed trace files and emits RawLog documents, skipping
// files whose content hash is unchanged since the last emission.
type Monitor struct {
	mu     sync.Mutex
	state  *State
	out    chan model.RawLog
	events <-chan watcher.Event
	watch  *watcher.Watcher
	wg     sync.WaitGroup // in-flight reconnect goroutines
}

// New creates a Monitor that reads change events from the given Watcher.
func New(w *watcher.Watcher, state *State) *Monitor {
	return &Monitor{
		state:  state,
		out:    make(chan model.RawLog, 64),
		events: w.Events,
		watch:  w,
	}
}

// Logs returns the channel where complete trace documents are sent.
func (m *Monitor) Logs() <-chan model.RawLog {
	return m.out
}

// Start emits every watched file once, then processes change events until
// the context is cancelled. The output channel closes only after every
// reconnect goroutine has drained.
func (m *Monitor) Start(ctx context.Context) {
	defer func() {
		m.wg.Wait()
		close(m.out)
	}()

	for _, p := range m.watch.Paths() {
		m.emitIfChanged(ctx, p)
	}

	saveTicker := time.NewTicker(5 * time.Second)
	defer saveTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.saveState()
			return

		case ev, ok := <-m.events:
			if !ok {
				return
			}
			m.handleEvent(ctx, ev)

		case <-saveTicker.C:
			m.saveState()
		}
	}
}

func (m *Monitor) handleEvent(ctx context.Context, ev watcher.Event) {
	switch {
	case ev.Op&fsnotify.Write != 0, ev.Op&fsnotify.Create != 0:
		m.emitIfChanged(ctx, ev.Path)

	case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
		// File rotated or deleted; poll for it to reappear.
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.reconnect(ctx, ev.Path)
		}()
	}
}

// emitIfChanged reads a trace file and emits it unless its content hash
// matches the last emission for that path.
func (m *Monitor) emitIfChanged(ctx context.Context, path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("cannot read trace file")
		return
	}
	if len(raw) == 0 {
		// Editors and the platform both write empty files before the trace body.
		return
	}

	sum := sha256.Sum256(raw)
	hash := hex.EncodeToString(sum[:])

	m.mu.Lock()
	prev, ok := m.state.Get(path)
	if ok && prev == hash {
		m.mu.Unlock()
		return
	}
	m.state.Set(path, hash)
	m.mu.Unlock()

	select {
	case m.out <- model.RawLog{Path: path, Text: string(raw)}:
	case <-ctx.Done():
	}
}

// reconnect polls for a file to reappear after rotation (up to 5 retries).
// Cancellation stops the poll so shutdown never races the output channel.
func (m *Monitor) reconnect(ctx context.Context, path string) {
	for i := 0; i < 5; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(1 * time.Second):
		}
		if _, err := os.Stat(path); err == nil {
			log.Info().Str("path", path).Msg("reconnected to rotated trace file")
			_ = m.watch.ReWatch(path)
			m.emitIfChanged(ctx, path)
			return
		}
	}
	log.Warn().Str("path", path).Msg("gave up reconnecting after 5 retries")
}

func (m *Monitor) saveState() {
	if err := m.state.Save(); err != nil {
		log.Warn().Err(err).Msg("state save failed")
	}
}
