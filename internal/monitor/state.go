package monitor

import (
	"encoding/json"
	"os"
	"sync"
)

// stateData is the on-disk JSON structure for persisted content hashes.
type stateData struct {
	Hashes map[string]string `json:"hashes"`
}

// State persists per-file content hashes so restarting the monitor does not
// re-emit traces that were already analyzed.
type State struct {
	mu   sync.RWMutex
	path string
	data stateData
}

// NewState creates or loads a state file at the given path.
func NewState(path string) (*State, error) {
	s := &State{
		path: path,
		data: stateData{Hashes: make(map[string]string)},
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		_ = json.Unmarshal(raw, &s.data)
	}
	if s.data.Hashes == nil {
		s.data.Hashes = make(map[string]string)
	}

	return s, nil
}

// Get returns the saved content hash for a file path.
func (s *State) Get(path string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data.Hashes[path]
	return v, ok
}

// Set records the content hash for a file path.
func (s *State) Set(path, hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Hashes[path] = hash
}

// Save writes the state to disk atomically.
func (s *State) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	// Temp file plus rename keeps a crash from truncating the state.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
