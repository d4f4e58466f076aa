package dedupe

import (
	"encoding/json"
	"os"
	"path/filepath"

	"code.cloudfoundry.org/lager/v3"
)

// Store persists State as a single JSON document. Saves go through a
// temporary file and a rename, so a crash mid-write leaves the previously
// saved state intact.
type Store struct {
	logger lager.Logger
	path   string
}

func NewStore(logger lager.Logger, path string) *Store {
	return &Store{
		logger: logger,
		path:   path,
	}
}

// Load reads the persisted state. A missing, unreadable, or corrupt file
// yields an empty state rather than an error; the watcher must come up
// without history, at worst repeating notifications it already sent.
func (s *Store) Load() *State {
	contents, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("failed-to-read-state", err, lager.Data{"path": s.path})
		}

		return NewState()
	}

	state := NewState()
	if err := json.Unmarshal(contents, state); err != nil {
		s.logger.Error("failed-to-parse-state", err, lager.Data{"path": s.path})
		return NewState()
	}

	if state.Failures == nil {
		state.Failures = map[string]string{}
	}
	if state.LongRunning == nil {
		state.LongRunning = map[string]bool{}
	}
	if state.TimedOut == nil {
		state.TimedOut = map[string]bool{}
	}

	return state
}

// Save atomically replaces the persisted state.
func (s *Store) Save(state *State) error {
	contents, err := json.Marshal(state)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(contents); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}
