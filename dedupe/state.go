package dedupe

// State tracks which build/condition pairs have already produced a
// notification. The categories are independent and have independent
// retention: failures accumulate forever so day streaks can be tallied,
// while long-running and timed-out are one-shot flags per build.
//
// State is owned by the build scan loop; nothing else mutates it.
type State struct {
	Failures    map[string]string `json:"failures"`     // build ID -> display name
	LongRunning map[string]bool   `json:"long_running"` // build ID -> reported
	TimedOut    map[string]bool   `json:"timed_out"`    // build ID -> reported
}

func NewState() *State {
	return &State{
		Failures:    map[string]string{},
		LongRunning: map[string]bool{},
		TimedOut:    map[string]bool{},
	}
}

// Recorded reports whether any condition has already been recorded for the
// build. A build that has entered one category is skipped entirely by the
// per-build evaluation chain on later polls.
func (s *State) Recorded(id string) bool {
	if _, ok := s.Failures[id]; ok {
		return true
	}

	return s.LongRunning[id] || s.TimedOut[id]
}

func (s *State) RecordFailure(id string, displayName string) {
	s.Failures[id] = displayName
}

// FailureCount returns how many recorded failed builds share the given
// display name.
func (s *State) FailureCount(displayName string) int {
	count := 0
	for _, name := range s.Failures {
		if name == displayName {
			count++
		}
	}

	return count
}

func (s *State) RecordLongRunning(id string) {
	s.LongRunning[id] = true
}

func (s *State) RecordTimedOut(id string) {
	s.TimedOut[id] = true
}
