package dispatch

import (
	"sync"
	"time"

	"convertd/internal/event"
)

// maxExitRecords caps the retained watcher exit history.
const maxExitRecords = 32

// ExitRecord is one observed watcher termination.
type ExitRecord struct {
	Watcher string    `json:"watcher"`
	Reason  string    `json:"reason"`
	Error   string    `json:"error,omitempty"`
	Time    time.Time `json:"time"`
}

// Snapshot is a point-in-time view of the dispatcher for the status IPC.
type Snapshot struct {
	StartedAt time.Time         `json:"started_at"`
	Mode      string            `json:"mode"`
	Counts    map[string]uint64 `json:"counts"`
	Exits     []ExitRecord      `json:"exits,omitempty"`
}

// Status accumulates dispatch statistics. The dispatcher goroutine writes,
// the IPC server reads, so this is the one mode-adjacent structure that
// needs its own lock.
type Status struct {
	mu        sync.Mutex
	startedAt time.Time
	mode      string
	counts    map[event.Kind]uint64
	exits     []ExitRecord
}

// NewStatus creates a tracker with the given initial mode.
func NewStatus(initialMode string) *Status {
	return &Status{
		startedAt: time.Now(),
		mode:      initialMode,
		counts:    make(map[event.Kind]uint64),
	}
}

// Record counts one dispatched event and retains watcher exits.
func (s *Status) Record(ev event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[ev.Kind]++
	if ev.Kind == event.KindWatcherExit {
		rec := ExitRecord{
			Watcher: ev.Watcher,
			Reason:  string(ev.Reason),
			Time:    ev.Time,
		}
		if ev.Err != nil {
			rec.Error = ev.Err.Error()
		}
		s.exits = append(s.exits, rec)
		if len(s.exits) > maxExitRecords {
			s.exits = s.exits[len(s.exits)-maxExitRecords:]
		}
	}
}

// SetMode publishes the current device mode.
func (s *Status) SetMode(mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

// Snapshot returns a copy safe for serialization.
func (s *Status) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]uint64, len(s.counts))
	for k, v := range s.counts {
		counts[string(k)] = v
	}
	exits := make([]ExitRecord, len(s.exits))
	copy(exits, s.exits)

	return Snapshot{
		StartedAt: s.startedAt,
		Mode:      s.mode,
		Counts:    counts,
		Exits:     exits,
	}
}
