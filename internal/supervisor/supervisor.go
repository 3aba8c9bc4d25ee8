// Package supervisor launches watchers on isolated goroutines and converts
// their terminations into WatcherExit events instead of letting a failing
// source take down the process.
package supervisor

import (
	"fmt"

	"convertd/internal/event"
	"convertd/internal/logging"
	"convertd/internal/queue"
)

// Supervisor spawns fire-and-forget workers. It exposes no join or cancel
// surface; a worker ends only when its own run loop does.
type Supervisor struct {
	queue *queue.Queue
	log   *logging.Logger
}

// New creates a supervisor pushing exit reports onto q.
func New(q *queue.Queue, log *logging.Logger) *Supervisor {
	return &Supervisor{queue: q, log: log.WithComponent("supervisor")}
}

// Spawn runs fn on its own goroutine under the given name. Any termination,
// normal return, error return or panic, is reported as exactly one
// WatcherExit event. Repeated failures of the same name are all reported;
// nothing is deduplicated. Reporting is best-effort: if the push itself
// fails the failure is swallowed, the supervisor never crashes the process.
func (s *Supervisor) Spawn(name string, fn func() error) {
	go func() {
		s.log.Info("watcher started", "name", name)

		var exit event.Event
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("watcher panicked", "name", name, "panic", r)
					exit = event.WatcherExit(name, event.ReasonPanic, fmt.Errorf("panic: %v", r))
				}
			}()
			if err := fn(); err != nil {
				exit = event.WatcherExit(name, event.ReasonError, err)
			} else {
				exit = event.WatcherExit(name, event.ReasonFinished, nil)
			}
		}()

		s.report(exit)
	}()
}

func (s *Supervisor) report(exit event.Event) {
	defer func() {
		if r := recover(); r != nil {
			// Best effort only. A dead queue means the process is on its
			// way down anyway.
			s.log.Error("dropping watcher exit report", "name", exit.Watcher, "panic", r)
		}
	}()
	s.queue.Push(exit)
}
