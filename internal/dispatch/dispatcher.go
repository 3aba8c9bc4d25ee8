// Package dispatch pulls events off the queue, strictly in arrival order,
// and drives the handler. It is the single consumer; handler calls are never
// concurrent with each other.
package dispatch

import (
	"convertd/internal/event"
	"convertd/internal/handler"
	"convertd/internal/logging"
	"convertd/internal/queue"
)

// Journal receives every dispatched event. Appends are best-effort; a
// journal failure never stops dispatch.
type Journal interface {
	Append(ev event.Event) error
}

// modeReporter is satisfied by handlers that expose their current mode,
// such as handler.DeviceHandler.
type modeReporter interface {
	Mode() handler.Mode
}

// Dispatcher is the single consumer of the event queue.
type Dispatcher struct {
	// Journal, when non-nil, records every dispatched event.
	Journal Journal
	// Status, when non-nil, is updated with counters and the current mode.
	Status *Status

	queue   *queue.Queue
	handler handler.Handler
	log     *logging.Logger
}

// New creates a dispatcher reading from q and driving h.
func New(q *queue.Queue, h handler.Handler, log *logging.Logger) *Dispatcher {
	return &Dispatcher{
		queue:   q,
		handler: h,
		log:     log.WithComponent("dispatcher"),
	}
}

// Run loops until the queue is closed and drained. Under normal operation
// that only happens at process shutdown.
func (d *Dispatcher) Run() {
	for {
		ev, ok := d.queue.Pop()
		if !ok {
			d.log.Info("event queue closed, dispatcher stopping")
			return
		}
		d.dispatch(ev)
	}
}

// dispatch handles one event. Each event's handling is independent: a panic
// here is contained so the failure of one event cannot block the ones
// behind it.
func (d *Dispatcher) dispatch(ev event.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("event handling panicked", "kind", ev.Kind, "panic", r)
		}
	}()

	d.log.Debug("received event", "kind", ev.Kind, "detail", ev.Detail())

	if d.Status != nil {
		d.Status.Record(ev)
	}
	if d.Journal != nil {
		if err := d.Journal.Append(ev); err != nil {
			d.log.Warn("journal append failed", "kind", ev.Kind, "error", err)
		}
	}

	switch ev.Kind {
	case event.KindWatcherExit:
		// Structural no-op: logged, not handled. Watchers are not restarted.
		d.log.Info("watcher exited",
			"name", ev.Watcher,
			"reason", ev.Reason,
			"error", ev.Err,
		)
	case event.KindModeChange:
		d.handler.OnModeChange()
		if d.Status != nil {
			if mr, ok := d.handler.(modeReporter); ok {
				d.Status.SetMode(string(mr.Mode()))
			}
		}
	case event.KindRotate:
		d.handler.OnRotate(ev.Orientation)
	case event.KindStylus:
		d.handler.OnStylusEvent(ev.Status)
	default:
		d.log.Warn("dropping event of unknown kind", "kind", ev.Kind)
	}
}
