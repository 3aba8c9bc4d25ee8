package supervisor

import (
	"errors"
	"testing"
	"time"

	"convertd/internal/event"
	"convertd/internal/logging"
	"convertd/internal/queue"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	l, err := logging.New(&logging.Config{Level: logging.LevelError})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func popWithin(t *testing.T, q *queue.Queue, d time.Duration) event.Event {
	t.Helper()
	ch := make(chan event.Event, 1)
	go func() {
		ev, ok := q.Pop()
		if ok {
			ch <- ev
		}
	}()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(d):
		t.Fatal("no event within deadline")
		return event.Event{}
	}
}

func TestPanicBecomesWatcherExit(t *testing.T) {
	q := queue.New()
	s := New(q, testLogger(t))

	s.Spawn("acpi", func() error {
		panic("socket gone")
	})

	ev := popWithin(t, q, time.Second)
	if ev.Kind != event.KindWatcherExit {
		t.Fatalf("kind = %q", ev.Kind)
	}
	if ev.Watcher != "acpi" || ev.Reason != event.ReasonPanic {
		t.Errorf("exit = %+v", ev)
	}
	if ev.Err == nil {
		t.Error("panic detail should be captured")
	}
}

func TestErrorReturnBecomesWatcherExit(t *testing.T) {
	q := queue.New()
	s := New(q, testLogger(t))

	cause := errors.New("stylus not found")
	s.Spawn("stylus", func() error { return cause })

	ev := popWithin(t, q, time.Second)
	if ev.Watcher != "stylus" || ev.Reason != event.ReasonError || !errors.Is(ev.Err, cause) {
		t.Errorf("exit = %+v", ev)
	}
}

func TestNormalReturnIsObservable(t *testing.T) {
	q := queue.New()
	s := New(q, testLogger(t))

	s.Spawn("sensor", func() error { return nil })

	ev := popWithin(t, q, time.Second)
	if ev.Watcher != "sensor" || ev.Reason != event.ReasonFinished || ev.Err != nil {
		t.Errorf("exit = %+v", ev)
	}
}

func TestRepeatFailuresNotDeduplicated(t *testing.T) {
	q := queue.New()
	s := New(q, testLogger(t))

	s.Spawn("sensor", func() error { panic("first") })
	ev1 := popWithin(t, q, time.Second)
	s.Spawn("sensor", func() error { panic("second") })
	ev2 := popWithin(t, q, time.Second)

	if ev1.Watcher != "sensor" || ev2.Watcher != "sensor" {
		t.Errorf("both exits should name sensor: %+v, %+v", ev1, ev2)
	}
}

func TestOneFailureDoesNotStopOtherProducers(t *testing.T) {
	q := queue.New()
	s := New(q, testLogger(t))

	s.Spawn("broken", func() error { panic("boom") })
	s.Spawn("healthy", func() error {
		q.Push(event.ModeChange())
		q.Push(event.Stylus(event.StylusIn))
		// Keep running like a real watcher would.
		select {}
	})

	seen := map[event.Kind]int{}
	for i := 0; i < 3; i++ {
		ev := popWithin(t, q, time.Second)
		seen[ev.Kind]++
	}
	if seen[event.KindWatcherExit] != 1 {
		t.Errorf("watcher exits = %d, want 1", seen[event.KindWatcherExit])
	}
	if seen[event.KindModeChange] != 1 || seen[event.KindStylus] != 1 {
		t.Errorf("healthy watcher events missing: %v", seen)
	}
}

func TestReportSwallowsPushFailure(t *testing.T) {
	q := queue.New()
	q.Close()
	s := New(q, testLogger(t))

	// Must not panic the test even though the queue is closed.
	s.Spawn("late", func() error { return errors.New("x") })
	time.Sleep(50 * time.Millisecond)
}
