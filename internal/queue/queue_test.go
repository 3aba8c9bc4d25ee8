package queue

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"convertd/internal/event"
)

func TestFIFOSingleProducer(t *testing.T) {
	q := New()
	pushed := []event.Event{
		event.Rotate(event.OrientationLeftUp),
		event.ModeChange(),
		event.Stylus(event.StylusIn),
	}
	for _, ev := range pushed {
		q.Push(ev)
	}

	for i, want := range pushed {
		got, ok := q.Pop()
		if !ok {
			t.Fatalf("pop %d: queue unexpectedly closed", i)
		}
		if got.Kind != want.Kind {
			t.Errorf("pop %d: kind %q, want %q", i, got.Kind, want.Kind)
		}
	}
}

func TestPerProducerOrderPreservedUnderInterleaving(t *testing.T) {
	q := New()

	const producers = 3
	const perProducer = 200

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			name := fmt.Sprintf("watcher-%d", p)
			for i := 0; i < perProducer; i++ {
				q.Push(event.WatcherExit(name, event.ExitReason(fmt.Sprintf("%d", i)), nil))
			}
		}(p)
	}
	wg.Wait()
	q.Close()

	// Per producer, events must arrive in push order even though producers
	// interleave arbitrarily.
	next := make(map[string]int)
	total := 0
	for {
		ev, ok := q.Pop()
		if !ok {
			break
		}
		total++
		want := fmt.Sprintf("%d", next[ev.Watcher])
		if string(ev.Reason) != want {
			t.Fatalf("producer %s: got seq %s, want %s", ev.Watcher, ev.Reason, want)
		}
		next[ev.Watcher]++
	}
	if total != producers*perProducer {
		t.Errorf("delivered %d events, want %d", total, producers*perProducer)
	}
}

func TestPopBlocksUntilPush(t *testing.T) {
	q := New()
	got := make(chan event.Event, 1)
	go func() {
		ev, _ := q.Pop()
		got <- ev
	}()

	select {
	case <-got:
		t.Fatal("Pop returned before any push")
	case <-time.After(20 * time.Millisecond):
	}

	q.Push(event.ModeChange())
	select {
	case ev := <-got:
		if ev.Kind != event.KindModeChange {
			t.Errorf("got kind %q", ev.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not observe push")
	}
}

func TestCloseDrainsThenStops(t *testing.T) {
	q := New()
	q.Push(event.ModeChange())
	q.Close()

	if _, ok := q.Pop(); !ok {
		t.Fatal("buffered event should survive Close")
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("Pop on closed empty queue should report closed")
	}

	// Pushes after Close are dropped, not panics.
	q.Push(event.ModeChange())
	if q.Len() != 0 {
		t.Error("push after Close should be dropped")
	}
}

func TestCloseUnblocksWaitingConsumer(t *testing.T) {
	q := New()
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()
	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		if ok {
			t.Error("Pop should report closed")
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock Pop")
	}
}
