// Package event defines the tagged event type that flows from the watchers
// through the queue to the dispatcher. Events are immutable once constructed.
package event

import (
	"fmt"
	"time"
)

// Kind identifies which variant of Event is populated.
type Kind string

// Event kinds.
const (
	KindModeChange  Kind = "mode-change"
	KindRotate      Kind = "rotate"
	KindStylus      Kind = "stylus-event"
	KindWatcherExit Kind = "watcher-exit"
)

// Orientation is a physical device orientation as reported by the
// accelerometer. The vocabulary is fixed; anything else is rejected.
type Orientation string

const (
	OrientationNormal   Orientation = "normal"
	OrientationRightUp  Orientation = "right-up"
	OrientationBottomUp Orientation = "bottom-up"
	OrientationLeftUp   Orientation = "left-up"
)

// Orientations lists all valid orientation values.
var Orientations = []Orientation{
	OrientationNormal,
	OrientationRightUp,
	OrientationBottomUp,
	OrientationLeftUp,
}

// ParseOrientation validates a raw orientation string.
func ParseOrientation(s string) (Orientation, error) {
	for _, o := range Orientations {
		if s == string(o) {
			return o, nil
		}
	}
	return "", fmt.Errorf("unknown orientation %q", s)
}

// StylusStatus is a stylus proximity state.
type StylusStatus string

const (
	StylusIn  StylusStatus = "in"
	StylusOut StylusStatus = "out"
)

// ParseStylusStatus validates a raw proximity token.
func ParseStylusStatus(s string) (StylusStatus, error) {
	switch StylusStatus(s) {
	case StylusIn, StylusOut:
		return StylusStatus(s), nil
	}
	return "", fmt.Errorf("unknown stylus status %q", s)
}

// ExitReason describes why a watcher terminated.
type ExitReason string

const (
	// ReasonPanic marks a watcher that terminated via an unrecovered panic.
	ReasonPanic ExitReason = "uncaught-exception"
	// ReasonError marks a watcher whose run loop returned a non-nil error.
	ReasonError ExitReason = "error"
	// ReasonFinished marks a watcher whose run loop returned normally.
	ReasonFinished ExitReason = "finished"
)

// Event is one occurrence pushed onto the queue. Exactly the fields for the
// given Kind are populated; use the constructors below.
type Event struct {
	Kind Kind
	Time time.Time

	// Rotate
	Orientation Orientation

	// StylusEvent
	Status StylusStatus

	// WatcherExit
	Watcher string
	Reason  ExitReason
	Err     error
}

// ModeChange signals that a physical laptop/tablet mode toggle occurred.
func ModeChange() Event {
	return Event{Kind: KindModeChange, Time: time.Now()}
}

// Rotate signals an orientation change.
func Rotate(o Orientation) Event {
	return Event{Kind: KindRotate, Time: time.Now(), Orientation: o}
}

// Stylus signals a stylus proximity transition.
func Stylus(s StylusStatus) Event {
	return Event{Kind: KindStylus, Time: time.Now(), Status: s}
}

// WatcherExit reports the termination of the named watcher.
func WatcherExit(name string, reason ExitReason, err error) Event {
	return Event{Kind: KindWatcherExit, Time: time.Now(), Watcher: name, Reason: reason, Err: err}
}

// Detail returns a short human-readable payload description for logging and
// the journal.
func (e Event) Detail() string {
	switch e.Kind {
	case KindRotate:
		return string(e.Orientation)
	case KindStylus:
		return string(e.Status)
	case KindWatcherExit:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Watcher, e.Reason, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Watcher, e.Reason)
	default:
		return ""
	}
}
