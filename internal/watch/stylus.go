package watch

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"convertd/internal/event"
	"convertd/internal/logging"
	"convertd/internal/queue"
)

// ProximitySource is the slice of the action surface the stylus watcher
// needs: device enumeration plus the proximity test stream.
type ProximitySource interface {
	ListInputDevices() ([]string, error)
	OpenProximityStream(device string) (io.ReadCloser, error)
}

// StylusWatcher finds the stylus input device once at startup and then
// streams its proximity transitions.
type StylusWatcher struct {
	// NamePattern is the substring identifying the stylus device.
	NamePattern string

	source ProximitySource
	queue  *queue.Queue
	log    *logging.Logger
}

// NewStylusWatcher creates a watcher matching devices against namePattern.
func NewStylusWatcher(q *queue.Queue, log *logging.Logger, source ProximitySource, namePattern string) *StylusWatcher {
	return &StylusWatcher{
		NamePattern: namePattern,
		source:      source,
		queue:       q,
		log:         log.WithComponent("stylus-watcher"),
	}
}

// Run enumerates devices, opens the proximity stream and loops over it.
// A missing stylus device is fatal to the watcher; enumeration happens once,
// devices plugged in later are not picked up.
func (w *StylusWatcher) Run() error {
	devices, err := w.source.ListInputDevices()
	if err != nil {
		return fmt.Errorf("enumerate input devices: %w", err)
	}

	stylus := ""
	for _, d := range devices {
		if strings.Contains(d, w.NamePattern) {
			stylus = d
			break
		}
	}
	if stylus == "" {
		return fmt.Errorf("no input device matching %q", w.NamePattern)
	}
	w.log.Info("found stylus", "device", stylus)

	stream, err := w.source.OpenProximityStream(stylus)
	if err != nil {
		return fmt.Errorf("open proximity stream: %w", err)
	}
	defer stream.Close()

	scanner := bufio.NewScanner(stream)
	for scanner.Scan() {
		line := scanner.Text()
		w.log.Debug("proximity line", "line", line)

		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "proximity" {
			continue
		}
		status, err := event.ParseStylusStatus(fields[1])
		if err != nil {
			continue
		}
		w.queue.Push(event.Stylus(status))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read proximity stream: %w", err)
	}
	return fmt.Errorf("proximity stream for %s closed", stylus)
}
