// Package watch contains the three event-source watchers. Each watcher owns
// exactly one external source, runs a blocking read loop for the process
// lifetime, and pushes events onto the shared queue. There is no graceful
// shutdown protocol for watchers: process exit ends them abruptly. That is a
// known limitation of the design, accepted because the daemon is long-running
// and rarely restarted.
package watch

import (
	"bufio"
	"bytes"
	"fmt"
	"net"

	"convertd/internal/event"
	"convertd/internal/logging"
	"convertd/internal/queue"
)

// DefaultAcpiSocket is where acpid exposes its event stream.
const DefaultAcpiSocket = "/var/run/acpid.socket"

// DefaultTabletModePrefix is the acpid record prefix that marks a
// tablet/laptop hinge toggle.
const DefaultTabletModePrefix = " 40D1BF71-A82D-4E"

// AcpiWatcher reads newline-delimited acpid records from a unix stream
// socket and emits ModeChange for records carrying the tablet-mode prefix.
type AcpiWatcher struct {
	SocketPath string
	Prefix     []byte

	// Dial is swappable for tests; defaults to net.Dial.
	Dial func(network, address string) (net.Conn, error)

	queue *queue.Queue
	log   *logging.Logger
}

// NewAcpiWatcher creates a watcher for the given socket path and record
// prefix.
func NewAcpiWatcher(q *queue.Queue, log *logging.Logger, socketPath, prefix string) *AcpiWatcher {
	return &AcpiWatcher{
		SocketPath: socketPath,
		Prefix:     []byte(prefix),
		Dial:       net.Dial,
		queue:      q,
		log:        log.WithComponent("acpi-watcher"),
	}
}

// Run connects and loops forever. A missing socket fails immediately; no
// retry. Reads never assume record alignment: partial lines are reassembled
// and multiple lines per read are split, both handled by the buffered reader.
func (w *AcpiWatcher) Run() error {
	conn, err := w.Dial("unix", w.SocketPath)
	if err != nil {
		return fmt.Errorf("connect acpid socket %s: %w", w.SocketPath, err)
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			return fmt.Errorf("read acpid socket: %w", err)
		}
		w.log.Debug("acpid record", "record", string(bytes.TrimRight(line, "\n")))
		if bytes.HasPrefix(line, w.Prefix) {
			w.log.Debug("mode change record")
			w.queue.Push(event.ModeChange())
		}
	}
}
