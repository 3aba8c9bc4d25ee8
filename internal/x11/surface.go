package x11

import (
	"fmt"
	"io"
	"strings"

	"convertd/internal/logging"
)

// Surface issues the concrete X11 side effects.
type Surface struct {
	runner Runner
	log    *logging.Logger
}

// NewSurface wraps a Runner.
func NewSurface(runner Runner, log *logging.Logger) *Surface {
	return &Surface{runner: runner, log: log.WithComponent("x11")}
}

// ListInputDevices returns the xinput device names, one per device.
func (s *Surface) ListInputDevices() ([]string, error) {
	out, err := s.runner.Output("xinput", "--list", "--name-only")
	if err != nil {
		return nil, fmt.Errorf("xinput list: %w", err)
	}
	return nonEmptyLines(string(out)), nil
}

// ListWacomDevices returns the names of stylus-class devices known to
// xsetwacom. The tool prints "name\ttype\tid"; only the name matters here.
func (s *Surface) ListWacomDevices() ([]string, error) {
	out, err := s.runner.Output("xsetwacom", "--list", "devices")
	if err != nil {
		return nil, fmt.Errorf("xsetwacom list: %w", err)
	}
	var names []string
	for _, line := range nonEmptyLines(string(out)) {
		name, _, _ := strings.Cut(line, "\t")
		names = append(names, strings.TrimSpace(name))
	}
	return names, nil
}

// EnableDevice turns a named input device on.
func (s *Surface) EnableDevice(name string) error {
	if err := s.runner.Run("xinput", "enable", name); err != nil {
		return fmt.Errorf("xinput enable %s: %w", name, err)
	}
	return nil
}

// DisableDevice turns a named input device off.
func (s *Surface) DisableDevice(name string) error {
	if err := s.runner.Run("xinput", "disable", name); err != nil {
		return fmt.Errorf("xinput disable %s: %w", name, err)
	}
	return nil
}

// SetDisplayRotation rotates the display. rotation is one of the xrandr
// vocabulary: normal, right, inverted, left.
func (s *Surface) SetDisplayRotation(rotation string) error {
	if err := s.runner.Run("xrandr", "-o", rotation); err != nil {
		return fmt.Errorf("xrandr -o %s: %w", rotation, err)
	}
	return nil
}

// SetDeviceRotation rotates a stylus-class device. rotation is one of the
// wacom vocabulary: none, cw, half, ccw.
func (s *Surface) SetDeviceRotation(device, rotation string) error {
	if err := s.runner.Run("xsetwacom", "--set", device, "rotate", rotation); err != nil {
		return fmt.Errorf("xsetwacom rotate %s %s: %w", device, rotation, err)
	}
	return nil
}

// OpenProximityStream starts "xinput test -proximity" for the device and
// returns its line stream.
func (s *Surface) OpenProximityStream(device string) (io.ReadCloser, error) {
	stream, err := s.runner.Stream("xinput", "test", "-proximity", device)
	if err != nil {
		return nil, fmt.Errorf("xinput test -proximity %s: %w", device, err)
	}
	return stream, nil
}

// StartKeyboard launches the on-screen keyboard command in its own process
// group so terminating it later does not touch the daemon.
func (s *Surface) StartKeyboard(command []string) (Process, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("empty keyboard command")
	}
	p, err := s.runner.StartDetached(command[0], command[1:]...)
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", command[0], err)
	}
	s.log.Debug("keyboard started", "command", command[0], "pid", p.PID())
	return p, nil
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimRight(line, "\r"); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
