// Package x11 is the outbound action surface: thin wrappers over the X11
// command line tools (xinput, xrandr, xsetwacom) and the on-screen keyboard
// process. Nothing here owns state; the handler decides what to call.
package x11

import (
	"io"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// Runner executes external tools. The exec-backed implementation is used in
// production; tests substitute fakes.
type Runner interface {
	// Output runs the tool and returns its combined stdout.
	Output(name string, args ...string) ([]byte, error)
	// Run runs the tool and waits for it, discarding output.
	Run(name string, args ...string) error
	// Stream starts the tool and returns its stdout as a stream. The
	// process is killed when the stream is closed.
	Stream(name string, args ...string) (io.ReadCloser, error)
	// StartDetached starts the tool in its own process group and returns a
	// handle for later termination.
	StartDetached(name string, args ...string) (Process, error)
}

// Process is a handle on a detached child process.
type Process interface {
	// Terminate sends SIGTERM to the process group.
	Terminate() error
	// PID returns the process id, for logging.
	PID() int
}

// ExecRunner runs tools with os/exec.
type ExecRunner struct{}

// NewRunner returns the exec-backed Runner.
func NewRunner() *ExecRunner {
	return &ExecRunner{}
}

func (*ExecRunner) Output(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

func (*ExecRunner) Run(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

type cmdStream struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (s *cmdStream) Close() error {
	err := s.ReadCloser.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	return err
}

func (*ExecRunner) Stream(name string, args ...string) (io.ReadCloser, error) {
	cmd := exec.Command(name, args...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &cmdStream{ReadCloser: out, cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) PID() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Terminate() error {
	// Negative pid targets the whole process group set up by Setpgid.
	return unix.Kill(-p.cmd.Process.Pid, unix.SIGTERM)
}

func (*ExecRunner) StartDetached(name string, args ...string) (Process, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	// Reap the child in the background so it never becomes a zombie.
	go func() { _ = cmd.Wait() }()
	return &execProcess{cmd: cmd}, nil
}

var _ Runner = (*ExecRunner)(nil)
