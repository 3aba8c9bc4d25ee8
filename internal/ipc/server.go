package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"convertd/internal/logging"
)

// connTimeout bounds how long a misbehaving client can hold a connection.
const connTimeout = 5 * time.Second

// StatusFunc produces the current daemon status for OpStatus.
type StatusFunc func() Status

// Server answers convertctl requests on a unix socket.
type Server struct {
	socketPath string
	status     StatusFunc
	log        *logging.Logger

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// NewServer creates a server; Start actually binds the socket.
func NewServer(socketPath string, status StatusFunc, log *logging.Logger) *Server {
	return &Server{
		socketPath: socketPath,
		status:     status,
		log:        log.WithComponent("ipc"),
	}
}

// Start binds the socket and begins accepting connections. A stale socket
// file from a previous run is removed; a socket with a live listener means
// another daemon instance is running and is an error.
func (s *Server) Start() error {
	if IsSocketListening(s.socketPath) {
		return fmt.Errorf("socket %s already has a listener: is convertd already running?", s.socketPath)
	}
	if err := CleanupSocket(s.socketPath); err != nil {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o700); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.socketPath, err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		ln.Close()
		return fmt.Errorf("restrict socket permissions: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.wg.Add(1)
	go s.acceptLoop(ln)

	s.log.Info("control socket listening", "path", s.socketPath)
	return nil
}

// Stop closes the listener and removes the socket file.
func (s *Server) Stop() error {
	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()

	if ln == nil {
		return nil
	}
	err := ln.Close()
	s.wg.Wait()
	_ = os.Remove(s.socketPath)
	return err
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.log.Warn("accept failed", "error", err)
			}
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(conn)
		}()
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(connTimeout))

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		s.respond(conn, Response{OK: false, Error: "malformed request"})
		return
	}
	if req.Version != ProtocolVersion {
		s.respond(conn, Response{OK: false, Error: fmt.Sprintf("unsupported protocol version %d", req.Version)})
		return
	}

	switch req.Op {
	case OpPing:
		s.respond(conn, Response{OK: true})
	case OpStatus:
		st := s.status()
		s.respond(conn, Response{OK: true, Status: &st})
	default:
		s.respond(conn, Response{OK: false, Error: fmt.Sprintf("unknown op %q", req.Op)})
	}
}

func (s *Server) respond(conn net.Conn, resp Response) {
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		s.log.Debug("write response failed", "error", err)
	}
}

// CleanupSocket removes a stale socket file. Refuses to remove a path that
// exists but is not a socket.
func CleanupSocket(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Mode()&os.ModeSocket != 0 {
		return os.Remove(path)
	}
	return fmt.Errorf("path exists but is not a socket: %s", path)
}

// IsSocketListening checks whether a live listener holds the socket.
func IsSocketListening(path string) bool {
	conn, err := net.DialTimeout("unix", path, time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
