// Package ipc provides the read-only control channel between the convertd
// daemon and convertctl. The protocol is newline-delimited JSON over a unix
// socket: one request line in, one response line out, per connection.
package ipc

import (
	"time"

	"convertd/internal/dispatch"
)

// Protocol version for compatibility checking.
const ProtocolVersion = 1

// Ops understood by the daemon.
const (
	OpPing   = "ping"
	OpStatus = "status"
)

// Request is one client request.
type Request struct {
	Version int    `json:"version"`
	Op      string `json:"op"`
}

// Status is the daemon's answer to OpStatus.
type Status struct {
	PID       int                   `json:"pid"`
	StartedAt time.Time             `json:"started_at"`
	Mode      string                `json:"mode"`
	Counts    map[string]uint64     `json:"counts"`
	Exits     []dispatch.ExitRecord `json:"exits,omitempty"`
}

// Response is one daemon reply.
type Response struct {
	OK     bool    `json:"ok"`
	Error  string  `json:"error,omitempty"`
	Status *Status `json:"status,omitempty"`
}
