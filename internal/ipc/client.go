package ipc

import (
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Client talks to a running convertd daemon.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the daemon socket.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath, timeout: connTimeout}
}

func (c *Client) roundTrip(req Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", c.socketPath, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(c.timeout))

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if !resp.OK {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return &resp, nil
}

// Ping checks that the daemon is alive.
func (c *Client) Ping() error {
	_, err := c.roundTrip(Request{Version: ProtocolVersion, Op: OpPing})
	return err
}

// Status fetches the daemon status.
func (c *Client) Status() (*Status, error) {
	resp, err := c.roundTrip(Request{Version: ProtocolVersion, Op: OpStatus})
	if err != nil {
		return nil, err
	}
	if resp.Status == nil {
		return nil, fmt.Errorf("daemon sent no status payload")
	}
	return resp.Status, nil
}
