package ipc

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"convertd/internal/logging"
)

func startTestServer(t *testing.T, status StatusFunc) (*Server, string) {
	t.Helper()
	l, err := logging.New(&logging.Config{Level: logging.LevelError})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "convertd.sock")
	srv := NewServer(path, status, l)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { srv.Stop() })
	return srv, path
}

func fixedStatus() Status {
	return Status{
		PID:       1234,
		StartedAt: time.Now(),
		Mode:      "tablet",
		Counts:    map[string]uint64{"mode-change": 3, "rotate": 7},
	}
}

func TestPingRoundTrip(t *testing.T) {
	_, path := startTestServer(t, fixedStatus)
	c := NewClient(path)
	require.NoError(t, c.Ping())
}

func TestStatusRoundTrip(t *testing.T) {
	_, path := startTestServer(t, fixedStatus)
	c := NewClient(path)

	st, err := c.Status()
	require.NoError(t, err)
	assert.Equal(t, "tablet", st.Mode)
	assert.Equal(t, uint64(3), st.Counts["mode-change"])
	assert.Equal(t, 1234, st.PID)
}

func TestUnknownOpRejected(t *testing.T) {
	_, path := startTestServer(t, fixedStatus)

	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, json.NewEncoder(conn).Encode(Request{Version: ProtocolVersion, Op: "reboot"}))
	var resp Response
	require.NoError(t, json.NewDecoder(conn).Decode(&resp))
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "unknown op")
}

func TestProtocolVersionMismatchRejected(t *testing.T) {
	_, path := startTestServer(t, fixedStatus)

	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, json.NewEncoder(conn).Encode(Request{Version: 99, Op: OpPing}))
	var resp Response
	require.NoError(t, json.NewDecoder(conn).Decode(&resp))
	assert.False(t, resp.OK)
}

func TestStaleSocketFileIsReplaced(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "convertd.sock")

	// Leave a dead socket file behind, like a crashed daemon would.
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	ln.Close()
	// Closing removes the file on most platforms; recreate a stale one.
	if _, statErr := os.Lstat(path); os.IsNotExist(statErr) {
		dead, err := net.Listen("unix", path)
		require.NoError(t, err)
		dead.Close()
	}

	l, err := logging.New(&logging.Config{Level: logging.LevelError})
	require.NoError(t, err)
	srv := NewServer(path, fixedStatus, l)
	require.NoError(t, srv.Start())
	defer srv.Stop()

	require.NoError(t, NewClient(path).Ping())
}

func TestSecondListenerRefused(t *testing.T) {
	_, path := startTestServer(t, fixedStatus)

	l, err := logging.New(&logging.Config{Level: logging.LevelError})
	require.NoError(t, err)
	second := NewServer(path, fixedStatus, l)
	err = second.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already")
}

func TestCleanupSocketRefusesNonSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-socket")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	require.Error(t, CleanupSocket(path))
}
