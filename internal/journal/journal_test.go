package journal

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"convertd/internal/event"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "state", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestAppendAndRecent(t *testing.T) {
	j := openTestJournal(t)

	require.NoError(t, j.Append(event.ModeChange()))
	require.NoError(t, j.Append(event.Rotate(event.OrientationLeftUp)))
	require.NoError(t, j.Append(event.WatcherExit("acpi", event.ReasonError, errors.New("gone"))))

	entries, err := j.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first.
	assert.Equal(t, event.KindWatcherExit, entries[0].Kind)
	assert.Equal(t, "acpi", entries[0].Watcher)
	assert.Equal(t, "gone", entries[0].Error)
	assert.Equal(t, event.KindRotate, entries[1].Kind)
	assert.Equal(t, "left-up", entries[1].Detail)
	assert.Equal(t, event.KindModeChange, entries[2].Kind)
}

func TestRecentHonorsLimit(t *testing.T) {
	j := openTestJournal(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, j.Append(event.ModeChange()))
	}

	entries, err := j.Recent(2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	n, err := j.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestTimestampsRoundTrip(t *testing.T) {
	j := openTestJournal(t)

	before := time.Now().Add(-time.Second)
	require.NoError(t, j.Append(event.Stylus(event.StylusOut)))
	after := time.Now().Add(time.Second)

	entries, err := j.Recent(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Time.After(before) && entries[0].Time.Before(after),
		"stored time %v outside [%v, %v]", entries[0].Time, before, after)
}

func TestReopenSeesExistingRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.db")

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Append(event.ModeChange()))
	require.NoError(t, j.Close())

	j2, err := Open(path)
	require.NoError(t, err)
	defer j2.Close()

	n, err := j2.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
