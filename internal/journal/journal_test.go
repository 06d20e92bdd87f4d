package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecordAndRecent(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []*Event{
		{At: at, RunID: "run-a", PID: 100, Action: "started", Process: "backup.sh"},
		{At: at.Add(time.Minute), PID: 100, Action: "stopped", Process: "backup.sh", Detail: "after 3 attempt(s)"},
		{At: at.Add(2 * time.Minute), RunID: "run-b", PID: 200, Action: "started", Process: "backup.sh"},
	}
	for _, e := range events {
		require.NoError(t, db.Record(e))
		require.NotZero(t, e.ID)
	}

	got, err := db.Recent("", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Newest first.
	require.Equal(t, "started", got[0].Action)
	require.Equal(t, 200, got[0].PID)
	require.Equal(t, "run-b", got[0].RunID)
	require.Equal(t, "stopped", got[1].Action)
	require.Equal(t, "after 3 attempt(s)", got[1].Detail)
	require.True(t, got[2].At.Equal(at))
}

func TestRecent_ActionFilterAndLimit(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, db.Record(&Event{PID: i + 1, Action: "started"}))
		require.NoError(t, db.Record(&Event{PID: i + 1, Action: "stopped"}))
	}

	started, err := db.Recent("started", 3)
	require.NoError(t, err)
	require.Len(t, started, 3)
	for _, e := range started {
		require.Equal(t, "started", e.Action)
	}
	require.Equal(t, 5, started[0].PID)
}

func TestRecent_DefaultsLimit(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	for i := 0; i < 25; i++ {
		require.NoError(t, db.Record(&Event{PID: i + 1, Action: "started"}))
	}

	got, err := db.Recent("", 0)
	require.NoError(t, err)
	require.Len(t, got, 20)
}

func TestLastByAction(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	last, err := db.LastByAction("shutdown")
	require.NoError(t, err)
	require.Nil(t, last)

	require.NoError(t, db.Record(&Event{PID: 11, Action: "shutdown"}))
	require.NoError(t, db.Record(&Event{PID: 22, Action: "shutdown"}))

	last, err = db.LastByAction("shutdown")
	require.NoError(t, err)
	require.NotNil(t, last)
	require.Equal(t, 22, last.PID)
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "nested", "journal.db")

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Record(&Event{PID: 1, Action: "started"}))

	got, err := db.Recent("", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
}
