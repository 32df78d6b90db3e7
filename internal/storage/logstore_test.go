package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaishnavucv/droid-proctoring/internal/storage"
	"github.com/vaishnavucv/droid-proctoring/internal/violation"
)

func logKey(username, userID string, start time.Time) violation.LogKey {
	return violation.LogKey{Username: username, UserID: userID, SessionStart: start}
}

func TestLogAppendAndExactLookup(t *testing.T) {
	store := storage.NewFileLogStore(t.TempDir())
	ctx := context.Background()

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	key := logKey("alice", "u1", start)

	require.NoError(t, store.Append(ctx, key, violation.Event{
		WarningCount:  1,
		Type:          "fullscreen: exited fullscreen mode",
		Duration:      "00:00:30",
		Justification: "N/A",
	}))
	require.NoError(t, store.Append(ctx, key, violation.Event{
		WarningCount:  2,
		Type:          "visibility: tab or window hidden",
		Duration:      "00:01:10",
		Justification: "N/A",
	}))

	events, matched, err := store.Lookup("alice_u1_2025-03-01_10-00-00")
	require.NoError(t, err)
	assert.Equal(t, "alice_u1_2025-03-01_10-00-00.json", matched)
	require.Len(t, events, 2)
	assert.Equal(t, 1, events[0].WarningCount)
	assert.Equal(t, 2, events[1].WarningCount)
	assert.Equal(t, "fullscreen: exited fullscreen mode", events[0].Type)
}

func TestLookupFallsBackToSameDate(t *testing.T) {
	store := storage.NewFileLogStore(t.TempDir())
	ctx := context.Background()

	// Log written a few seconds after the folder's start instant.
	key := logKey("alice", "u1", time.Date(2025, 3, 1, 10, 0, 4, 0, time.UTC))
	require.NoError(t, store.Append(ctx, key, violation.Event{WarningCount: 1, Type: "fullscreen: exited fullscreen mode"}))

	// Older attempt from a different day must not win.
	old := logKey("alice", "u1", time.Date(2025, 2, 20, 9, 0, 0, 0, time.UTC))
	require.NoError(t, store.Append(ctx, old, violation.Event{WarningCount: 1, Type: "visibility: tab or window hidden"}))

	events, matched, err := store.Lookup("alice_u1_2025-03-01_10-00-00")
	require.NoError(t, err)
	assert.Equal(t, "alice_u1_2025-03-01_10-00-04.json", matched)
	require.Len(t, events, 1)
	assert.Equal(t, "fullscreen: exited fullscreen mode", events[0].Type)
}

func TestLookupFallsBackToMostRecentForUser(t *testing.T) {
	store := storage.NewFileLogStore(t.TempDir())
	ctx := context.Background()

	first := logKey("alice", "u1", time.Date(2025, 2, 20, 9, 0, 0, 0, time.UTC))
	second := logKey("alice", "u1", time.Date(2025, 2, 25, 14, 0, 0, 0, time.UTC))
	require.NoError(t, store.Append(ctx, first, violation.Event{WarningCount: 1}))
	require.NoError(t, store.Append(ctx, second, violation.Event{WarningCount: 1}))

	_, matched, err := store.Lookup("alice_u1_2025-03-01_10-00-00")
	require.NoError(t, err)
	assert.Equal(t, "alice_u1_2025-02-25_14-00-00.json", matched)
}

func TestLookupUnknownFolderIsEmpty(t *testing.T) {
	store := storage.NewFileLogStore(t.TempDir())

	events, matched, err := store.Lookup("nobody_u9_2025-03-01_10-00-00")
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Empty(t, matched)
}

func TestAppendReplacesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store := storage.NewFileLogStore(dir)
	ctx := context.Background()

	key := logKey("alice", "u1", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	path := filepath.Join(dir, store.FileName(key))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	require.NoError(t, store.Append(ctx, key, violation.Event{WarningCount: 1, Type: "visibility: tab or window hidden"}))

	events, _, err := store.Lookup("alice_u1_2025-03-01_10-00-00")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].WarningCount)
}
