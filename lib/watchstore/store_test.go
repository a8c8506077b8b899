package watchstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"blitzwatch/lib/sqliteutil"
	"blitzwatch/lib/testutil"
	"blitzwatch/lib/watchstore/db"
	"blitzwatch/services/watcher"

	"github.com/stretchr/testify/require"
)

func setupStore(t testing.TB) Store {
	res := testutil.SetupService(t, testutil.ServiceParams{
		DbSchema: db.Schema,
	})
	return NewStore(res.DB)
}

func TestStatuses(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	statuses, err := store.LoadStatuses(ctx)
	require.NoError(t, err)
	require.Empty(t, statuses)

	require.NoError(t, store.SaveStatus(ctx, "42", watcher.SavedStatus{Status: "Turn 1", NextTurn: "1 day"}))
	require.NoError(t, store.SaveStatus(ctx, "43", watcher.SavedStatus{}))
	require.NoError(t, store.SaveStatus(ctx, "42", watcher.SavedStatus{Status: "Turn 2", NextTurn: "2 days"}))

	statuses, err = store.LoadStatuses(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]watcher.SavedStatus{
		"42": {Status: "Turn 2", NextTurn: "2 days"},
		"43": {},
	}, statuses)

	require.NoError(t, store.DeleteStatus(ctx, "43"))
	require.NoError(t, store.DeleteStatus(ctx, "unknown"))
	statuses, err = store.LoadStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
}

func TestRegistrations(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	require.NoError(t, store.SaveRegistration(ctx, "42", "Ulm", "<@1>"))
	require.NoError(t, store.SaveRegistration(ctx, "42", "Ermor", "<@2>"))
	require.NoError(t, store.SaveRegistration(ctx, "42", "Ulm", "<@3>"))
	require.NoError(t, store.SaveRegistration(ctx, "7", "Ulm", "<@1>"))
	require.NoError(t, store.DeleteRegistration(ctx, "7", "Ulm"))

	registrations, err := store.LoadRegistrations(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]map[string]string{
		"42": {"Ulm": "<@3>", "Ermor": "<@2>"},
	}, registrations)
}

func TestPolicy(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	_, found, err := store.LoadPolicy(ctx)
	require.NoError(t, err)
	require.False(t, found)

	policy := watcher.ReminderPolicy{
		ThresholdHours:  7.5,
		ReminderMessage: "hurry",
		TurnMessages:    []string{"one", "two"},
	}
	require.NoError(t, store.SavePolicy(ctx, policy))
	loaded, found, err := store.LoadPolicy(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, policy, loaded)

	policy.TurnMessages = []string{"three"}
	require.NoError(t, store.SavePolicy(ctx, policy))
	loaded, _, err = store.LoadPolicy(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"three"}, loaded.TurnMessages)
}

func TestSchemaIsReapplied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watch.db")
	ctx := context.Background()

	database, err := sqliteutil.Config{File: path}.OpenDB(db.Schema)
	require.NoError(t, err)
	require.NoError(t, NewStore(database).SaveStatus(ctx, "42", watcher.SavedStatus{Status: "Turn 1"}))
	require.NoError(t, database.Close())

	database, err = sqliteutil.Config{File: path}.OpenDB(db.Schema)
	require.NoError(t, err)
	defer database.Close()
	statuses, err := NewStore(database).LoadStatuses(ctx)
	require.NoError(t, err)
	require.Equal(t, "Turn 1", statuses["42"].Status)
}

func TestReadTurnMessagesFile(t *testing.T) {
	messages, err := ReadTurnMessagesFile("testdata/turn_messages.txt")
	require.NoError(t, err)
	require.Equal(t, []string{
		"Your Game is ready for the next turn pretenders!",
		"The gods demand your orders.",
	}, messages)

	_, err = ReadTurnMessagesFile("testdata/missing.txt")
	require.Error(t, err)
}
