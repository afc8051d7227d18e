package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_Sessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	session := NewSession("postgres", "localhost:5432")
	require.NotEmpty(t, session.ID)
	require.NoError(t, store.StartSession(ctx, session))

	got, err := store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "postgres", got.Driver)
	assert.Equal(t, "localhost:5432", got.Target)
	assert.True(t, got.EndedAt.IsZero())

	require.NoError(t, store.EndSession(ctx, session.ID))
	got, err = store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, got.EndedAt.IsZero())
}

func TestStore_RecordAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	session := NewSession("sqlite", "/data")
	require.NoError(t, store.StartSession(ctx, session))

	records := []*QueryRecord{
		{SessionID: session.ID, Database: "app", Query: "SELECT 1", Duration: 1500 * time.Microsecond, Rows: 1},
		{SessionID: session.ID, Database: "app", Query: "SELEC 1", Error: `syntax error at or near "SELEC"`},
		{SessionID: session.ID, Database: "app_test", Query: "SELECT * FROM users", Rows: 0},
	}
	for _, r := range records {
		require.NoError(t, store.RecordQuery(ctx, r))
		assert.Positive(t, r.ID)
	}

	all, err := store.ListQueries(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "SELECT * FROM users", all[0].Query, "newest first")
	assert.Equal(t, 1500*time.Microsecond, all[2].Duration)
	assert.True(t, all[1].Failed())
	assert.False(t, all[0].Failed())

	app, err := store.ListQueries(ctx, ListFilter{Database: "app"})
	require.NoError(t, err)
	assert.Len(t, app, 2)

	limited, err := store.ListQueries(ctx, ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	bySession, err := store.ListQueries(ctx, ListFilter{SessionID: "other"})
	require.NoError(t, err)
	assert.Empty(t, bySession)

	future, err := store.ListQueries(ctx, ListFilter{Since: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, future)
}

func TestRecorder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec, err := NewRecorder(ctx, store, NewSession("postgres", "db:5432"), zerolog.Nop())
	require.NoError(t, err)

	rec.Record("app", "SELECT 1", time.Millisecond, 1, nil)
	rec.Record("app", "SELECT nope", 0, 0, errors.New("column \"nope\" does not exist"))
	require.NoError(t, rec.Close())

	got, err := store.ListQueries(ctx, ListFilter{SessionID: rec.SessionID()})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, `column "nope" does not exist`, got[0].Error)
	assert.Equal(t, int64(1), got[1].Rows)

	session, err := store.GetSession(ctx, rec.SessionID())
	require.NoError(t, err)
	assert.False(t, session.EndedAt.IsZero())
}

func TestRecorder_StoreFailureIsSwallowed(t *testing.T) {
	store := newTestStore(t)
	rec, err := NewRecorder(context.Background(), store, NewSession("sqlite", ""), zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, store.Close())
	assert.NotPanics(t, func() {
		rec.Record("app", "SELECT 1", 0, 1, nil)
	})
}
