package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/prima/internal/testutil"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(filepath.Join(t.TempDir(), "state.db")))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenMigrates(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.MigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	for _, table := range []string{"sessions", "preview_runs", "preview_steps"} {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		require.NoError(t, err, "table %s", table)
		_ = rows.Close()
	}
}

func TestSQLiteStore_InMemory(t *testing.T) {
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	require.NoError(t, store.UpsertSession(ctx, &Session{ID: "mem"}))
	_, err := store.GetSession(ctx, "mem")
	require.NoError(t, err)
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)
	ctx := context.Background()

	require.ErrorIs(t, store.UpsertSession(ctx, &Session{ID: "x"}), errNotOpened)
	require.ErrorIs(t, store.RecordRun(ctx, &Run{SessionID: "x"}), errNotOpened)
	_, err := store.ListRuns(ctx, "x", 10)
	require.ErrorIs(t, err, errNotOpened)
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_SessionLifecycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	sess := &Session{ID: "s1", Filename: "data.csv", SampleRows: 3, Bytes: 42}
	require.NoError(t, store.UpsertSession(ctx, sess))
	created := sess.CreatedAt

	got, err := store.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "data.csv", got.Filename)
	assert.Equal(t, 3, got.SampleRows)
	assert.Equal(t, int64(42), got.Bytes)

	require.NoError(t, store.UpsertSession(ctx, &Session{ID: "s1", Filename: "v2.csv", SampleRows: 7, CreatedAt: created}))
	got, err = store.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "v2.csv", got.Filename)
	assert.Equal(t, 7, got.SampleRows)

	require.NoError(t, store.DeleteSession(ctx, "s1"))
	_, err = store.GetSession(ctx, "s1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_RecordAndListRuns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	first := &Run{
		SessionID: "s1", StepCount: 2, Applied: 1, Skipped: 1, Rows: 3, Columns: 2,
		DurationMS: 12, CreatedAt: base,
		Steps: []StepOutcome{
			{Position: 0, StepID: "a", Operation: "fill_na_mean", Column: "age", Status: "applied"},
			{Position: 1, StepID: "b", Operation: "fill_na_mean", Column: "ZIP", Status: "skipped", Reason: `column "ZIP" not found`},
		},
	}
	second := &Run{SessionID: "s1", StepCount: 0, Rows: 3, Columns: 2, CreatedAt: base.Add(time.Minute)}
	other := &Run{SessionID: "s2", CreatedAt: base}

	for _, r := range []*Run{first, second, other} {
		require.NoError(t, store.RecordRun(ctx, r))
		assert.NotEmpty(t, r.ID)
	}

	runs, err := store.ListRuns(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Empty(t, runs[0].Steps)

	got := runs[1]
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, 1, got.Skipped)
	assert.Equal(t, int64(12), got.DurationMS)
	require.Len(t, got.Steps, 2)
	assert.Equal(t, "skipped", got.Steps[1].Status)
	assert.Equal(t, `column "ZIP" not found`, got.Steps[1].Reason)

	limited, err := store.ListRuns(ctx, "s1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := store.ListRuns(ctx, "missing", 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, store.DeleteSession(ctx, "s1"))
	runs, err = store.ListRuns(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Empty(t, runs, "runs cascade with their session")
}

func TestSQLiteStore_RecordRunRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	store := &SQLiteStore{db: db, logger: testutil.NewTestLogger(t)}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT OR IGNORE INTO sessions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO preview_runs").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = store.RecordRun(context.Background(), &Run{SessionID: "s1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert run")
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_ListRunsQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	store := &SQLiteStore{db: db, logger: testutil.NewTestLogger(t)}

	mock.ExpectQuery("SELECT (.+) FROM preview_runs").
		WithArgs("s1", -1).
		WillReturnError(errors.New("locked"))

	_, err = store.ListRuns(context.Background(), "s1", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list runs")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_GetSessionScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	store := &SQLiteStore{db: db, logger: testutil.NewTestLogger(t)}

	mock.ExpectQuery("SELECT (.+) FROM sessions").
		WithArgs("s1").
		WillReturnError(errors.New("io error"))

	_, err = store.GetSession(context.Background(), "s1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
