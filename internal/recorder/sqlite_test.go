package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTemp(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorder_RecordRun(t *testing.T) {
	r := openTemp(t)
	id := uuid.NewString()
	started := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)

	run := &Run{
		ID:         id,
		Trigger:    "cron",
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		Queued:     4,
		Skipped:    10,
		Fetched:    4,
		Files:      40,
		Ticks:      123456,
	}
	require.NoError(t, r.RecordRun(run))

	// A second record with the same id replaces the first.
	run.Err = "boom"
	require.NoError(t, r.RecordRun(run))

	var n, ticks int
	var finished int64
	var errText string
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n))
	require.NoError(t, r.db.QueryRow(
		`SELECT ticks, finished_at, error FROM runs WHERE id = ?`, id).Scan(&ticks, &finished, &errText))
	assert.Equal(t, 1, n)
	assert.Equal(t, 123456, ticks)
	assert.Equal(t, started.Add(90*time.Second).Unix(), finished)
	assert.Equal(t, "boom", errText)
}

func TestSQLiteRecorder_RecordArchiveAndTickFile(t *testing.T) {
	r := openTemp(t)
	id := uuid.NewString()

	require.NoError(t, r.RecordArchive(&ArchiveEvent{
		RunID: id, Symbol: "EURUSD", Year: 2012, Month: 1, Bytes: 2048, Path: "a.zip",
	}))
	require.NoError(t, r.RecordTickFile(&TickFileEvent{
		RunID:    id,
		Name:     "HISTDATA_EURUSD_20120104_EST",
		Symbol:   "EURUSD",
		BaseDate: time.Date(2012, 1, 4, 0, 0, 0, 0, time.UTC),
		Kind:     "Ticks",
		Ticks:    3,
		Bytes:    512,
		Path:     "x.ticks",
	}))

	var symbol string
	var month int
	require.NoError(t, r.db.QueryRow(
		`SELECT symbol, month FROM archives WHERE run_id = ?`, id).Scan(&symbol, &month))
	assert.Equal(t, "EURUSD", symbol)
	assert.Equal(t, 1, month)

	var baseDate, kind string
	require.NoError(t, r.db.QueryRow(
		`SELECT base_date, kind FROM tick_files WHERE run_id = ?`, id).Scan(&baseDate, &kind))
	assert.Equal(t, "2012-01-04", baseDate)
	assert.Equal(t, "Ticks", kind)
}

func TestSQLiteRecorder_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	r, err := NewSQLiteRecorder(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, r.RecordArchive(&ArchiveEvent{Symbol: "USDJPY", Year: 2013, Month: 2}))
	require.NoError(t, r.Close())

	r, err = NewSQLiteRecorder(path, zap.NewNop())
	require.NoError(t, err)
	defer r.Close()

	var n int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM archives`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordRun(&Run{}))
	assert.NoError(t, r.RecordArchive(&ArchiveEvent{}))
	assert.NoError(t, r.RecordTickFile(&TickFileEvent{}))
	assert.NoError(t, r.Close())
}
