package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *RunStore {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func run(id string, started time.Time) Run {
	return Run{
		RunID:            id,
		Date:             started.Format("2006-01-02"),
		StartedAt:        started,
		FinishedAt:       started.Add(3 * time.Second),
		SignalsIn:        12,
		SignalsOut:       9,
		DroppedURL:       1,
		DroppedTitle:     1,
		DroppedTitleBody: 1,
		Composite:        6.4,
		Level:            "Elevated",
		Status:           StatusSuccess,
	}
}

func TestRecordAndGet(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 6, 0, 0, 123, time.UTC)

	require.NoError(t, s.Record(ctx, run("r1", base)))

	got, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, run("r1", base), *got)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRecordReplaces(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 6, 0, 0, 0, time.UTC)

	r := run("r1", base)
	r.Status = StatusFailed
	r.Error = "boom"
	require.NoError(t, s.Record(ctx, r))

	r.Status = StatusSuccess
	r.Error = ""
	r.SignalsOut = 10
	require.NoError(t, s.Record(ctx, r))

	got, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, got.Status)
	assert.Empty(t, got.Error)
	assert.Equal(t, 10, got.SignalsOut)

	runs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecent(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 6, 0, 0, 0, time.UTC)

	runs, err := s.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.NotNil(t, runs)

	for i, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Record(ctx, run(id, base.Add(time.Duration(i)*24*time.Hour))))
	}

	runs, err = s.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "d", runs[0].RunID)
	assert.Equal(t, "c", runs[1].RunID)
	assert.Equal(t, "b", runs[2].RunID)

	runs, err = s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 4)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(context.Background(), run("x", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01", got.Date)
}
