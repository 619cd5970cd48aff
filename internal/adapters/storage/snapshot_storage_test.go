package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/garminetl/internal/frame"
	"github.com/emiliopalmerini/garminetl/internal/ports"
)

func sampleFrame() *frame.Frame {
	day := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	return frame.Must("garmin_days",
		frame.MustSeries("day", frame.KindTime, day, day.AddDate(0, 0, 1)),
		frame.MustSeries("steps", frame.KindInt, int64(8000), nil),
		frame.MustSeries("distance", frame.KindFloat, 6.4, nil),
		frame.MustSeries("total_sleep", frame.KindDuration, 7*time.Hour+5*time.Second, nil),
		frame.MustSeries("stress_injected", frame.KindBool, true, false),
		frame.MustSeries("sport", frame.KindString, "running", nil),
	)
}

func TestSnapshotStorage_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSnapshotStorage(dir)
	require.NoError(t, err)
	ctx := context.Background()

	f := sampleFrame()
	m := &ports.Manifest{RunID: "run-1", Stage: "processed", Tables: []ports.TableManifest{{Name: f.Name(), Rows: f.Len(), Columns: f.Names()}}}
	require.NoError(t, store.Save(ctx, "processed", []*frame.Frame{f}, m))

	got, err := store.LoadTable(ctx, "processed", "garmin_days")
	require.NoError(t, err)
	assert.Equal(t, "garmin_days", got.Name())
	assert.True(t, f.Equal(got), "round trip changed the frame")

	all, err := store.Load(ctx, "processed")
	require.NoError(t, err)
	require.Len(t, all, 1)

	gotManifest, err := store.Manifest(ctx, "processed")
	require.NoError(t, err)
	assert.Equal(t, "run-1", gotManifest.RunID)
	assert.Equal(t, 2, gotManifest.Tables[0].Rows)

	_, err = os.Stat(filepath.Join(dir, "processed", "garmin_days.csv"))
	require.NoError(t, err)
}

func TestSnapshotStorage_SaveReplaces(t *testing.T) {
	store, err := NewSnapshotStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	old := frame.Must("old", frame.MustSeries("a", frame.KindInt, int64(1)))
	require.NoError(t, store.Save(ctx, "raw", []*frame.Frame{old}, nil))
	require.NoError(t, store.Save(ctx, "raw", []*frame.Frame{sampleFrame()}, nil))

	all, err := store.Load(ctx, "raw")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "garmin_days", all[0].Name())

	_, err = store.LoadTable(ctx, "raw", "old")
	require.Error(t, err)
}

func TestSnapshotStorage_EmptyStage(t *testing.T) {
	store, err := NewSnapshotStorage(t.TempDir())
	require.NoError(t, err)

	all, err := store.Load(context.Background(), "interim")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, sampleFrame()))

	want := ",day,steps,distance,total_sleep,stress_injected,sport\n" +
		"0,2023-03-01 00:00:00,8000,6.4,07:00:05,true,running\n" +
		"1,2023-03-02 00:00:00,,,,false,\n"
	assert.Equal(t, want, buf.String())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "26:00:00", formatDuration(26*time.Hour))
	assert.Equal(t, "-01:30:00", formatDuration(-90*time.Minute))
	assert.Equal(t, "00:00:01.500000", formatDuration(1500*time.Millisecond))
}
