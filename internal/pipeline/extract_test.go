package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/garminetl/internal/config"
	"github.com/emiliopalmerini/garminetl/internal/frame"
)

func TestExtract_AllowListAndEmptyTables(t *testing.T) {
	garmin := &fakeSource{tables: map[string]*frame.Frame{
		"stress":   frame.Must("stress", frame.MustSeries("stress", frame.KindInt, ints(10, 20)...)),
		"sleep":    frame.Must("sleep", frame.MustSeries("score", frame.KindInt)),
		"settings": frame.Must("settings", frame.MustSeries("key", frame.KindString, "a")),
	}}
	opener := &fakeOpener{sources: map[string]*fakeSource{filepath.Join("/dbs", "garmin.db"): garmin}}
	dbs := []config.Database{{Name: "garmin", File: "garmin.db", Tables: []string{"stress", "sleep", "daily_summary"}}}

	out, err := NewExtractor(opener, "/dbs", dbs, testLog).Extract(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"garmin_stress"}, out.Keys())
	assert.Equal(t, 2, out["garmin_stress"].Len())
	assert.True(t, garmin.closed)
}

func TestExtract_MissingDatabaseAborts(t *testing.T) {
	opener := &fakeOpener{sources: map[string]*fakeSource{}}
	dbs := []config.Database{{Name: "garmin", File: "garmin.db", Tables: []string{"stress"}}}

	_, err := NewExtractor(opener, "/dbs", dbs, testLog).Extract(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "garmin.db")
}

func TestInspect(t *testing.T) {
	src := &fakeSource{tables: map[string]*frame.Frame{
		"stress": frame.Must("stress", frame.MustSeries("stress", frame.KindInt, ints(1)...)),
	}}
	opener := &fakeOpener{sources: map[string]*fakeSource{filepath.Join("/dbs", "garmin.db"): src}}
	dbs := []config.Database{{Name: "garmin", File: "garmin.db"}}

	infos, err := NewExtractor(opener, "/dbs", dbs, testLog).Inspect(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "garmin", infos[0].Name)
	require.Len(t, infos[0].Tables, 1)
	assert.Equal(t, int64(1), infos[0].Tables[0].Rows)
}
