package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/garminetl/internal/adapters/storage"
	"github.com/emiliopalmerini/garminetl/internal/frame"
	"github.com/emiliopalmerini/garminetl/internal/goals"
	"github.com/emiliopalmerini/garminetl/internal/logging"
	"github.com/emiliopalmerini/garminetl/internal/pipeline"
	"github.com/emiliopalmerini/garminetl/internal/ports"
)

func day(s string) time.Time {
	t, err := time.Parse(frame.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func processedTables() []*frame.Frame {
	var days []time.Time
	for d := day("2023-01-02"); !d.After(day("2023-01-08")); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	repeat := func(v any) []any {
		out := make([]any, len(days))
		for i := range out {
			out[i] = v
		}
		return out
	}
	mustSeries := func(name string, kind frame.Kind, values []any) *frame.Series {
		s, err := frame.NewSeries(name, kind, values)
		if err != nil {
			panic(err)
		}
		return s
	}

	daily := frame.Must(pipeline.TableDays,
		frame.Times("day", days),
		mustSeries("steps", frame.KindInt, repeat(int64(10000))),
		mustSeries("resting_hr", frame.KindFloat, repeat(52.0)),
		mustSeries("total_sleep", frame.KindDuration, repeat(7*time.Hour)),
		mustSeries("start_sleep_time", frame.KindDuration, repeat(-time.Hour)),
		mustSeries("running_activities", frame.KindInt, []any{int64(1), int64(0), int64(1), int64(0), int64(0), int64(1), int64(0)}),
	)
	weeks := frame.Must(pipeline.TableWeeks,
		frame.Times("day", []time.Time{day("2022-06-05"), day("2022-06-12"), day("2023-01-08")}),
		frame.MustSeries("steps", frame.KindFloat, 8000.0, 1000.0, 10000.0),
		frame.MustSeries("resting_hr", frame.KindFloat, 55.0, 70.0, 52.0),
		frame.MustSeries("total_sleep", frame.KindDuration, 6*time.Hour, time.Hour, 7*time.Hour),
		frame.MustSeries("start_sleep_time", frame.KindDuration, -30*time.Minute, 0*time.Second, -time.Hour),
		frame.MustSeries("running_activities", frame.KindInt, int64(2), int64(0), int64(3)),
		frame.MustSeries(pipeline.ColDaysResampled, frame.KindInt, int64(7), int64(2), int64(7)),
	)
	months := frame.Must(pipeline.TableMonths,
		frame.Times("day", []time.Time{day("2022-06-30"), day("2022-07-31"), day("2023-01-31")}),
		frame.MustSeries("steps", frame.KindFloat, 8000.0, 9000.0, 10000.0),
		frame.MustSeries("resting_hr", frame.KindFloat, 55.0, 54.0, 52.0),
		frame.MustSeries("total_sleep", frame.KindDuration, 6*time.Hour, 6*time.Hour, 7*time.Hour),
		frame.MustSeries("start_sleep_time", frame.KindDuration, -30*time.Minute, -30*time.Minute, -time.Hour),
		frame.MustSeries("running_activities", frame.KindInt, int64(8), int64(6), int64(3)),
		frame.MustSeries(pipeline.ColDaysResampled, frame.KindInt, int64(30), int64(31), int64(7)),
	)
	return []*frame.Frame{daily, weeks, months}
}

func testOptions() Options {
	return Options{
		Key:          "day",
		MinWeekDays:  3,
		MinMonthDays: 5,
		SumColumns:   []string{"running_activities"},
		Metrics:      goals.DefaultMetrics,
	}
}

func newTestServer(t *testing.T, withData bool) *Server {
	t.Helper()
	store, err := storage.NewSnapshotStorage(t.TempDir())
	require.NoError(t, err)
	if withData {
		m := &ports.Manifest{RunID: "run-1", Stage: pipeline.StageProcessed, FinishedAt: time.Now()}
		require.NoError(t, store.Save(context.Background(), pipeline.StageProcessed, processedTables(), m))
	}
	s := NewServer(store, testOptions(), logging.Discard())
	s.now = func() time.Time { return day("2023-01-05") }
	return s
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(t, false), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestStaticStylesheet(t *testing.T) {
	rec := get(t, newTestServer(t, false), "/static/style.css")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPages_NoProcessedData(t *testing.T) {
	s := newTestServer(t, false)
	for _, path := range []string{"/", "/weekly", "/yearly", "/trends"} {
		t.Run(path, func(t *testing.T) {
			rec := get(t, s, path)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Contains(t, rec.Body.String(), "Run the pipeline first")
		})
	}
}

func TestHome(t *testing.T) {
	rec := get(t, newTestServer(t, true), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Jan 2, 2023")
	assert.Contains(t, body, "Jan 8, 2023")
	assert.Contains(t, body, "run-1")
	assert.Contains(t, body, "Total sleep")
	assert.Contains(t, body, "23:00")
}

func TestWeekly_RejectsNonMonday(t *testing.T) {
	rec := get(t, newTestServer(t, true), "/weekly?start=2023-01-03")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "want a Monday")
}

func TestWeekly_DefaultsToMostRecentMonday(t *testing.T) {
	rec := get(t, newTestServer(t, true), "/weekly")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "2023-01-02 to 2023-01-08")
	assert.Contains(t, body, `<option value="2022" selected>`)
}

func TestWeekly_Goals(t *testing.T) {
	rec := get(t, newTestServer(t, true), "/weekly?start=2023-01-02&year=2022&coef=0")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	// Week mean steps against the 2022 eligible week.
	assert.Contains(t, body, "10.0K")
	assert.Contains(t, body, "vs goal 8000")
	// Running sessions are summed over the week.
	assert.Contains(t, body, `<span class="value">3</span>`)
	assert.NotContains(t, body, "No data for this week")
}

func TestWeekly_EmptyWeek(t *testing.T) {
	rec := get(t, newTestServer(t, true), "/weekly?start=2023-03-06")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No data for this week")
}

func TestWeekly_UnknownYear(t *testing.T) {
	rec := get(t, newTestServer(t, true), "/weekly?year=1999")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestYearly(t *testing.T) {
	s := newTestServer(t, true)

	rec := get(t, s, "/yearly?year=2022&coef=1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Values shown for 2023")
	assert.Contains(t, body, "Jan 23")

	rec = get(t, s, "/yearly?coef=2.5")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, s, "/yearly?coef=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTrends(t *testing.T) {
	rec := get(t, newTestServer(t, true), "/trends")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Daily steps")
	assert.Contains(t, body, "<svg")
}

func TestAPITable(t *testing.T) {
	s := newTestServer(t, true)

	rec := get(t, s, "/api/days")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got apiTable
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, pipeline.TableDays, got.Table)
	assert.Equal(t, "day", got.Columns[0])
	require.Len(t, got.Rows, 7)
	assert.Equal(t, "2023-01-02", got.Rows[0]["day"])
	assert.Equal(t, 25200.0, got.Rows[0]["total_sleep"])
	assert.Equal(t, -3600.0, got.Rows[0]["start_sleep_time"])

	rec = get(t, s, "/api/sessions")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPITable_NoData(t *testing.T) {
	rec := get(t, newTestServer(t, false), "/api/weeks")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
