package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/garminetl/internal/frame"
)

func TestPeriodBucketEnd(t *testing.T) {
	tests := []struct {
		period Period
		day    string
		want   string
	}{
		{Weekly, "2023-01-02", "2023-01-08"}, // Monday
		{Weekly, "2023-01-08", "2023-01-08"}, // Sunday
		{Weekly, "2022-12-31", "2023-01-01"},
		{Monthly, "2023-02-10", "2023-02-28"},
		{Monthly, "2024-02-29", "2024-02-29"},
		{Monthly, "2023-12-01", "2023-12-31"},
	}
	for _, tt := range tests {
		t.Run(tt.period.String()+" "+tt.day, func(t *testing.T) {
			assert.Equal(t, ts(tt.want), tt.period.BucketEnd(ts(tt.day)))
		})
	}
}

func TestResample_Weekly(t *testing.T) {
	// Mon 2 .. Wed 4 January, then Tue 17 January; the week ending the 15th is empty.
	dayKeys := append(dayRange("2023-01-02", 3), ts("2023-01-17"))
	days := frame.Must(TableDays,
		frame.Times("day", dayKeys),
		frame.MustSeries("rhr", frame.KindInt, int64(50), int64(52), nil, int64(60)),
		frame.MustSeries(ColRunningActivities, frame.KindInt, ints(1, 0, 2, 1)...),
		frame.MustSeries(ColRunningDistance, frame.KindFloat, 5.0, 0.0, 10.5, 3.0),
		frame.MustSeries("total_sleep", frame.KindDuration, 7*time.Hour, 8*time.Hour, 6*time.Hour, 7*time.Hour),
		frame.MustSeries("note", frame.KindString, "a", "b", "c", "d"),
	)

	weeks, err := resample(days, "day", Weekly, []string{ColRunningActivities, ColRunningDistance}, TableWeeks)
	require.NoError(t, err)

	assert.Equal(t, TableWeeks, weeks.Name())
	assert.False(t, weeks.Has("note"))
	assert.Equal(t, []any{ts("2023-01-08"), ts("2023-01-15"), ts("2023-01-22")}, column(weeks, "day"))
	assert.Equal(t, ints(3, 0, 1), column(weeks, ColDaysResampled))
	assert.Equal(t, []any{51.0, nil, 60.0}, column(weeks, "rhr"))
	assert.Equal(t, ints(3, 0, 1), column(weeks, ColRunningActivities))
	assert.Equal(t, []any{15.5, 0.0, 3.0}, column(weeks, ColRunningDistance))
	assert.Equal(t, []any{7 * time.Hour, nil, 7 * time.Hour}, column(weeks, "total_sleep"))
}

func TestResample_Monthly(t *testing.T) {
	dayKeys := []time.Time{ts("2023-01-30"), ts("2023-01-31"), ts("2023-03-01")}
	days := frame.Must(TableDays,
		frame.Times("day", dayKeys),
		frame.MustSeries("steps", frame.KindInt, ints(1000, 2000, 4000)...),
		frame.Times("start_sleep", []time.Time{ts("2023-01-30 22:00:00"), ts("2023-02-01 00:00:00"), ts("2023-03-01 23:00:00")}),
	)

	months, err := resample(days, "day", Monthly, nil, TableMonths)
	require.NoError(t, err)

	assert.Equal(t, []any{ts("2023-01-31"), ts("2023-02-28"), ts("2023-03-31")}, column(months, "day"))
	assert.Equal(t, ints(2, 0, 1), column(months, ColDaysResampled))
	assert.Equal(t, []any{1500.0, nil, 4000.0}, column(months, "steps"))
	assert.Equal(t, []any{ts("2023-01-31 11:00:00"), nil, ts("2023-03-01 23:00:00")}, column(months, "start_sleep"))
}

func TestResample_Empty(t *testing.T) {
	days := frame.Must(TableDays,
		frame.Times("day", nil),
		frame.MustSeries("steps", frame.KindInt),
	)
	weeks, err := resample(days, "day", Weekly, nil, TableWeeks)
	require.NoError(t, err)
	assert.Equal(t, 0, weeks.Len())
	assert.Equal(t, []string{"day", "steps", ColDaysResampled}, weeks.Names())
}
