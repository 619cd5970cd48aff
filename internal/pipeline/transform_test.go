package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/garminetl/internal/config"
	"github.com/emiliopalmerini/garminetl/internal/frame"
)

func testTransform() config.Transform {
	mon := testMonitoring()
	mon.OneDecimal = []string{"stress", "heart_rate"}
	mon.Output = []string{"timestamp", "stress", "heart_rate", "rr", "activity_id", "in_activity", "heart_rate_injected"}
	mon.Rename = map[string]string{"rr": "respiration_rate"}

	daily := testDaily()
	daily.Sources[0].Drop = nil

	return config.Transform{
		Monitoring: mon,
		Activities: config.Activities{
			Table:         "garmin_activities_activities",
			ID:            "activity_id",
			Start:         "start_time",
			Stop:          "stop_time",
			Sport:         "sport",
			Running:       "running",
			ChildTables:   map[string]string{"garmin_running_laps": "garmin_activities_activity_laps"},
			Calories:      "calories",
			Distance:      "distance",
			DailyReplaced: []string{"activities"},
		},
		Daily: daily,
		Sufficiency: config.Sufficiency{
			Threshold:     0.5,
			MinutesPerDay: 1440,
			Essential:     []string{"rhr", "steps", "start_sleep", "end_sleep"},
		},
		Resample: config.Resample{
			SumColumns:   []string{ColRunningActivities, ColRunningCalories, ColRunningDistance},
			MinWeekDays:  3,
			MinMonthDays: 10,
		},
		Rounding: config.Rounding{
			OneDecimal: []string{"rhr"},
			Integer:    []string{"steps", ColRunningActivities},
			Seconds:    []string{"total_sleep", ColStartSleepTime},
		},
		Output: config.Output{
			Days:   []string{"rhr", "steps", ColRunningActivities, ColRunningCalories, ColRunningDistance, ColStartSleep, ColStartSleepTime, ColEndSleepTime, "total_sleep", "hr_avg"},
			Bucket: []string{"rhr", "steps", ColRunningActivities, ColStartSleepTime, "total_sleep", ColDaysResampled},
			Rename: map[string]string{"rhr": "resting_hr"},
		},
	}
}

// interimTables covers Monday 2 to Thursday 5 January 2023. Heart rate is missing
// for the first 13 hours of the 4th and the sleep of the night after the 3rd is
// missing.
func interimTables() Tables {
	n := 4 * 1440
	grid := minutes("2023-01-02 00:00:00", n)
	gapStart, gapEnd := ts("2023-01-04 00:00:00"), ts("2023-01-04 13:00:00")
	var hrTimes []time.Time
	var hr []any
	stress := make([]any, n)
	rr := make([]any, n)
	for i, m := range grid {
		stress[i] = int64(20 + i%10)
		rr[i] = float64(14 + i%3)
		if !m.Before(gapStart) && m.Before(gapEnd) {
			continue
		}
		hrTimes = append(hrTimes, m)
		hr = append(hr, int64(60+i%7))
	}

	return NewTables([]*frame.Frame{
		frame.Must("garmin_stress",
			frame.Times("timestamp", grid),
			frame.MustSeries("stress", frame.KindInt, stress...),
		),
		frame.Must("garmin_monitoring_monitoring_hr",
			frame.Times("timestamp", hrTimes),
			frame.MustSeries("heart_rate", frame.KindInt, hr...),
		),
		frame.Must("garmin_monitoring_monitoring_rr",
			frame.Times("timestamp", grid),
			frame.MustSeries("rr", frame.KindFloat, rr...),
		),
		frame.Must("garmin_daily_summary",
			frame.Times("day", dayRange("2023-01-02", 4)),
			frame.MustSeries("rhr", frame.KindInt, ints(50, 51, 52, 53)...),
			frame.MustSeries("steps", frame.KindInt, ints(8000, 9000, 10000, 11000)...),
			frame.MustSeries("activities", frame.KindInt, ints(1, 0, 0, 1)...),
		),
		frame.Must("garmin_summary_days_summary",
			frame.Times("day", dayRange("2023-01-02", 4)),
			frame.MustSeries("hr_avg", frame.KindFloat, 70.0, 71.0, 72.0, 73.0),
		),
		frame.Must("garmin_sleep",
			frame.Times("day", []time.Time{ts("2023-01-03"), ts("2023-01-05"), ts("2023-01-06")}),
			frame.Times("start", []time.Time{ts("2023-01-02 23:30:00"), ts("2023-01-04 22:00:00"), ts("2023-01-06 00:15:00")}),
			frame.Times("end", []time.Time{ts("2023-01-03 07:00:00"), ts("2023-01-05 06:00:00"), ts("2023-01-06 07:15:00")}),
			frame.MustSeries("total_sleep", frame.KindDuration, 7*time.Hour+30*time.Minute, 8*time.Hour, 7*time.Hour),
		),
		frame.Must("garmin_activities_activities",
			frame.MustSeries("activity_id", frame.KindString, "run-1", "ride-1"),
			frame.MustSeries("sport", frame.KindString, "running", "cycling"),
			frame.Times("start_time", []time.Time{ts("2023-01-02 07:00:00"), ts("2023-01-05 18:00:00")}),
			frame.Times("stop_time", []time.Time{ts("2023-01-02 07:30:00"), ts("2023-01-05 19:00:00")}),
			frame.MustSeries("calories", frame.KindInt, ints(350, 600)...),
			frame.MustSeries("distance", frame.KindFloat, 5.5, 30.0),
		),
		frame.Must("garmin_activities_activity_laps",
			frame.MustSeries("activity_id", frame.KindString, "run-1", "run-1", "ride-1"),
			frame.MustSeries("lap", frame.KindInt, ints(0, 1, 0)...),
		),
	})
}

func TestTransform_EndToEnd(t *testing.T) {
	res, err := NewTransformer(testTransform(), testLog).Transform(context.Background(), interimTables())
	require.NoError(t, err)

	assert.Equal(t, []string{
		TableDays, TableMonitoring, TableMonths, TableRunning, "garmin_running_laps", TableWeeks,
	}, res.Tables.Keys())

	// The 3rd has no sleep, the 4th too little monitoring and the 6th no summary.
	assert.Equal(t, []time.Time{ts("2023-01-03"), ts("2023-01-04"), ts("2023-01-06")}, res.DaysDropped)

	days := res.Tables[TableDays]
	assert.Equal(t, []string{
		"day", "resting_hr", "steps", ColRunningActivities, ColRunningCalories, ColRunningDistance,
		ColStartSleep, ColStartSleepTime, ColEndSleepTime, "total_sleep", "hr_avg",
	}, days.Names())
	assert.Equal(t, []any{ts("2023-01-02"), ts("2023-01-05")}, column(days, "day"))
	assert.Equal(t, ints(1, 0), column(days, ColRunningActivities))
	assert.Equal(t, []any{350.0, 0.0}, column(days, ColRunningCalories))
	assert.Equal(t, []any{-30 * time.Minute, 15 * time.Minute}, column(days, ColStartSleepTime))
	assert.Equal(t, []any{7*time.Hour + 30*time.Minute, 7 * time.Hour}, column(days, "total_sleep"))

	weeks := res.Tables[TableWeeks]
	assert.Equal(t, []any{ts("2023-01-08")}, column(weeks, "day"))
	assert.Equal(t, ints(2), column(weeks, ColDaysResampled))
	assert.Equal(t, []any{51.5}, column(weeks, "resting_hr"))
	assert.Equal(t, ints(1), column(weeks, ColRunningActivities))
	assert.Equal(t, []any{-7*time.Minute - 30*time.Second}, column(weeks, ColStartSleepTime))

	months := res.Tables[TableMonths]
	assert.Equal(t, []any{ts("2023-01-31")}, column(months, "day"))
	assert.Equal(t, ints(2), column(months, ColDaysResampled))

	mon := res.Tables[TableMonitoring]
	assert.Equal(t, 4*1440, mon.Len())
	assert.True(t, mon.Has("respiration_rate"))
	assert.Equal(t, int64(0), res.Injected["heart_rate"])
	ids := column(mon, "activity_id")
	assert.Equal(t, "run-1", ids[7*60])
	assert.Nil(t, ids[8*60])

	assert.Equal(t, 2, res.Tables["garmin_running_laps"].Len())
}

func TestTransform_MissingOutputColumnFails(t *testing.T) {
	cfg := testTransform()
	cfg.Output.Days = append(cfg.Output.Days, "vo2max")

	_, err := NewTransformer(cfg, testLog).Transform(context.Background(), interimTables())
	require.ErrorIs(t, err, frame.ErrColumnNotFound)
}

func TestTransform_WithoutActivities(t *testing.T) {
	tables := interimTables()
	delete(tables, "garmin_activities_activities")

	res, err := NewTransformer(testTransform(), testLog).Transform(context.Background(), tables)
	require.NoError(t, err)
	assert.NotContains(t, res.Tables.Keys(), TableRunning)
	assert.Equal(t, ints(0, 0), column(res.Tables[TableDays], ColRunningActivities))
}
