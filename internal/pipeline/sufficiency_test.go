package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/garminetl/internal/config"
	"github.com/emiliopalmerini/garminetl/internal/frame"
)

func TestInsufficientDays(t *testing.T) {
	// Two days of ten minutes each; the first misses heart rate on six of them.
	times := append(minutes("2023-01-02 00:00:00", 10), minutes("2023-01-03 00:00:00", 10)...)
	hr := make([]any, 20)
	for i := range hr {
		if i >= 6 {
			hr[i] = 60.0
		}
	}
	mon := frame.Must(TableMonitoring,
		frame.Times("timestamp", times),
		frame.MustSeries("stress", frame.KindFloat, repeat(20.0, 20)...),
		frame.MustSeries("heart_rate", frame.KindFloat, hr...),
	)
	cfg := config.Sufficiency{Threshold: 0.5, MinutesPerDay: 10}

	got, err := insufficientDays(mon, "timestamp", []string{"stress", "heart_rate"}, cfg)
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{ts("2023-01-02").UnixNano(): true}, got)

	cfg.Threshold = 0.6
	got, err = insufficientDays(mon, "timestamp", []string{"stress", "heart_rate"}, cfg)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFilterDays(t *testing.T) {
	days := frame.Must(TableDays,
		frame.Times("day", dayRange("2023-01-02", 4)),
		frame.MustSeries("steps", frame.KindInt, ints(100, 200, 300, 400)...),
		frame.MustSeries("start_sleep", frame.KindTime,
			ts("2023-01-02 23:00:00"), nil, ts("2023-01-04 23:00:00"), ts("2023-01-05 23:00:00")),
	)
	insufficient := map[int64]bool{ts("2023-01-05").UnixNano(): true}

	out, removed, err := filterDays(days, "day", insufficient, []string{"steps", "start_sleep"})
	require.NoError(t, err)

	assert.Equal(t, ints(100, 300), column(out, "steps"))
	assert.Equal(t, []time.Time{ts("2023-01-03"), ts("2023-01-05")}, removed)

	_, _, err = filterDays(days, "day", nil, []string{"rhr"})
	require.ErrorIs(t, err, frame.ErrColumnNotFound)
}
