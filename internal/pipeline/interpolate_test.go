package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/garminetl/internal/frame"
)

func TestInterpolateSeries(t *testing.T) {
	tests := []struct {
		name         string
		in           []any
		wantValues   []any
		wantInjected []any
	}{
		{
			name:         "run of one",
			in:           []any{10.0, nil, 20.0},
			wantValues:   []any{10.0, 15.0, 20.0},
			wantInjected: []any{false, true, false},
		},
		{
			name:         "run of four is filled",
			in:           []any{0.0, nil, nil, nil, nil, 50.0},
			wantValues:   []any{0.0, 10.0, 20.0, 30.0, 40.0, 50.0},
			wantInjected: []any{false, true, true, true, true, false},
		},
		{
			name:         "run of five stays null",
			in:           []any{0.0, nil, nil, nil, nil, nil, 60.0},
			wantValues:   []any{0.0, nil, nil, nil, nil, nil, 60.0},
			wantInjected: []any{false, false, false, false, false, false, false},
		},
		{
			name:         "edges are not extrapolated",
			in:           []any{nil, 5.0, 6.0, nil},
			wantValues:   []any{nil, 5.0, 6.0, nil},
			wantInjected: []any{false, false, false, false},
		},
		{
			name:         "all null",
			in:           []any{nil, nil},
			wantValues:   []any{nil, nil},
			wantInjected: []any{false, false},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := frame.MustSeries("heart_rate", frame.KindFloat, tt.in...)
			filled, injected, count, err := interpolateSeries(s, 4, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValues, filled.Values())
			assert.Equal(t, tt.wantInjected, injected.Values())
			assert.Equal(t, "heart_rate_injected", injected.Name())

			var want int64
			for _, v := range tt.wantInjected {
				if v.(bool) {
					want++
				}
			}
			assert.Equal(t, want, count)
		})
	}
}

func TestInterpolateSeries_Sentinels(t *testing.T) {
	negative := func(v float64) bool { return v < 0 }
	s := frame.MustSeries("stress", frame.KindInt,
		int64(20), nil, int64(30), int64(-1), int64(-2), nil, int64(40), nil, int64(50))

	filled, injected, count, err := interpolateSeries(s, 4, negative)
	require.NoError(t, err)

	assert.Equal(t, []any{20.0, 25.0, 30.0, nil, nil, nil, 40.0, 45.0, 50.0}, filled.Values())
	assert.Equal(t, []any{false, true, false, false, false, false, false, true, false}, injected.Values())
	assert.Equal(t, int64(2), count)
}

func TestInterpolateSeries_RejectsStrings(t *testing.T) {
	_, _, _, err := interpolateSeries(frame.MustSeries("x", frame.KindString, "a"), 4, nil)
	require.Error(t, err)
}
