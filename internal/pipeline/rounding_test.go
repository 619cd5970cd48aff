package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/emiliopalmerini/garminetl/internal/config"
	"github.com/emiliopalmerini/garminetl/internal/frame"
)

func TestRoundColumns(t *testing.T) {
	f := frame.Must(TableWeeks,
		frame.MustSeries("rhr", frame.KindFloat, 51.66, nil, 50.25),
		frame.MustSeries("steps", frame.KindFloat, 1234.5, 10.4, 11.5),
		frame.MustSeries("hr_max", frame.KindInt, ints(150, 160, 170)...),
		frame.MustSeries("total_sleep", frame.KindDuration, 7*time.Hour+400*time.Millisecond, nil, 1500*time.Millisecond),
		frame.MustSeries("note", frame.KindString, "a", "b", "c"),
	)
	r := config.Rounding{
		OneDecimal: []string{"rhr", "hr_max", "note", "absent"},
		Integer:    []string{"steps"},
		Seconds:    []string{"total_sleep"},
	}

	out := roundColumns(f, r)

	assert.Equal(t, []any{51.7, nil, 50.2}, column(out, "rhr"))
	steps, _ := out.Column("steps")
	assert.Equal(t, frame.KindInt, steps.Kind())
	assert.Equal(t, ints(1234, 10, 12), steps.Values())
	assert.Equal(t, ints(150, 160, 170), column(out, "hr_max"))
	assert.Equal(t, []any{7 * time.Hour, nil, 2 * time.Second}, column(out, "total_sleep"))
	assert.Equal(t, []any{"a", "b", "c"}, column(out, "note"))
}
