package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestChartView_BarsAndReferenceLines(t *testing.T) {
	out := render(t, ChartView(Chart{
		Title: "Steps <daily>",
		Kind:  Bars,
		Points: []Point{
			{Label: "Mon", Value: 9000, Valid: true},
			{Label: "Tue", Valid: false},
			{Label: "Wed", Value: 11000, Valid: true},
		},
		Goal: 10000, HasGoal: true,
		Mean: 9500, HasMean: true,
	}))

	assert.Contains(t, out, "Steps &lt;daily&gt;")
	assert.Equal(t, 2, strings.Count(out, "<rect "))
	assert.Equal(t, 1, strings.Count(out, `class="bar met"`))
	assert.Contains(t, out, `class="goal"`)
	assert.Contains(t, out, `class="mean"`)
}

func TestChartView_LowerIsBetter(t *testing.T) {
	out := render(t, ChartView(Chart{
		Kind:          Bars,
		Points:        []Point{{Label: "a", Value: 50, Valid: true}, {Label: "b", Value: 60, Valid: true}},
		Goal:          55,
		HasGoal:       true,
		LowerIsBetter: true,
	}))
	assert.Contains(t, out, "<title>a: 50</title></rect>")
	assert.Equal(t, 1, strings.Count(out, `class="bar met"`))
}

func TestChartView_LineBreaksOnGaps(t *testing.T) {
	out := render(t, ChartView(Chart{
		Kind: Line,
		Points: []Point{
			{Label: "Jan", Value: 1, Valid: true},
			{Label: "Feb", Value: 2, Valid: true},
			{Label: "Mar"},
			{Label: "Apr", Value: 3, Valid: true},
			{Label: "May", Value: 4, Valid: true},
		},
	}))
	assert.Equal(t, 2, strings.Count(out, "<polyline"))
	assert.Equal(t, 4, strings.Count(out, "<circle"))
	assert.NotContains(t, out, `class="goal"`)
}

func TestLayout_MarksActivePage(t *testing.T) {
	out := render(t, Trends(TrendsPage{}))
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, `<a href="/trends" class="active">Trends</a>`)
	assert.Contains(t, out, "<h1>Long term evolution</h1>")
}

func TestWeekly_PagerLinks(t *testing.T) {
	out := render(t, Weekly(WeeklyPage{
		Start: "2023-01-02", End: "2023-01-08",
		Prev: "2022-12-26", Next: "2023-01-09",
		ReferenceYear: 2022, Years: []int{2022, 2023},
		Coefficient: 0.5,
	}))
	assert.Contains(t, out, "/weekly?coef=0.5&amp;start=2022-12-26&amp;year=2022")
	assert.Contains(t, out, `<option value="2022" selected>2022</option>`)
	assert.Contains(t, out, `value="0.5"`)
	assert.Contains(t, out, "No data for this week.")
}

func TestError_EscapesMessage(t *testing.T) {
	out := render(t, Error(ErrorPage{Title: "Bad Request", Message: `start "x" <b>`}))
	assert.Contains(t, out, "start &#34;x&#34; &lt;b&gt;")
}
