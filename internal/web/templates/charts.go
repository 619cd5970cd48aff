package templates

import (
	"context"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

const (
	chartWidth  = 360.0
	chartHeight = 150.0
	padLeft     = 40.0
	padRight    = 6.0
	padTop      = 8.0
	padBottom   = 20.0
)

type scale struct {
	lo, hi float64
	n      int
}

func newScale(c Chart) scale {
	lo, hi := 0.0, math.Inf(-1)
	for _, p := range c.Points {
		if !p.Valid {
			continue
		}
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
	}
	for _, ref := range []struct {
		on bool
		v  float64
	}{{c.HasMean, c.Mean}, {c.HasGoal, c.Goal}} {
		if ref.on && !math.IsNaN(ref.v) {
			lo = math.Min(lo, ref.v)
			hi = math.Max(hi, ref.v)
		}
	}
	if math.IsInf(hi, -1) || hi <= lo {
		hi = lo + 1
	}
	return scale{lo: lo, hi: hi, n: len(c.Points)}
}

func (s scale) y(v float64) float64 {
	plot := chartHeight - padTop - padBottom
	return padTop + (s.hi-v)/(s.hi-s.lo)*plot
}

func (s scale) slot() float64 {
	if s.n == 0 {
		return 0
	}
	return (chartWidth - padLeft - padRight) / float64(s.n)
}

func (s scale) x(i int) float64 {
	return padLeft + s.slot()*(float64(i)+0.5)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// ChartView renders a chart as inline SVG.
func ChartView(c Chart) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		s := newScale(c)

		w.printf(`<figure class="chart"><figcaption>`)
		w.text(c.Title)
		if c.Unit != "" {
			w.printf(` <span class="unit">(`)
			w.text(c.Unit)
			w.printf(`)</span>`)
		}
		w.printf(`</figcaption><svg viewBox="0 0 %s %s" role="img">`, num(chartWidth), num(chartHeight))

		w.printf(`<text class="tick" x="%s" y="%s">%s</text>`, num(padLeft-4), num(s.y(s.hi)+4), esc(compact(s.hi)))
		w.printf(`<text class="tick" x="%s" y="%s">%s</text>`, num(padLeft-4), num(s.y(s.lo)), esc(compact(s.lo)))
		w.printf(`<line class="axis" x1="%s" y1="%s" x2="%s" y2="%s"/>`, num(padLeft), num(s.y(0)), num(chartWidth-padRight), num(s.y(0)))

		switch c.Kind {
		case Line:
			writeLine(w, c, s)
		default:
			writeBars(w, c, s)
		}

		if c.HasMean && !math.IsNaN(c.Mean) {
			w.printf(`<line class="mean" x1="%s" y1="%s" x2="%s" y2="%s"/>`, num(padLeft), num(s.y(c.Mean)), num(chartWidth-padRight), num(s.y(c.Mean)))
		}
		if c.HasGoal && !math.IsNaN(c.Goal) {
			w.printf(`<line class="goal" x1="%s" y1="%s" x2="%s" y2="%s"/>`, num(padLeft), num(s.y(c.Goal)), num(chartWidth-padRight), num(s.y(c.Goal)))
		}

		if len(c.Points) > 0 {
			w.printf(`<text class="label" x="%s" y="%s">%s</text>`, num(padLeft), num(chartHeight-4), esc(c.Points[0].Label))
			last := c.Points[len(c.Points)-1]
			w.printf(`<text class="label end" x="%s" y="%s">%s</text>`, num(chartWidth-padRight), num(chartHeight-4), esc(last.Label))
		}
		w.printf(`</svg></figure>`)
		return w.err
	})
}

func writeBars(w *writer, c Chart, s scale) {
	width := s.slot() * 0.7
	for i, p := range c.Points {
		if !p.Valid {
			continue
		}
		top, bottom := s.y(math.Max(p.Value, 0)), s.y(math.Min(p.Value, 0))
		class := "bar"
		if c.HasGoal && reached(p.Value, c.Goal, c.LowerIsBetter) {
			class += " met"
		}
		w.printf(`<rect class="%s" x="%s" y="%s" width="%s" height="%s"><title>%s: %s</title></rect>`,
			class, num(s.x(i)-width/2), num(top), num(width), num(math.Max(bottom-top, 0.5)),
			esc(p.Label), esc(compact(p.Value)))
	}
}

func writeLine(w *writer, c Chart, s scale) {
	var seg []string
	flush := func() {
		if len(seg) > 1 {
			w.printf(`<polyline class="line" points="%s"/>`, strings.Join(seg, " "))
		}
		seg = seg[:0]
	}
	for i, p := range c.Points {
		if !p.Valid {
			flush()
			continue
		}
		seg = append(seg, num(s.x(i))+","+num(s.y(p.Value)))
		w.printf(`<circle class="dot" cx="%s" cy="%s" r="2"><title>%s: %s</title></circle>`,
			num(s.x(i)), num(s.y(p.Value)), esc(p.Label), esc(compact(p.Value)))
	}
	flush()
}

func reached(v, goal float64, lowerIsBetter bool) bool {
	if lowerIsBetter {
		return v <= goal
	}
	return v >= goal
}

// compact formats a value with at most one decimal.
func compact(v float64) string {
	if math.Abs(v) >= 1000 || v == math.Trunc(v) {
		return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
