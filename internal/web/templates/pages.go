package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

func Home(p HomePage) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.printf(`<section class="cards">`)
		for _, c := range []StatCard{
			{"Days", strconv.Itoa(p.Days)},
			{"Weeks", strconv.Itoa(p.Weeks)},
			{"Months", strconv.Itoa(p.Months)},
			{"First day", p.FirstDay},
			{"Last day", p.LastDay},
		} {
			statCard(w, c)
		}
		w.printf(`</section>`)
		if len(p.Latest) > 0 {
			w.printf(`<h2>Latest day</h2><section class="cards">`)
			for _, c := range p.Latest {
				statCard(w, c)
			}
			w.printf(`</section>`)
		}
		if p.RunID != "" {
			w.printf(`<p class="muted">Processed by run <code>%s</code> at %s.</p>`, esc(p.RunID), esc(p.LastRun))
		}
		return w.err
	})
	return Layout("Health data", "/", body)
}

func statCard(w *writer, c StatCard) {
	w.printf(`<div class="card"><span class="label">%s</span><span class="value">%s</span></div>`, esc(c.Label), esc(c.Value))
}

func Weekly(p WeeklyPage) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.printf(`<form class="controls" method="get" action="/weekly">`)
		w.printf(`<label>Week starting Monday <input type="date" name="start" value="%s"></label>`, esc(p.Start))
		yearSelect(w, p.Years, p.ReferenceYear)
		coefSlider(w, p.Coefficient)
		w.printf(`<button type="submit">Show</button></form>`)
		w.printf(`<p class="pager"><a href="%s">&larr; previous week</a> %s to %s <a href="%s">next week &rarr;</a></p>`,
			esc(string(weeklyURL(p.Prev, p.ReferenceYear, p.Coefficient))), esc(p.Start), esc(p.End),
			esc(string(weeklyURL(p.Next, p.ReferenceYear, p.Coefficient))))
		if p.Days == 0 {
			w.printf(`<p class="muted">No data for this week.</p>`)
		}
		if w.err != nil {
			return w.err
		}
		return goalGroups(ctx, out, p.Groups)
	})
	return Layout("Weekly summary", "/weekly", body)
}

func Yearly(p YearlyPage) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.printf(`<form class="controls" method="get" action="/yearly">`)
		yearSelect(w, p.Years, p.ReferenceYear)
		coefSlider(w, p.Coefficient)
		w.printf(`<button type="submit">Update</button></form>`)
		w.printf(`<p class="muted">Goal = mean of %d + multiplier &times; standard deviation. Values shown for %d.</p>`, p.ReferenceYear, p.CurrentYear)
		if w.err != nil {
			return w.err
		}
		return goalGroups(ctx, out, p.Groups)
	})
	return Layout("Past performance and goals", "/yearly", body)
}

func Trends(p TrendsPage) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		if _, err := io.WriteString(out, `<section class="charts">`); err != nil {
			return err
		}
		for _, c := range p.Charts {
			if err := ChartView(c).Render(ctx, out); err != nil {
				return err
			}
		}
		_, err := io.WriteString(out, `</section>`)
		return err
	})
	return Layout("Long term evolution", "/trends", body)
}

func Error(p ErrorPage) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.printf(`<p class="error">%s</p>`, esc(p.Message))
		return w.err
	})
	return Layout(p.Title, "", body)
}

func goalGroups(ctx context.Context, out io.Writer, groups []GoalGroup) error {
	for _, g := range groups {
		w := &writer{w: out}
		w.printf(`<h2>%s</h2><section class="goals">`, esc(g.Name))
		for _, c := range g.Cards {
			class := "goal-card"
			if c.HasGoal && c.Met {
				class += " met"
			}
			w.printf(`<article class="%s"><header><span class="label">%s</span><span class="value">%s</span>`, class, esc(c.Label), esc(c.Current))
			if c.HasGoal {
				w.printf(`<span class="delta">%s vs goal %s, mean %s</span>`, esc(c.Delta), esc(c.Goal), esc(c.Mean))
			}
			w.printf(`</header>`)
			if w.err != nil {
				return w.err
			}
			if err := ChartView(c.Chart).Render(ctx, out); err != nil {
				return err
			}
			w.printf(`</article>`)
		}
		w.printf(`</section>`)
		if w.err != nil {
			return w.err
		}
	}
	return nil
}

func yearSelect(w *writer, years []int, selected int) {
	w.printf(`<label>Reference year <select name="year">`)
	for _, y := range years {
		sel := ""
		if y == selected {
			sel = " selected"
		}
		w.printf(`<option value="%d"%s>%d</option>`, y, sel, y)
	}
	w.printf(`</select></label>`)
}

func coefSlider(w *writer, coef float64) {
	w.printf(`<label>Goal multiplier <input type="range" name="coef" min="-2" max="2" step="0.1" value="%s"> <output>%s</output></label>`,
		formatCoef(coef), formatCoef(coef))
}
