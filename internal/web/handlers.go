package web

import (
	"errors"
	"math"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/emiliopalmerini/garminetl/internal/frame"
	"github.com/emiliopalmerini/garminetl/internal/goals"
	"github.com/emiliopalmerini/garminetl/internal/pipeline"
	"github.com/emiliopalmerini/garminetl/internal/util"
	"github.com/emiliopalmerini/garminetl/internal/web/templates"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ds, err := s.loadDataset(ctx)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	page := templates.HomePage{
		Days:   ds.days.Len(),
		Weeks:  ds.weeks.Len(),
		Months: ds.months.Len(),
	}
	if keys, err := ds.days.Column(s.opts.Key); err == nil {
		if first, ok := keys.MinTime(); ok {
			page.FirstDay = util.FormatDateHuman(first)
		}
		if last, ok := keys.MaxTime(); ok {
			page.LastDay = util.FormatDateHuman(last)
		}
	}
	if ds.manifest != nil {
		page.RunID = ds.manifest.RunID
		page.LastRun = ds.manifest.FinishedAt.Local().Format("2006-01-02 15:04")
	}
	if n := ds.days.Len(); n > 0 {
		latest := ds.days.Take([]int{n - 1})
		for _, m := range s.opts.Metrics {
			vals, valid := metricValues(latest, m)
			if valid[0] {
				page.Latest = append(page.Latest, templates.StatCard{Label: m.Label, Value: formatValue(m, vals[0])})
			}
		}
	}
	_ = templates.Home(page).Render(ctx, w)
}

func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	start, err := parseWeekStart(q, s.now())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	coef, err := parseCoef(q, s.opts.Coefficient)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	ds, err := s.loadDataset(ctx)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	weeks, err := goals.Eligible(ds.weeks, pipeline.ColDaysResampled, s.opts.MinWeekDays)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	years := goals.Years(weeks, s.opts.Key)
	year, err := parseYear(q, years, s.opts.ReferenceYear)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	targets, err := s.goalsFor(weeks, year, coef)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	end := start.AddDate(0, 0, 6)
	week, err := daysBetween(ds.days, s.opts.Key, start, end)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	page := templates.WeeklyPage{
		Start:         util.FormatDateISO(start),
		End:           util.FormatDateISO(end),
		Prev:          util.FormatDateISO(start.AddDate(0, 0, -7)),
		Next:          util.FormatDateISO(start.AddDate(0, 0, 7)),
		ReferenceYear: year,
		Years:         years,
		Coefficient:   coef,
		Days:          week.Len(),
	}
	page.Groups = groupCards(s.opts.Metrics, func(m goals.Metric) (templates.GoalCard, bool) {
		if !ds.days.Has(m.Column) {
			return templates.GoalCard{}, false
		}
		sum := slices.Contains(s.opts.SumColumns, m.Column)
		vals, valid := metricValues(week, m)
		labels := dayLabels(start)
		points := make([]templates.Point, len(labels))
		for i := range points {
			points[i].Label = labels[i]
		}
		keys, _ := week.Column(s.opts.Key)
		for i := 0; i < week.Len(); i++ {
			t, ok := keys.Time(i)
			if !ok {
				continue
			}
			idx := int(t.Sub(start) / (24 * time.Hour))
			points[idx].Value, points[idx].Valid = vals[i], valid[i]
		}
		current, ok := summarize(vals, valid, sum)
		card := newCard(m, current, ok, targets[m.Column])
		card.Chart.Points = points
		// A weekly total has no daily reference line.
		if sum {
			card.Chart.HasGoal, card.Chart.HasMean = false, false
		}
		return card, true
	})
	_ = templates.Weekly(page).Render(ctx, w)
}

func (s *Server) handleYearly(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	coef, err := parseCoef(q, s.opts.Coefficient)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	ds, err := s.loadDataset(ctx)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	months, err := goals.Eligible(ds.months, pipeline.ColDaysResampled, s.opts.MinMonthDays)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	years := goals.Years(months, s.opts.Key)
	year, err := parseYear(q, years, s.opts.ReferenceYear)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	targets, err := s.goalsFor(months, year, coef)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	current := year
	if len(years) > 0 {
		current = years[len(years)-1]
	}
	thisYear, err := bucketsIn(months, s.opts.Key, current)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	page := templates.YearlyPage{
		ReferenceYear: year,
		CurrentYear:   current,
		Years:         years,
		Coefficient:   coef,
	}
	page.Groups = groupCards(s.opts.Metrics, func(m goals.Metric) (templates.GoalCard, bool) {
		if !months.Has(m.Column) {
			return templates.GoalCard{}, false
		}
		mean, ok := goals.YearMean(months, s.opts.Key, current, m)
		card := newCard(m, mean, ok, targets[m.Column])
		card.Chart.Points = monthPoints(thisYear, s.opts.Key, m)
		return card, true
	})
	_ = templates.Yearly(page).Render(ctx, w)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ds, err := s.loadDataset(ctx)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	months, err := goals.Eligible(ds.months, pipeline.ColDaysResampled, s.opts.MinMonthDays)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	var page templates.TrendsPage
	for _, m := range s.opts.Metrics {
		if !months.Has(m.Column) {
			continue
		}
		page.Charts = append(page.Charts, templates.Chart{
			Title:         m.Label,
			Kind:          templates.Line,
			Unit:          chartUnit(m),
			Points:        monthPoints(months, s.opts.Key, m),
			LowerIsBetter: m.Direction == goals.LowerIsBetter,
		})
	}
	_ = templates.Trends(page).Render(ctx, w)
}

// goalsFor indexes the goals of buckets by column. No eligible bucket means no goals.
func (s *Server) goalsFor(buckets *frame.Frame, year int, coef float64) (map[string]goals.Goal, error) {
	gs, err := goals.Compute(buckets, s.opts.Key, year, coef, s.opts.Metrics)
	if errors.Is(err, goals.ErrNoData) {
		return map[string]goals.Goal{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make(map[string]goals.Goal, len(gs))
	for _, g := range gs {
		out[g.Metric.Column] = g
	}
	return out, nil
}

func newCard(m goals.Metric, current float64, ok bool, g goals.Goal) templates.GoalCard {
	card := templates.GoalCard{
		Label:   m.Label,
		Current: "n/a",
		Chart: templates.Chart{
			Title:         m.Label,
			Kind:          templates.Bars,
			Unit:          chartUnit(m),
			LowerIsBetter: m.Direction == goals.LowerIsBetter,
		},
	}
	if ok {
		card.Current = formatValue(m, current)
	}
	if g.Valid() {
		card.HasGoal = true
		card.Goal = formatValue(m, g.Goal)
		card.Mean = formatValue(m, g.Mean)
		card.Chart.Goal, card.Chart.HasGoal = g.Goal, true
		card.Chart.Mean, card.Chart.HasMean = g.Mean, !math.IsNaN(g.Mean)
		if ok {
			card.Met = m.Met(current, g.Goal)
			card.Delta = formatDelta(m, current, g.Goal)
		}
	}
	return card
}

// groupCards builds cards in metric order, grouped by section in first-seen order.
func groupCards(metrics []goals.Metric, build func(goals.Metric) (templates.GoalCard, bool)) []templates.GoalGroup {
	var groups []templates.GoalGroup
	index := map[string]int{}
	for _, m := range metrics {
		card, ok := build(m)
		if !ok {
			continue
		}
		i, seen := index[m.Group]
		if !seen {
			i = len(groups)
			index[m.Group] = i
			groups = append(groups, templates.GoalGroup{Name: m.Group})
		}
		groups[i].Cards = append(groups[i].Cards, card)
	}
	return groups
}

// daysBetween keeps the rows whose key falls in [from, to].
func daysBetween(days *frame.Frame, key string, from, to time.Time) (*frame.Frame, error) {
	keys, err := days.Column(key)
	if err != nil {
		return nil, err
	}
	return days.Filter(func(i int) bool {
		t, ok := keys.Time(i)
		return ok && !t.Before(from) && !t.After(to)
	}), nil
}

func bucketsIn(buckets *frame.Frame, key string, year int) (*frame.Frame, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return daysBetween(buckets, key, from, from.AddDate(1, 0, -1))
}

func dayLabels(start time.Time) []string {
	out := make([]string, 7)
	for i := range out {
		out[i] = start.AddDate(0, 0, i).Format("Mon 2")
	}
	return out
}

func monthPoints(buckets *frame.Frame, key string, m goals.Metric) []templates.Point {
	keys, err := buckets.Column(key)
	if err != nil {
		return nil
	}
	vals, valid := metricValues(buckets, m)
	points := make([]templates.Point, buckets.Len())
	for i := range points {
		if t, ok := keys.Time(i); ok {
			points[i].Label = t.Format("Jan") + " " + strconv.Itoa(t.Year()%100)
		}
		points[i].Value, points[i].Valid = vals[i], valid[i]
	}
	return points
}
