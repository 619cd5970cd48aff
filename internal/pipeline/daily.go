package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/emiliopalmerini/garminetl/internal/config"
	"github.com/emiliopalmerini/garminetl/internal/frame"
)

// Sleep columns derived from the shifted sleep window.
const (
	ColStartSleep     = "start_sleep"
	ColEndSleep       = "end_sleep"
	ColStartSleepTime = "start_sleep_time"
	ColEndSleepTime   = "end_sleep_time"
)

const halfDay = 12 * time.Hour

// mergeDaily joins the day keyed sources onto one row per calendar day. Columns the
// sources share are compared pairwise: an equal pair collapses to one column under its
// plain name, a differing pair keeps both suffixed names and is returned as a conflict.
// A later source holding the same column keeps it as <name>_<table>.
func mergeDaily(t Tables, cfg config.Daily) (*frame.Frame, []string, error) {
	var (
		sources     []*frame.Frame
		first, last time.Time
		found       bool
	)
	for _, src := range cfg.Sources {
		f, err := t.Get(src.Table)
		if err != nil {
			return nil, nil, err
		}
		f = f.DropIfPresent(src.Drop...)
		key, err := f.Column(cfg.Key)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", src.Table, err)
		}
		if key.Kind() != frame.KindTime {
			return nil, nil, fmt.Errorf("%s.%s is %s, want time", src.Table, cfg.Key, key.Kind())
		}
		if lo, ok := key.MinTime(); ok {
			hi, _ := key.MaxTime()
			if !found || lo.Before(first) {
				first = lo
			}
			if !found || hi.After(last) {
				last = hi
			}
			found = true
		}
		sources = append(sources, firstPerKey(f, cfg.Key))
	}
	if !found {
		return nil, nil, fmt.Errorf("daily sources have no days")
	}

	sfx := frame.Suffixes{Left: cfg.Suffixes[0], Right: cfg.Suffixes[1]}
	days := frame.Must(TableDays, frame.DayGrid(cfg.Key, first, last))
	for i, src := range sources {
		src = separateConflicting(days, src, cfg.Key, sfx, cfg.Sources[i].Table)
		var err error
		days, err = days.LeftJoin(src, cfg.Key, sfx)
		if err != nil {
			return nil, nil, err
		}
		days, err = collapseDuplicates(days, sfx)
		if err != nil {
			return nil, nil, err
		}
	}

	var conflicts []string
	for _, name := range days.Names() {
		if base, ok := strings.CutSuffix(name, sfx.Left); ok && days.Has(base+sfx.Right) {
			conflicts = append(conflicts, base)
		}
	}
	return days, conflicts, nil
}

// separateConflicting renames the columns of src that are already split into a
// disagreeing suffixed pair to <name>_<table>, so the plain name is never taken by a
// single later source.
func separateConflicting(days, src *frame.Frame, key string, sfx frame.Suffixes, table string) *frame.Frame {
	rename := map[string]string{}
	for _, name := range src.Names() {
		if name == key || days.Has(name) {
			continue
		}
		if days.Has(name+sfx.Left) && days.Has(name+sfx.Right) {
			rename[name] = name + "_" + table
		}
	}
	if len(rename) == 0 {
		return src
	}
	return src.Rename(rename)
}

// collapseDuplicates finds the column pairs a join suffixed and, where both sides hold
// the same values, keeps a single column under the plain name.
func collapseDuplicates(f *frame.Frame, sfx frame.Suffixes) (*frame.Frame, error) {
	drop := []string{}
	rename := map[string]string{}
	for _, name := range f.Names() {
		base, ok := strings.CutSuffix(name, sfx.Left)
		if !ok || f.Has(base) {
			continue
		}
		left, _ := f.Column(name)
		right, err := f.Column(base + sfx.Right)
		if err != nil {
			continue
		}
		if left.Equal(right) {
			drop = append(drop, right.Name())
			rename[name] = base
		}
	}
	if len(drop) == 0 {
		return f, nil
	}
	out, err := f.Drop(drop...)
	if err != nil {
		return nil, err
	}
	return out.Rename(rename), nil
}

// shiftNight moves the sleep columns up one row so a night belongs to the day it
// started on.
func shiftNight(days *frame.Frame, cols []string) (*frame.Frame, error) {
	shifted := make([]*frame.Series, 0, len(cols))
	for _, name := range cols {
		s, err := days.Column(name)
		if err != nil {
			return nil, err
		}
		shifted = append(shifted, s.Shift(-1))
	}
	return days.With(shifted...)
}

// addSleepTimes derives the bedtime and wake time of day from the shifted sleep
// window and renames the window columns to start_sleep and end_sleep. Times from noon
// become negative offsets from the next midnight, so 23:00 is -1h.
func addSleepTimes(days *frame.Frame, cfg config.Daily) (*frame.Frame, error) {
	start, err := days.Column(cfg.SleepStart)
	if err != nil {
		return nil, err
	}
	end, err := days.Column(cfg.SleepEnd)
	if err != nil {
		return nil, err
	}
	startTime, err := timeOfDay(start, ColStartSleepTime)
	if err != nil {
		return nil, err
	}
	endTime, err := timeOfDay(end, ColEndSleepTime)
	if err != nil {
		return nil, err
	}
	out, err := days.With(startTime, endTime)
	if err != nil {
		return nil, err
	}
	return out.Rename(map[string]string{
		cfg.SleepStart: ColStartSleep,
		cfg.SleepEnd:   ColEndSleep,
	}), nil
}

func timeOfDay(s *frame.Series, name string) (*frame.Series, error) {
	if s.Kind() != frame.KindTime {
		return nil, fmt.Errorf("column %q is %s, want time", s.Name(), s.Kind())
	}
	out := make([]any, s.Len())
	for i := range out {
		t, ok := s.Time(i)
		if !ok {
			continue
		}
		out[i] = sleepOffset(t.Sub(frame.TruncateDay(t)).Truncate(time.Second))
	}
	return frame.MustSeries(name, frame.KindDuration, out...), nil
}

// sleepOffset maps a time of day to [-12h, 12h).
func sleepOffset(d time.Duration) time.Duration {
	if d >= halfDay {
		return d - 24*time.Hour
	}
	return d
}
