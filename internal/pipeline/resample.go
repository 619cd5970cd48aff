package pipeline

import (
	"fmt"
	"time"

	"github.com/emiliopalmerini/garminetl/internal/frame"
)

// ColDaysResampled counts the daily rows behind a bucket.
const ColDaysResampled = "days_resampled"

// Period is a resampling bucket size.
type Period int

const (
	// Weekly buckets end on Sunday.
	Weekly Period = iota
	// Monthly buckets are calendar months labelled with their last day.
	Monthly
)

func (p Period) String() string {
	if p == Monthly {
		return "monthly"
	}
	return "weekly"
}

// BucketEnd returns the label of the bucket holding day.
func (p Period) BucketEnd(day time.Time) time.Time {
	day = frame.TruncateDay(day)
	if p == Monthly {
		y, m, _ := day.Date()
		return time.Date(y, m+1, 0, 0, 0, 0, 0, day.Location())
	}
	return day.AddDate(0, 0, int(7-day.Weekday())%7)
}

func (p Period) next(label time.Time) time.Time {
	if p == Monthly {
		return p.BucketEnd(label.AddDate(0, 0, 1))
	}
	return label.AddDate(0, 0, 7)
}

// resample aggregates day rows into buckets. Columns in sum are summed, every other
// numeric, time or duration column is averaged over its non-null values; bool and
// string columns are dropped. Every bucket between the first and last day is emitted.
func resample(days *frame.Frame, key string, p Period, sum []string, name string) (*frame.Frame, error) {
	k, err := days.Column(key)
	if err != nil {
		return nil, err
	}
	if k.Kind() != frame.KindTime {
		return nil, fmt.Errorf("%s.%s is %s, want time", days.Name(), key, k.Kind())
	}

	var labels []time.Time
	if first, ok := k.MinTime(); ok {
		last, _ := k.MaxTime()
		end := p.BucketEnd(last)
		for l := p.BucketEnd(first); !l.After(end); l = p.next(l) {
			labels = append(labels, l)
		}
	}
	index := make(map[int64]int, len(labels))
	for i, l := range labels {
		index[l.UnixNano()] = i
	}
	bucket := make([]int, days.Len())
	counts := make([]any, len(labels))
	for i := range counts {
		counts[i] = int64(0)
	}
	for i := range bucket {
		bucket[i] = -1
		if t, ok := k.Time(i); ok {
			b := index[p.BucketEnd(t).UnixNano()]
			bucket[i] = b
			counts[b] = counts[b].(int64) + 1
		}
	}

	summed := make(map[string]bool, len(sum))
	for _, c := range sum {
		summed[c] = true
	}

	cols := []*frame.Series{frame.Times(key, labels)}
	for _, s := range days.Series() {
		if s.Name() == key {
			continue
		}
		agg, ok := aggregate(s, bucket, len(labels), summed[s.Name()])
		if ok {
			cols = append(cols, agg)
		}
	}
	cols = append(cols, frame.MustSeries(ColDaysResampled, frame.KindInt, counts...))
	return frame.New(name, cols...)
}

func aggregate(s *frame.Series, bucket []int, n int, sum bool) (*frame.Series, bool) {
	switch s.Kind() {
	case frame.KindInt, frame.KindFloat:
		totals := make([]float64, n)
		seen := make([]int, n)
		for i, b := range bucket {
			if v, ok := s.Float(i); ok && b >= 0 {
				totals[b] += v
				seen[b]++
			}
		}
		out := make([]any, n)
		for b := range out {
			switch {
			case sum && s.Kind() == frame.KindInt:
				out[b] = int64(totals[b])
			case sum:
				out[b] = totals[b]
			case seen[b] > 0:
				out[b] = totals[b] / float64(seen[b])
			}
		}
		kind := frame.KindFloat
		if sum {
			kind = s.Kind()
		}
		return frame.MustSeries(s.Name(), kind, out...), true

	case frame.KindDuration:
		totals := make([]time.Duration, n)
		seen := make([]int, n)
		for i, b := range bucket {
			if v, ok := s.Duration(i); ok && b >= 0 {
				totals[b] += v
				seen[b]++
			}
		}
		out := make([]any, n)
		for b := range out {
			switch {
			case sum:
				out[b] = totals[b]
			case seen[b] > 0:
				out[b] = totals[b] / time.Duration(seen[b])
			}
		}
		return frame.MustSeries(s.Name(), frame.KindDuration, out...), true

	case frame.KindTime:
		base := make([]time.Time, n)
		offsets := make([]time.Duration, n)
		seen := make([]int, n)
		for i, b := range bucket {
			v, ok := s.Time(i)
			if !ok || b < 0 {
				continue
			}
			if seen[b] == 0 {
				base[b] = v
			}
			offsets[b] += v.Sub(base[b])
			seen[b]++
		}
		out := make([]any, n)
		for b := range out {
			if seen[b] > 0 {
				out[b] = base[b].Add(offsets[b] / time.Duration(seen[b]))
			}
		}
		return frame.MustSeries(s.Name(), frame.KindTime, out...), true
	}
	return nil, false
}
