package util

import (
	"fmt"
	"math"
	"time"
)

// FormatNumber formats an int64 with K/M suffix for readability.
// Examples: 500 -> "500", 1500 -> "1.5K", 1500000 -> "1.5M"
func FormatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

// FormatDuration formats a number of seconds as hours and minutes.
// Examples: 59 -> "0m", 3900 -> "1h 05m", 27000 -> "7h 30m"
func FormatDuration(seconds float64) string {
	total := int64(math.Round(seconds)) / 60
	h, m := total/60, total%60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", h, m)
}

// FormatClock formats seconds relative to midnight as a wall clock time.
// Negative values are before midnight: -3600 -> "23:00", 27000 -> "07:30"
func FormatClock(seconds float64) string {
	s := int64(math.Round(seconds))
	s = ((s % 86400) + 86400) % 86400
	return fmt.Sprintf("%02d:%02d", s/3600, (s%3600)/60)
}

// FormatDateISO formats a time as an ISO date (2006-01-02).
func FormatDateISO(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatDateHuman formats a time as a human-readable date (Jan 2, 2006).
func FormatDateHuman(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// MostRecentMonday returns midnight of the Monday on or before t.
func MostRecentMonday(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return time.Date(t.Year(), t.Month(), t.Day()-weekday+1, 0, 0, 0, 0, time.UTC)
}
