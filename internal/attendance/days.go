package attendance

import (
	"errors"
	"strconv"
	"time"
)

const (
	DefaultDays = 14
	MaxDays     = 90
	dayLayout   = "2006-01-02"
)

var ErrInvalidDays = errors.New("days must be a positive integer")

// ParseDays reads the ?days= value. Empty means DefaultDays; larger values
// are capped at MaxDays.
func ParseDays(raw string) (int, error) {
	if raw == "" {
		return DefaultDays, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, ErrInvalidDays
	}
	if n > MaxDays {
		n = MaxDays
	}
	return n, nil
}

// WindowStart is midnight UTC of the first of the days ending on now.
func WindowStart(now time.Time, days int) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days - 1))
}

// FillDays lays counts out over the window, oldest first, with missing days as zero.
func FillDays(counts map[string]int, days int, now time.Time) []DayCount {
	start := WindowStart(now, days)
	out := make([]DayCount, 0, days)
	for i := 0; i < days; i++ {
		key := start.AddDate(0, 0, i).Format(dayLayout)
		out = append(out, DayCount{Date: key, Count: counts[key]})
	}
	return out
}
