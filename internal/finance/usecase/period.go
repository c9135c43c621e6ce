package usecase

import (
	"time"

	"github.com/shandysiswandi/fintrack/internal/finance/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
)

// window is a half-open [From, To) range of days. Zero bounds are open.
type window struct {
	From time.Time
	To   time.Time
}

// startOfWeek returns the Monday on or before day, matching date_trunc('week').
func startOfWeek(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func startOfMonth(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// periodWindow resolves a named period against today. For PeriodCustom the
// from and to days are both inclusive.
func periodWindow(p entity.Period, today, from, to time.Time) (window, error) {
	switch p {
	case entity.PeriodToday:
		return window{From: today, To: today.AddDate(0, 0, 1)}, nil
	case entity.PeriodWeek:
		start := startOfWeek(today)
		return window{From: start, To: start.AddDate(0, 0, 7)}, nil
	case entity.PeriodMonth:
		start := startOfMonth(today)
		return window{From: start, To: start.AddDate(0, 1, 0)}, nil
	case entity.PeriodYear:
		start := time.Date(today.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return window{From: start, To: start.AddDate(1, 0, 0)}, nil
	case entity.PeriodCustom:
		return dayRange(from, to)
	default:
		return window{}, nil
	}
}

// dayRange turns inclusive from/to days into a window.
func dayRange(from, to time.Time) (window, error) {
	var w window
	if !from.IsZero() {
		w.From = truncateDay(from)
	}
	if !to.IsZero() {
		w.To = truncateDay(to).AddDate(0, 0, 1)
	}
	if !w.From.IsZero() && !w.To.IsZero() && !w.From.Before(w.To) {
		return window{}, goerror.NewInvalidInput(nil, "date_from", "date_from must be before date_to")
	}
	return w, nil
}

// monthYearWindow covers a whole month, or a whole year when month is zero.
func monthYearWindow(year, month int32) (window, error) {
	if year < 1970 || year > 9999 {
		return window{}, goerror.NewInvalidInput(nil, "year", "year is out of range")
	}
	if month < 0 || month > 12 {
		return window{}, goerror.NewInvalidInput(nil, "month", "month must be between 1 and 12")
	}

	if month == 0 {
		start := time.Date(int(year), 1, 1, 0, 0, 0, 0, time.UTC)
		return window{From: start, To: start.AddDate(1, 0, 0)}, nil
	}

	start := time.Date(int(year), time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return window{From: start, To: start.AddDate(0, 1, 0)}, nil
}

func bucketStart(g entity.Granularity, day time.Time) time.Time {
	switch g {
	case entity.GranularityDay:
		return truncateDay(day)
	case entity.GranularityWeek:
		return startOfWeek(truncateDay(day))
	default:
		return startOfMonth(day)
	}
}

func nextBucket(g entity.Granularity, start time.Time) time.Time {
	switch g {
	case entity.GranularityDay:
		return start.AddDate(0, 0, 1)
	case entity.GranularityWeek:
		return start.AddDate(0, 0, 7)
	default:
		return start.AddDate(0, 1, 0)
	}
}

// bucketWindow spans n buckets ending with the one holding today.
func bucketWindow(g entity.Granularity, today time.Time, n int32) window {
	last := bucketStart(g, today)
	from := last
	for i := int32(1); i < n; i++ {
		switch g {
		case entity.GranularityDay:
			from = from.AddDate(0, 0, -1)
		case entity.GranularityWeek:
			from = from.AddDate(0, 0, -7)
		default:
			from = from.AddDate(0, -1, 0)
		}
	}
	return window{From: from, To: nextBucket(g, last)}
}
