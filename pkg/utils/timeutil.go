package utils

import (
	"fmt"
	"strings"
	"time"
)

// NewYork is the US Eastern location used for session boundaries.
var NewYork *time.Location

func init() {
	var err error
	NewYork, err = time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback when the tz database is not available
		NewYork = time.FixedZone("EST", -5*60*60)
	}
}

// dateLayouts are the accepted user-facing date formats, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02-01-2006",
	"2006/01/02",
	time.RFC3339,
}

// ParseDate parses s using the first matching layout and returns UTC midnight of that day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q (use YYYY-MM-DD)", s)
}

// FormatDate formats t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns today's date at midnight UTC.
func Today() time.Time {
	return DateOnly(time.Now().UTC())
}

// DateRange returns from and to as day boundaries, defaulting to the
// lookback window ending today. It rejects inverted ranges.
func DateRange(from, to time.Time, lookbackDays int) (time.Time, time.Time, error) {
	if to.IsZero() {
		to = Today()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -lookbackDays)
	}
	from, to = DateOnly(from), DateOnly(to)
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date %s is after end date %s", FormatDate(from), FormatDate(to))
	}
	return from, to, nil
}

// IsTradingDay checks if the given date is a US trading day (not weekend, not holiday).
func IsTradingDay(t time.Time) bool {
	t = DateOnly(t)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !IsTradingHoliday(t)
}

// NextTradingDay returns the next trading day strictly after the given date.
func NextTradingDay(from time.Time) time.Time {
	next := DateOnly(from).AddDate(0, 0, 1)
	for !IsTradingDay(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// SessionDate maps a publication time to the trading session it can first
// affect: same day when published on a trading day, otherwise the next one.
func SessionDate(published time.Time) time.Time {
	d := DateOnly(published.In(NewYork))
	if IsTradingDay(d) {
		return d
	}
	return NextTradingDay(d)
}

// TradingDaysBetween returns the number of trading days in [start, end).
func TradingDaysBetween(start, end time.Time) int {
	count := 0
	for cur := DateOnly(start); cur.Before(DateOnly(end)); cur = cur.AddDate(0, 0, 1) {
		if IsTradingDay(cur) {
			count++
		}
	}
	return count
}

// IsTradingHoliday checks if the given date is an NYSE full-day holiday.
func IsTradingHoliday(t time.Time) bool {
	_, ok := HolidayName(t)
	return ok
}

// HolidayName returns the NYSE holiday that closes the market on t.
func HolidayName(t time.Time) (string, bool) {
	t = DateOnly(t)
	if name, ok := specialClosures[FormatDate(t)]; ok {
		return name, true
	}
	for _, h := range nyseHolidays(t.Year()) {
		if h.date.Equal(t) {
			return h.name, true
		}
	}
	return "", false
}

// specialClosures are one-off market closures outside the regular calendar.
var specialClosures = map[string]string{
	"2025-01-09": "National Day of Mourning",
}

type holiday struct {
	date time.Time
	name string
}

// nyseHolidays returns the regular NYSE holidays observed in year.
func nyseHolidays(year int) []holiday {
	date := func(m time.Month, d int) time.Time { return time.Date(year, m, d, 0, 0, 0, 0, time.UTC) }

	hs := []holiday{
		{observed(date(time.January, 1)), "New Year's Day"},
		{nthWeekday(year, time.January, time.Monday, 3), "Martin Luther King Jr. Day"},
		{nthWeekday(year, time.February, time.Monday, 3), "Washington's Birthday"},
		{easter(year).AddDate(0, 0, -2), "Good Friday"},
		{lastWeekday(year, time.May, time.Monday), "Memorial Day"},
		{observed(date(time.July, 4)), "Independence Day"},
		{nthWeekday(year, time.September, time.Monday, 1), "Labor Day"},
		{nthWeekday(year, time.November, time.Thursday, 4), "Thanksgiving Day"},
		{observed(date(time.December, 25)), "Christmas Day"},
	}
	if year >= 2022 {
		hs = append(hs, holiday{observed(date(time.June, 19)), "Juneteenth"})
	}

	// A Saturday New Year's Day is not observed on the prior Friday.
	out := hs[:0]
	for _, h := range hs {
		if h.date.Year() == year {
			out = append(out, h)
		}
	}
	return out
}

// observed moves Saturday holidays to Friday and Sunday holidays to Monday.
func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

func nthWeekday(year int, m time.Month, wd time.Weekday, n int) time.Time {
	d := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(wd) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset+7*(n-1))
}

func lastWeekday(year int, m time.Month, wd time.Weekday) time.Time {
	d := time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC)
	offset := (int(d.Weekday()) - int(wd) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// easter returns Gregorian Easter Sunday (anonymous computus).
func easter(year int) time.Time {
	a := year % 19
	b, c := year/100, year%100
	d, e := b/4, b%4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i, k := c/4, c%4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
