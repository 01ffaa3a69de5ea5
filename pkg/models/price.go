// Package models defines the core data structures shared by the collectors,
// the analysis packages and the report writers.
package models

import (
	"sort"
	"time"
)

// PriceBar represents a single daily bar of price data for one ticker.
type PriceBar struct {
	Ticker   string    `json:"ticker"`
	Date     time.Time `json:"date"` // UTC midnight of the trading session
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close,omitempty"`
	Volume   int64     `json:"volume"`
}

// Price returns the adjusted close when the provider supplied one, the raw close otherwise.
func (b PriceBar) Price() float64 {
	if b.AdjClose > 0 {
		return b.AdjClose
	}
	return b.Close
}

// Range returns the intraday range as a percentage of the open.
func (b PriceBar) Range() float64 {
	if b.Open == 0 {
		return 0
	}
	return (b.High - b.Low) / b.Open * 100
}

// DedupBars sorts bars by date and drops later bars that repeat a date.
func DedupBars(bars []PriceBar) []PriceBar {
	if len(bars) == 0 {
		return nil
	}
	sorted := make([]PriceBar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	out := sorted[:0:0]
	seen := make(map[time.Time]bool, len(sorted))
	for _, b := range sorted {
		d := Day(b.Date)
		if seen[d] {
			continue
		}
		seen[d] = true
		b.Date = d
		out = append(out, b)
	}
	return out
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
