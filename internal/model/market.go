package model

import "time"

// Bar represents a single OHLC candle.
type Bar struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Timeframe is a provider interval string.
type Timeframe string

const (
	Timeframe5m  Timeframe = "5min"
	Timeframe15m Timeframe = "15min"
	Timeframe1h  Timeframe = "1h"
)

// Timeframes lists the intervals scored on every refresh, shortest first.
var Timeframes = []Timeframe{Timeframe5m, Timeframe15m, Timeframe1h}

// Short returns the compact label used in reports ("5m", "15m", "1h").
func (t Timeframe) Short() string {
	switch t {
	case Timeframe5m:
		return "5m"
	case Timeframe15m:
		return "15m"
	default:
		return string(t)
	}
}

// BarSeries holds the cleaned bars for one symbol and interval.
type BarSeries struct {
	Symbol    string
	Timeframe Timeframe
	Bars      []Bar
	FetchedAt time.Time
}

// NewsItem is a headline returned by the news provider.
type NewsItem struct {
	Title       string
	PublishedAt time.Time
}
