package model

import "math"

// Flag is a boolean indicator that stays Unknown until enough history exists.
type Flag int8

const (
	FlagUnknown Flag = iota
	FlagFalse
	FlagTrue
)

// FlagOf converts a defined boolean into a Flag.
func FlagOf(b bool) Flag {
	if b {
		return FlagTrue
	}
	return FlagFalse
}

func (f Flag) Known() bool { return f != FlagUnknown }
func (f Flag) True() bool  { return f == FlagTrue }

func (f Flag) String() string {
	switch f {
	case FlagTrue:
		return "true"
	case FlagFalse:
		return "false"
	default:
		return "unknown"
	}
}

// IndicatorRow is a Bar augmented with derived indicators.
// Float fields are NaN until their lookback window is filled.
type IndicatorRow struct {
	Bar

	FastMA float64
	SlowMA float64
	RSI    float64
	TR     float64
	ATR    float64

	// PriorHigh and PriorLow are the rolling extremes of the preceding
	// window, excluding the current bar.
	PriorHigh float64
	PriorLow  float64
	Breakout  Flag

	MACD       float64
	MACDSignal float64
	MACDHist   float64
	BBMiddle   float64
	BBUpper    float64
	BBLower    float64
	StochK     float64
	StochD     float64
}

// Defined reports whether every value is a finite number.
func Defined(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
