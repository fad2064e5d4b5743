package model

import "time"

// SignalType is the categorical outcome of an analysis.
type SignalType string

const (
	SignalStrongBuy    SignalType = "Strong Buy"
	SignalWeakBuy      SignalType = "Weak Buy"
	SignalNone         SignalType = "No Clear Signal"
	SignalWeakSell     SignalType = "Weak Sell"
	SignalStrongSell   SignalType = "Strong Sell"
	SignalNewsBreakout SignalType = "News-driven Breakout"
)

// Actionable reports whether the signal is worth journaling.
func (t SignalType) Actionable() bool {
	return t != SignalNone && t != ""
}

// Bullish reports whether the signal points up.
func (t SignalType) Bullish() bool {
	return t == SignalStrongBuy || t == SignalWeakBuy || t == SignalNewsBreakout
}

// FactorScore is one indicator's vote within a timeframe.
type FactorScore struct {
	Name       string
	Vote       int
	Commentary string
}

// TimeframeAssessment is the vote breakdown for one timeframe.
type TimeframeAssessment struct {
	Timeframe  Timeframe
	Factors    []FactorScore
	Vetoed     bool
	VetoReason string
	Total      int
}

// Signal is the final output of the decider.
type Signal struct {
	Symbol   string
	Type     SignalType
	Score    int
	Entry    float64
	StopLoss float64
	TP1      float64
	TP2      float64
	TP3      float64
	RRR      float64

	// HasLevels is false for weak and neutral signals, which carry the
	// entry only.
	HasLevels bool
	Headline  string
	Precision int
	Timestamp time.Time
	Expires   time.Time
}
