package calculator

import (
	"fmt"
	"math"

	"SignalDesk/internal/model"
)

// MAKind selects the moving-average family for the trend pair.
type MAKind string

const (
	MASimple      MAKind = "simple"
	MAExponential MAKind = "exponential"
)

// Params configures the indicator set computed by Annotate.
type Params struct {
	MAKind         MAKind
	FastPeriod     int
	SlowPeriod     int
	RSIPeriod      int
	ATRPeriod      int
	BreakoutWindow int

	// Extended enables MACD, Bollinger bands and the stochastic oscillator.
	Extended        bool
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
	BollingerPeriod int
	BollingerK      float64
	StochPeriod     int
	StochSmooth     int
}

// SimpleParams is the four-indicator set: SMA 5/20, RSI 14, ATR 14, 20-bar breakout.
func SimpleParams() Params {
	return Params{
		MAKind:         MASimple,
		FastPeriod:     5,
		SlowPeriod:     20,
		RSIPeriod:      14,
		ATRPeriod:      14,
		BreakoutWindow: 20,
	}
}

// ExtendedParams is the richer set: EMA 8/21, RSI 13, MACD 12/26/9,
// Bollinger 20/2 and Stochastic 14/3.
func ExtendedParams() Params {
	return Params{
		MAKind:          MAExponential,
		FastPeriod:      8,
		SlowPeriod:      21,
		RSIPeriod:       13,
		ATRPeriod:       14,
		BreakoutWindow:  20,
		Extended:        true,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BollingerPeriod: 20,
		BollingerK:      2,
		StochPeriod:     14,
		StochSmooth:     3,
	}
}

// MinBars is the shortest series for which the last row can be complete.
func (p Params) MinBars() int {
	n := p.BreakoutWindow + 1
	n = max(n, p.RSIPeriod+1, p.ATRPeriod)
	if p.MAKind == MASimple {
		n = max(n, p.FastPeriod, p.SlowPeriod)
	}
	if p.Extended {
		n = max(n, p.BollingerPeriod, p.StochPeriod+p.StochSmooth-1)
	}
	return n
}

func (p Params) movingAverage(closes []float64, period int) ([]float64, error) {
	if p.MAKind == MAExponential {
		return EMA(closes, period)
	}
	return SMA(closes, period)
}

// Annotate computes the indicator rows for an ascending bar series.
// The output has the same length and order as the input.
func Annotate(bars []model.Bar, p Params) ([]model.IndicatorRow, error) {
	closes := extractCloses(bars)

	fast, err := p.movingAverage(closes, p.FastPeriod)
	if err != nil {
		return nil, fmt.Errorf("fast MA: %w", err)
	}
	slow, err := p.movingAverage(closes, p.SlowPeriod)
	if err != nil {
		return nil, fmt.Errorf("slow MA: %w", err)
	}
	rsi, err := RSI(closes, p.RSIPeriod)
	if err != nil {
		return nil, fmt.Errorf("RSI: %w", err)
	}
	tr := TrueRange(bars)
	atr, err := SMA(tr, p.ATRPeriod)
	if err != nil {
		return nil, fmt.Errorf("ATR: %w", err)
	}
	priorHigh, priorLow, err := PriorExtremes(bars, p.BreakoutWindow)
	if err != nil {
		return nil, fmt.Errorf("breakout window: %w", err)
	}
	breakout := Breakout(bars, priorHigh, priorLow)

	rows := make([]model.IndicatorRow, len(bars))
	for i, b := range bars {
		rows[i] = model.IndicatorRow{
			Bar:       b,
			FastMA:    fast[i],
			SlowMA:    slow[i],
			RSI:       rsi[i],
			TR:        tr[i],
			ATR:       atr[i],
			PriorHigh: priorHigh[i],
			PriorLow:  priorLow[i],
			Breakout:  breakout[i],
		}
	}
	if !p.Extended {
		fillExtendedNaN(rows)
		return rows, nil
	}

	macd, sig, hist, err := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	if err != nil {
		return nil, fmt.Errorf("MACD: %w", err)
	}
	mid, upper, lower, err := Bollinger(closes, p.BollingerPeriod, p.BollingerK)
	if err != nil {
		return nil, fmt.Errorf("bollinger: %w", err)
	}
	k, d, err := Stochastic(bars, p.StochPeriod, p.StochSmooth)
	if err != nil {
		return nil, fmt.Errorf("stochastic: %w", err)
	}
	for i := range rows {
		rows[i].MACD = macd[i]
		rows[i].MACDSignal = sig[i]
		rows[i].MACDHist = hist[i]
		rows[i].BBMiddle = mid[i]
		rows[i].BBUpper = upper[i]
		rows[i].BBLower = lower[i]
		rows[i].StochK = k[i]
		rows[i].StochD = d[i]
	}
	return rows, nil
}

func fillExtendedNaN(rows []model.IndicatorRow) {
	nan := math.NaN()
	for i := range rows {
		rows[i].MACD, rows[i].MACDSignal, rows[i].MACDHist = nan, nan, nan
		rows[i].BBMiddle, rows[i].BBUpper, rows[i].BBLower = nan, nan, nan
		rows[i].StochK, rows[i].StochD = nan, nan
	}
}

// Complete reports whether every indicator the scorer reads is defined.
func Complete(row model.IndicatorRow, extended bool) bool {
	if !model.Defined(row.FastMA, row.SlowMA, row.RSI, row.ATR) || !row.Breakout.Known() {
		return false
	}
	if extended {
		return model.Defined(row.MACDHist, row.BBUpper, row.BBLower, row.StochK)
	}
	return true
}

// LastComplete returns the index of the most recent complete row.
func LastComplete(rows []model.IndicatorRow, extended bool) (int, error) {
	for i := len(rows) - 1; i >= 0; i-- {
		if Complete(rows[i], extended) {
			return i, nil
		}
	}
	return -1, ErrInsufficientHistory
}
