package calculator

import (
	"math"

	"SignalDesk/internal/model"
)

// RollingMax returns the highest value of each trailing window.
func RollingMax(values []float64, period int) ([]float64, error) {
	return rollingExtreme(values, period, math.Max)
}

// RollingMin returns the lowest value of each trailing window.
func RollingMin(values []float64, period int) ([]float64, error) {
	return rollingExtreme(values, period, math.Min)
}

func rollingExtreme(values []float64, period int, pick func(a, b float64) float64) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	out := nanSeries(len(values))
	for i := period - 1; i < len(values); i++ {
		v := values[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			v = pick(v, values[j])
		}
		out[i] = v
	}
	return out, nil
}

// Shift lags a series by k positions, filling the head with NaN.
func Shift(values []float64, k int) []float64 {
	out := nanSeries(len(values))
	for i := k; i < len(values); i++ {
		out[i] = values[i-k]
	}
	return out
}

// TrueRange computes max(high-low, |high-prevClose|, |low-prevClose|).
// The first bar has no previous close, so its range is high-low.
func TrueRange(bars []model.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		tr := b.High - b.Low
		if i > 0 {
			prev := bars[i-1].Close
			tr = math.Max(tr, math.Max(math.Abs(b.High-prev), math.Abs(b.Low-prev)))
		}
		out[i] = tr
	}
	return out
}

// ATR is the rolling mean of TrueRange over the given period.
func ATR(bars []model.Bar, period int) ([]float64, error) {
	return SMA(TrueRange(bars), period)
}

// PriorExtremes returns the highest high and lowest low of the `window`
// bars preceding each bar. The current bar is excluded so a bar can never
// break out of a range it defines itself.
func PriorExtremes(bars []model.Bar, window int) (priorHigh, priorLow []float64, err error) {
	highs, lows := extractHighs(bars), extractLows(bars)
	maxHigh, err := RollingMax(highs, window)
	if err != nil {
		return nil, nil, err
	}
	minLow, err := RollingMin(lows, window)
	if err != nil {
		return nil, nil, err
	}
	return Shift(maxHigh, 1), Shift(minLow, 1), nil
}

// Breakout flags bars whose high exceeds priorHigh or whose low undercuts
// priorLow. It is Unknown while the prior window is not yet filled.
func Breakout(bars []model.Bar, priorHigh, priorLow []float64) []model.Flag {
	out := make([]model.Flag, len(bars))
	for i, b := range bars {
		if !model.Defined(priorHigh[i], priorLow[i]) {
			out[i] = model.FlagUnknown
			continue
		}
		out[i] = model.FlagOf(b.High > priorHigh[i] || b.Low < priorLow[i])
	}
	return out
}

// Stochastic computes %K = 100·(close-lowN)/(highN-lowN) and %D as the
// smooth-period mean of %K. A flat window (highN == lowN) yields %K = 50.
func Stochastic(bars []model.Bar, period, smooth int) (k, d []float64, err error) {
	highN, err := RollingMax(extractHighs(bars), period)
	if err != nil {
		return nil, nil, err
	}
	lowN, err := RollingMin(extractLows(bars), period)
	if err != nil {
		return nil, nil, err
	}
	k = nanSeries(len(bars))
	for i, b := range bars {
		if !model.Defined(highN[i], lowN[i]) {
			continue
		}
		rng := highN[i] - lowN[i]
		if rng == 0 {
			k[i] = 50.0
			continue
		}
		k[i] = 100 * (b.Close - lowN[i]) / rng
	}
	d, err = SMA(k, smooth)
	if err != nil {
		return nil, nil, err
	}
	return k, d, nil
}

func extractCloses(bars []model.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func extractHighs(bars []model.Bar) []float64 {
	highs := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
	}
	return highs
}

func extractLows(bars []model.Bar) []float64 {
	lows := make([]float64, len(bars))
	for i, b := range bars {
		lows[i] = b.Low
	}
	return lows
}
