package calculator

import (
	"errors"
	"math"
)

var (
	// ErrInvalidPeriod is returned when a lookback window is not positive.
	ErrInvalidPeriod = errors.New("period must be positive")
	// ErrInsufficientHistory is returned when no row has every required indicator defined.
	ErrInsufficientHistory = errors.New("insufficient history for indicator window")
)

// nanSeries returns a slice of n NaN values.
func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA computes the simple moving average over the given period.
// Positions before the window fills, or windows containing NaN, are NaN.
func SMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	out := nanSeries(len(values))
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			sum += values[j]
		}
		// NaN propagates through the sum.
		out[i] = sum / float64(period)
	}
	return out, nil
}

// EMA computes the adjusted exponential moving average with smoothing
// α = 2/(span+1). Every observation is weighted by (1-α)^age, normalised by
// the sum of weights, so the series is defined from the first finite value.
func EMA(values []float64, span int) ([]float64, error) {
	if span <= 0 {
		return nil, ErrInvalidPeriod
	}
	alpha := 2.0 / float64(span+1)
	decay := 1 - alpha
	out := nanSeries(len(values))

	var num, den float64
	started := false
	for i, v := range values {
		if math.IsNaN(v) {
			if started {
				out[i] = num / den
			}
			continue
		}
		num = v + decay*num
		den = 1 + decay*den
		started = true
		out[i] = num / den
	}
	return out, nil
}

// RollingStd computes the sample standard deviation (n-1 denominator)
// over the given period.
func RollingStd(values []float64, period int) ([]float64, error) {
	if period <= 1 {
		return nil, ErrInvalidPeriod
	}
	out := nanSeries(len(values))
	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]
		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(period)
		ss := 0.0
		for _, v := range window {
			ss += (v - mean) * (v - mean)
		}
		out[i] = math.Sqrt(ss / float64(period-1))
	}
	return out, nil
}

// Bollinger returns the middle, upper and lower bands: SMA(period) ± k·std.
func Bollinger(closes []float64, period int, k float64) (middle, upper, lower []float64, err error) {
	middle, err = SMA(closes, period)
	if err != nil {
		return nil, nil, nil, err
	}
	std, err := RollingStd(closes, period)
	if err != nil {
		return nil, nil, nil, err
	}
	upper = make([]float64, len(closes))
	lower = make([]float64, len(closes))
	for i := range closes {
		upper[i] = middle[i] + k*std[i]
		lower[i] = middle[i] - k*std[i]
	}
	return middle, upper, lower, nil
}

// MACD returns EMA(fast)-EMA(slow) of close, its EMA(signal) and the histogram.
func MACD(closes []float64, fast, slow, signal int) (macd, sig, hist []float64, err error) {
	emaFast, err := EMA(closes, fast)
	if err != nil {
		return nil, nil, nil, err
	}
	emaSlow, err := EMA(closes, slow)
	if err != nil {
		return nil, nil, nil, err
	}
	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = emaFast[i] - emaSlow[i]
	}
	sig, err = EMA(macd, signal)
	if err != nil {
		return nil, nil, nil, err
	}
	hist = make([]float64, len(closes))
	for i := range closes {
		hist[i] = macd[i] - sig[i]
	}
	return macd, sig, hist, nil
}
