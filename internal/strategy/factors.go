package strategy

import (
	"fmt"
	"math"

	"SignalDesk/internal/model"
)

func vote(cond bool) int {
	if cond {
		return 1
	}
	return -1
}

// scoreTrend votes on the fast/slow moving-average alignment.
func scoreTrend(row model.IndicatorRow) model.FactorScore {
	v := vote(row.FastMA > row.SlowMA)
	return model.FactorScore{Name: "trend", Vote: v, Commentary: fmt.Sprintf("fast=%.5g slow=%.5g", row.FastMA, row.SlowMA)}
}

// scoreRSIMidline votes RSI above or below 50.
func scoreRSIMidline(row model.IndicatorRow) model.FactorScore {
	return model.FactorScore{Name: "rsi", Vote: vote(row.RSI > 50), Commentary: fmt.Sprintf("RSI=%.0f", row.RSI)}
}

// scoreRSIBands votes +1 above 55, -1 below 45 and abstains in between.
func scoreRSIBands(row model.IndicatorRow) model.FactorScore {
	var v int
	switch {
	case row.RSI > 55:
		v = 1
	case row.RSI < 45:
		v = -1
	}
	return model.FactorScore{Name: "rsi", Vote: v, Commentary: fmt.Sprintf("RSI=%.0f", row.RSI)}
}

func scoreCandle(row model.IndicatorRow) model.FactorScore {
	c := "bearish"
	if row.Close > row.Open {
		c = "bullish"
	}
	return model.FactorScore{Name: "candle", Vote: vote(row.Close > row.Open), Commentary: c}
}

// scoreBreakout votes +1 on a breakout in either direction, never negative.
func scoreBreakout(row model.IndicatorRow) model.FactorScore {
	if row.Breakout.True() {
		return model.FactorScore{Name: "breakout", Vote: 1, Commentary: "breakout"}
	}
	return model.FactorScore{Name: "breakout", Vote: 0, Commentary: "inside range"}
}

func scoreMACD(row model.IndicatorRow) model.FactorScore {
	return model.FactorScore{Name: "macd", Vote: vote(row.MACDHist > 0), Commentary: fmt.Sprintf("hist=%.3g", row.MACDHist)}
}

// scoreBollinger is contrarian: below the lower band is bullish.
func scoreBollinger(row model.IndicatorRow) model.FactorScore {
	switch {
	case row.Close < row.BBLower:
		return model.FactorScore{Name: "bollinger", Vote: 1, Commentary: "below lower band"}
	case row.Close > row.BBUpper:
		return model.FactorScore{Name: "bollinger", Vote: -1, Commentary: "above upper band"}
	default:
		return model.FactorScore{Name: "bollinger", Vote: 0, Commentary: "inside bands"}
	}
}

// scoreStochastic is contrarian on %K extremes.
func scoreStochastic(row model.IndicatorRow) model.FactorScore {
	var v int
	switch {
	case row.StochK < 20:
		v = 1
	case row.StochK > 80:
		v = -1
	}
	return model.FactorScore{Name: "stochastic", Vote: v, Commentary: fmt.Sprintf("%%K=%.0f", row.StochK)}
}

// veto reports why a timeframe carries too little confidence to vote.
func (e *Engine) veto(row model.IndicatorRow) (string, bool) {
	rng := row.High - row.Low
	if rng == 0 {
		return "flat candle", true
	}
	body := math.Abs(row.Close - row.Open)
	if body/rng < e.cfg.MinBodyRatio {
		return fmt.Sprintf("body/range %.2f < %.2f", body/rng, e.cfg.MinBodyRatio), true
	}
	if row.ATR > row.Close*e.cfg.MaxATRPct {
		return fmt.Sprintf("ATR %.5g above %.0f%% of close", row.ATR, e.cfg.MaxATRPct*100), true
	}
	return "", false
}
