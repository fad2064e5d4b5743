package strategy

import (
	"fmt"
	"time"

	"SignalDesk/internal/calculator"
)

// Strategy selects how a timeframe's indicators are turned into votes.
type Strategy string

const (
	// StrategySimple sums four unweighted votes per timeframe: MA trend,
	// RSI above 50, candle direction and breakout. Range [-3, +4].
	StrategySimple Strategy = "simple-4-factor"
	// StrategyWeighted sums seven votes per timeframe and vetoes timeframes
	// with indecisive candles or excessive volatility.
	StrategyWeighted Strategy = "weighted-7-factor-veto"
)

// StopMode selects how stop-loss and targets are derived for strong signals.
type StopMode string

const (
	// StopATRClamped uses ATR clamped into [MinStopPct, MaxStopPct] of entry.
	StopATRClamped StopMode = "atr-clamped"
	// StopATRFloor uses ATR with a lower bound of MinStopPct of entry.
	StopATRFloor StopMode = "atr-floor"
	// StopStructural uses the prior window's low/high and requires the
	// close to have just broken out of that window.
	StopStructural StopMode = "structural"
)

// Config holds every tunable of the scorer and decider.
type Config struct {
	Strategy   Strategy
	Indicators calculator.Params

	StopMode        StopMode
	MinStopPct      float64
	MaxStopPct      float64
	TargetMultiples [3]float64

	// BreakoutTolerance caps how far beyond the prior extreme a structural
	// strong signal may already be.
	BreakoutTolerance float64

	MinBodyRatio float64
	MaxATRPct    float64

	NewsStopPct         float64
	NewsTargetMultiples [3]float64

	// Precision overrides the per-symbol rounding when non-negative.
	Precision int
	Validity  time.Duration
}

// Profile returns a named preset. "gold" is the single-symbol bot with news
// mode and a clamped ATR stop, "multi" the multi-symbol bot with an ATR
// floor, and "breakout" the weighted scorer with structural levels.
func Profile(name string) (Config, error) {
	switch name {
	case "gold", "":
		return Config{
			Strategy:            StrategySimple,
			Indicators:          calculator.SimpleParams(),
			StopMode:            StopATRClamped,
			MinStopPct:          0.0025,
			MaxStopPct:          0.01,
			TargetMultiples:     [3]float64{1, 1.5, 2},
			NewsStopPct:         0.001,
			NewsTargetMultiples: [3]float64{1.2, 1.8, 2.5},
			Precision:           -1,
			Validity:            15 * time.Minute,
		}, nil
	case "multi":
		return Config{
			Strategy:            StrategySimple,
			Indicators:          calculator.SimpleParams(),
			StopMode:            StopATRFloor,
			MinStopPct:          0.004,
			TargetMultiples:     [3]float64{1, 1.5, 2},
			NewsStopPct:         0.001,
			NewsTargetMultiples: [3]float64{1.2, 1.8, 2.5},
			Precision:           -1,
			Validity:            15 * time.Minute,
		}, nil
	case "breakout":
		return Config{
			Strategy:            StrategyWeighted,
			Indicators:          calculator.ExtendedParams(),
			StopMode:            StopStructural,
			TargetMultiples:     [3]float64{2, 3, 4},
			BreakoutTolerance:   0.01,
			MinBodyRatio:        0.3,
			MaxATRPct:           0.04,
			NewsStopPct:         0.001,
			NewsTargetMultiples: [3]float64{1.2, 1.8, 2.5},
			Precision:           -1,
			Validity:            15 * time.Minute,
		}, nil
	default:
		return Config{}, fmt.Errorf("unknown profile %q", name)
	}
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	switch c.Strategy {
	case StrategySimple:
	case StrategyWeighted:
		if !c.Indicators.Extended {
			return fmt.Errorf("strategy %s requires extended indicators", c.Strategy)
		}
	default:
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}
	switch c.StopMode {
	case StopATRClamped:
		if c.MinStopPct <= 0 || c.MaxStopPct < c.MinStopPct {
			return fmt.Errorf("atr-clamped stop needs 0 < min_stop_pct <= max_stop_pct")
		}
	case StopATRFloor:
		if c.MinStopPct <= 0 {
			return fmt.Errorf("atr-floor stop needs min_stop_pct > 0")
		}
	case StopStructural:
		if c.BreakoutTolerance < 0 {
			return fmt.Errorf("breakout_tolerance must not be negative")
		}
	default:
		return fmt.Errorf("unknown stop mode %q", c.StopMode)
	}
	for _, m := range c.TargetMultiples {
		if m <= 0 {
			return fmt.Errorf("target multiples must be positive")
		}
	}
	if c.Precision > 8 {
		return fmt.Errorf("precision %d too large", c.Precision)
	}
	return nil
}
