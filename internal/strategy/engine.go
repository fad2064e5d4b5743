package strategy

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"SignalDesk/internal/model"
)

// ErrNoStopDistance is returned when a strong signal cannot be given levels
// because the stop distance is undefined or not positive.
var ErrNoStopDistance = errors.New("stop distance undefined")

// Thresholds maps a total score to a signal type, highest first.
var Thresholds = []struct {
	MinScore int
	Type     model.SignalType
}{
	{3, model.SignalStrongBuy},
	{2, model.SignalWeakBuy},
	{-1, model.SignalNone},
	{-2, model.SignalWeakSell},
}

// mapSignal maps a total score to a SignalType.
func mapSignal(score int) model.SignalType {
	for _, t := range Thresholds {
		if score >= t.MinScore {
			return t.Type
		}
	}
	return model.SignalStrongSell
}

// Engine scores indicator rows and decides signals.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and returns an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Assess computes one timeframe's contribution from its latest complete row.
func (e *Engine) Assess(tf model.Timeframe, row model.IndicatorRow) model.TimeframeAssessment {
	a := model.TimeframeAssessment{Timeframe: tf}

	switch e.cfg.Strategy {
	case StrategyWeighted:
		if reason, vetoed := e.veto(row); vetoed {
			a.Vetoed = true
			a.VetoReason = reason
			return a
		}
		a.Factors = []model.FactorScore{
			scoreTrend(row),
			scoreRSIBands(row),
			scoreCandle(row),
			scoreBreakout(row),
			scoreMACD(row),
			scoreBollinger(row),
			scoreStochastic(row),
		}
	default:
		a.Factors = []model.FactorScore{
			scoreTrend(row),
			scoreRSIMidline(row),
			scoreCandle(row),
			scoreBreakout(row),
		}
	}

	for _, f := range a.Factors {
		a.Total += f.Vote
	}
	return a
}

// FrameRow pairs a timeframe with its latest complete indicator row.
type FrameRow struct {
	Timeframe model.Timeframe
	Row       model.IndicatorRow
}

// Score sums the per-timeframe contributions.
func (e *Engine) Score(frames []FrameRow) (int, []model.TimeframeAssessment) {
	total := 0
	assessments := make([]model.TimeframeAssessment, 0, len(frames))
	for _, f := range frames {
		a := e.Assess(f.Timeframe, f.Row)
		total += a.Total
		assessments = append(assessments, a)
	}
	return total, assessments
}

// Decide maps the score and the entry timeframe's latest row to a signal.
func (e *Engine) Decide(symbol string, score int, row model.IndicatorRow, now time.Time) (*model.Signal, error) {
	sig := e.newSignal(symbol, row.Close, now)
	sig.Score = score
	sig.Type = mapSignal(score)

	switch sig.Type {
	case model.SignalStrongBuy, model.SignalStrongSell:
		dir := 1
		if sig.Type == model.SignalStrongSell {
			dir = -1
		}
		if e.cfg.StopMode == StopStructural && !e.breakoutConfirmed(row, dir) {
			log.Printf("[INFO] %s: score %d without a confirmed breakout (close=%.5g high=%.5g low=%.5g), downgraded",
				symbol, score, row.Close, row.PriorHigh, row.PriorLow)
			sig.Type = model.SignalNone
			return sig, nil
		}
		stop, err := e.stopPrice(row, dir)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", symbol, sig.Type, err)
		}
		if err := e.applyLevels(sig, row.Close, stop, e.cfg.TargetMultiples); err != nil {
			return nil, fmt.Errorf("%s %s: %w", symbol, sig.Type, err)
		}
	}
	return sig, nil
}

// NewsSignal bypasses scoring and emits a tight-stop breakout signal from
// the latest close.
func (e *Engine) NewsSignal(symbol string, entry float64, item model.NewsItem, now time.Time) (*model.Signal, error) {
	sig := e.newSignal(symbol, entry, now)
	sig.Type = model.SignalNewsBreakout
	sig.Headline = item.Title
	stop := entry - entry*e.cfg.NewsStopPct
	if err := e.applyLevels(sig, entry, stop, e.cfg.NewsTargetMultiples); err != nil {
		return nil, fmt.Errorf("%s news breakout: %w", symbol, err)
	}
	return sig, nil
}

func (e *Engine) newSignal(symbol string, entry float64, now time.Time) *model.Signal {
	prec := e.cfg.Precision
	if prec < 0 {
		prec = PrecisionFor(symbol)
	}
	return &model.Signal{
		Symbol:    symbol,
		Entry:     Round(entry, prec),
		Precision: prec,
		Timestamp: now,
		Expires:   now.Add(e.cfg.Validity),
	}
}

// breakoutConfirmed requires the close to sit just beyond the prior
// window's extreme, no further than BreakoutTolerance.
func (e *Engine) breakoutConfirmed(row model.IndicatorRow, dir int) bool {
	if !model.Defined(row.PriorHigh, row.PriorLow) {
		return false
	}
	if dir > 0 {
		return row.Close > row.PriorHigh && row.Close <= row.PriorHigh*(1+e.cfg.BreakoutTolerance)
	}
	return row.Close < row.PriorLow && row.Close >= row.PriorLow*(1-e.cfg.BreakoutTolerance)
}

// stopPrice returns the unrounded stop-loss for a strong signal.
func (e *Engine) stopPrice(row model.IndicatorRow, dir int) (float64, error) {
	entry := row.Close
	switch e.cfg.StopMode {
	case StopStructural:
		if dir > 0 {
			return row.PriorLow, nil
		}
		return row.PriorHigh, nil
	case StopATRFloor:
		if !model.Defined(row.ATR) {
			return 0, ErrNoStopDistance
		}
		return entry - float64(dir)*math.Max(row.ATR, entry*e.cfg.MinStopPct), nil
	default:
		if !model.Defined(row.ATR) {
			return 0, ErrNoStopDistance
		}
		return entry - float64(dir)*clamp(row.ATR, entry*e.cfg.MinStopPct, entry*e.cfg.MaxStopPct), nil
	}
}

// applyLevels sets stop, targets at the given multiples of the stop
// distance on the profit side of entry, and the reward/risk ratio.
func (e *Engine) applyLevels(sig *model.Signal, entry, stop float64, multiples [3]float64) error {
	dist := math.Abs(entry - stop)
	if !model.Defined(dist) || dist == 0 {
		return ErrNoStopDistance
	}
	dir := 1.0
	if stop > entry {
		dir = -1.0
	}
	p := sig.Precision
	sig.StopLoss = Round(stop, p)
	sig.TP1 = Round(entry+dir*dist*multiples[0], p)
	sig.TP2 = Round(entry+dir*dist*multiples[1], p)
	sig.TP3 = Round(entry+dir*dist*multiples[2], p)
	sig.HasLevels = true

	risk := math.Abs(sig.Entry - sig.StopLoss)
	if risk > 0 {
		sig.RRR = Round(math.Abs(sig.TP1-sig.Entry)/risk, 2)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
