package analyzer

import (
	"context"
	"fmt"
	"log"
	"slices"
	"time"

	"SignalDesk/internal/collector"
	"SignalDesk/internal/model"
	"SignalDesk/internal/recorder"
	"SignalDesk/internal/strategy"
)

// reportCloses is how many recent entry-timeframe closes a report carries.
const reportCloses = 24

// Report is the outcome of one refresh.
type Report struct {
	Signal      *model.Signal
	Score       int
	Assessments []model.TimeframeAssessment
	Closes      []float64
	News        *model.NewsItem
}

// Analyzer runs the fetch, score and decide pipeline for one symbol.
type Analyzer struct {
	Collector *collector.Collector
	Engine    *strategy.Engine

	// News is consulted before scoring symbols listed in NewsSymbols; nil
	// disables news mode.
	News        collector.NewsChecker
	NewsSymbols []string
	Recorder    recorder.Recorder

	EntryTimeframe model.Timeframe
	NewsTimeframe  model.Timeframe
}

// DefaultNewsSymbols are the pairs the default headline keywords move.
var DefaultNewsSymbols = []string{"XAU/USD"}

// New wires an Analyzer with the default entry (15min) and news (5min)
// timeframes and news mode limited to DefaultNewsSymbols. A nil recorder
// disables journaling.
func New(col *collector.Collector, engine *strategy.Engine, news collector.NewsChecker, rec recorder.Recorder) *Analyzer {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Analyzer{
		Collector:      col,
		Engine:         engine,
		News:           news,
		NewsSymbols:    DefaultNewsSymbols,
		Recorder:       rec,
		EntryTimeframe: model.Timeframe15m,
		NewsTimeframe:  model.Timeframe5m,
	}
}

// Analyze checks the cooldown and, if allowed, refreshes symbol. The
// returned Cooldown must replace cd whether or not the refresh succeeded.
func (a *Analyzer) Analyze(ctx context.Context, cd Cooldown, symbol string, now time.Time) (*Report, Cooldown, error) {
	next, err := cd.Allow(now)
	if err != nil {
		return nil, cd, err
	}

	report, err := a.refresh(ctx, symbol, now)
	if err != nil {
		return nil, next, err
	}

	if report.Signal.Type.Actionable() {
		if err := a.Recorder.RecordSignal(report.Signal, report.Assessments); err != nil {
			log.Printf("[ERROR] journal %s %s: %v", symbol, report.Signal.Type, err)
		}
	}
	return report, next, nil
}

func (a *Analyzer) refresh(ctx context.Context, symbol string, now time.Time) (*Report, error) {
	if a.News != nil && slices.Contains(a.NewsSymbols, symbol) {
		item, ok, err := a.News.Check(ctx, now)
		if err != nil {
			log.Printf("[WARN] news check failed, scoring without news: %v", err)
		} else if ok {
			return a.newsReport(ctx, symbol, item, now)
		}
	}

	snap, err := a.Collector.Collect(ctx, symbol)
	if err != nil {
		return nil, err
	}

	frames := make([]strategy.FrameRow, 0, len(snap.Frames))
	for _, f := range snap.Frames {
		frames = append(frames, strategy.FrameRow{Timeframe: f.Timeframe, Row: f.LastRow()})
	}
	score, assessments := a.Engine.Score(frames)

	entry, ok := snap.Frame(a.EntryTimeframe)
	if !ok {
		return nil, fmt.Errorf("%s: entry timeframe %s not collected", symbol, a.EntryTimeframe)
	}
	sig, err := a.Engine.Decide(symbol, score, entry.LastRow(), now)
	if err != nil {
		return nil, err
	}

	log.Printf("[INFO] %s: score %d -> %s", symbol, score, sig.Type)
	return &Report{
		Signal:      sig,
		Score:       score,
		Assessments: assessments,
		Closes:      recentCloses(entry, reportCloses),
	}, nil
}

func (a *Analyzer) newsReport(ctx context.Context, symbol string, item model.NewsItem, now time.Time) (*Report, error) {
	price, err := a.Collector.LatestClose(ctx, symbol, a.NewsTimeframe)
	if err != nil {
		return nil, err
	}
	sig, err := a.Engine.NewsSignal(symbol, price, item, now)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] %s: news breakout on %q", symbol, item.Title)
	return &Report{Signal: sig, News: &item}, nil
}

func recentCloses(f collector.Frame, n int) []float64 {
	end := f.Last + 1
	start := end - n
	if start < 0 {
		start = 0
	}
	out := make([]float64, 0, end-start)
	for _, r := range f.Rows[start:end] {
		out = append(out, r.Close)
	}
	return out
}
