package collector

import (
	"context"
	"fmt"
	"log"
	"time"

	"SignalDesk/internal/calculator"
	"SignalDesk/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Step  float64
	Bars  map[model.Timeframe][]model.Bar
	Err   error
	Calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, symbol string, tf model.Timeframe, size int) ([]model.Bar, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Bars[tf]; ok {
		return bars, nil
	}
	return GenerateMockBars(m.Price, m.Step, size, time.Now()), nil
}

// GenerateMockBars builds count bullish bars ending at `end`, each close
// `step` above the previous one.
func GenerateMockBars(basePrice, step float64, count int, end time.Time) []model.Bar {
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		c := basePrice + float64(i)*step
		bars[i] = model.Bar{
			Time:  end.Add(-time.Duration(count-i) * 5 * time.Minute),
			Open:  c - step*0.8,
			High:  c + step*0.1,
			Low:   c - step*0.9,
			Close: c,
		}
	}
	return bars
}

// Frame is one timeframe's annotated series and its latest complete row.
type Frame struct {
	Timeframe model.Timeframe
	Rows      []model.IndicatorRow
	Last      int
}

// LastRow returns the latest complete indicator row.
func (f Frame) LastRow() model.IndicatorRow { return f.Rows[f.Last] }

// Snapshot holds every timeframe collected for one symbol.
type Snapshot struct {
	Symbol    string
	Frames    []Frame
	FetchedAt time.Time
}

// Frame returns the frame for tf.
func (s *Snapshot) Frame(tf model.Timeframe) (Frame, bool) {
	for _, f := range s.Frames {
		if f.Timeframe == tf {
			return f, true
		}
	}
	return Frame{}, false
}

// Collector orchestrates data fetching and indicator computation.
type Collector struct {
	Fetcher    Fetcher
	Params     calculator.Params
	OutputSize int
	Timeframes []model.Timeframe
}

// NewCollector creates a new Collector for the standard three timeframes.
func NewCollector(fetcher Fetcher, params calculator.Params, outputSize int) *Collector {
	if outputSize < params.MinBars() {
		outputSize = 50
	}
	return &Collector{
		Fetcher:    fetcher,
		Params:     params,
		OutputSize: outputSize,
		Timeframes: model.Timeframes,
	}
}

// Collect fetches every timeframe and computes indicators on each.
func (c *Collector) Collect(ctx context.Context, symbol string) (*Snapshot, error) {
	snap := &Snapshot{Symbol: symbol, FetchedAt: time.Now()}
	for _, tf := range c.Timeframes {
		frame, err := c.collectFrame(ctx, symbol, tf)
		if err != nil {
			return nil, err
		}
		snap.Frames = append(snap.Frames, frame)
	}
	return snap, nil
}

func (c *Collector) collectFrame(ctx context.Context, symbol string, tf model.Timeframe) (Frame, error) {
	bars, err := c.Fetcher.FetchBars(ctx, symbol, tf, c.OutputSize)
	if err != nil {
		return Frame{}, fmt.Errorf("fetch %s bars: %w", tf, err)
	}
	if need := c.Params.MinBars(); len(bars) < need {
		return Frame{}, &FetchError{
			Kind:     KindInsufficient,
			Source:   c.Fetcher.Name(),
			Symbol:   symbol,
			Interval: tf,
			Err:      fmt.Errorf("%d bars, need %d: %w", len(bars), need, calculator.ErrInsufficientHistory),
		}
	}
	rows, err := calculator.Annotate(bars, c.Params)
	if err != nil {
		return Frame{}, fmt.Errorf("%s %s indicators: %w", symbol, tf, err)
	}
	last, err := calculator.LastComplete(rows, c.Params.Extended)
	if err != nil {
		return Frame{}, fmt.Errorf("%s %s: %w", symbol, tf, err)
	}
	if last != len(rows)-1 {
		log.Printf("[WARN] %s %s: latest bar incomplete, scoring bar %s", symbol, tf, rows[last].Time.Format(time.DateTime))
	}
	return Frame{Timeframe: tf, Rows: rows, Last: last}, nil
}

// LatestClose fetches one timeframe and returns its most recent close.
func (c *Collector) LatestClose(ctx context.Context, symbol string, tf model.Timeframe) (float64, error) {
	bars, err := c.Fetcher.FetchBars(ctx, symbol, tf, c.OutputSize)
	if err != nil {
		return 0, fmt.Errorf("fetch %s bars: %w", tf, err)
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf("%s %s: no bars: %w", symbol, tf, calculator.ErrInsufficientHistory)
	}
	return bars[len(bars)-1].Close, nil
}
