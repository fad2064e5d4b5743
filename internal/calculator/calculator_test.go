package calculator

import (
	"errors"
	"math"
	"testing"
	"time"

	"SignalDesk/internal/model"
)

// trendBars builds n bullish bars whose close rises by step each period.
func trendBars(n int, start, step float64) []model.Bar {
	base := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, n)
	for i := 0; i < n; i++ {
		c := start + float64(i)*step
		bars[i] = model.Bar{
			Time:  base.Add(time.Duration(i) * 15 * time.Minute),
			Open:  c - step/2,
			High:  c + step/4,
			Low:   c - step,
			Close: c,
		}
	}
	return bars
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMA_KnownValues(t *testing.T) {
	got, err := SMA([]float64{1, 2, 3, 4, 5}, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{math.NaN(), math.NaN(), 2, 3, 4}
	for i := range want {
		if math.IsNaN(want[i]) {
			if !math.IsNaN(got[i]) {
				t.Errorf("index %d: expected NaN, got %f", i, got[i])
			}
			continue
		}
		if !almostEqual(got[i], want[i]) {
			t.Errorf("index %d: expected %f, got %f", i, want[i], got[i])
		}
	}
}

func TestSMA_InvalidPeriod(t *testing.T) {
	if _, err := SMA([]float64{1, 2}, 0); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestEMA_AdjustedWeights(t *testing.T) {
	got, err := EMA([]float64{1, 2}, 3)
	if err != nil {
		t.Fatal(err)
	}
	// α = 0.5: (2 + 0.5·1) / (1 + 0.5)
	if !almostEqual(got[0], 1) || !almostEqual(got[1], 2.5/1.5) {
		t.Errorf("unexpected EMA: %v", got)
	}
}

func TestRollingStd_Sample(t *testing.T) {
	got, err := RollingStd([]float64{1, 2, 3, 4, 5}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(got[4], math.Sqrt(2.5)) {
		t.Errorf("expected %f, got %f", math.Sqrt(2.5), got[4])
	}
}

func TestAnnotate_MonotoneSeriesSimple(t *testing.T) {
	bars := trendBars(40, 100, 0.5)
	rows, err := Annotate(bars, SimpleParams())
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range rows {
		if !model.Defined(r.FastMA, r.SlowMA) {
			continue
		}
		if r.FastMA < r.SlowMA {
			t.Errorf("row %d: fast MA %.4f below slow MA %.4f", i, r.FastMA, r.SlowMA)
		}
	}
	for i := 0; i < 14; i++ {
		if !math.IsNaN(rows[i].RSI) {
			t.Errorf("row %d: expected undefined RSI, got %.2f", i, rows[i].RSI)
		}
	}
	for i := 14; i < len(rows); i++ {
		if rows[i].RSI != 100 {
			t.Errorf("row %d: expected RSI 100 for only-positive deltas, got %.2f", i, rows[i].RSI)
		}
	}
}

func TestAnnotate_MonotoneSeriesExponential(t *testing.T) {
	bars := trendBars(40, 1.08, 0.0005)
	rows, err := Annotate(bars, ExtendedParams())
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].FastMA < rows[i].SlowMA {
			t.Errorf("row %d: fast EMA %.6f below slow EMA %.6f", i, rows[i].FastMA, rows[i].SlowMA)
		}
	}
	last := rows[len(rows)-1]
	if last.MACDHist <= 0 && last.MACD <= 0 {
		t.Errorf("expected positive MACD on rising series, got macd=%f hist=%f", last.MACD, last.MACDHist)
	}
	if !Complete(last, true) {
		t.Error("expected last row to be complete")
	}
}

// ATR(14) is defined from index 13; breakout and prior extremes need 20
// prior bars.
func TestAnnotate_ShortSeriesBreakoutUnknownATRFromPeriod(t *testing.T) {
	bars := trendBars(19, 100, 1)
	rows, err := Annotate(bars, SimpleParams())
	if err != nil {
		t.Fatalf("short series must not fail: %v", err)
	}
	for i, r := range rows {
		if r.Breakout.Known() {
			t.Errorf("row %d: breakout should be unknown, got %s", i, r.Breakout)
		}
		if i < 13 && !math.IsNaN(r.ATR) {
			t.Errorf("row %d: ATR should be undefined, got %f", i, r.ATR)
		}
		if i >= 13 && math.IsNaN(r.ATR) {
			t.Errorf("row %d: ATR should be defined once 14 true ranges exist", i)
		}
		if !math.IsNaN(r.PriorHigh) || !math.IsNaN(r.PriorLow) {
			t.Errorf("row %d: prior extremes should be undefined", i)
		}
	}
	if _, err := LastComplete(rows, false); !errors.Is(err, ErrInsufficientHistory) {
		t.Errorf("expected ErrInsufficientHistory, got %v", err)
	}
}

func TestAnnotate_EmptySeries(t *testing.T) {
	rows, err := Annotate(nil, ExtendedParams())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestTrueRange_Components(t *testing.T) {
	tests := []struct {
		name string
		prev model.Bar
		bar  model.Bar
		want float64
	}{
		{
			name: "inside bar uses high-low",
			prev: model.Bar{Close: 100},
			bar:  model.Bar{High: 102, Low: 98, Close: 101},
			want: 4,
		},
		{
			name: "gap up is dominated by distance to previous close",
			prev: model.Bar{Close: 100},
			bar:  model.Bar{High: 106, Low: 105, Close: 105.5},
			want: 6,
		},
		{
			name: "gap down is dominated by low to previous close",
			prev: model.Bar{Close: 100},
			bar:  model.Bar{High: 95, Low: 94, Close: 94.5},
			want: 6,
		},
	}
	for _, tt := range tests {
		tr := TrueRange([]model.Bar{tt.prev, tt.bar})
		b := tt.bar
		components := math.Max(b.High-b.Low, math.Max(math.Abs(b.High-tt.prev.Close), math.Abs(b.Low-tt.prev.Close)))
		if !almostEqual(tr[1], tt.want) || !almostEqual(tr[1], components) {
			t.Errorf("%s: expected %f, got %f", tt.name, tt.want, tr[1])
		}
	}

	gap := TrueRange([]model.Bar{{Close: 100}, {High: 106, Low: 105}})
	if gap[1] <= 105-100 {
		t.Errorf("gap-up TR %f must exceed the low-to-previous-close distance", gap[1])
	}
}

func TestBreakout_ExcludesCurrentBar(t *testing.T) {
	bars := trendBars(21, 100, 0)
	for i := range bars {
		bars[i].High = 101
		bars[i].Low = 99
	}
	bars[20].High = 101.5
	priorHigh, priorLow, err := PriorExtremes(bars, 20)
	if err != nil {
		t.Fatal(err)
	}
	flags := Breakout(bars, priorHigh, priorLow)
	if !flags[20].True() {
		t.Errorf("expected breakout on last bar, prior high %.2f", priorHigh[20])
	}
	if priorHigh[20] != 101 {
		t.Errorf("prior high must exclude the current bar, got %.2f", priorHigh[20])
	}
}

func TestFlatSeriesGuards(t *testing.T) {
	bars := trendBars(30, 100, 0)
	for i := range bars {
		bars[i].Open, bars[i].High, bars[i].Low, bars[i].Close = 100, 100, 100, 100
	}
	rows, err := Annotate(bars, ExtendedParams())
	if err != nil {
		t.Fatal(err)
	}
	last := rows[len(rows)-1]
	if last.RSI != 50 {
		t.Errorf("flat RSI should be 50, got %f", last.RSI)
	}
	if last.StochK != 50 || last.StochD != 50 {
		t.Errorf("flat stochastic should be 50/50, got %f/%f", last.StochK, last.StochD)
	}
}

func TestMinBars(t *testing.T) {
	if n := SimpleParams().MinBars(); n != 21 {
		t.Errorf("simple: expected 21, got %d", n)
	}
	if n := ExtendedParams().MinBars(); n != 21 {
		t.Errorf("extended: expected 21, got %d", n)
	}
}
