package analyzer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"SignalDesk/internal/collector"
	"SignalDesk/internal/model"
	"SignalDesk/internal/recorder"
	"SignalDesk/internal/strategy"
)

var testNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.Local)

type fakeNews struct {
	item model.NewsItem
	ok   bool
	err  error
}

func (f fakeNews) Check(context.Context, time.Time) (model.NewsItem, bool, error) {
	return f.item, f.ok, f.err
}

type countingRecorder struct {
	signals []*model.Signal
	err     error
}

func (c *countingRecorder) RecordSignal(sig *model.Signal, _ []model.TimeframeAssessment) error {
	c.signals = append(c.signals, sig)
	return c.err
}
func (c *countingRecorder) Close() error { return nil }

func fallingBars(base, step float64, count int) []model.Bar {
	bars := make([]model.Bar, count)
	for i := range bars {
		c := base - float64(i)*step
		bars[i] = model.Bar{
			Time:  testNow.Add(-time.Duration(count-i) * 15 * time.Minute),
			Open:  c + 0.8*step,
			High:  c + 0.9*step,
			Low:   c - 0.1*step,
			Close: c,
		}
	}
	return bars
}

func newAnalyzer(t *testing.T, fetcher collector.Fetcher, news collector.NewsChecker, rec recorder.Recorder) *Analyzer {
	t.Helper()
	cfg, err := strategy.Profile("gold")
	if err != nil {
		t.Fatal(err)
	}
	engine, err := strategy.NewEngine(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return New(collector.NewCollector(fetcher, cfg.Indicators, 50), engine, news, rec)
}

func TestAnalyze_EndToEndStrongBuy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals_log.csv")
	csvRec, err := recorder.NewCSVRecorder(path)
	if err != nil {
		t.Fatal(err)
	}
	a := newAnalyzer(t, &collector.MockFetcher{Price: 2000, Step: 1}, nil, csvRec)

	report, cd, err := a.Analyze(context.Background(), NewCooldown(40*time.Second), "XAU/USD", testNow)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !cd.Last.Equal(testNow) {
		t.Errorf("cooldown not stamped: %v", cd.Last)
	}

	sig := report.Signal
	if sig.Type != model.SignalStrongBuy {
		t.Fatalf("type = %s (score %d), want Strong Buy", sig.Type, report.Score)
	}
	if report.Score < 3 {
		t.Errorf("score = %d, want >= 3", report.Score)
	}
	if len(report.Assessments) != 3 {
		t.Errorf("assessments = %d, want 3", len(report.Assessments))
	}
	if !sig.HasLevels {
		t.Fatal("strong signal without levels")
	}
	for name, v := range map[string]float64{"entry": sig.Entry, "sl": sig.StopLoss, "tp1": sig.TP1, "tp2": sig.TP2, "tp3": sig.TP3} {
		if v <= 0 {
			t.Errorf("%s = %v, want populated", name, v)
		}
	}
	if !(sig.StopLoss < sig.Entry && sig.Entry < sig.TP1 && sig.TP1 < sig.TP2 && sig.TP2 < sig.TP3) {
		t.Errorf("levels out of order: sl=%v entry=%v tp=%v/%v/%v", sig.StopLoss, sig.Entry, sig.TP1, sig.TP2, sig.TP3)
	}
	if sig.Precision != 2 {
		t.Errorf("precision = %d, want 2", sig.Precision)
	}
	if !sig.Expires.Equal(testNow.Add(15 * time.Minute)) {
		t.Errorf("expires = %v", sig.Expires)
	}
	if len(report.Closes) != reportCloses {
		t.Errorf("closes = %d, want %d", len(report.Closes), reportCloses)
	}

	logged, err := recorder.ReadSignals(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(logged) != 1 || logged[0].Type != model.SignalStrongBuy || logged[0].StopLoss != sig.StopLoss {
		t.Errorf("journal = %+v", logged)
	}
}

func TestAnalyze_CooldownRejectsEarlyRefresh(t *testing.T) {
	mock := &collector.MockFetcher{Price: 2000, Step: 1}
	a := newAnalyzer(t, mock, nil, nil)

	_, cd, err := a.Analyze(context.Background(), NewCooldown(40*time.Second), "XAU/USD", testNow)
	if err != nil {
		t.Fatal(err)
	}
	calls := mock.Calls

	_, after, err := a.Analyze(context.Background(), cd, "XAU/USD", testNow.Add(10*time.Second))
	var cerr *CooldownError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want CooldownError", err)
	}
	if WaitSeconds(cerr.Remaining) != 30 {
		t.Errorf("remaining = %v, want 30s", cerr.Remaining)
	}
	if mock.Calls != calls {
		t.Errorf("fetcher called during cooldown")
	}
	if !after.Last.Equal(testNow) {
		t.Errorf("rejected refresh moved the stamp to %v", after.Last)
	}

	if _, _, err := a.Analyze(context.Background(), cd, "XAU/USD", testNow.Add(40*time.Second)); err != nil {
		t.Errorf("refresh after interval: %v", err)
	}
}

func TestAnalyze_FailedRefreshConsumesCooldown(t *testing.T) {
	boom := &collector.FetchError{Kind: collector.KindNetwork, Source: "mock", Err: errors.New("connection reset")}
	a := newAnalyzer(t, &collector.MockFetcher{Err: boom}, nil, nil)

	report, cd, err := a.Analyze(context.Background(), NewCooldown(40*time.Second), "XAU/USD", testNow)
	if report != nil {
		t.Errorf("report = %+v, want nil", report)
	}
	if kind, ok := collector.KindOf(err); !ok || kind != collector.KindNetwork {
		t.Errorf("err = %v, want network FetchError", err)
	}
	if !cd.Last.Equal(testNow) {
		t.Errorf("failed refresh did not consume cooldown")
	}
}

func TestAnalyze_NewsBypassesScoring(t *testing.T) {
	rec := &countingRecorder{}
	news := fakeNews{ok: true, item: model.NewsItem{Title: "Fed cuts rates", PublishedAt: testNow.Add(-5 * time.Minute)}}
	bars := collector.GenerateMockBars(1990, 1, 30, testNow) // last close 2019
	mock := &collector.MockFetcher{Bars: map[model.Timeframe][]model.Bar{model.Timeframe5m: bars}}
	a := newAnalyzer(t, mock, news, rec)

	report, _, err := a.Analyze(context.Background(), NewCooldown(40*time.Second), "XAU/USD", testNow)
	if err != nil {
		t.Fatal(err)
	}
	sig := report.Signal
	if sig.Type != model.SignalNewsBreakout || sig.Headline != "Fed cuts rates" {
		t.Fatalf("signal = %+v", sig)
	}
	if sig.Entry != 2019 {
		t.Errorf("entry = %v, want latest 5min close 2019", sig.Entry)
	}
	if mock.Calls != 1 {
		t.Errorf("fetch calls = %d, want 1", mock.Calls)
	}
	if report.News == nil || len(rec.signals) != 1 {
		t.Errorf("news report not journaled")
	}
}

func TestAnalyze_NewsOnlyForListedSymbols(t *testing.T) {
	rec := &countingRecorder{}
	news := fakeNews{ok: true, item: model.NewsItem{Title: "Gold hits record", PublishedAt: testNow.Add(-time.Minute)}}
	a := newAnalyzer(t, &collector.MockFetcher{Price: 1.08, Step: 0.001}, news, rec)

	report, _, err := a.Analyze(context.Background(), NewCooldown(time.Second), "EUR/USD", testNow)
	if err != nil {
		t.Fatal(err)
	}
	if report.News != nil || report.Signal.Type == model.SignalNewsBreakout {
		t.Fatalf("EUR/USD picked up a gold headline: %+v", report.Signal)
	}
	if report.Signal.Type != model.SignalStrongBuy || len(report.Assessments) != 3 {
		t.Errorf("EUR/USD should be scored normally, got %s with %d assessments", report.Signal.Type, len(report.Assessments))
	}

	a.NewsSymbols = []string{"XAU/USD", "EUR/USD"}
	report, _, err = a.Analyze(context.Background(), NewCooldown(time.Second), "EUR/USD", testNow)
	if err != nil {
		t.Fatal(err)
	}
	if report.Signal.Type != model.SignalNewsBreakout {
		t.Errorf("listed symbol should take the news path, got %s", report.Signal.Type)
	}
}

func TestAnalyze_NewsFailureFallsBackToScoring(t *testing.T) {
	a := newAnalyzer(t, &collector.MockFetcher{Price: 2000, Step: 1}, fakeNews{err: errors.New("quota")}, nil)
	report, _, err := a.Analyze(context.Background(), NewCooldown(time.Second), "XAU/USD", testNow)
	if err != nil {
		t.Fatal(err)
	}
	if report.Signal.Type != model.SignalStrongBuy || report.News != nil {
		t.Errorf("signal = %s, news = %v", report.Signal.Type, report.News)
	}
}

func TestAnalyze_JournalsOnlyActionable(t *testing.T) {
	rising := collector.GenerateMockBars(2000, 1, 50, testNow)
	flat := collector.GenerateMockBars(2000, 0, 50, testNow)
	tests := []struct {
		name     string
		bars     map[model.Timeframe][]model.Bar
		want     model.SignalType
		recorded int
	}{
		{
			"mixed frames stay neutral",
			map[model.Timeframe][]model.Bar{
				model.Timeframe5m:  rising,
				model.Timeframe15m: fallingBars(2100, 1, 50),
				model.Timeframe1h:  flat,
			},
			model.SignalNone, 0,
		},
		{
			"weak sell is journaled",
			map[model.Timeframe][]model.Bar{
				model.Timeframe5m:  rising,
				model.Timeframe15m: flat,
				model.Timeframe1h:  flat,
			},
			model.SignalWeakSell, 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &countingRecorder{err: errors.New("disk full")}
			a := newAnalyzer(t, &collector.MockFetcher{Bars: tt.bars}, nil, rec)
			report, _, err := a.Analyze(context.Background(), NewCooldown(time.Second), "XAU/USD", testNow)
			if err != nil {
				t.Fatalf("journal error leaked: %v", err)
			}
			if report.Signal.Type != tt.want {
				t.Errorf("type = %s (score %d), want %s", report.Signal.Type, report.Score, tt.want)
			}
			if report.Signal.HasLevels {
				t.Errorf("%s carries levels", report.Signal.Type)
			}
			if len(rec.signals) != tt.recorded {
				t.Errorf("recorded %d, want %d", len(rec.signals), tt.recorded)
			}
		})
	}
}

func TestCooldown_Remaining(t *testing.T) {
	cd := NewCooldown(60 * time.Second)
	if cd.Remaining(testNow) != 0 {
		t.Error("fresh cooldown should allow immediately")
	}
	cd, err := cd.Allow(testNow)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		after time.Duration
		want  int
	}{
		{0, 60},
		{500 * time.Millisecond, 60},
		{59 * time.Second, 1},
		{60 * time.Second, 0},
		{2 * time.Minute, 0},
	}
	for _, tt := range tests {
		if got := WaitSeconds(cd.Remaining(testNow.Add(tt.after))); got != tt.want {
			t.Errorf("after %v: wait %ds, want %ds", tt.after, got, tt.want)
		}
	}
}

func TestCooldownState_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cooldown.json")
	cd, err := LoadCooldown(path, 40*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if !cd.Last.IsZero() {
		t.Fatal("missing state file should give a fresh cooldown")
	}
	cd.Last = testNow
	if err := SaveCooldown(path, cd); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadCooldown(path, 40*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if !loaded.Last.Equal(testNow) || loaded.Interval != 40*time.Second {
		t.Errorf("loaded = %+v", loaded)
	}
}
