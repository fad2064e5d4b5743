package recorder

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDesk/internal/model"
)

func sampleSignals() []*model.Signal {
	ts := time.Date(2025, 3, 14, 10, 30, 0, 0, time.Local)
	return []*model.Signal{
		{
			Symbol: "XAU/USD", Type: model.SignalStrongBuy, Score: 5,
			Entry: 2931.45, StopLoss: 2921.45, TP1: 2941.45, TP2: 2946.45, TP3: 2951.45, RRR: 1,
			HasLevels: true, Precision: 2, Timestamp: ts, Expires: ts.Add(15 * time.Minute),
		},
		{
			Symbol: "EUR/USD", Type: model.SignalWeakSell, Score: -2,
			Entry: 1.0877, Precision: 4, Timestamp: ts.Add(time.Minute), Expires: ts.Add(16 * time.Minute),
		},
		{
			Symbol: "XAU/USD", Type: model.SignalNewsBreakout, Headline: "Fed, surprising markets, cuts",
			Entry: 2000, StopLoss: 1998, TP1: 2002.4, TP2: 2003.6, TP3: 2005, RRR: 1.2,
			HasLevels: true, Precision: 2, Timestamp: ts.Add(2 * time.Minute), Expires: ts.Add(17 * time.Minute),
		},
	}
}

func TestCSVRecorder_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "signals_log.csv")
	rec, err := NewCSVRecorder(path)
	require.NoError(t, err)

	want := sampleSignals()
	for _, s := range want {
		require.NoError(t, rec.RecordSignal(s, nil))
	}

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(raw), "datetime,expires"), "header must be written exactly once")
	assert.Contains(t, string(raw), "1.0877,,,,,")

	got, err := ReadSignals(path)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i, w := range want {
		g := got[i]
		assert.Equal(t, w.Symbol, g.Symbol)
		assert.Equal(t, w.Type, g.Type)
		assert.Equal(t, w.Entry, g.Entry)
		assert.Equal(t, w.StopLoss, g.StopLoss)
		assert.Equal(t, w.TP1, g.TP1)
		assert.Equal(t, w.TP2, g.TP2)
		assert.Equal(t, w.TP3, g.TP3)
		assert.Equal(t, w.RRR, g.RRR)
		assert.Equal(t, w.HasLevels, g.HasLevels)
		assert.Equal(t, w.Precision, g.Precision)
		assert.Equal(t, w.Score, g.Score)
		assert.Equal(t, w.Headline, g.Headline)
		assert.True(t, w.Timestamp.Equal(g.Timestamp))
	}
}

func TestCSVRecorder_AppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals_log.csv")
	first, err := NewCSVRecorder(path)
	require.NoError(t, err)
	require.NoError(t, first.RecordSignal(sampleSignals()[0], nil))

	second, err := NewCSVRecorder(path)
	require.NoError(t, err)
	require.NoError(t, second.RecordSignal(sampleSignals()[1], nil))

	got, err := ReadSignals(path)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCSVRecorder_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	rec := &CSVRecorder{path: dir} // a directory cannot be opened for append
	assert.Error(t, rec.RecordSignal(sampleSignals()[0], nil))
}

type failingRecorder struct{ err error }

func (f failingRecorder) RecordSignal(*model.Signal, []model.TimeframeAssessment) error { return f.err }
func (f failingRecorder) Close() error                                                  { return nil }

func TestMultiRecorder_JoinsErrors(t *testing.T) {
	boom := errors.New("disk full")
	m := MultiRecorder{NewNoopRecorder(), failingRecorder{boom}}
	err := m.RecordSignal(sampleSignals()[0], nil)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, m.Close())
}

func TestSQLiteRecorder_RecordAndQuery(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer rec.Close()

	assessments := []model.TimeframeAssessment{
		{Timeframe: model.Timeframe5m, Total: 3, Factors: []model.FactorScore{{Name: "trend", Vote: 1}, {Name: "rsi", Vote: 1}}},
		{Timeframe: model.Timeframe1h, Vetoed: true, VetoReason: "flat candle"},
	}
	for _, s := range sampleSignals() {
		require.NoError(t, rec.RecordSignal(s, assessments))
	}

	gold, err := rec.RecentSignals("XAU/USD", 10)
	require.NoError(t, err)
	require.Len(t, gold, 2)
	assert.Equal(t, model.SignalNewsBreakout, gold[0].Type, "newest first")
	assert.Equal(t, 2931.45, gold[1].Entry)
	assert.True(t, gold[1].HasLevels)

	all, err := rec.RecentSignals("", 1)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	var n int
	require.NoError(t, rec.db.QueryRow(`SELECT COUNT(*) FROM assessments`).Scan(&n))
	assert.Equal(t, 6, n)
}

func TestEncodeFactors(t *testing.T) {
	got := encodeFactors([]model.FactorScore{{Name: "trend", Vote: 1}, {Name: "bollinger", Vote: 0}, {Name: "rsi", Vote: -1}})
	assert.Equal(t, "trend:+1 bollinger:+0 rsi:-1", got)
}
