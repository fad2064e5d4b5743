package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDesk/internal/analyzer"
	"SignalDesk/internal/collector"
	"SignalDesk/internal/config"
	"SignalDesk/internal/model"
	"SignalDesk/internal/recorder"
)

func testConfig(t *testing.T, provider string) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	dir := t.TempDir()
	cfg.DataSource.Provider = provider
	cfg.DataSource.APIKey = "key"
	cfg.News.APIKey = ""
	cfg.Journal.CSVPath = filepath.Join(dir, "signals_log.csv")
	cfg.Journal.SQLitePath = filepath.Join(dir, "db", "journal.db")
	return cfg
}

func TestNewFetcher(t *testing.T) {
	for provider, want := range map[string]string{"twelvedata": "twelvedata", "yahoo": "yahoo", "mock": "mock"} {
		f, err := NewFetcher(testConfig(t, provider))
		require.NoError(t, err)
		assert.Equal(t, want, f.Name())
	}
	_, err := NewFetcher(testConfig(t, "carrier-pigeon"))
	assert.Error(t, err)
}

func TestNewFetcher_YahooKeepsDefaultURL(t *testing.T) {
	cfg := testConfig(t, "yahoo")
	cfg.DataSource.BaseURL = ""
	f, err := NewFetcher(cfg)
	require.NoError(t, err)
	assert.Equal(t, collector.DefaultYahooURL, f.(*collector.YahooFetcher).BaseURL)

	cfg.DataSource.BaseURL = "http://127.0.0.1:9999"
	f, err = NewFetcher(cfg)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9999", f.(*collector.YahooFetcher).BaseURL)
}

func TestBuild_NewsSymbolsFromConfig(t *testing.T) {
	cfg := testConfig(t, "mock")
	cfg.News.Symbols = []string{"XAG/USD"}
	a, err := Build(cfg)
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, []string{"XAG/USD"}, a.Analyzer.NewsSymbols)
}

func TestBuild_MockPipelineJournals(t *testing.T) {
	cfg := testConfig(t, "mock")
	a, err := Build(cfg)
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.Journal)
	assert.Nil(t, a.Analyzer.News)
	_, isMock := a.Analyzer.Collector.Fetcher.(*collector.MockFetcher)
	assert.True(t, isMock)

	now := time.Now()
	report, _, err := a.Analyzer.Analyze(context.Background(), analyzer.NewCooldown(cfg.CooldownInterval()), "XAU/USD", now)
	require.NoError(t, err)
	assert.Equal(t, model.SignalStrongBuy, report.Signal.Type)

	logged, err := recorder.ReadSignals(cfg.Journal.CSVPath)
	require.NoError(t, err)
	assert.Len(t, logged, 1)

	recent, err := a.Journal.RecentSignals("XAU/USD", 5)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
