package app

import (
	"fmt"
	"log"

	"SignalDesk/internal/analyzer"
	"SignalDesk/internal/collector"
	"SignalDesk/internal/config"
	"SignalDesk/internal/recorder"
	"SignalDesk/internal/strategy"
)

// App bundles the pipeline built from a Config.
type App struct {
	Config   *config.Config
	Analyzer *analyzer.Analyzer
	Recorder recorder.Recorder
	// Journal is nil when SQLite could not be opened.
	Journal *recorder.SQLiteRecorder
}

// NewFetcher picks the bar source named by the config.
func NewFetcher(cfg *config.Config) (collector.Fetcher, error) {
	ds := cfg.DataSource
	switch ds.Provider {
	case "twelvedata":
		return collector.NewTwelveDataFetcher(ds.BaseURL, ds.APIKey, cfg.Proxy, ds.RequestsPerMinute), nil
	case "yahoo":
		f := collector.NewYahooFetcher(cfg.Proxy)
		if ds.BaseURL != "" {
			f.BaseURL = ds.BaseURL
		}
		return f, nil
	case "mock":
		return &collector.MockFetcher{Price: 2000, Step: 0.5}, nil
	default:
		return nil, fmt.Errorf("unknown data source %q", ds.Provider)
	}
}

// Build wires fetcher, collector, engine, news checker and journals.
func Build(cfg *config.Config) (*App, error) {
	sc, err := cfg.StrategyConfig()
	if err != nil {
		return nil, err
	}
	engine, err := strategy.NewEngine(sc)
	if err != nil {
		return nil, err
	}

	fetcher, err := NewFetcher(cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] data source: %s, profile: %s", fetcher.Name(), cfg.Profile)
	col := collector.NewCollector(fetcher, sc.Indicators, cfg.DataSource.OutputSize)

	var news collector.NewsChecker
	if cfg.NewsEnabled() {
		news = collector.NewNewsAPIChecker(cfg.News.APIKey, cfg.News.Keywords)
		log.Printf("[INFO] news mode enabled for %v", cfg.News.Symbols)
	}

	a := &App{Config: cfg}
	var recs recorder.MultiRecorder
	csvRec, err := recorder.NewCSVRecorder(cfg.Journal.CSVPath)
	if err != nil {
		log.Printf("[WARN] init csv recorder failed: %v", err)
	} else {
		recs = append(recs, csvRec)
	}
	if cfg.Journal.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Journal.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, continuing without it: %v", err)
		} else {
			recs = append(recs, sr)
			a.Journal = sr
		}
	}
	a.Recorder = recs

	a.Analyzer = analyzer.New(col, engine, news, recs)
	a.Analyzer.NewsSymbols = cfg.News.Symbols
	return a, nil
}

// Close releases the journals.
func (a *App) Close() error {
	return a.Recorder.Close()
}
