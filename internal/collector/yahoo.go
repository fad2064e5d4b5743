package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"SignalDesk/internal/model"
)

// DefaultYahooURL is the public chart endpoint.
const DefaultYahooURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance's public chart API.
// It needs no key and serves as a fallback when no Twelve Data key is set.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		BaseURL: DefaultYahooURL,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		SymbolMap: map[string]string{
			"XAU/USD": "GC=F",
			"XAG/USD": "SI=F",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooSymbol maps "EUR/USD" to "EURUSD=X" unless an explicit mapping exists.
func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	if strings.Contains(symbol, "/") {
		return strings.ReplaceAll(symbol, "/", "") + "=X"
	}
	return symbol
}

// yahooInterval maps a timeframe to Yahoo's interval and a range that
// covers the requested number of bars.
func yahooInterval(tf model.Timeframe) (interval, rng string) {
	switch tf {
	case model.Timeframe5m:
		return "5m", "5d"
	case model.Timeframe15m:
		return "15m", "5d"
	default:
		return "60m", "1mo"
	}
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open  []*float64 `json:"open"`
					High  []*float64 `json:"high"`
					Low   []*float64 `json:"low"`
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(vals []*float64, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	return *vals[i], true
}

func (f *YahooFetcher) FetchBars(ctx context.Context, symbol string, tf model.Timeframe, size int) ([]model.Bar, error) {
	fail := func(kind ErrorKind, err error) error {
		return &FetchError{Kind: kind, Source: f.Name(), Symbol: symbol, Interval: tf, Err: err}
	}

	interval, rng := yahooInterval(tf)
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), interval, rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fail(KindNetwork, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fail(KindNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fail(KindNetwork, fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fail(KindStatus, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body)))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fail(KindDecode, err)
	}
	if chart.Chart.Error != nil {
		return nil, fail(KindProvider, errors.New(chart.Chart.Error.Description))
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fail(KindMissingValues, errors.New("no data returned"))
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, ok1 := at(quote.Open, i)
		h, ok2 := at(quote.High, i)
		l, ok3 := at(quote.Low, i)
		c, ok4 := at(quote.Close, i)
		if !(ok1 && ok2 && ok3 && ok4) {
			continue // null bars (market closed)
		}
		bars = append(bars, model.Bar{Time: time.Unix(ts, 0).UTC(), Open: o, High: h, Low: l, Close: c})
	}

	bars = cleanBars(bars)
	if size > 0 && len(bars) > size {
		bars = bars[len(bars)-size:]
	}
	return bars, nil
}
