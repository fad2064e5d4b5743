package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"SignalDesk/internal/model"
)

// DefaultTwelveDataURL is the public time-series endpoint.
const DefaultTwelveDataURL = "https://api.twelvedata.com"

// TwelveDataFetcher implements Fetcher using the Twelve Data REST API.
type TwelveDataFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	limiter *rate.Limiter
}

// NewTwelveDataFetcher creates a fetcher with optional proxy support.
// requestsPerMinute throttles outbound calls; <= 0 means the free-tier 8.
func NewTwelveDataFetcher(baseURL, apiKey, proxyURL string, requestsPerMinute int) *TwelveDataFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultTwelveDataURL
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 8
	}
	return &TwelveDataFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerMinute)/60, 1),
	}
}

func (f *TwelveDataFetcher) Name() string { return "twelvedata" }

// tdResponse is the JSON shape of /time_series. Numbers arrive as strings.
type tdResponse struct {
	Meta struct {
		Symbol           string `json:"symbol"`
		Interval         string `json:"interval"`
		ExchangeTimezone string `json:"exchange_timezone"`
	} `json:"meta"`
	Values  *[]tdValue `json:"values"`
	Status  string     `json:"status"`
	Code    int        `json:"code"`
	Message string     `json:"message"`
}

type tdValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
}

var tdLayouts = []string{"2006-01-02 15:04:05", "2006-01-02"}

func (f *TwelveDataFetcher) FetchBars(ctx context.Context, symbol string, tf model.Timeframe, size int) ([]model.Bar, error) {
	fail := func(kind ErrorKind, err error) error {
		return &FetchError{Kind: kind, Source: f.Name(), Symbol: symbol, Interval: tf, Err: err}
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", string(tf))
	q.Set("apikey", f.APIKey)
	q.Set("outputsize", strconv.Itoa(size))
	q.Set("format", "JSON")
	endpoint := f.BaseURL + "/time_series?" + q.Encode()

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fail(KindNetwork, fmt.Errorf("rate limiter: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fail(KindNetwork, err)
	}
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

	var td tdResponse
	if err := json.Unmarshal(body, &td); err != nil {
		return nil, fail(KindDecode, err)
	}
	if td.Status == "error" {
		msg := td.Message
		if msg == "" {
			msg = "API error"
		}
		return nil, fail(KindProvider, errors.New(msg))
	}
	if td.Values == nil {
		return nil, fail(KindMissingValues, errors.New("no 'values' in API response"))
	}

	loc := time.UTC
	if td.Meta.ExchangeTimezone != "" {
		if l, err := time.LoadLocation(td.Meta.ExchangeTimezone); err == nil {
			loc = l
		}
	}

	bars := make([]model.Bar, 0, len(*td.Values))
	dropped := 0
	for _, v := range *td.Values {
		b, ok := parseTDValue(v, loc)
		if !ok {
			dropped++
			continue
		}
		bars = append(bars, b)
	}
	if dropped > 0 {
		log.Printf("[WARN] %s %s: dropped %d incomplete rows", symbol, tf, dropped)
	}
	return cleanBars(bars), nil
}

func parseTDValue(v tdValue, loc *time.Location) (model.Bar, bool) {
	var ts time.Time
	var err error
	for _, layout := range tdLayouts {
		if ts, err = time.ParseInLocation(layout, v.Datetime, loc); err == nil {
			break
		}
	}
	if err != nil {
		return model.Bar{}, false
	}
	var nums [4]float64
	for i, s := range []string{v.Open, v.High, v.Low, v.Close} {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.Bar{}, false
		}
		nums[i] = n
	}
	b := model.Bar{Time: ts, Open: nums[0], High: nums[1], Low: nums[2], Close: nums[3]}
	if !model.Defined(b.Open, b.High, b.Low, b.Close) {
		return model.Bar{}, false
	}
	return b, true
}
