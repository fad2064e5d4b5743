package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"SignalDesk/internal/model"
)

// DefaultNewsURL is the NewsAPI base URL.
const DefaultNewsURL = "https://newsapi.org"

// DefaultKeywords are the market-moving terms that open a news window.
var DefaultKeywords = []string{"gold", "XAUUSD", "Federal Reserve", "FOMC", "NFP", "CPI", "USD"}

// NewsChecker reports a qualifying headline published within the window.
type NewsChecker interface {
	Check(ctx context.Context, now time.Time) (model.NewsItem, bool, error)
}

// NewsAPIChecker implements NewsChecker against NewsAPI /v2/everything.
type NewsAPIChecker struct {
	BaseURL  string
	APIKey   string
	Keywords []string
	Window   time.Duration
	Client   *http.Client
}

// NewNewsAPIChecker creates a checker with a 30-minute window.
func NewNewsAPIChecker(apiKey string, keywords []string) *NewsAPIChecker {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	return &NewsAPIChecker{
		BaseURL:  DefaultNewsURL,
		APIKey:   apiKey,
		Keywords: keywords,
		Window:   30 * time.Minute,
		Client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type newsResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string `json:"title"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

func (n *NewsAPIChecker) query() string {
	terms := make([]string, len(n.Keywords))
	for i, k := range n.Keywords {
		if strings.Contains(k, " ") {
			k = `"` + k + `"`
		}
		terms[i] = k
	}
	return strings.Join(terms, " OR ")
}

// Check returns the first article published less than Window before now.
func (n *NewsAPIChecker) Check(ctx context.Context, now time.Time) (model.NewsItem, bool, error) {
	q := url.Values{}
	q.Set("q", n.query())
	q.Set("language", "en")
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", "5")
	q.Set("apiKey", n.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.BaseURL+"/v2/everything?"+q.Encode(), nil)
	if err != nil {
		return model.NewsItem{}, false, err
	}
	resp, err := n.Client.Do(req)
	if err != nil {
		return model.NewsItem{}, false, fmt.Errorf("news fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.NewsItem{}, false, fmt.Errorf("news read body: %w", err)
	}
	var nr newsResponse
	if err := json.Unmarshal(body, &nr); err != nil {
		return model.NewsItem{}, false, fmt.Errorf("news decode: %w", err)
	}
	if nr.Status == "error" {
		return model.NewsItem{}, false, fmt.Errorf("news api error: %s", nr.Message)
	}

	for _, a := range nr.Articles {
		published, err := time.Parse(time.RFC3339, a.PublishedAt)
		if err != nil {
			continue
		}
		if now.Sub(published) < n.Window {
			return model.NewsItem{Title: a.Title, PublishedAt: published}, true, nil
		}
	}
	return model.NewsItem{}, false, nil
}
