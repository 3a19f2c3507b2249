package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// chartResponse mirrors the subset of the finance chart payload we read.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

// ChartFeed is the tier-2 price source: a 3-month daily close series per
// futures symbol. Each call carries its own timeout budget.
type ChartFeed struct {
	baseURL string
	client  *http.Client
}

func NewChartFeed(baseURL string, timeout time.Duration) *ChartFeed {
	return &ChartFeed{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (f *ChartFeed) Closes(ctx context.Context, symbol string) ([]float64, error) {
	url := fmt.Sprintf("%s/%s?range=3mo&interval=1d", f.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("feed returned status %d for %s", resp.StatusCode, symbol)
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Chart.Result) == 0 || len(parsed.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no data returned for %s", symbol)
	}

	closes := parsed.Chart.Result[0].Indicators.Quote[0].Close
	// Trailing nulls decode as zero; trim them so the latest close is real.
	for len(closes) > 0 && closes[len(closes)-1] == 0 {
		closes = closes[:len(closes)-1]
	}
	return closes, nil
}

// Series returns dates and closes for charting endpoints.
func (f *ChartFeed) Series(ctx context.Context, symbol string) ([]string, []float64, error) {
	url := fmt.Sprintf("%s/%s?range=3mo&interval=1d", f.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	var parsed chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, nil, err
	}
	if len(parsed.Chart.Result) == 0 || len(parsed.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil, fmt.Errorf("no data returned for %s", symbol)
	}

	result := parsed.Chart.Result[0]
	dates := make([]string, 0, len(result.Timestamp))
	for _, ts := range result.Timestamp {
		dates = append(dates, time.Unix(ts, 0).UTC().Format("2006-01-02"))
	}
	return dates, result.Indicators.Quote[0].Close, nil
}
