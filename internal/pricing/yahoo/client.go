// Package yahoo is a Yahoo Finance client for quotes, daily history and symbol search.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"finance-tracker/internal/model"
	"finance-tracker/internal/pricing"
)

const (
	DefaultChartURL  = "https://query1.finance.yahoo.com/v8/finance/chart/"
	DefaultSearchURL = "https://query2.finance.yahoo.com/v1/finance/search"

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

// Options configures a Client. Empty fields take defaults.
type Options struct {
	ChartURL    string
	SearchURL   string
	HTTPTimeout time.Duration
	SearchLimit int
}

// Client talks to the Yahoo Finance chart and search endpoints.
type Client struct {
	client      *http.Client
	chartURL    string
	searchURL   string
	searchLimit int
	log         zerolog.Logger
}

// NewClient creates a new Yahoo Finance client.
func NewClient(opts Options, log zerolog.Logger) *Client {
	if opts.ChartURL == "" {
		opts.ChartURL = DefaultChartURL
	}
	if opts.SearchURL == "" {
		opts.SearchURL = DefaultSearchURL
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 30 * time.Second
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 10
	}
	return &Client{
		client:      &http.Client{Timeout: opts.HTTPTimeout},
		chartURL:    strings.TrimSuffix(opts.ChartURL, "/") + "/",
		searchURL:   opts.SearchURL,
		searchLimit: opts.SearchLimit,
		log:         log.With().Str("client", "yahoo").Logger(),
	}
}

var _ pricing.Service = (*Client)(nil)

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				PreviousClose      float64 `json:"previousClose"`
				GMTOffset          int64   `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("Yahoo Finance API error %s: %s", e.Code, e.Description)
}

// Quote returns the regular market price, falling back to the previous close.
func (c *Client) Quote(ctx context.Context, ticker string) (float64, error) {
	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("range", "5d")

	var resp chartResponse
	if err := c.get(ctx, c.chartURL+url.PathEscape(ticker)+"?"+params.Encode(), &resp); err != nil {
		return 0, fmt.Errorf("failed to fetch quote for %s: %w", ticker, err)
	}
	if resp.Chart.Error != nil {
		return 0, resp.Chart.Error
	}
	if len(resp.Chart.Result) == 0 {
		return 0, fmt.Errorf("no quote data returned for symbol %s", ticker)
	}

	meta := resp.Chart.Result[0].Meta
	for _, p := range []float64{meta.RegularMarketPrice, meta.PreviousClose, meta.ChartPreviousClose} {
		if p > 0 {
			return p, nil
		}
	}
	return 0, fmt.Errorf("no price field in quote for symbol %s", ticker)
}

// History returns daily closes for sessions in [from, to).
func (c *Client) History(ctx context.Context, ticker string, from, to model.Date) ([]pricing.Bar, error) {
	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("period1", strconv.FormatInt(from.Time().Unix(), 10))
	params.Add("period2", strconv.FormatInt(to.Time().Unix(), 10))

	var resp chartResponse
	if err := c.get(ctx, c.chartURL+url.PathEscape(ticker)+"?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", ticker, err)
	}
	if resp.Chart.Error != nil {
		return nil, resp.Chart.Error
	}
	if len(resp.Chart.Result) == 0 {
		return []pricing.Bar{}, nil
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return []pricing.Bar{}, nil
	}
	closes := result.Indicators.Quote[0].Close

	bars := make([]pricing.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// Yahoo leaves nulls for sessions without trades.
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		// Timestamps are session opens; the exchange offset gives the local trading day.
		day := model.DateOf(time.Unix(ts+result.Meta.GMTOffset, 0).UTC())
		bars = append(bars, pricing.Bar{Date: day, Close: *closes[i]})
	}

	c.log.Debug().
		Str("symbol", ticker).
		Stringer("from", from).
		Stringer("to", to).
		Int("count", len(bars)).
		Msg("Fetched historical prices")

	return bars, nil
}

type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		Exchange  string `json:"exchDisp"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
}

// Search returns instruments whose name or symbol matches query.
func (c *Client) Search(ctx context.Context, query string) ([]pricing.Match, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("quotesCount", strconv.Itoa(c.searchLimit))
	params.Add("newsCount", "0")

	var resp searchResponse
	if err := c.get(ctx, c.searchURL+"?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("failed to search %q: %w", query, err)
	}

	matches := make([]pricing.Match, 0, len(resp.Quotes))
	for _, q := range resp.Quotes {
		if q.Symbol == "" {
			continue
		}
		name := q.LongName
		if name == "" {
			name = q.ShortName
		}
		if name == "" {
			name = q.Symbol
		}
		matches = append(matches, pricing.Match{
			Name:     name,
			Ticker:   q.Symbol,
			Exchange: q.Exchange,
			Type:     q.QuoteType,
		})
	}
	return matches, nil
}

// get performs a GET and decodes the JSON body into v. A chart error payload
// sent with a non-200 status is decoded too so callers see Yahoo's reason.
func (c *Client) get(ctx context.Context, reqURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var failed chartResponse
		if json.Unmarshal(body, &failed) == nil && failed.Chart.Error != nil {
			return failed.Chart.Error
		}
		return fmt.Errorf("Yahoo Finance API returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
