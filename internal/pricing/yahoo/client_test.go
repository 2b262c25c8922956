package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-tracker/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Options{
		ChartURL:  server.URL + "/v8/finance/chart",
		SearchURL: server.URL + "/v1/finance/search",
	}, zerolog.Nop())
}

func TestClient_Quote(t *testing.T) {
	var capturedPath, capturedUA string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"AAPL","regularMarketPrice":189.84,"previousClose":187.1}}],"error":null}}`))
	})

	price, err := client.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 189.84, price)
	assert.Equal(t, "/v8/finance/chart/AAPL", capturedPath)
	assert.NotEmpty(t, capturedUA)
}

func TestClient_QuoteFallsBackToPreviousClose(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"INFY.NS","previousClose":1502.5}}],"error":null}}`))
	})

	price, err := client.Quote(context.Background(), "INFY.NS")
	require.NoError(t, err)
	assert.Equal(t, 1502.5, price)
}

func TestClient_QuoteErrors(t *testing.T) {
	t.Run("not found payload", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
		})
		_, err := client.Quote(context.Background(), "NOPE")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "No data found")
	})

	t.Run("server error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		_, err := client.Quote(context.Background(), "AAPL")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "500")
	})

	t.Run("missing price", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"AAPL"}}],"error":null}}`))
		})
		_, err := client.Quote(context.Background(), "AAPL")
		assert.Error(t, err)
	})

	t.Run("garbage body", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		})
		_, err := client.Quote(context.Background(), "AAPL")
		assert.Error(t, err)
	})
}

func TestClient_History(t *testing.T) {
	var period1, period2 string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		period1 = r.URL.Query().Get("period1")
		period2 = r.URL.Query().Get("period2")
		// 2024-01-04 and 2024-01-05 at 09:15 IST (UTC+5:30), with a null close in between.
		_, _ = w.Write([]byte(`{"chart":{"result":[{
			"meta":{"symbol":"TCS.NS","gmtoffset":19800},
			"timestamp":[1704339900,1704380000,1704426300],
			"indicators":{"quote":[{"close":[3700.5,null,3712.25]}]}
		}],"error":null}}`))
	})

	from := model.MustParseDate("2024-01-04")
	to := model.MustParseDate("2024-01-06")
	bars, err := client.History(context.Background(), "TCS.NS", from, to)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, "2024-01-04", bars[0].Date.String())
	assert.Equal(t, 3700.5, bars[0].Close)
	assert.Equal(t, "2024-01-05", bars[1].Date.String())
	assert.Equal(t, 3712.25, bars[1].Close)
	assert.Equal(t, "1704326400", period1)
	assert.Equal(t, "1704499200", period2)
}

func TestClient_HistoryEmptyWindow(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"AAPL"},"indicators":{"quote":[{}]}}],"error":null}}`))
	})

	bars, err := client.History(context.Background(), "AAPL", model.MustParseDate("2024-01-06"), model.MustParseDate("2024-01-08"))
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestClient_Search(t *testing.T) {
	var query string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(`{"quotes":[
			{"symbol":"RELIANCE.NS","shortname":"RELIANCE INDS","longname":"Reliance Industries Limited","exchDisp":"NSE","quoteType":"EQUITY"},
			{"symbol":"RELI","shortname":"Reliance Global"},
			{"shortname":"no symbol"}
		]}`))
	})

	matches, err := client.Search(context.Background(), "relia")
	require.NoError(t, err)
	assert.Equal(t, "relia", query)
	require.Len(t, matches, 2)
	assert.Equal(t, "Reliance Industries Limited", matches[0].Name)
	assert.Equal(t, "RELIANCE.NS", matches[0].Ticker)
	assert.Equal(t, "NSE", matches[0].Exchange)
	assert.Equal(t, "Reliance Global", matches[1].Name)
}

func TestClient_SearchFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), "apple")
	assert.Error(t, err)
}
