package data

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stooqBody = `Date,Open,High,Low,Close,Volume
2024-01-02,470.1,472.3,469.5,471.0,55000000
2024-01-03,471.2,473.0,470.0,472.5,51000000
`

func stooqServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func fetchRange() (time.Time, time.Time) {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
}

func TestStooqProviderFetchBars(t *testing.T) {
	server := stooqServer(t, stooqBody, http.StatusOK)
	provider := &StooqProvider{BaseURL: server.URL, Client: server.Client()}

	start, end := fetchRange()
	bars, err := provider.FetchBars(context.Background(), "SPY", start, end)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, "SPY", bars[0].Instrument)
	assert.Equal(t, "2024-01-02", bars[0].DateKey())
	assert.Equal(t, 471.0, bars[0].Close)
	assert.Equal(t, bars[0].Close, bars[0].AdjClose, "stooq prices are already adjusted")
}

func TestStooqProviderNoData(t *testing.T) {
	server := stooqServer(t, "No data\n", http.StatusOK)
	provider := &StooqProvider{BaseURL: server.URL, Client: server.Client()}

	start, end := fetchRange()
	_, err := provider.FetchBars(context.Background(), "ZZZZ", start, end)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestStooqProviderHTTPError(t *testing.T) {
	server := stooqServer(t, "", http.StatusInternalServerError)
	provider := &StooqProvider{BaseURL: server.URL, Client: server.Client()}

	start, end := fetchRange()
	_, err := provider.FetchBars(context.Background(), "SPY", start, end)
	assert.ErrorContains(t, err, "unexpected status")
}

func TestStooqSymbolMapping(t *testing.T) {
	assert.Equal(t, "spy.us", stooqSymbol("SPY"))
	assert.Equal(t, "^spx", stooqSymbol("^SPX"))
	assert.Equal(t, "btc.v", stooqSymbol("BTC.V"))
}
