package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoreStatsClient_FetchesFromCoreStatsPath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"iv_rank": 42.0}`))
	}))
	defer server.Close()

	client := CoreStatsClient{Client: NewClient("core_stats", testEndpoint(server.URL))}
	stats, err := client.CoreStats(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "/core-stats/AAPL", gotPath)
	assert.Equal(t, 42.0, stats["iv_rank"])
}

func TestCoreStatsClient_PropagatesFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := CoreStatsClient{Client: NewClient("core_stats", testEndpoint(server.URL))}
	_, err := client.CoreStats(context.Background(), "AAPL")
	assert.Error(t, err)
}

func TestDailySource_FetchesFromDailiesPath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`[{"close": 100.0}, {"close": 101.0}]`))
	}))
	defer server.Close()

	source := DailySource{Client: NewClient("dailies", testEndpoint(server.URL))}
	bars, err := source.Dailies(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, "/dailies/MSFT", gotPath)
	require.Len(t, bars, 2)
	assert.Equal(t, 101.0, bars[1]["close"])
}

func TestDailySource_PropagatesFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	source := DailySource{Client: NewClient("dailies", testEndpoint(server.URL))}
	_, err := source.Dailies(context.Background(), "MSFT")
	assert.Error(t, err)
}
