package alerts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDispatcher(t *testing.T, webhooks WebhookConfig) *Dispatcher {
	t.Helper()
	statePath := filepath.Join(t.TempDir(), "alerts_state.json")
	return NewDispatcher(webhooks, statePath, zerolog.Nop())
}

func TestWebhookConfig_Configured(t *testing.T) {
	assert.False(t, WebhookConfig{}.Configured())
	assert.True(t, WebhookConfig{Critical: "https://hooks.example/x"}.Configured())
	assert.True(t, WebhookConfig{Daily: "https://hooks.example/x"}.Configured())
}

func TestDispatch_SkipsWhenEventNotConfigured(t *testing.T) {
	d := testDispatcher(t, WebhookConfig{Critical: "https://hooks.example/x"})
	sent, err := d.Dispatch(context.Background(), EventSignal, "key1", "text", nil)
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestDispatch_PostsToConfiguredWebhook(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := testDispatcher(t, WebhookConfig{Critical: server.URL})
	sent, err := d.Dispatch(context.Background(), EventCritical, "key1", "hello world", map[string]any{"band": "D"})
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Contains(t, gotBody, "hello world")
}

func TestDispatch_DedupsIdenticalPayloadOnSecondCall(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := testDispatcher(t, WebhookConfig{Signal: server.URL})
	payload := map[string]any{"symbol": "AAPL", "band": "A"}

	first, err := d.Dispatch(context.Background(), EventSignal, "AAPL", "text", payload)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := d.Dispatch(context.Background(), EventSignal, "AAPL", "text", payload)
	require.NoError(t, err)
	assert.False(t, second)
	assert.Equal(t, 1, calls)
}

func TestDispatch_SendsAgainWhenPayloadChangesForSameKey(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := testDispatcher(t, WebhookConfig{Signal: server.URL})

	_, err := d.Dispatch(context.Background(), EventSignal, "AAPL", "text", map[string]any{"band": "A"})
	require.NoError(t, err)
	sent, err := d.Dispatch(context.Background(), EventSignal, "AAPL", "text", map[string]any{"band": "B"})
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, 2, calls)
}

func TestDispatch_DedupStateIsKeyedPerEventKey(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := testDispatcher(t, WebhookConfig{Signal: server.URL})
	payload := map[string]any{"band": "A"}

	sentA, err := d.Dispatch(context.Background(), EventSignal, "AAPL", "text", payload)
	require.NoError(t, err)
	sentMSFT, err := d.Dispatch(context.Background(), EventSignal, "MSFT", "text", payload)
	require.NoError(t, err)
	assert.True(t, sentA)
	assert.True(t, sentMSFT)
	assert.Equal(t, 2, calls)
}

func TestDispatch_ReturnsErrorOnNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	d := testDispatcher(t, WebhookConfig{Health: server.URL})
	sent, err := d.Dispatch(context.Background(), EventHealth, "key1", "text", nil)
	assert.Error(t, err)
	assert.False(t, sent)
}

func TestDispatch_PersistsStateAcrossDispatcherInstances(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	webhooks := WebhookConfig{Daily: server.URL}
	d1 := NewDispatcher(webhooks, statePath, zerolog.Nop())
	payload := map[string]any{"summary": "ok"}
	sent1, err := d1.Dispatch(context.Background(), EventDaily, "daily", "text", payload)
	require.NoError(t, err)
	assert.True(t, sent1)

	d2 := NewDispatcher(webhooks, statePath, zerolog.Nop())
	sent2, err := d2.Dispatch(context.Background(), EventDaily, "daily", "text", payload)
	require.NoError(t, err)
	assert.False(t, sent2)
}

func TestStateHash_OrderIndependent(t *testing.T) {
	a, err := stateHash(map[string]any{"x": 1.0, "y": 2.0})
	require.NoError(t, err)
	b, err := stateHash(map[string]any{"y": 2.0, "x": 1.0})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
