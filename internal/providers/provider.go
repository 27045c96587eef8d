// Package providers wraps the external equity-quote and option-chain data
// sources behind a rate-limited, circuit-broken client, using
// golang.org/x/time/rate for request pacing and sony/gobreaker for the
// circuit breaker.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/optionwheel/engine/internal/config"
	"github.com/optionwheel/engine/internal/wheelerr"
)

// RawQuote is the decoded, untyped JSON body of an equity-quote response,
// handed to the model layer for Field-wrapping. nil values are valid JSON
// inputs, and the quality package treats them as MISSING.
type RawQuote map[string]any

// RawChain is the decoded option-chain response: one map per contract row.
type RawChain []map[string]any

// Client is a rate-limited, circuit-broken HTTP client for one provider
// endpoint.
type Client struct {
	name    string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	cfg     config.ProviderEndpoint
}

func NewClient(name string, cfg config.ProviderEndpoint) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	limit := rate.Limit(cfg.RPS)
	if cfg.RPS <= 0 {
		limit = rate.Limit(1)
	}

	return &Client{
		name:    name,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		breaker: breaker,
		cfg:     cfg,
	}
}

// Get performs a rate-limited, circuit-broken GET against path, retrying
// up to cfg.MaxRetries times with the configured backoff on any failure
// (4xx responses included), and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("providers: %s rate limiter: %w", c.name, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.cfg.RetryBackoff * time.Duration(attempt)):
			}
		}

		_, err := c.breaker.Execute(func() (any, error) {
			return nil, c.doOnce(ctx, path, out)
		})
		if err == nil {
			return nil
		}
		lastErr = err
		if err == gobreaker.ErrOpenState {
			return &wheelerr.ProviderError{Provider: c.name, Endpoint: path, Retryable: false, Err: err}
		}
	}

	return &wheelerr.ProviderError{Provider: c.name, Endpoint: path, Retryable: true, Err: lastErr}
}

func (c *Client) doOnce(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("providers: %s: server error %d", c.name, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("providers: %s: client error %d", c.name, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// EquityQuoteSource and OptionChainSource are the two external interfaces
// the rest of the pipeline depends on; Client satisfies both given the
// right path, and tests substitute fakes for these interfaces directly.
type EquityQuoteSource interface {
	Quote(ctx context.Context, symbol string) (RawQuote, error)
}

type OptionChainSource interface {
	Chain(ctx context.Context, symbol string) (RawChain, error)
}

// EquitySource adapts a Client to EquityQuoteSource.
type EquitySource struct{ Client *Client }

func (s EquitySource) Quote(ctx context.Context, symbol string) (RawQuote, error) {
	var q RawQuote
	if err := s.Client.Get(ctx, "/quote/"+symbol, &q); err != nil {
		return nil, err
	}
	return q, nil
}

// OptionSource adapts a Client to OptionChainSource.
type OptionSource struct{ Client *Client }

func (s OptionSource) Chain(ctx context.Context, symbol string) (RawChain, error) {
	var c RawChain
	if err := s.Client.Get(ctx, "/chain/"+symbol, &c); err != nil {
		return nil, err
	}
	return c, nil
}

// CachedEquitySource layers the mandatory file cache and optional Redis
// mirror in front of an EquityQuoteSource: Redis first (cheapest), then
// the file cache, then the underlying source, writing results back to
// both caches on a fresh fetch. Either cache may be nil.
type CachedEquitySource struct {
	Source EquityQuoteSource
	Files  *FileCache
	Redis  *RedisCache
}

func (s CachedEquitySource) Quote(ctx context.Context, symbol string) (RawQuote, error) {
	var q RawQuote
	if s.Redis != nil && s.Redis.Get(ctx, symbol, &q) {
		return q, nil
	}
	if s.Files != nil {
		if ok, err := s.Files.Get(symbol, &q); err == nil && ok {
			return q, nil
		}
	}

	q, err := s.Source.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if s.Files != nil {
		_ = s.Files.Put(symbol, q)
	}
	if s.Redis != nil {
		s.Redis.Put(ctx, symbol, q)
	}
	return q, nil
}
