package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"popstack/internal/metrics"
)

const maxCatalogBody = 4 << 20

var errCatalogNotFound = errors.New("catalog item not found")

// catalogHTTP is the transport shared by the catalog providers: requests
// are rate limited, and a run of failures opens a breaker so a dead
// provider fails fast.
type catalogHTTP struct {
	provider string
	client   *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[[]byte]
	logger   zerolog.Logger
}

type catalogHTTPOptions struct {
	Client   *http.Client
	Rate     rate.Limit
	Burst    int
	Failures uint32
	Cooldown time.Duration
}

func newCatalogHTTP(provider string, opts catalogHTTPOptions, logger zerolog.Logger) *catalogHTTP {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Rate == 0 {
		// 40 requests per 10 seconds keeps well under TMDB's published cap.
		opts.Rate = rate.Every(250 * time.Millisecond)
	}
	if opts.Burst == 0 {
		opts.Burst = 40
	}
	if opts.Failures == 0 {
		opts.Failures = 5
	}
	if opts.Cooldown == 0 {
		opts.Cooldown = 30 * time.Second
	}

	logger = logger.With().Str("provider", provider).Logger()
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        provider,
		MaxRequests: 1,
		Timeout:     opts.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.Failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errCatalogNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CatalogBreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("catalog circuit breaker changed state")
		},
	})

	return &catalogHTTP{
		provider: provider,
		client:   opts.Client,
		limiter:  rate.NewLimiter(opts.Rate, opts.Burst),
		breaker:  breaker,
		logger:   logger,
	}
}

// getJSON fetches rawURL and decodes the body into out. A 404 maps to
// ErrNotFound; every other failure is wrapped in ErrCatalogUnavailable.
func (c *catalogHTTP) getJSON(ctx context.Context, rawURL string, header http.Header, out any) error {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.get(ctx, rawURL, header)
	})
	switch {
	case err == nil:
	case errors.Is(err, errCatalogNotFound):
		metrics.CatalogRequests.WithLabelValues(c.provider, "not_found").Inc()
		return ErrNotFound
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CatalogRequests.WithLabelValues(c.provider, "rejected").Inc()
		return fmt.Errorf("%w: %s circuit open", ErrCatalogUnavailable, c.provider)
	default:
		metrics.CatalogRequests.WithLabelValues(c.provider, "error").Inc()
		return fmt.Errorf("%w: %s: %v", ErrCatalogUnavailable, c.provider, err)
	}

	metrics.CatalogRequests.WithLabelValues(c.provider, "ok").Inc()
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", c.provider, err)
	}
	return nil
}

func (c *catalogHTTP) get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", stripURL(err))
	}
	for k, vs := range header {
		req.Header[k] = vs
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s request failed: %w", req.Method, req.URL.Path, stripURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errCatalogNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// stripURL drops the URL from a *url.Error; its query may carry the
// provider key.
func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
