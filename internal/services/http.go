// Shared request core for platform clients: pacing, backoff, and retry.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dzx-app/dzx/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultMinInterval = 100 * time.Millisecond
	defaultMaxRetries  = 3
)

// APIError is a non-2xx platform response that is not handled by the retry
// loop (anything other than 401 and 429). Platform clients map it onto the
// shared error taxonomy where the resource context is known.
type APIError struct {
	Status int
	Body   []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: status %d", e.Status)
}

// client executes HTTP requests with a minimum inter-request delay and bounded
// retries. On 429 it waits the server-provided Retry-After (exponential
// fallback when absent); on 401 it refreshes the token once through the
// provider; transient transport failures retry within the same budget.
type client struct {
	http        *http.Client
	limiter     *rate.Limiter
	minInterval time.Duration
	maxRetries  int
	tokens      TokenProvider
}

func newClient(httpClient *http.Client, tokens TokenProvider, cfg shared.HTTPConfig) *client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	interval := time.Duration(cfg.MinIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = defaultMinInterval
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	return &client{
		http:        httpClient,
		limiter:     rate.NewLimiter(rate.Every(interval), 1),
		minInterval: interval,
		maxRetries:  retries,
		tokens:      tokens,
	}
}

// do executes the request returned by build, decoding a 2xx JSON body into out
// when out is non-nil. build is invoked per attempt so retries carry fresh
// bodies and tokens.
func (c *client) do(ctx context.Context, build func(ctx context.Context) (*http.Request, error), out any) error {
	backoff := c.minInterval
	refreshed := false

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := build(ctx)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt >= c.maxRetries {
				return fmt.Errorf("%w: %v", shared.ErrNetwork, err)
			}
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
			backoff *= 2
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			if attempt >= c.maxRetries {
				return fmt.Errorf("%w: %v", shared.ErrNetwork, readErr)
			}
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
			backoff *= 2
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			if attempt >= c.maxRetries {
				return fmt.Errorf("%w: gave up after %d retries", shared.ErrRateLimited, c.maxRetries)
			}
			wait := retryAfter(resp, backoff)
			if err := sleep(ctx, wait); err != nil {
				return err
			}
			backoff *= 2
			continue

		case resp.StatusCode == http.StatusUnauthorized:
			if c.tokens != nil && !refreshed {
				refreshed = true
				if _, err := c.tokens.Refresh(ctx); err != nil {
					return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
				}
				continue
			}
			return fmt.Errorf("%w: status 401", shared.ErrAuthFailed)

		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return &APIError{Status: resp.StatusCode, Body: body}
		}

		if out != nil {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil
	}
}

// retryAfter reads the Retry-After header in seconds, falling back to the
// supplied backoff.
func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
