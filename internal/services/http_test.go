package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dzx-app/dzx/internal/shared"
	"golang.org/x/oauth2"
)

// stubTokens is a TokenProvider with a fixed token and a refresh counter.
type stubTokens struct {
	token      string
	refreshed  atomic.Int32
	refreshErr error
}

func (s *stubTokens) Token(ctx context.Context) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: s.token}, nil
}

func (s *stubTokens) Refresh(ctx context.Context) (*oauth2.Token, error) {
	s.refreshed.Add(1)
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	return &oauth2.Token{AccessToken: s.token}, nil
}

func fastHTTPConfig() shared.HTTPConfig {
	return shared.HTTPConfig{MinIntervalMS: 1, MaxRetries: 2}
}

func getRequest(url string) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestClientDo(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes 2xx JSON", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id": "abc"}`))
		}))
		defer srv.Close()

		c := newClient(srv.Client(), nil, fastHTTPConfig())

		var out struct {
			ID string `json:"id"`
		}
		if err := c.do(ctx, getRequest(srv.URL), &out); err != nil {
			t.Fatalf("do returned error: %v", err)
		}
		if out.ID != "abc" {
			t.Errorf("decoded ID = %q, want abc", out.ID)
		}
	})

	t.Run("rate limited only after max retries", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := newClient(srv.Client(), nil, fastHTTPConfig())

		err := c.do(ctx, getRequest(srv.URL), nil)
		if !errors.Is(err, shared.ErrRateLimited) {
			t.Fatalf("error = %v, want ErrRateLimited", err)
		}
		// maxRetries=2 means the initial attempt plus two retries.
		if got := calls.Load(); got != 3 {
			t.Errorf("request count = %d, want 3", got)
		}
	})

	t.Run("recovers when 429 clears before the budget", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.Header().Set("Retry-After", "0")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		c := newClient(srv.Client(), nil, fastHTTPConfig())

		if err := c.do(ctx, getRequest(srv.URL), nil); err != nil {
			t.Fatalf("do returned error: %v", err)
		}
		if got := calls.Load(); got != 2 {
			t.Errorf("request count = %d, want 2", got)
		}
	})

	t.Run("401 refreshes once then retries", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		tokens := &stubTokens{token: "tok"}
		c := newClient(srv.Client(), tokens, fastHTTPConfig())

		if err := c.do(ctx, getRequest(srv.URL), nil); err != nil {
			t.Fatalf("do returned error: %v", err)
		}
		if tokens.refreshed.Load() != 1 {
			t.Errorf("refresh count = %d, want 1", tokens.refreshed.Load())
		}
	})

	t.Run("second 401 fails auth", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		tokens := &stubTokens{token: "tok"}
		c := newClient(srv.Client(), tokens, fastHTTPConfig())

		err := c.do(ctx, getRequest(srv.URL), nil)
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Fatalf("error = %v, want ErrAuthFailed", err)
		}
		if tokens.refreshed.Load() != 1 {
			t.Errorf("refresh count = %d, want 1", tokens.refreshed.Load())
		}
	})

	t.Run("other statuses surface as APIError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		c := newClient(srv.Client(), nil, fastHTTPConfig())

		err := c.do(ctx, getRequest(srv.URL), nil)
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
			t.Fatalf("error = %v, want APIError with status 404", err)
		}
	})

	t.Run("transport errors retry then give up", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // connection refused from here on

		c := newClient(http.DefaultClient, nil, fastHTTPConfig())

		err := c.do(ctx, getRequest(srv.URL), nil)
		if !errors.Is(err, shared.ErrNetwork) {
			t.Fatalf("error = %v, want ErrNetwork", err)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := newClient(srv.Client(), nil, fastHTTPConfig())

		cancelCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		err := c.do(cancelCtx, getRequest(srv.URL), nil)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("error = %v, want context.DeadlineExceeded", err)
		}
	})
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   time.Duration
	}{
		{"seconds value", "2", 2 * time.Second},
		{"zero", "0", 0},
		{"missing falls back", "", 75 * time.Millisecond},
		{"unparsable falls back", "soon", 75 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{Header: http.Header{}}
			if tt.header != "" {
				resp.Header.Set("Retry-After", tt.header)
			}
			if got := retryAfter(resp, 75*time.Millisecond); got != tt.want {
				t.Errorf("retryAfter = %v, want %v", got, tt.want)
			}
		})
	}
}
