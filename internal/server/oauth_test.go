package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

// stubExchanger records the code it was handed and returns a canned token.
type stubExchanger struct {
	code  string
	token *oauth2.Token
	err   error
}

func (s *stubExchanger) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	s.code = code
	return s.token, s.err
}

func TestCallbackHandler(t *testing.T) {
	t.Run("successful callback delivers token", func(t *testing.T) {
		exchanger := &stubExchanger{token: &oauth2.Token{AccessToken: "granted"}}
		handler := NewCallbackHandler(exchanger, "state123")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=abc&state=state123", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Authorization complete") {
			t.Errorf("body = %q, want success page", rec.Body.String())
		}
		if exchanger.code != "abc" {
			t.Errorf("exchanged code = %q, want abc", exchanger.code)
		}

		res := <-handler.Result()
		if res.Err != nil {
			t.Fatalf("result error: %v", res.Err)
		}
		if res.Token.AccessToken != "granted" {
			t.Errorf("token = %+v", res.Token)
		}
	})

	t.Run("state mismatch rejected", func(t *testing.T) {
		handler := NewCallbackHandler(&stubExchanger{}, "expected")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=abc&state=forged", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		res := <-handler.Result()
		if res.Err == nil || !strings.Contains(res.Err.Error(), "state mismatch") {
			t.Fatalf("result error = %v, want state mismatch", res.Err)
		}
	})

	t.Run("denied authorization", func(t *testing.T) {
		handler := NewCallbackHandler(&stubExchanger{}, "s")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?error=access_denied", nil))

		res := <-handler.Result()
		if res.Err == nil || !strings.Contains(res.Err.Error(), "access_denied") {
			t.Fatalf("result error = %v, want access_denied", res.Err)
		}
	})

	t.Run("missing code", func(t *testing.T) {
		handler := NewCallbackHandler(&stubExchanger{}, "s")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s", nil))

		res := <-handler.Result()
		if res.Err == nil {
			t.Fatal("expected error for missing code")
		}
	})

	t.Run("exchange failure", func(t *testing.T) {
		handler := NewCallbackHandler(&stubExchanger{err: errors.New("upstream down")}, "s")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=abc&state=s", nil))

		res := <-handler.Result()
		if res.Err == nil || !strings.Contains(res.Err.Error(), "upstream down") {
			t.Fatalf("result error = %v, want exchange failure", res.Err)
		}
	})

	t.Run("second request gets 410", func(t *testing.T) {
		exchanger := &stubExchanger{token: &oauth2.Token{AccessToken: "tok"}}
		handler := NewCallbackHandler(exchanger, "s")

		first := httptest.NewRecorder()
		handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/callback?code=abc&state=s", nil))

		second := httptest.NewRecorder()
		handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/callback?code=other&state=s", nil))

		if second.Code != http.StatusGone {
			t.Errorf("second status = %d, want 410", second.Code)
		}
		if exchanger.code != "abc" {
			t.Errorf("exchanged code = %q; replays must not re-exchange", exchanger.code)
		}

		// Exactly one result is ever delivered.
		<-handler.Result()
		select {
		case res := <-handler.Result():
			t.Fatalf("unexpected second result: %+v", res)
		default:
		}
	})
}
