package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// Exchanger trades an authorization code for a token. Both
// [golang.org/x/oauth2.Config] and custom exchangers satisfy it.
type Exchanger interface {
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// CallbackResult is delivered once per authorization flow.
type CallbackResult struct {
	Token *oauth2.Token
	Err   error
}

const successPage = `<!DOCTYPE html>
<html>
<head><title>Authorization Complete</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 4em;">
<h1>Authorization complete</h1>
<p>You can close this window and return to the terminal.</p>
</body>
</html>`

const failurePage = `<!DOCTYPE html>
<html>
<head><title>Authorization Failed</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 4em;">
<h1>Authorization failed</h1>
<p>Return to the terminal for details.</p>
</body>
</html>`

// CallbackHandler handles a single OAuth redirect. The first request that
// reaches it produces a result on [CallbackHandler.Result]; later requests
// get a 410.
type CallbackHandler struct {
	exchange Exchanger
	state    string

	once    sync.Once
	results chan CallbackResult
}

func NewCallbackHandler(exchange Exchanger, state string) *CallbackHandler {
	return &CallbackHandler{
		exchange: exchange,
		state:    state,
		results:  make(chan CallbackResult, 1),
	}
}

// Result yields the outcome of the flow. It receives at most one value.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.results
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handled := false
	h.once.Do(func() {
		handled = true
		h.handle(w, r)
	})

	if !handled {
		http.Error(w, "authorization already completed", http.StatusGone)
	}
}

func (h *CallbackHandler) handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errCode := query.Get("error"); errCode != "" {
		h.fail(w, fmt.Errorf("authorization denied: %s", errCode))
		return
	}

	if state := query.Get("state"); state != h.state {
		h.fail(w, fmt.Errorf("state mismatch in callback"))
		return
	}

	code := query.Get("code")
	if code == "" {
		h.fail(w, fmt.Errorf("callback missing authorization code"))
		return
	}

	token, err := h.exchange.Exchange(r.Context(), code)
	if err != nil {
		h.fail(w, fmt.Errorf("code exchange failed: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, successPage)
	h.results <- CallbackResult{Token: token}
}

func (h *CallbackHandler) fail(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	fmt.Fprint(w, failurePage)
	h.results <- CallbackResult{Err: err}
}
