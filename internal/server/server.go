// package server hosts the local OAuth callback listener
//
// The listener exists to receive exactly one redirect per authorization flow;
// it is started by the auth store, handed a [CallbackHandler], and shut down
// as soon as a result (or timeout) is observed.
package server

import (
	"net/http"
)

// Start runs an HTTP server for the given handler paths in a background
// goroutine. Listen failures are delivered on the returned channel.
func Start(addr string, handlers map[string]http.Handler) (*http.Server, <-chan error) {
	mux := http.NewServeMux()
	for path, h := range handlers {
		mux.Handle(path, h)
	}

	srv := &http.Server{Addr: addr, Handler: mux}
	errs := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()

	return srv, errs
}
