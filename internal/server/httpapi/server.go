// Package httpapi exposes the mneme services over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/mneme/internal/logging"
)

const shutdownTimeout = 10 * time.Second

type HTTPServer struct {
	address    string
	handler    http.Handler
	logger     logging.Logger
	onShutdown []func()
}

func NewHTTPServer(address string, handler http.Handler, l logging.Logger) *HTTPServer {
	return &HTTPServer{
		address: address,
		handler: handler,
		logger:  l.With("module", "http_server"),
	}
}

// OnShutdown registers fn to run when graceful shutdown starts. Long-lived
// handlers such as update streams must be ended this way, since in-flight
// requests keep their contexts until they finish.
func (s *HTTPServer) OnShutdown(fn func()) {
	s.onShutdown = append(s.onShutdown, fn)
}

// Run listens on the configured address and serves until ctx is done.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on listen until ctx is done, then shuts down gracefully:
// in-flight requests get up to shutdownTimeout to complete.
func (s *HTTPServer) Serve(ctx context.Context, listen net.Listener) error {
	base := context.WithoutCancel(ctx)
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
	for _, fn := range s.onShutdown {
		srv.RegisterOnShutdown(fn)
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(base, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(base, shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(base, "http shutdown", "err", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-stopped
	return nil
}
