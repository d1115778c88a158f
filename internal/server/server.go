// Package server owns the HTTP listener lifecycle.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/shashiranjanraj/rincon/pkg/logger"
)

// Options configures Start. TLS is used when both CertFile and KeyFile are
// set. Listener, when non-nil, replaces listening on Addr.
type Options struct {
	Addr            string
	Handler         http.Handler
	CertFile        string
	KeyFile         string
	Listener        net.Listener
	ShutdownTimeout time.Duration

	// OnShutdown runs when shutdown begins. Shutdown does not cancel request
	// contexts, so long-lived streams must be ended from here.
	OnShutdown []func()
}

// Start serves until ctx is done, then shuts down gracefully. It returns
// nil after a clean shutdown.
func Start(ctx context.Context, opts Options) error {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 15 * time.Second
	}

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           opts.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	for _, f := range opts.OnShutdown {
		srv.RegisterOnShutdown(f)
	}

	lis := opts.Listener
	if lis == nil {
		var err error
		if lis, err = net.Listen("tcp", opts.Addr); err != nil {
			return err
		}
	}

	useTLS := opts.CertFile != "" && opts.KeyFile != ""
	errCh := make(chan error, 1)
	go func() {
		logger.Info("rincon listening", "addr", lis.Addr().String(), "tls", useTLS)

		var err error
		if useTLS {
			err = srv.ServeTLS(lis, opts.CertFile, opts.KeyFile)
		} else {
			err = srv.Serve(lis)
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("rincon shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
