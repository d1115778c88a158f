package app

import (
	"context"
	"net"

	"github.com/shashiranjanraj/rincon/config"
	"github.com/shashiranjanraj/rincon/internal/server"
	"github.com/shashiranjanraj/rincon/pkg/database"
	"github.com/shashiranjanraj/rincon/pkg/grpc"
)

// Serve runs the HTTP server (TLS when both TLS files are configured) and,
// when GRPC_PORT is set, the gRPC health listener, until ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	handler, err := a.Handler()
	if err != nil {
		return err
	}

	if port := config.GRPCPort(); port != "" {
		srv, err := grpc.Start(port, func(ctx context.Context) error {
			return database.Ping(ctx, a.DB)
		})
		if err != nil {
			return err
		}
		defer grpc.Stop(srv)
	}

	return server.Start(ctx, server.Options{
		Addr:     net.JoinHostPort("", config.AppPort()),
		Handler:  handler,
		CertFile: config.TLSCertFile(),
		KeyFile:  config.TLSKeyFile(),

		OnShutdown: []func(){a.Feed.Close},
	})
}
