package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/rincon/app/routes"
	"github.com/shashiranjanraj/rincon/pkg/app"
	"github.com/shashiranjanraj/rincon/pkg/logger"
)

// rincon serve
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run"},
	Short:   "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		flush := logger.Setup()
		defer flush()

		a, err := app.Boot()
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Routes(routes.Register).Serve(ctx)
	},
}

// rincon route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List every registered route",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.Boot()
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.Routes(routes.Register).Router()
		if err != nil {
			return err
		}
		return app.PrintRoutes(cmd.OutOrStdout(), r.Routes())
	},
}
