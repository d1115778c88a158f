package app

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/rincon/config"
	"github.com/shashiranjanraj/rincon/pkg/database"
	"github.com/shashiranjanraj/rincon/pkg/router"
)

// OpenDB loads config and connects, for commands that need only the
// database (migrate, seed).
func OpenDB() (*gorm.DB, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return database.Connect(database.OptionsFromConfig())
}

// PrintRoutes writes the route table in registration order.
func PrintRoutes(w io.Writer, routes []router.RouteInfo) error {
	if len(routes) == 0 {
		_, err := fmt.Fprintln(w, "No routes registered.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tPATH\tNAME")
	fmt.Fprintln(tw, "------\t----\t----")
	for _, ri := range routes {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", methodColor(ri.Method).Sprint(ri.Method), ri.Path, ri.Name)
	}
	return tw.Flush()
}

func methodColor(m string) *color.Color {
	switch m {
	case "GET":
		return color.New(color.FgGreen)
	case "POST":
		return color.New(color.FgYellow)
	case "PUT":
		return color.New(color.FgBlue)
	case "DELETE":
		return color.New(color.FgRed)
	default:
		return color.New(color.Reset)
	}
}
