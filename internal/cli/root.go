// Package cli implements the sentrix command, an offline front end to the
// risk generators and the route planner.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/anuragthippani1/SentriX/internal/political"
	"github.com/anuragthippani1/SentriX/internal/report"
	"github.com/anuragthippani1/SentriX/internal/routeplan"
	"github.com/anuragthippani1/SentriX/internal/schedule"
)

// App holds the components the commands run against.
type App struct {
	Scheduler *schedule.Scheduler
	Planner   *routeplan.Planner
	Political *political.Analyzer
	Builder   *report.Builder
	// News is the fetcher warmed by "news warm". It is usually the Redis cache.
	News political.Fetcher
}

// NewRootCmd creates the top-level "sentrix" command and registers all
// subcommands against app.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "sentrix",
		Short:         "Supply-chain risk reports and route planning",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newPortsCmd(),
		newRouteCmd(app),
		newClassifyCmd(),
		newScheduleCmd(app),
		newPoliticalCmd(app),
		newReportCmd(app),
		newNewsCmd(app),
	)

	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
