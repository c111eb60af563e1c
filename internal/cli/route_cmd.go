package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/anuragthippani1/SentriX/internal/routeplan"
)

func newRouteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Plan, optimize and compare multi-port routes",
	}

	cmd.AddCommand(
		newRoutePlanCmd(app),
		newRouteOptimizeCmd(app),
		newRouteCompareCmd(app),
	)

	return cmd
}

func newRoutePlanCmd(app *App) *cobra.Command {
	var optimization string

	cmd := &cobra.Command{
		Use:   "plan PORT PORT...",
		Short: "Plan a route through the ports in order",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := routeplan.ParseOptimization(optimization)
			if err != nil {
				return err
			}
			plan, err := app.Planner.Plan(args, opt)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), plan)
		},
	}

	cmd.Flags().StringVar(&optimization, "optimization", "balanced", "fastest, cheapest, balanced or safest")
	return cmd
}

func newRouteOptimizeCmd(app *App) *cobra.Command {
	var origin, destination, optimization string
	var waypoints []string

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Reorder waypoints by nearest neighbour and plan the route",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opt, err := routeplan.ParseOptimization(optimization)
			if err != nil {
				return err
			}
			order, err := app.Planner.OptimizeOrder(origin, destination, waypoints)
			if err != nil {
				return err
			}
			plan, err := app.Planner.Plan(order, opt)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), plan)
		},
	}

	cmd.Flags().StringVar(&origin, "origin", "", "Origin port")
	cmd.Flags().StringVar(&destination, "destination", "", "Destination port")
	cmd.Flags().StringSliceVar(&waypoints, "waypoints", nil, "Comma-separated intermediate ports")
	cmd.Flags().StringVar(&optimization, "optimization", "balanced", "fastest, cheapest, balanced or safest")
	_ = cmd.MarkFlagRequired("origin")
	_ = cmd.MarkFlagRequired("destination")
	return cmd
}

func newRouteCompareCmd(app *App) *cobra.Command {
	var route1, route2 []string

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmp, err := app.Planner.Compare(route1, route2)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), cmp)
		},
	}

	cmd.Flags().StringSliceVar(&route1, "route1", nil, "Comma-separated ports of the first route")
	cmd.Flags().StringSliceVar(&route2, "route2", nil, "Comma-separated ports of the second route")
	_ = cmd.MarkFlagRequired("route1")
	_ = cmd.MarkFlagRequired("route2")
	return cmd
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
