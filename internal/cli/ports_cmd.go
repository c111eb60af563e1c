package cli

import (
	"github.com/spf13/cobra"

	"github.com/anuragthippani1/SentriX/internal/intent"
	"github.com/anuragthippani1/SentriX/internal/ports"
)

func newPortsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ports",
		Short: "List and search known ports",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List every port",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return printJSON(cmd.OutOrStdout(), ports.All())
			},
		},
		&cobra.Command{
			Use:   "search QUERY",
			Short: "Search ports by name or country",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return printJSON(cmd.OutOrStdout(), ports.Search(args[0]))
			},
		},
	)

	return cmd
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify TEXT...",
		Short: "Show the intent a chat query would be routed to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := joinArgs(args)
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"query":       text,
				"intent":      intent.Classify(text),
				"route_query": intent.IsRouteQuery(text),
			})
		},
	}
}
