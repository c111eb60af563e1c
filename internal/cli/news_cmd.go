package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newNewsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "news",
		Short: "Manage the news article cache",
	}
	cmd.AddCommand(newNewsWarmCmd(app))
	return cmd
}

func newNewsWarmCmd(app *App) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "warm [COUNTRY...]",
		Short: "Fetch articles for the shipment countries so queries hit the cache",
		Long: "Fetch articles for the given countries, or the countries of the active shipments. " +
			"With --interval the fetch repeats until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.News == nil {
				return errors.New("no news fetcher configured")
			}
			countries := args
			if len(countries) == 0 {
				countries = app.Scheduler.Countries()
			}

			ctx := cmd.Context()
			warm := func() {
				for _, country := range countries {
					articles, err := app.News.Fetch(ctx, country)
					if err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", country, err)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d articles\n", country, len(articles))
				}
			}

			warm()
			if interval <= 0 {
				return nil
			}

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					warm()
				}
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Repeat the fetch at this interval")
	return cmd
}
