package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/anuragthippani1/SentriX/internal/contracts"
	"github.com/anuragthippani1/SentriX/internal/report"
)

func newScheduleCmd(app *App) *cobra.Command {
	var file string
	var highRisk bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Analyze delivery schedule risks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadShipments(app, file); err != nil {
				return err
			}
			analyze := app.Scheduler.AnalyzeScheduleRisks
			if highRisk {
				analyze = app.Scheduler.HighRiskEquipment
			}
			risks, err := analyze()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), risks)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "JSON file with shipments; the built-in samples are used when empty")
	cmd.Flags().BoolVar(&highRisk, "high-risk", false, "Only show equipment at risk level 4 or above")
	return cmd
}

func newPoliticalCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "political [COUNTRY...]",
		Short: "Score political risk from recent news",
		Long:  "Score political risk from recent news. Without arguments the countries of the active shipments are analyzed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			countries := args
			if len(countries) == 0 {
				countries = app.Scheduler.Countries()
			}
			return printJSON(cmd.OutOrStdout(), app.Political.AnalyzeRisks(cmd.Context(), countries))
		},
	}
}

func newReportCmd(app *App) *cobra.Command {
	var file, pdfPath, sessionID string

	cmd := &cobra.Command{
		Use:       "report political|schedule|combined",
		Short:     "Build a risk report",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"political", "schedule", "combined"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadShipments(app, file); err != nil {
				return err
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			r, err := buildReport(cmd.Context(), app, contracts.ReportType(args[0]), sessionID)
			if err != nil {
				return err
			}
			if pdfPath != "" {
				if err := writePDF(pdfPath, r); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", pdfPath)
			}
			return printJSON(cmd.OutOrStdout(), r)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "JSON file with shipments; the built-in samples are used when empty")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "Also render the report as PDF to this path")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session id recorded on the report")
	return cmd
}

func buildReport(ctx context.Context, app *App, kind contracts.ReportType, sessionID string) (contracts.RiskReport, error) {
	switch kind {
	case contracts.ReportPolitical:
		return app.Builder.Political(app.Political.AnalyzeRisks(ctx, app.Scheduler.Countries()), sessionID), nil
	case contracts.ReportSchedule:
		sched, err := app.Scheduler.AnalyzeScheduleRisks()
		if err != nil {
			return contracts.RiskReport{}, err
		}
		return app.Builder.Schedule(sched, sessionID), nil
	default:
		sched, err := app.Scheduler.AnalyzeScheduleRisks()
		if err != nil {
			return contracts.RiskReport{}, err
		}
		pol := app.Political.AnalyzeRisks(ctx, app.Scheduler.Countries())
		return app.Builder.Combined(pol, sched, sessionID), nil
	}
}

// loadShipments replaces the scheduler data with the file's contents. The file
// holds either an array or an object with a "data" array.
func loadShipments(app *App, path string) error {
	if path == "" {
		return nil
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read shipments: %w", err)
	}
	var items []contracts.Shipment
	if err := json.Unmarshal(body, &items); err != nil {
		var wrapped struct {
			Data []contracts.Shipment `json:"data"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil || wrapped.Data == nil {
			return fmt.Errorf("decode shipments %s: expected an array or a 'data' array", path)
		}
		items = wrapped.Data
	}
	return app.Scheduler.SetShipments(items)
}

func writePDF(path string, r contracts.RiskReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create pdf: %w", err)
	}
	if err := report.RenderPDF(f, r); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close pdf: %w", err)
	}
	return nil
}
