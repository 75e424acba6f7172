package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/clearviewfp/report-engine/cmd/report-cli/ui"
	"github.com/clearviewfp/report-engine/internal/assets"
	"github.com/clearviewfp/report-engine/internal/report"
)

var reportOutput string

var reportCmd = &cobra.Command{
	Use:   "report [files...]",
	Short: "Generate the client report document from local files",
	Long: `Run the extraction pipeline over local documents and render the
client-facing HTML report.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReportCmd,
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "output path for the report (default financial_report_<date>.html)")
	rootCmd.AddCommand(reportCmd)
}

func runReportCmd(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ui.InitUI(noColor, verbose)
	ui.Section("Client Report")

	logger := buildLogger()

	summary, err := runLocalExtraction(ctx, logger, cfg, args)
	if err != nil {
		return err
	}

	renderer, err := report.NewRenderer(logger, assets.NewStore(cfg.Assets.Dir), cfg.Report.CompanyName, cfg.Report.AdviserName)
	if err != nil {
		return fmt.Errorf("initialize renderer: %w", err)
	}

	doc, err := renderer.Render(summary)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	output := reportOutput
	if output == "" {
		output = fmt.Sprintf("financial_report_%s.html", time.Now().Format("2006-01-02"))
	}
	if err := os.WriteFile(output, doc, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	ui.Newline()
	ui.Success("Report saved to %s", output)
	ui.KeyValue("Accounts", fmt.Sprintf("%d", len(summary.Accounts)))
	ui.KeyValue("Total value", report.FormatMoney(summary.TotalValue))
	if summary.ChartsExtracted {
		ui.KeyValue("Charts", "money in vs out, savings projection")
	}
	return nil
}
