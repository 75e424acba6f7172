package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/clearviewfp/report-engine/cmd/report-cli/ui"
	"github.com/clearviewfp/report-engine/internal/domain"
	"github.com/clearviewfp/report-engine/internal/report"
)

var (
	extractJSON   bool
	extractAssets string
)

var extractCmd = &cobra.Command{
	Use:   "extract [files...]",
	Short: "Extract accounts and charts from local documents",
	Long: `Run the extraction pipeline over local provider statements and
cashflow documents, then print the aggregated summary.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtractCmd,
}

func init() {
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "print the summary as JSON")
	extractCmd.Flags().StringVar(&extractAssets, "assets", "", "chart asset directory (overrides config)")
	rootCmd.AddCommand(extractCmd)
}

func runExtractCmd(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if extractAssets != "" {
		cfg.Assets.Dir = extractAssets
	}

	ui.InitUI(noColor, verbose)

	if !extractJSON {
		ui.Section("Document Extraction")
		for _, path := range args {
			ui.Verbose("input: %s", path)
		}
	}

	start := time.Now()
	summary, err := runLocalExtraction(ctx, buildLogger(), cfg, args)
	if err != nil {
		return err
	}

	if extractJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	printSummary(summary, time.Since(start))
	return nil
}

func printSummary(summary domain.ExtractionSummary, elapsed time.Duration) {
	ui.Newline()
	ui.Success("Extraction completed in %s", ui.FormatDuration(elapsed))
	ui.Newline()

	if summary.ClientName != "" {
		ui.KeyValue("Client", summary.ClientName)
	}
	ui.KeyValue("Total value", report.FormatMoney(summary.TotalValue))
	ui.KeyValue("Risk score", fmt.Sprintf("%d", summary.RiskScore))
	ui.KeyValue("Charts extracted", fmt.Sprintf("%t", summary.ChartsExtracted))
	ui.Newline()

	if len(summary.Accounts) == 0 {
		ui.Warning("No accounts were identified")
		return
	}

	rows := make([][]string, 0, len(summary.Accounts))
	for _, acc := range summary.Accounts {
		rows = append(rows, []string{
			string(acc.Type),
			acc.Provider,
			acc.AccountNumber,
			report.FormatMoney(acc.Value),
			fmt.Sprintf("%.2f%%", acc.Performance),
		})
	}
	ui.Table([]string{"Type", "Provider", "Account", "Value", "Performance"}, rows)
}
