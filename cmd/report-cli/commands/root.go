package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clearviewfp/report-engine/internal/config"
	"github.com/clearviewfp/report-engine/internal/observability"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "report-cli",
	Short: "Report engine CLI for local extraction and report generation",
	Long: `The report CLI runs the document extraction pipeline against local
files without the HTTP server: classify provider statements and cashflow
documents, extract accounts and charts, and render the client report.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads configuration and anchors the asset directory next to the
// config file so the CLI behaves the same from any working directory.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfgFile != "" {
		cfg.Assets.Dir = config.ResolveRelativePath(cfgFile, cfg.Assets.Dir)
	}
	return cfg, nil
}

// buildLogger returns the CLI logger. Pipeline logs stay at warn level so
// they do not interleave with the ui output unless --verbose asks for them.
func buildLogger() *observability.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      "console",
		ServiceName: "report-cli",
	})
}
