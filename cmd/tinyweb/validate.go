package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/tinyweb/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a tinyweb configuration file without starting the server.

Unlike serve, which falls back to defaults, validate fails on a missing
or malformed file. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  tinyweb validate -c tinyweb.yaml
  tinyweb validate --config /etc/config/tinyweb`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", config.DefaultPath, "path to config file (YAML or UCI)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	queue := "unbounded"
	if cfg.QueueLimit > 0 {
		queue = fmt.Sprintf("%d", cfg.QueueLimit)
	}
	metricsTarget := "disabled"
	if cfg.Metrics.OTLPEndpoint != "" {
		metricsTarget = fmt.Sprintf("%s every %s", cfg.Metrics.OTLPEndpoint, cfg.Metrics.Interval.Duration())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Listen:        %s\n", cfg.Listen)
	fmt.Fprintf(out, "  Document root: %s\n", cfg.DocumentRoot)
	fmt.Fprintf(out, "  Workers:       %d\n", cfg.Workers)
	fmt.Fprintf(out, "  Queue limit:   %s\n", queue)
	fmt.Fprintf(out, "  Documents:     %s, %s, %s\n", cfg.IndexDocument, cfg.NotFoundDocument, cfg.SleepDocument)
	fmt.Fprintf(out, "  Sleep delay:   %s\n", cfg.SleepDelay.Duration())
	fmt.Fprintf(out, "  Read timeout:  %s\n", cfg.ReadTimeout.Duration())
	fmt.Fprintf(out, "  Metrics:       %s\n", metricsTarget)

	return nil
}
