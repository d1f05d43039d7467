// Package cmd provides the CLI commands for orderflowctl.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-orderflow-notifications/internal/config"
	"github.com/imrishuroy/go-orderflow-notifications/internal/logging"
)

var (
	verbose   bool
	logFormat string

	appCfg *config.Config
	logger = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "orderflowctl",
	Short: "Operate the order notification service",
	Long: `orderflowctl runs the notification building blocks locally.

Examples:
  orderflowctl fee allocate --ship 4.99 --article 20.00 --fee 1.50 --quantity 3
  orderflowctl model preview --kind customer_feedback_sent --file order.json
  orderflowctl orders import --file orders.json`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if verbose {
			cfg.LogLevel = "debug"
		}
		if logFormat != "" {
			cfg.LogFormat = logFormat
		}
		appCfg = cfg
		logger = logging.New(cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

// Execute runs the CLI
func Execute() error {
	defer func() { _ = logger.Sync() }()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (json, console)")

	rootCmd.AddCommand(versionCmd)
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "orderflowctl version 0.1.0")
	},
}
