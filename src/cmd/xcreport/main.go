// Package main provides the xcreport CLI: parse xcodebuild output locally, submit it to
// the ingest agent, and read stored reports.
package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"xcreport/src/config"
	"xcreport/src/logger"
)

var (
	// Application configuration, loaded before any subcommand runs.
	appConfig *config.Config
	// Diagnostic logger. Writes to stderr so stdout stays parseable.
	log logger.Logger

	configPath string
	debugFlag  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xcreport",
	Short: "xcreport - structured reports from xcodebuild console output",
	Long: `xcreport reads the console output of xcodebuild and turns it into a build
report: target, configuration, every build action, and the errors and warnings
attributed to each action.

Logs can be parsed in process (parse) or submitted in chunks to an ingest agent
through Redpanda (submit). Reports are kept in Postgres when
XCREPORT_POSTGRES_DSN is set.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			appConfig, err = config.LoadFile(configPath)
		} else {
			appConfig, err = config.LoadFromEnv()
		}
		if err != nil {
			return err
		}
		if debugFlag {
			appConfig.Debug = true
		}
		log = logger.NewWriterLogger(os.Stderr, os.Stderr, appConfig.Debug)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file (overrides XCREPORT_* variables)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newSubmitCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newFetchCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errBuildFailed) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
