package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/veilgate-project/veilgate/internal/config"
)

// AppVersion is stamped into logs, telemetry and the version command.
const AppVersion = "1.0.0"

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "veilgate",
	Short: "Veilgate - masked-record protocol gateway",
	Long: `Veilgate terminates the game protocol's framed TCP transport,
decodes known messages through the shared record codec, records all
traffic in a SQLite flight recorder, and serves a REST API for catalog
browsing, capture queries, and on-demand decoding.`,
}

// Execute adds all child commands to the root command and runs it. Called
// once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config-dir", "c", config.DefaultConfigDir, "Directory holding config.json")
}
