package commands

import (
	"context"
	"fmt"
	"medprice-backend/internal/config"
	"medprice-backend/lib/telemetry"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	verbose    *bool
)

var rootCmd = &cobra.Command{
	Use:   "medprice-cli",
	Short: "medprice-cli compares medicine prices across pharmacies.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "Path to the json5 configuration.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging.")
}

func loadConfig() (config.Config, error) {
	return config.Load(*configPath)
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
