package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "enginewatch",
	Short: "Main-engine telemetry anomaly detection pipeline",
	Long: `enginewatch trains and evaluates a reconstruction-based anomaly
detector on vessel main-engine telemetry.

Commands:
  run       fetch telemetry, train the model and record the run
  evaluate  score a labeled reference dataset against saved artifacts
  serve     expose recorded runs over HTTP

Example:
  enginewatch run --config config.yaml
  enginewatch evaluate --scaler scaler.gob.gz --model model.gob.gz --data retained.csv
  enginewatch serve --config config.yaml`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			os.Setenv("CONFIG_PATH", cfgFile)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}
