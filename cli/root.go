package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "predictdemo",
	Short: "Batch prediction demos for pre-trained tree classifiers",
	Long: `predictdemo loads a pre-trained Random Forest or Decision Tree artifact,
runs it over a CSV dataset and shows the predicted labels with per-class counts.

It serves the demos over HTTP or runs a single prediction from the command line.`,
	SilenceUsage: true,
}

var configPath string

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML config file")
}
