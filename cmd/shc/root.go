package main

import (
	"github.com/spf13/cobra"

	"github.com/copyleftdev/hillclimb/internal/config"
	"github.com/copyleftdev/hillclimb/internal/logging"
)

var logLevel string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "shc",
		Short:         "Stochastic hill climbing for closed tours",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.GetEnv("LOG_LEVEL", "warn"), "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newSolveCmd())
	return rootCmd
}

// newLogger builds the text logger used on the command line.
func newLogger() (*logging.Logger, error) {
	return logging.NewLogger(&logging.Config{
		Level:  logLevel,
		Format: "text",
		Output: "stderr",
	})
}
