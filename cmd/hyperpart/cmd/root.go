// Package cmd implements the hyperpart command tree.
package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	verbose bool

	// logger is replaced by PersistentPreRun; the no-op default keeps
	// early failure paths safe.
	logger = zerolog.Nop()
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "hyperpart",
	Short: "Multi-resource KLFM hypergraph bipartitioner",
	Long: `hyperpart bipartitions weighted hypergraphs with the multi-resource,
multi-level KLFM algorithm. Nodes may carry several alternative
implementations with different per-resource costs; the partitioner
minimises the weighted cut subject to per-resource balance limits and
optional resource-ratio targets.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(level).
			With().Timestamp().Logger()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
}

// Execute runs the command tree.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("command failed")
		return err
	}
	return nil
}
