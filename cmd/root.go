package cmd

import (
	"github.com/jsphweid/voicelead/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "voicelead",
	Short: "Voice-leading pattern generator",
	Long: `voicelead pitches a rhythmic skeleton over a chord progression, leading
every voice into each new harmony with as little motion as the configured
rules allow.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override the log format (json, console)")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// newLogger builds the logger from the flags, falling back to the given
// defaults.
func newLogger(level, format string) (*zap.Logger, error) {
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}
	return logging.New(level, format)
}
