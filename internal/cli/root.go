// Package cli implements the phrasegate command line.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "phrasegate",
	Short: "Message filter gate for chat bots",
	Long:  "Intercepts incoming chat messages and drops the ones matching a mutable set of blocked phrases and regex patterns. Rules are managed over /ignore chat commands or this CLI and live in a single hand-editable TOML file.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the process logger. Commands that talk to a terminal
// use text output; serve switches to JSON.
func newLogger(level string, json bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if json {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
