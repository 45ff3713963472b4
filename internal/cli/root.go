// Package cli implements the ucibridge command line.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/ucibridge/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // optional config file
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// EngineEnv names the environment variable consulted for the engine path
// when neither --engine nor a config file provides one.
const EngineEnv = "UCIBRIDGE_ENGINE"

// NewRootCommand creates the root command for the ucibridge CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ucibridge",
		Short: "ucibridge - ask a UCI engine about moves",
		Long: `Drive a UCI chess engine as an analysis service.

Requests are queued and sent to the engine one at a time; each returns the
engine's best reply and its evaluation.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			setupLogging(cmd, opts)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "path to config file")

	cmd.AddCommand(NewAnalyzeCommand(opts))
	cmd.AddCommand(NewCompareCommand(opts))
	cmd.AddCommand(NewHintCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// setupLogging installs the default slog logger on stderr. Verbose wins
// over the config file's level; without either only warnings are shown.
func setupLogging(cmd *cobra.Command, opts *RootOptions) {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	} else if path := configPath(opts); path != "" {
		if c, err := config.Load(path); err == nil {
			level = c.Log.SlogLevel()
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
}

// DefaultConfigFile is loaded from the working directory when --config is
// not given.
const DefaultConfigFile = "ucibridge.yaml"

// configPath returns the config file in use, or "" for built-in defaults.
func configPath(opts *RootOptions) string {
	if opts.Config != "" {
		return opts.Config
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

// loadConfig resolves the effective config: the config file if there is one,
// otherwise defaults for the engine at $UCIBRIDGE_ENGINE or "stockfish".
func loadConfig(opts *RootOptions) (*config.Config, error) {
	if path := configPath(opts); path != "" {
		return config.Load(path)
	}
	path := os.Getenv(EngineEnv)
	if path == "" {
		path = "stockfish"
	}
	return config.Default(path), nil
}
