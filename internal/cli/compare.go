package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ucibridge/internal/export"
	"github.com/roach88/ucibridge/internal/oracle"
	"github.com/roach88/ucibridge/internal/uci"
)

// CompareOptions holds flags for the compare command.
type CompareOptions struct {
	*RootOptions
	Engine  EngineFlags
	Parquet string
}

// CompareResult lists one analysis per position, in input order.
type CompareResult struct {
	Results []analysisOutput `json:"results"`
	Parquet string           `json:"parquet,omitempty"`
}

// Text implements texter.
func (r CompareResult) Text() string {
	var b strings.Builder
	for i, res := range r.Results {
		reply := res.CounterMove
		if reply == "" {
			reply = uci.NoMove
		}
		fmt.Fprintf(&b, "%d. %-10s %-8s %s\n", i+1, res.Score.String(), reply, res.Position.FEN)
	}
	if r.Parquet != "" {
		fmt.Fprintf(&b, "wrote %s\n", r.Parquet)
	}
	return b.String()
}

// NewCompareCommand creates the compare command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompareOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compare <fen>...",
		Short: "Evaluate several positions one after another",
		Long: `Evaluate each position with a short search and list the scores in
input order. Without --movetime each position gets 100ms.

Examples:
  ucibridge compare "<fen1>" "<fen2>"
  ucibridge compare "<fen1>" "<fen2>" --parquet scores.parquet`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(opts, args, cmd)
		},
	}

	opts.Engine.register(cmd)
	cmd.Flags().StringVar(&opts.Parquet, "parquet", "", "also write the results to this parquet file")

	return cmd
}

func runCompare(opts *CompareOptions, fens []string, cmd *cobra.Command) error {
	f := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	c, err := loadConfig(opts.RootOptions)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeInvalidConfig, "invalid config", err)
	}
	opts.Engine.apply(c)

	for _, fen := range fens {
		if _, err := oracle.New(uci.Position{FEN: fen}); err != nil {
			return f.Fail(ExitCommandError, ErrCodeInvalidArgs, "invalid position", err)
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Engine.Timeout)
	defer cancel()

	run, err := startEngine(ctx, c)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeEngine, "failed to start engine", err)
	}
	defer func() {
		if err := run.Close(); err != nil {
			slog.Warn("engine shutdown", "error", err)
		}
	}()

	analyses, err := run.session.Compare(run.ctx, fens, opts.Engine.MoveTime)
	if err != nil {
		return run.failWait(f, fmt.Sprintf("compared %d of %d positions", len(analyses), len(fens)), err)
	}

	result := CompareResult{Results: make([]analysisOutput, len(analyses))}
	for i, a := range analyses {
		result.Results[i] = analysisOutput{a}
	}

	if opts.Parquet != "" {
		if err := export.WriteParquet(opts.Parquet, analyses, export.DefaultParallel); err != nil {
			return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to write parquet", err)
		}
		result.Parquet = opts.Parquet
	}
	return f.Success(result)
}
