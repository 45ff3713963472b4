package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ucibridge/internal/oracle"
	"github.com/roach88/ucibridge/internal/session"
	"github.com/roach88/ucibridge/internal/uci"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	Engine EngineFlags
	FEN    string
	Move   string
}

// analysisOutput renders one analysis.
type analysisOutput struct {
	session.Analysis
}

// Text implements texter.
func (o analysisOutput) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "position: %s\n", o.Position.String())
	if o.Move != "" {
		fmt.Fprintf(&b, "move:     %s\n", o.Move)
	}
	reply := o.CounterMove
	if reply == "" {
		reply = uci.NoMove
	}
	fmt.Fprintf(&b, "reply:    %s\n", reply)
	if o.Ponder != "" {
		fmt.Fprintf(&b, "ponder:   %s\n", o.Ponder)
	}
	fmt.Fprintf(&b, "score:    %s\n", o.Score.String())
	if o.Depth > 0 {
		fmt.Fprintf(&b, "depth:    %d\n", o.Depth)
	}
	if len(o.PV) > 0 {
		fmt.Fprintf(&b, "pv:       %s\n", strings.Join(o.PV, " "))
	}
	return b.String()
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze [moves...]",
		Short: "Ask the engine for the best reply to a move",
		Long: `Ask the engine for its best reply to a move.

The position is the start position (or --fen) followed by the given moves.
--move is the move under analysis; without it the position itself is
searched. Moves use long algebraic notation (e2e4, e7e8q) and are checked
for legality before the engine is started.

Examples:
  ucibridge analyze --move e2e4
  ucibridge analyze e2e4 e7e5 --move g1f3 --movetime 3s
  ucibridge analyze --fen "8/8/8/8/8/5k2/6q1/7K w - - 0 1" --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, args, cmd)
		},
	}

	opts.Engine.register(cmd)
	cmd.Flags().StringVar(&opts.FEN, "fen", "", "starting position (default: standard start)")
	cmd.Flags().StringVar(&opts.Move, "move", "", "move to analyze")

	return cmd
}

func runAnalyze(opts *AnalyzeOptions, moves []string, cmd *cobra.Command) error {
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

	pos := uci.Position{FEN: opts.FEN, Moves: moves}
	board, err := oracle.New(pos)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeIllegalMove, "invalid position", err)
	}
	if opts.Move != "" && !board.Legal(opts.Move) {
		return f.Fail(ExitCommandError, ErrCodeIllegalMove, fmt.Sprintf("illegal move %s for %s", opts.Move, board.SideToMove()), nil)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Engine.Timeout)
	defer cancel()

	f.VerboseLog("Starting engine %s", c.Engine.Path)
	run, err := startEngine(ctx, c)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeEngine, "failed to start engine", err)
	}
	defer func() {
		if err := run.Close(); err != nil {
			slog.Warn("engine shutdown", "error", err)
		}
	}()

	req := request(c)
	req.Position = pos
	req.Move = opts.Move

	p, err := run.session.Analyze(run.ctx, req)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgs, "request rejected", err)
	}
	f.VerboseLog("Submitted %s", p.ID())

	a, err := p.Wait(run.ctx)
	if err != nil {
		return run.failWait(f, "engine did not answer", err)
	}
	return f.Success(analysisOutput{a})
}
