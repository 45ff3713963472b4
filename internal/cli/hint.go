package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ucibridge/internal/oracle"
	"github.com/roach88/ucibridge/internal/uci"
)

// HintOptions holds flags for the hint command.
type HintOptions struct {
	*RootOptions
	FEN   string
	Moves []string
}

// HintResult describes the pieces that can reach one square.
type HintResult struct {
	oracle.Hint
	SideToMove string `json:"side_to_move"`
	Move       string `json:"move,omitempty"` // set when exactly one piece can go there
}

// Text implements texter.
func (r HintResult) Text() string {
	s := fmt.Sprintf("%s to move: %s from %s\n", r.SideToMove, r.Target, strings.Join(r.Origins, ", "))
	if r.Move != "" {
		s += fmt.Sprintf("play %s\n", r.Move)
	}
	return s
}

// TargetsResult maps every reachable square to its origins.
type TargetsResult struct {
	SideToMove string              `json:"side_to_move"`
	Targets    map[string][]string `json:"targets"`
}

// Text implements texter.
func (r TargetsResult) Text() string {
	dests := make([]string, 0, len(r.Targets))
	for d := range r.Targets {
		dests = append(dests, d)
	}
	sort.Strings(dests)

	var b strings.Builder
	fmt.Fprintf(&b, "%s to move\n", r.SideToMove)
	for _, d := range dests {
		fmt.Fprintf(&b, "%s <- %s\n", d, strings.Join(r.Targets[d], " "))
	}
	return b.String()
}

// NewHintCommand creates the hint command.
func NewHintCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HintOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "hint [square]",
		Short: "Show which pieces can move to a square",
		Long: `Show which pieces can move to a square. When exactly one piece can,
the move to play is printed as well. Without a square, every reachable
square is listed. No engine is needed.

Examples:
  ucibridge hint f3
  ucibridge hint d2 --moves d2d4,d7d5
  ucibridge hint --fen "8/P7/8/8/8/8/8/k6K w - - 0 1"`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHint(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.FEN, "fen", "", "starting position (default: standard start)")
	cmd.Flags().StringSliceVar(&opts.Moves, "moves", nil, "moves played from the starting position")

	return cmd
}

func runHint(opts *HintOptions, args []string, cmd *cobra.Command) error {
	f := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	board, err := oracle.New(uci.Position{FEN: opts.FEN, Moves: opts.Moves})
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeIllegalMove, "invalid position", err)
	}

	if len(args) == 0 {
		return f.Success(TargetsResult{SideToMove: board.SideToMove(), Targets: board.Targets()})
	}

	h, err := board.Hint(args[0])
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeIllegalMove, "no hint", err)
	}
	result := HintResult{Hint: h, SideToMove: board.SideToMove()}
	if m, ok := h.Move(); ok {
		result.Move = m
	}
	return f.Success(result)
}
