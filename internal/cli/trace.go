package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ucibridge/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	SessionID string
	RequestID string
}

// TraceResult is a transcript slice.
type TraceResult struct {
	SessionID string        `json:"session_id,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	Entries   []store.Entry `json:"entries"`
}

// Text implements texter.
func (r TraceResult) Text() string {
	if len(r.Entries) == 0 {
		return "No transcript lines found.\n"
	}
	var b strings.Builder
	for _, e := range r.Entries {
		arrow := "<"
		switch e.Direction {
		case store.DirectionOut:
			arrow = ">"
		case store.DirectionErr:
			arrow = "!"
		}
		req := e.RequestID
		if req == "" {
			req = "-"
		}
		fmt.Fprintf(&b, "%5d %s %-12s %s\n", e.Seq, arrow, req, e.Text)
	}
	return b.String()
}

// SessionsResult lists recorded sessions.
type SessionsResult struct {
	Sessions []store.SessionSummary `json:"sessions"`
}

// Text implements texter.
func (r SessionsResult) Text() string {
	if len(r.Sessions) == 0 {
		return "No sessions recorded.\n"
	}
	var b strings.Builder
	for _, s := range r.Sessions {
		engine := s.Engine
		if engine == "" {
			engine = "unknown engine"
		}
		fmt.Fprintf(&b, "%s  %s  %d lines  (%s)\n", s.ID, s.StartedAt, s.Lines, engine)
	}
	return b.String()
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show recorded engine transcripts",
		Long: `Show what was exchanged with the engine, as recorded with --db.

Without --session or --request, lists the recorded sessions.
'>' marks commands sent, '<' engine output, '!' transport faults.

Examples:
  ucibridge trace --db ./ucibridge.db
  ucibridge trace --db ./ucibridge.db --session 0190c7e2-...
  ucibridge trace --db ./ucibridge.db --request 0190c7e3-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "session to show")
	cmd.Flags().StringVar(&opts.RequestID, "request", "", "request to show")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	f := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Opening creates the file; a typo should not leave an empty database.
	if _, err := os.Stat(opts.Database); err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "database not found", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	switch {
	case opts.RequestID != "":
		entries, err := st.ReadRequest(ctx, opts.RequestID)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to read request", err)
		}
		return f.Success(TraceResult{RequestID: opts.RequestID, Entries: entries})

	case opts.SessionID != "":
		entries, err := st.ReadSession(ctx, opts.SessionID)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to read session", err)
		}
		return f.Success(TraceResult{SessionID: opts.SessionID, Entries: entries})

	default:
		sessions, err := st.Sessions(ctx)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to list sessions", err)
		}
		return f.Success(SessionsResult{Sessions: sessions})
	}
}
