package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/ucibridge/internal/config"
	"github.com/roach88/ucibridge/internal/session"
	"github.com/roach88/ucibridge/internal/store"
	"github.com/roach88/ucibridge/internal/transport"
)

// EngineFlags are the flags shared by commands that talk to an engine.
// Each overrides the matching config field when set.
type EngineFlags struct {
	Engine   string
	Database string
	MoveTime time.Duration
	Depth    int
	Timeout  time.Duration
}

// DefaultTimeout bounds a whole command, handshake included.
const DefaultTimeout = 60 * time.Second

func (f *EngineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Engine, "engine", "", "path to the UCI engine binary")
	cmd.Flags().StringVar(&f.Database, "db", "", "record the transcript in this SQLite database")
	cmd.Flags().DurationVar(&f.MoveTime, "movetime", 0, "search time per position (default from config, 1.5s)")
	cmd.Flags().IntVar(&f.Depth, "depth", 0, "optional search depth limit")
	cmd.Flags().DurationVar(&f.Timeout, "timeout", DefaultTimeout, "give up after this long")
}

// apply overlays the flags onto c.
func (f *EngineFlags) apply(c *config.Config) {
	if f.Engine != "" {
		c.Engine.Path = f.Engine
	}
	if f.Database != "" {
		c.Transcript.DB = f.Database
	}
	if f.MoveTime > 0 {
		c.Analysis.MoveTimeMS = int(f.MoveTime / time.Millisecond)
	}
	if f.Depth > 0 {
		c.Analysis.Depth = f.Depth
	}
}

// engineRun is a started engine process with a running session.
//
// ctx is for callers waiting on results. It is cancelled with
// transport.ErrEngineExited as its cause when the engine dies on its own.
type engineRun struct {
	proc    *transport.Process
	session *session.Session
	store   *store.Store
	group   *errgroup.Group

	ctx    context.Context
	cancel context.CancelCauseFunc
}

// startEngine launches the engine, opens the transcript store if configured,
// and runs the session loop and the stdout reader under one errgroup.
// The loop keeps running after a reader failure so the fault is recorded.
func startEngine(ctx context.Context, c *config.Config) (*engineRun, error) {
	proc, err := transport.Start(ctx, c.Engine.Path, c.Engine.Args...)
	if err != nil {
		return nil, err
	}

	run := &engineRun{proc: proc}
	opts := []session.SessionOption{session.WithEngineOptions(c.EngineOptions()...)}
	if c.Transcript.DB != "" {
		st, err := store.Open(c.Transcript.DB)
		if err != nil {
			_ = proc.Close()
			return nil, fmt.Errorf("open transcript: %w", err)
		}
		run.store = st
		opts = append(opts, session.WithTranscript(st))
	}

	sess, err := session.New(proc, opts...)
	if err != nil {
		run.closeResources()
		return nil, err
	}
	run.session = sess

	run.ctx, run.cancel = context.WithCancelCause(ctx)
	g := &errgroup.Group{}
	g.Go(func() error { return sess.Run(ctx) })
	g.Go(func() error {
		err := proc.Listen(ctx, sess)
		if err != nil {
			run.cancel(err)
		}
		return err
	})
	run.group = g
	return run, nil
}

// Close stops the session, shuts the engine down and waits for both
// goroutines. Cancellation is not reported as an error.
func (r *engineRun) Close() error {
	defer r.cancel(nil)
	r.session.Stop()
	closeErr := r.proc.Close()
	waitErr := r.group.Wait()
	if r.store != nil {
		if err := r.store.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
	}

	if waitErr != nil && !errors.Is(waitErr, context.Canceled) && !errors.Is(waitErr, context.DeadlineExceeded) {
		return waitErr
	}
	return closeErr
}

// failWait reports a wait on the engine that ended with err.
func (r *engineRun) failWait(f *OutputFormatter, message string, err error) error {
	if cause := context.Cause(r.ctx); errors.Is(cause, transport.ErrEngineExited) {
		return f.Fail(ExitCommandError, ErrCodeEngine, "engine exited", cause)
	}
	return f.Fail(ExitFailure, ErrCodeTimeout, message, err)
}

func (r *engineRun) closeResources() {
	_ = r.proc.Close()
	if r.store != nil {
		_ = r.store.Close()
	}
}

// request builds a session request from the effective config.
func request(c *config.Config) session.Request {
	return session.Request{
		MoveTime: c.Analysis.MoveTime(),
		Depth:    c.Analysis.Depth,
	}
}
