package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ucibridge/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string
	Golden string
	Update bool
}

// TestResult represents a single scenario result.
type TestResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden,omitempty"` // "match", "mismatch", "missing", "updated"
	Errors []string `json:"errors,omitempty"`
}

// TestSummary represents the overall test run.
type TestSummary struct {
	Total   int          `json:"total"`
	Passed  int          `json:"passed"`
	Failed  int          `json:"failed"`
	Results []TestResult `json:"results"`
}

// Text implements texter.
func (s TestSummary) Text() string {
	var b strings.Builder
	for _, r := range s.Results {
		status := "PASS"
		if !r.Pass {
			status = "FAIL"
		}
		if r.Golden != "" {
			fmt.Fprintf(&b, "%s  %s (golden %s)\n", status, r.Name, r.Golden)
		} else {
			fmt.Fprintf(&b, "%s  %s\n", status, r.Name)
		}
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "      %s\n", e)
		}
	}
	fmt.Fprintf(&b, "\n%d scenarios, %d passed, %d failed\n", s.Total, s.Passed, s.Failed)
	return b.String()
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run session scenarios against a scripted engine",
		Long: `Run the YAML scenarios in a directory. Each scenario drives a session
with scripted engine output and checks its assertions. With --golden the
transcript is also compared against <golden>/<name>.golden; --update
rewrites those files instead.

Examples:
  ucibridge test ./testdata/scenarios
  ucibridge test ./testdata/scenarios --filter "handshake*"
  ucibridge test ./testdata/scenarios --golden ./testdata/golden --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose name matches this glob")
	cmd.Flags().StringVar(&opts.Golden, "golden", "", "directory of golden transcripts")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden transcripts")

	return cmd
}

func runTest(opts *TestOptions, dir string, cmd *cobra.Command) error {
	f := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Update && opts.Golden == "" {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgs, "--update requires --golden", nil)
	}
	if opts.Filter != "" {
		if _, err := filepath.Match(opts.Filter, ""); err != nil {
			return f.Fail(ExitCommandError, ErrCodeInvalidArgs, "invalid --filter pattern", err)
		}
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgs, "invalid scenarios directory", err)
	}
	sort.Strings(paths)

	summary := TestSummary{Results: []TestResult{}}
	for _, path := range paths {
		scenario, err := harness.LoadScenario(path)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeInvalidArgs, fmt.Sprintf("failed to load %s", path), err)
		}
		if opts.Filter != "" {
			if ok, _ := filepath.Match(opts.Filter, scenario.Name); !ok {
				continue
			}
		}

		f.VerboseLog("Running %s", scenario.Name)
		result, err := harness.Run(scenario)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeGeneric, fmt.Sprintf("scenario %s did not run", scenario.Name), err)
		}

		tr := TestResult{Name: scenario.Name, Pass: result.Pass, Errors: result.Errors}
		if opts.Golden != "" {
			status, err := checkGolden(opts.Golden, scenario.Name, result.Transcript(), opts.Update)
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeGeneric, "golden file", err)
			}
			tr.Golden = status
			if status == "mismatch" || status == "missing" {
				tr.Pass = false
			}
		}

		summary.Results = append(summary.Results, tr)
		summary.Total++
		if tr.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}

	if summary.Total == 0 {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgs, fmt.Sprintf("no scenarios found in %s", dir), nil)
	}

	if err := f.Success(summary); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", summary.Failed, summary.Total))
	}
	return nil
}

// checkGolden compares transcript with <dir>/<name>.golden, or rewrites the
// file when update is set.
func checkGolden(dir, name, transcript string, update bool) (string, error) {
	path := filepath.Join(dir, name+".golden")
	if update {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
		if err := os.WriteFile(path, []byte(transcript), 0o644); err != nil {
			return "", err
		}
		return "updated", nil
	}

	want, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "missing", nil
	}
	if err != nil {
		return "", err
	}
	if !bytes.Equal(want, []byte(transcript)) {
		return "mismatch", nil
	}
	return "match", nil
}
