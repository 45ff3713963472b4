package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/ucibridge/internal/config"
)

// ValidateResult is the outcome of config validate.
type ValidateResult struct {
	Path   string                   `json:"path"`
	Valid  bool                     `json:"valid"`
	Errors []config.ValidationError `json:"errors,omitempty"`
}

// Text implements texter.
func (r ValidateResult) Text() string {
	if r.Valid {
		return fmt.Sprintf("%s: ok\n", r.Path)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d problem(s)\n", r.Path, len(r.Errors))
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "  %s\n", e.Error())
	}
	return b.String()
}

// ShowResult is the effective configuration.
type ShowResult struct {
	*config.Config
}

// Text renders the config as YAML.
func (r ShowResult) Text() string {
	out, err := yaml.Marshal(r.Config)
	if err != nil {
		return err.Error() + "\n"
	}
	return string(out)
}

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(newConfigValidateCommand(rootOpts))
	cmd.AddCommand(newConfigShowCommand(rootOpts))
	return cmd
}

func newConfigValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Check a config file against the schema",
		Long: `Check a config file against the schema. The path defaults to --config,
then ucibridge.yaml in the working directory.

Examples:
  ucibridge config validate ucibridge.yaml
  ucibridge -c ucibridge.yaml config validate --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath(rootOpts)
			if len(args) == 1 {
				path = args[0]
			}
			return runConfigValidate(rootOpts, path, cmd)
		},
	}
}

func runConfigValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if path == "" {
		return f.Fail(ExitCommandError, ErrCodeInvalidArgs, "no config file given", nil)
	}

	result := ValidateResult{Path: path, Valid: true}
	if _, err := config.Load(path); err != nil {
		var errs config.Errors
		if !errors.As(err, &errs) {
			return f.Fail(ExitCommandError, ErrCodeInvalidConfig, "failed to load config", err)
		}
		result.Valid = false
		result.Errors = errs
	}

	if err := f.Success(result); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%s is invalid", path))
	}
	return nil
}

func newConfigShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Print the effective configuration",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}
			c, err := loadConfig(rootOpts)
			if err != nil {
				return f.Fail(ExitFailure, ErrCodeInvalidConfig, "invalid config", err)
			}
			return f.Success(ShowResult{c})
		},
	}
}
