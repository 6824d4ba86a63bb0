package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/upsql/internal/dialect"
	"github.com/roach88/upsql/internal/specfile"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool       `json:"valid"`
	Commands int        `json:"commands"`
	Errors   []CLIError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <command-file>",
		Short: "Validate a command file against every dialect",
		Long: `Validate the commands of a YAML or CUE command file without
printing SQL.

Each command is parsed, checked structurally and generated with every
dialect, so field mapping errors and dialect-specific errors (such as an
ambiguous MERGE parameter) are reported too.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	f, err := specfile.Load(path)
	if err != nil {
		_ = formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeLoadFailed, err)
	}

	result := validateFile(f, formatter)
	if !result.Valid {
		if formatter.Format == "json" {
			_ = formatter.Success(result)
		} else {
			_ = formatter.Errors("Validation failed", result.Errors)
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "%s %d command(s) valid\n", okMark("✓"), result.Commands)
	return nil
}

// validateFile builds every command and generates it with each dialect.
// Errors shared by all dialects are reported once.
func validateFile(f *specfile.File, formatter *OutputFormatter) ValidationResult {
	table := f.Metadata()
	result := ValidationResult{Commands: len(f.Commands)}

	if err := table.Validate(); err != nil {
		result.Errors = append(result.Errors, CLIError{Code: ErrorCode(err), Message: err.Error()})
	}

	for _, def := range f.Commands {
		formatter.VerboseLog("Validating command: %s", def.Name)

		cmd, err := def.Build()
		if err != nil {
			result.Errors = append(result.Errors, CLIError{Code: ErrCodeLoadFailed, Message: err.Error()})
			continue
		}
		if err := cmd.Validate(); err != nil {
			result.Errors = append(result.Errors, CLIError{
				Code:    ErrorCode(err),
				Message: fmt.Sprintf("command %q: %v", def.Name, err),
			})
			continue
		}

		for _, g := range []dialect.Generator{dialect.NewOnConflict(), dialect.NewMerge()} {
			if _, err := dialect.Generate(g, table, cmd); err != nil {
				result.Errors = append(result.Errors, CLIError{
					Code:    ErrorCode(err),
					Message: fmt.Sprintf("command %q: %v", def.Name, err),
					Details: map[string]string{"dialect": g.Name()},
				})
				break
			}
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}
