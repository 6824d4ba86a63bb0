package cli

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/upsql/internal/command"
	"github.com/roach88/upsql/internal/execute"
	"github.com/roach88/upsql/internal/specfile"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	Command string
	Params  []string // name=value
}

// ExecResult is the outcome of one executed command.
type ExecResult struct {
	Command      string        `json:"command"`
	RowsAffected *int64        `json:"rows_affected,omitempty"`
	Rows         []execute.Row `json:"rows,omitempty"`
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <command-file>",
		Short: "Execute one command against a database",
		Long: `Execute one command of a command file against the database given by
--driver and --dsn. Parameters are passed as --param name=value; values
that parse as integers, floats, booleans or null are sent typed, anything
else as a string.

Commands with an output clause print the returned rows; others print the
number of affected rows.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Command, "command", "c", "", "name of the command to execute (required)")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "parameter as name=value (repeatable)")
	_ = cmd.MarkFlagRequired("command")

	return cmd
}

func runExec(ctx context.Context, opts *ExecOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	fail := func(exit int, code string, err error) error {
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(exit, code, err)
	}

	cfg, err := opts.config()
	if err != nil {
		return fail(ExitCommandError, ErrCodeGeneric, err)
	}
	if cfg.DSN == "" {
		return fail(ExitCommandError, ErrCodeGeneric, fmt.Errorf("--dsn is required"))
	}

	params, err := parseParams(opts.Params)
	if err != nil {
		return fail(ExitCommandError, ErrCodeGeneric, err)
	}

	f, err := specfile.Load(path)
	if err != nil {
		return fail(ExitCommandError, ErrCodeLoadFailed, err)
	}
	def, ok := f.Lookup(opts.Command)
	if !ok {
		return fail(ExitCommandError, ErrCodeNotFound, fmt.Errorf("%w: %q in %s", errCommandNotFound, opts.Command, path))
	}
	c, err := def.Build()
	if err != nil {
		return fail(ExitCommandError, ErrCodeLoadFailed, err)
	}

	exec, closeDB, err := execute.Connect(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return fail(ExitFailure, ErrCodeExecFailed, err)
	}
	defer closeDB()

	session, err := execute.NewSession(cfg.Provider(), exec, execute.WithLogger(opts.logger()))
	if err != nil {
		return fail(ExitCommandError, ErrorCode(err), err)
	}
	prepared, err := session.Prepare(f.Metadata(), c)
	if err != nil {
		return fail(ExitCommandError, ErrorCode(err), err)
	}
	formatter.VerboseLog("%s", prepared.Text())

	result := ExecResult{Command: def.Name}
	if hasOutput(c) {
		rows, err := prepared.Query(ctx, params)
		if err != nil {
			return fail(ExitFailure, execErrorCode(err), err)
		}
		result.Rows = rows
	} else {
		n, err := prepared.Exec(ctx, params)
		if err != nil {
			return fail(ExitFailure, execErrorCode(err), err)
		}
		result.RowsAffected = &n
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	printExecResult(formatter, result)
	return nil
}

func execErrorCode(err error) string {
	if code := ErrorCode(err); code != ErrCodeGeneric {
		return code
	}
	return ErrCodeExecFailed
}

func hasOutput(c command.Command) bool {
	switch c := c.(type) {
	case command.Insert:
		return c.Output != nil
	case command.Update:
		return c.Output != nil
	case command.Upsert:
		return c.Output != nil
	default:
		return false
	}
}

func printExecResult(formatter *OutputFormatter, result ExecResult) {
	if result.RowsAffected != nil {
		fmt.Fprintf(formatter.Writer, "%s %s: %d row(s) affected\n", okMark("✓"), result.Command, *result.RowsAffected)
		return
	}
	fmt.Fprintf(formatter.Writer, "%s %s: %d row(s) returned\n", okMark("✓"), result.Command, len(result.Rows))
	for _, row := range result.Rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%v", k, row[k])
		}
		fmt.Fprintf(formatter.Writer, "  %s\n", strings.Join(parts, " "))
	}
}

// parseParams turns name=value pairs into parameters.
func parseParams(pairs []string) (execute.Params, error) {
	params := make(execute.Params, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid parameter %q: want name=value", pair)
		}
		params[strings.TrimSpace(name)] = parseValue(raw)
	}
	return params, nil
}

func parseValue(raw string) any {
	switch raw {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return raw
}
