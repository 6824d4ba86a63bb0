package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/upsql/internal/dialect"
	"github.com/roach88/upsql/internal/execute"
	"github.com/roach88/upsql/internal/specfile"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Command string // compile only this command
	Output  string // output file path
	Watch   bool
}

// errCommandNotFound is returned when --command names no command of the
// file.
var errCommandNotFound = errors.New("command not found")

// CompiledCommand is the generated text of one command.
type CompiledCommand struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	SQL        string   `json:"sql"`
	Parameters []string `json:"parameters"`
}

// CompilationResult holds every compiled command of a file.
type CompilationResult struct {
	File     string            `json:"file"`
	Provider string            `json:"provider"`
	Dialect  string            `json:"dialect"`
	Commands []CompiledCommand `json:"commands"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <command-file>",
		Short: "Compile a command file to SQL",
		Long: `Compile the commands of a YAML or CUE command file to SQL for one
dialect. The dialect is chosen by --dialect (a provider name such as
postgres or sqlserver), falling back to --driver.

With --watch the file is recompiled every time it changes.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Command, "command", "c", "", "compile only the named command")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the SQL script to this file")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "recompile when the file changes")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	cfg, err := opts.config()
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error())
	}
	gen, err := dialect.Default().Lookup(cfg.Provider())
	if err != nil {
		return outputCompileError(formatter, ErrCodeUnknownProvider, err.Error())
	}

	compileOnce := func() error {
		result, cliErrs, err := compileFile(ctx, path, opts.Command, gen)
		if err != nil {
			if errors.Is(err, errCommandNotFound) {
				return outputCompileError(formatter, ErrCodeNotFound, err.Error())
			}
			return outputCompileError(formatter, ErrCodeLoadFailed, err.Error())
		}
		result.Provider = cfg.Provider()

		if len(cliErrs) > 0 {
			_ = formatter.Errors("Compilation failed", cliErrs)
			return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(cliErrs)))
		}

		if opts.Output != "" {
			if err := os.WriteFile(opts.Output, []byte(script(result)), 0644); err != nil {
				return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
			}
		}
		return outputCompileSuccess(formatter, result, opts.Output)
	}

	err = compileOnce()
	if !opts.Watch {
		return err
	}

	formatter.VerboseLog("Watching %s for changes", path)
	return watchFile(ctx, path, func() {
		formatter.VerboseLog("%s changed, recompiling", path)
		_ = compileOnce()
	})
}

// compileFile builds and generates every selected command of the file
// concurrently. Results and errors keep file order.
func compileFile(ctx context.Context, path, only string, gen dialect.Generator) (*CompilationResult, []CLIError, error) {
	f, err := specfile.Load(path)
	if err != nil {
		return nil, nil, err
	}

	defs := f.Commands
	if only != "" {
		def, ok := f.Lookup(only)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q in %s", errCommandNotFound, only, path)
		}
		defs = []specfile.CommandDef{def}
	}

	table := f.Metadata()
	compiled := make([]CompiledCommand, len(defs))
	errs := make([]error, len(defs))

	g, ctx := errgroup.WithContext(ctx)
	for i, def := range defs {
		i, def := i, def
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cmd, err := def.Build()
			if err != nil {
				errs[i] = err
				return nil
			}
			text, err := dialect.Generate(gen, table, cmd)
			if err != nil {
				errs[i] = fmt.Errorf("command %q: %w", def.Name, err)
				return nil
			}
			compiled[i] = CompiledCommand{
				Name:       def.Name,
				Kind:       string(cmd.Kind()),
				SQL:        text,
				Parameters: execute.Placeholders(text),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var cliErrs []CLIError
	for _, err := range errs {
		if err != nil {
			cliErrs = append(cliErrs, CLIError{Code: ErrorCode(err), Message: err.Error()})
		}
	}
	return &CompilationResult{File: path, Dialect: gen.Name(), Commands: compiled}, cliErrs, nil
}

// script renders the result as a SQL script, one block per command.
func script(result *CompilationResult) string {
	var b strings.Builder
	for i, c := range result.Commands {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "-- %s (%s)\n%s\n", c.Name, c.Kind, c.SQL)
	}
	return b.String()
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "%s Compiled %d command(s) with %s (%s)\n\n",
		okMark("✓"), len(result.Commands), result.Dialect, result.Provider)
	fmt.Fprint(formatter.Writer, script(result))

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote SQL to %s\n", outputFile)
	}
	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	// Compilation errors are command-level errors (exit code 2)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}
