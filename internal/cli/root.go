package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	Dialect    string
	Driver     string
	DSN        string

	// Config is resolved from flags, environment and config file before
	// any subcommand runs.
	Config *Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the upsql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "upsql",
		Short: "upsql - upsert command compiler",
		Long: `Compile insert, update, delete and upsert command files into
dialect-correct parameterized SQL (ON CONFLICT or MERGE), and run them.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(opts.ConfigFile, cmd.Flags())
			if err != nil {
				return WrapExitError(ExitCommandError, "loading configuration", err)
			}
			opts.Config = cfg
			opts.Format = cfg.Format

			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			level := slog.LevelWarn
			if opts.Verbose {
				level = slog.LevelDebug
			}
			opts.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (YAML)")
	cmd.PersistentFlags().StringVar(&opts.Dialect, "dialect", "", "provider whose dialect to generate (postgres, sqlite3, sqlserver, ...); defaults to --driver")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "database driver for exec (sqlite3, pgx)")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "data source name for exec")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewDialectsCommand(opts))
	cmd.AddCommand(NewExecCommand(opts))

	return cmd
}

// config returns the resolved configuration, loading defaults when the
// command runs without the root command's pre-run hook.
func (o *RootOptions) config() (*Config, error) {
	if o.Config != nil {
		return o.Config, nil
	}
	cfg, err := LoadConfig(o.ConfigFile, nil)
	if err != nil {
		return nil, err
	}
	if o.Dialect != "" {
		cfg.Dialect = o.Dialect
	}
	if o.Driver != "" {
		cfg.Driver = o.Driver
	}
	if o.DSN != "" {
		cfg.DSN = o.DSN
	}
	o.Config = cfg
	return cfg, nil
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
