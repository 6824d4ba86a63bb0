package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/upsql/internal/dialect"
)

// ProviderInfo pairs a provider name with its dialect strategy.
type ProviderInfo struct {
	Provider string `json:"provider"`
	Dialect  string `json:"dialect"`
}

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "dialects",
		Short:         "List registered providers and their dialects",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDialects(rootOpts, dialect.Default(), cmd)
		},
	}
}

func runDialects(opts *RootOptions, registry *dialect.Registry, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	var infos []ProviderInfo
	for _, p := range registry.Providers() {
		g, err := registry.Lookup(p)
		if err != nil {
			return err
		}
		infos = append(infos, ProviderInfo{Provider: p, Dialect: g.Name()})
	}

	if formatter.Format == "json" {
		return formatter.Success(infos)
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tDIALECT")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\n", info.Provider, info.Dialect)
	}
	return tw.Flush()
}
