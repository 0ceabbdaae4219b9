package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/overql/overql/internal/dialect"
)

// NewDialectsCommand creates the dialects command, which dumps the
// dialect descriptor registry.
func NewDialectsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List registered SQL dialects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}

			var dialects []dialect.Dialect
			for _, name := range dialect.Names() {
				d, err := dialect.Lookup(name)
				if err != nil {
					return err
				}
				dialects = append(dialects, d)
			}

			if rootOpts.Format == "json" {
				return formatter.SuccessJSON(dialects)
			}

			w := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DIALECT\tQUOTE\tFRAMES\tWINDOW IN WHERE")
			for _, d := range dialects {
				fmt.Fprintf(w, "%s\t%s\t%v\t%v\n", d.Name, d.Quote, d.SupportsFrames, d.WindowInWhere)
			}
			return w.Flush()
		},
	}
}
