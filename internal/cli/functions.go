package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/overql/overql/internal/winspec"
)

// FunctionInfo is one classifier table row in the JSON payload.
type FunctionInfo struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	SQLName       string `json:"sql_name"`
	RequiresOrder bool   `json:"requires_order"`
}

// NewFunctionsCommand creates the functions command, which dumps the
// window-function classifier table.
func NewFunctionsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "List recognized window functions and their categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}

			var infos []FunctionInfo
			for _, name := range winspec.Names() {
				spec, err := winspec.Classify(name)
				if err != nil {
					return err
				}
				infos = append(infos, FunctionInfo{
					Name:          spec.Name,
					Category:      spec.Category.String(),
					SQLName:       spec.SQLName,
					RequiresOrder: spec.RequiresOrder,
				})
			}

			if rootOpts.Format == "json" {
				return formatter.SuccessJSON(infos)
			}

			w := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FUNCTION\tCATEGORY\tSQL\tREQUIRES ORDER")
			for _, fi := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", fi.Name, fi.Category, fi.SQLName, fi.RequiresOrder)
			}
			return w.Flush()
		},
	}
}
