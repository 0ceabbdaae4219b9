package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/overql/overql/internal/compiler"
	"github.com/overql/overql/internal/diag"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompileResult is the JSON payload of a successful compile.
type CompileResult struct {
	SQL     string            `json:"sql"`
	Aliases map[string]string `json:"aliases,omitempty"`
	Nested  bool              `json:"nested"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <statement.yaml>",
		Short: "Compile a statement file to SQL",
		Long: `Compile a mutate/filter statement description to SQL.

Window expressions become OVER(...) clauses; a window expression in the
filter position forces a subquery rewrite, since SQL forbids window
functions in WHERE.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompileCmd(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompileCmd(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Command errors are printed once, by main, to stderr.
	stmt, ctx, err := LoadStatement(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading statement", err)
	}
	formatter.VerboseLog("Loaded %s (dialect=%s)", path, ctx.Dialect)

	result, err := compiler.Compile(stmt, ctx)
	if err != nil {
		code := string(diag.CodeOf(err))
		if code == "" {
			code = "COMPILE_ERROR"
		}
		formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitFailure, "compilation failed", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(result.SQL+"\n"), 0o644); err != nil {
			return WrapExitError(ExitCommandError, "writing output", err)
		}
	}

	if opts.Format == "json" {
		return formatter.SuccessJSON(CompileResult{
			SQL:     result.SQL,
			Aliases: result.Aliases,
			Nested:  result.Nested,
		})
	}

	fmt.Fprintln(formatter.Writer, result.SQL)
	if len(result.Aliases) > 0 {
		fmt.Fprintln(formatter.Writer)
		fmt.Fprintln(formatter.Writer, "-- generated aliases:")
		names := make([]string, 0, len(result.Aliases))
		for a := range result.Aliases {
			names = append(names, a)
		}
		sort.Strings(names)
		for _, a := range names {
			fmt.Fprintf(formatter.Writer, "--   %s = %s\n", a, result.Aliases[a])
		}
	}
	return nil
}
