package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/overql/overql/internal/compiler"
	"github.com/overql/overql/internal/diag"
	"github.com/overql/overql/internal/runner"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	DB string // SQLite database path
}

// RunResult is the JSON payload of a successful run.
type RunResult struct {
	SQL     string            `json:"sql"`
	Aliases map[string]string `json:"aliases,omitempty"`
	Columns []string          `json:"columns"`
	Rows    [][]any           `json:"rows"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <statement.yaml>",
		Short: "Compile a statement file and execute it against SQLite",
		Long: `Compile a mutate/filter statement description and execute the generated
SQL against a SQLite database. Engine errors are surfaced unchanged.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunCmd(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite database path (required)")
	cmd.MarkFlagRequired("db")

	return cmd
}

func runRunCmd(opts *RunOptions, path string, cmd *cobra.Command) error {
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

	result, err := compiler.Compile(stmt, ctx)
	if err != nil {
		code := string(diag.CodeOf(err))
		if code == "" {
			code = "COMPILE_ERROR"
		}
		formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitFailure, "compilation failed", err)
	}
	formatter.VerboseLog("Compiled SQL: %s", result.SQL)

	r, err := runner.Open(opts.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening database", err)
	}
	defer r.Close()

	rs, err := r.Query(cmd.Context(), result.SQL)
	if err != nil {
		// Engine verdicts pass through untouched.
		formatter.Error("ENGINE_ERROR", err.Error(), nil)
		return WrapExitError(ExitFailure, "execution failed", err)
	}

	if opts.Format == "json" {
		return formatter.SuccessJSON(RunResult{
			SQL:     result.SQL,
			Aliases: result.Aliases,
			Columns: rs.Columns,
			Rows:    rs.Rows,
		})
	}

	fmt.Fprintln(formatter.Writer, strings.Join(rs.Columns, "\t"))
	for _, row := range rs.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "NULL"
				continue
			}
			cells[i] = fmt.Sprintf("%v", v)
		}
		fmt.Fprintln(formatter.Writer, strings.Join(cells, "\t"))
	}
	return nil
}
