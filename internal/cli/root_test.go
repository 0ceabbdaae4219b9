package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	assert.Equal(t, "overql", cmd.Use)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, strings.Fields(sub.Use)[0])
	}
	for _, want := range []string{"compile", "run", "functions", "dialects"} {
		assert.Contains(t, names, want)
	}

	assert.NotNil(t, cmd.PersistentFlags().Lookup("verbose"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("format"))
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--format", "xml", "functions"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestCompileCommand_Text(t *testing.T) {
	out := new(bytes.Buffer)
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"compile", "testdata/filter_min_rank.yaml"})

	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	assert.Equal(t,
		`SELECT * FROM (SELECT *, RANK() OVER (PARTITION BY "playerID" ORDER BY "yearID") AS "min_rank_1" FROM "batting") AS "tmp" WHERE "min_rank_1" = 1`,
		lines[0])
	assert.Contains(t, out.String(), "-- generated aliases:")
	assert.Contains(t, out.String(), "min_rank_1 = min_rank(G)")
}

func TestCompileCommand_JSON(t *testing.T) {
	out := new(bytes.Buffer)
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--format", "json", "compile", "testdata/filter_min_rank.yaml"})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string        `json:"status"`
		Data   CompileResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Nested)
	assert.Contains(t, resp.Data.SQL, `OVER (PARTITION BY "playerID"`)
	assert.Equal(t, "min_rank(G)", resp.Data.Aliases["min_rank_1"])
}

func TestCompileCommand_OutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.sql")
	cmd := NewRootCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"compile", "-o", path, "testdata/mutate_cummean.yaml"})

	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `AVG("G") OVER`)
	assert.Contains(t, string(data), "ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW")
}

func TestCompileCommand_MissingFileExitCode(t *testing.T) {
	out := new(bytes.Buffer)
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"compile", "testdata/nope.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	// Command errors surface once, via the returned error; the command
	// itself writes nothing.
	assert.Empty(t, out.String())
}

func TestCompileCommand_CompileFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("from: batting\nfilter: bogus(G) == 1\n"), 0o644))

	out := new(bytes.Buffer)
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--format", "json", "compile", path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNKNOWN_FUNCTION", resp.Error.Code)
}

func TestFunctionsCommand(t *testing.T) {
	out := new(bytes.Buffer)
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"functions"})

	require.NoError(t, cmd.Execute())
	for _, name := range []string{"min_rank", "lag", "cumsum", "roll_mean"} {
		assert.Contains(t, out.String(), name)
	}
}

func TestDialectsCommand(t *testing.T) {
	out := new(bytes.Buffer)
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"dialects"})

	require.NoError(t, cmd.Execute())
	for _, name := range []string{"sqlite", "postgres", "duckdb", "mysql", "derby"} {
		assert.Contains(t, out.String(), name)
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "boom", nil)))
}
