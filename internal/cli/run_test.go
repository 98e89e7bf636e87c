package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	counterScenario = filepath.Join("..", "..", "examples", "scenarios", "counter.yaml")
	diamondScenario = filepath.Join("..", "..", "examples", "scenarios", "diamond.yaml")
)

func executeRun(t *testing.T, opts *RootOptions, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRunCommand(opts)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRunCommand_Text(t *testing.T) {
	out, _, err := executeRun(t, &RootOptions{Format: "text"}, counterScenario)
	require.NoError(t, err)

	assert.Contains(t, out, "count        setup")
	assert.Contains(t, out, "status       update    \"1odd\" <- \"0even\"")
	assert.Contains(t, out, "rejected  state: cannot update passive state")
	assert.Contains(t, out, "PASS  counter")
}

func TestRunCommand_JSON(t *testing.T) {
	out, _, err := executeRun(t, &RootOptions{Format: "json"}, counterScenario)
	require.NoError(t, err)

	var resp struct {
		Scenario string         `json:"scenario"`
		Trace    []any          `json:"trace"`
		Final    map[string]any `json:"final"`
		Failures []any          `json:"failures"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "counter", resp.Scenario)
	assert.NotEmpty(t, resp.Trace)
	assert.Empty(t, resp.Failures)
	assert.Equal(t, "2even", resp.Final["status"])
}

func TestRunCommand_ColorHighlightsJSON(t *testing.T) {
	out, _, err := executeRun(t, &RootOptions{Format: "json"}, "--color", counterScenario)
	require.NoError(t, err)

	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "scenario")
}

func TestRunCommand_Metrics(t *testing.T) {
	out, _, err := executeRun(t, &RootOptions{Format: "text"}, "--metrics", diamondScenario)
	require.NoError(t, err)

	assert.Contains(t, out, "# TYPE livestate_updates_total counter")
	assert.Contains(t, out, `livestate_updates_total{kind="root"} 1`)
	assert.Contains(t, out, "livestate_teardowns_total")
}

func TestRunCommand_Trace(t *testing.T) {
	out, _, err := executeRun(t, &RootOptions{Format: "text"}, "--trace", diamondScenario)
	require.NoError(t, err)

	assert.Contains(t, out, "state.update base")
	assert.Contains(t, out, "  state.update left")
	assert.Contains(t, out, "state.teardown right")
}

func TestRunCommand_VerboseLogsToStderr(t *testing.T) {
	out, errOut, err := executeRun(t, &RootOptions{Format: "text", Verbose: true}, counterScenario)
	require.NoError(t, err)

	assert.Contains(t, errOut, "running scenario")
	assert.Contains(t, errOut, "level=ERROR")
	assert.NotContains(t, out, "level=")
}

func TestRunCommand_FailedExpectations(t *testing.T) {
	out, _, err := executeRun(t, &RootOptions{Format: "text"}, filepath.Join("testdata", "failing.yaml"))
	require.Error(t, err)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `FAIL  step 1: state "next" = 6, want 7`)
	assert.Contains(t, out, "FAIL  failing")
}

func TestRunCommand_InvalidScenario(t *testing.T) {
	_, _, err := executeRun(t, &RootOptions{Format: "text"}, filepath.Join("testdata", "broken.yaml"))
	require.Error(t, err)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `unknown upstream "missing"`)
}

func TestRunCommand_MissingFile(t *testing.T) {
	_, _, err := executeRun(t, &RootOptions{Format: "text"}, filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
