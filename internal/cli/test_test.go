package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roundtripScenario = `name: roundtrip
description: expTanh evaluates and inverts at zero
specs:
  - functions.cue
function: expTanh
cases:
  - input: 0
    output: 1
    inverse: 0
`

const wrongOutputScenario = `name: wrong_output
description: expTanh does not map zero to two
specs:
  - functions.cue
function: expTanh
cases:
  - input: 0
    output: 2
`

// writeScenarios creates a scenarios directory holding the given files.
func writeScenarios(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "scenarios")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestTestCommand_Passes(t *testing.T) {
	specs := validSpecs(t)
	scenarios := writeScenarios(t, map[string]string{"roundtrip.yaml": roundtripScenario})

	out, _, err := execute(t, "test", specs, scenarios)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ roundtrip")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommand_UpdateThenCompare(t *testing.T) {
	specs := validSpecs(t)
	scenarios := writeScenarios(t, map[string]string{"roundtrip.yaml": roundtripScenario})

	out, _, err := execute(t, "test", specs, scenarios, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ roundtrip (golden updated)")

	goldenPath := filepath.Join(scenarios, "golden", "roundtrip.golden")
	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), "scenario: roundtrip\nfunction: expTanh\n")
	assert.Contains(t, string(golden), "seq=2 run-0001 forward (0) -> (1)\n")
	assert.Contains(t, string(golden), "seq=3 run-0002 inverse (1) -> (0)\n")

	_, _, err = execute(t, "test", specs, scenarios)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, append(golden, "extra\n"...), 0o644))
	out, _, err = execute(t, "test", specs, scenarios)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "run log does not match golden file")
}

func TestTestCommand_CaseFailure(t *testing.T) {
	specs := validSpecs(t)
	scenarios := writeScenarios(t, map[string]string{
		"roundtrip.yaml":    roundtripScenario,
		"wrong_output.yaml": wrongOutputScenario,
	})

	out, _, err := execute(t, "test", specs, scenarios)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_output")
	assert.Contains(t, out, "cases[0] forward: expected 2.0")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommand_Filter(t *testing.T) {
	specs := validSpecs(t)
	scenarios := writeScenarios(t, map[string]string{
		"roundtrip.yaml":    roundtripScenario,
		"wrong_output.yaml": wrongOutputScenario,
	})

	out, _, err := execute(t, "test", specs, scenarios, "--filter", "round*")
	require.NoError(t, err)
	assert.NotContains(t, out, "wrong_output")
	assert.Contains(t, out, "1 total")

	out, _, err = execute(t, "test", specs, scenarios, "--filter", "none*")
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}

func TestTestCommand_JSON(t *testing.T) {
	specs := validSpecs(t)
	scenarios := writeScenarios(t, map[string]string{
		"roundtrip.yaml":    roundtripScenario,
		"wrong_output.yaml": wrongOutputScenario,
	})

	out, _, err := execute(t, "--format", "json", "test", specs, scenarios)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
}

func TestTestCommand_BadScenario(t *testing.T) {
	specs := validSpecs(t)
	scenarios := writeScenarios(t, map[string]string{
		"typo.yaml": "name: typo\ndescription: d\nspecs: [functions.cue]\nfunction: expTanh\ncase: []\n",
	})

	out, _, err := execute(t, "test", specs, scenarios)
	require.Error(t, err)
	assert.Contains(t, out, "✗ typo.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommand_MissingDirs(t *testing.T) {
	specs := validSpecs(t)
	missing := filepath.Join(t.TempDir(), "missing")

	_, _, err := execute(t, "test", missing, specs)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(t, "test", specs, missing)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}
