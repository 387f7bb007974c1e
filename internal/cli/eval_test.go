package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradient-ai/jax-gradient/internal/engine"
	"github.com/gradient-ai/jax-gradient/internal/ir"
	"github.com/gradient-ai/jax-gradient/internal/store"
)

func TestEvalCommand_Text(t *testing.T) {
	dir := validSpecs(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"exp tanh at zero", []string{"expTanh", "--inputs", "0"}, "1.0\n"},
		{"constvar default", []string{"scaled", "--inputs", "3"}, "6.5\n"},
		{"constvar override", []string{"scaled", "--inputs", "3", "--const", "k=10"}, "30.5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, append([]string{"eval", dir}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestEvalCommand_JSON(t *testing.T) {
	opts := &EvalOptions{
		RootOptions:    &RootOptions{Format: "json"},
		Inputs:         []float64{3},
		Consts:         map[string]string{"k": "10"},
		TokenGenerator: engine.NewFixedGenerator("tok-1"),
	}
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)

	require.NoError(t, runEval(opts, validSpecs(t), "scaled", cmd))

	var resp struct {
		Status string    `json:"status"`
		Data   RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "forward", resp.Data.Direction)
	assert.Equal(t, []float64{30.5}, resp.Data.Outputs)
	assert.Equal(t, ir.Bindings{"k": 10}, resp.Data.Consts)
	assert.Equal(t, "tok-1", resp.Data.RunToken)
	assert.Equal(t, int64(1), resp.Data.Seq)
	assert.NotEmpty(t, resp.Data.RunID)
}

func TestEvalCommand_Errors(t *testing.T) {
	dir := validSpecs(t)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{"bad const", []string{"scaled", "--inputs", "3", "--const", "k=abc"}, ExitCommandError, "Error [E009]"},
		{"unknown const", []string{"scaled", "--inputs", "3", "--const", "j=1"}, ExitFailure, "Error ["},
		{"arity", []string{"expTanh", "--inputs", "1,2"}, ExitFailure, "Error [ARITY_MISMATCH]"},
		{"unknown name", []string{"nope", "--inputs", "1"}, ExitCommandError, "Error [E008]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, append([]string{"eval", dir}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestEvalCommand_RequiresInputs(t *testing.T) {
	_, _, err := execute(t, "eval", validSpecs(t), "expTanh")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "inputs" not set`)
}

func TestInvertCommand_Text(t *testing.T) {
	out, _, err := execute(t, "invert", validSpecs(t), "expTanh", "--output", "1")
	require.NoError(t, err)
	assert.Equal(t, "0.0\n", out)
}

func TestInvertCommand_Failures(t *testing.T) {
	dir := validSpecs(t)

	tests := []struct {
		name    string
		args    []string
		wantOut string
	}{
		{"domain error", []string{"expTanh", "--output", "-1"}, "Error [DOMAIN_ERROR]"},
		{"binary instruction", []string{"scaled", "--output", "6.5"}, "Error [NOT_INVERTIBLE]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, append([]string{"invert", dir}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

// recordRuns evaluates and inverts into a fresh database and returns its path.
func recordRuns(t *testing.T) string {
	t.Helper()
	dir := validSpecs(t)
	db := filepath.Join(t.TempDir(), "runs.db")

	_, _, err := execute(t, "eval", dir, "expTanh", "--inputs", "0", "--db", db)
	require.NoError(t, err)
	_, _, err = execute(t, "invert", dir, "expTanh", "--output", "1", "--db", db)
	require.NoError(t, err)
	_, _, err = execute(t, "eval", dir, "scaled", "--inputs", "3", "--const", "k=10", "--db", db)
	require.NoError(t, err)
	_, _, err = execute(t, "invert", dir, "expTanh", "--output", "-1", "--db", db)
	require.Error(t, err)
	return db
}

func TestHistoryCommand_Summary(t *testing.T) {
	db := recordRuns(t)

	out, _, err := execute(t, "--format", "json", "history", "--db", db)
	require.NoError(t, err)

	var resp struct {
		Data []ProgramSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)

	assert.Equal(t, "expTanh", resp.Data[0].Name)
	assert.Equal(t, 1, resp.Data[0].Forward)
	assert.Equal(t, 2, resp.Data[0].Inverse)
	assert.Equal(t, 1, resp.Data[0].Failed)

	assert.Equal(t, "scaled", resp.Data[1].Name)
	assert.Equal(t, 1, resp.Data[1].Forward)
	assert.Equal(t, 0, resp.Data[1].Failed)
}

func TestHistoryCommand_Table(t *testing.T) {
	db := recordRuns(t)

	out, _, err := execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Program")
	assert.Contains(t, out, "expTanh")
	assert.Contains(t, out, "scaled")
}

func TestHistoryCommand_Program(t *testing.T) {
	db := recordRuns(t)

	out, _, err := execute(t, "--format", "json", "history", "--db", db, "--program", "expTanh")
	require.NoError(t, err)

	var resp struct {
		Data []HistoryEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 3)

	assert.Equal(t, "forward", resp.Data[0].Direction)
	assert.Equal(t, []float64{1}, resp.Data[0].Outputs)
	assert.Equal(t, "inverse", resp.Data[1].Direction)
	assert.Equal(t, []float64{0}, resp.Data[1].Outputs)
	assert.Equal(t, "DOMAIN_ERROR", resp.Data[2].ErrorCode)
	assert.Less(t, resp.Data[0].Seq, resp.Data[1].Seq)
	assert.Less(t, resp.Data[1].Seq, resp.Data[2].Seq)

	text, _, err := execute(t, "history", "--db", db, "--program", "scaled")
	require.NoError(t, err)
	assert.Contains(t, text, "b = mul a k")
	assert.Contains(t, text, "3.0 [k=10.0]")
	assert.Contains(t, text, "30.5")
}

func TestHistoryCommand_Empty(t *testing.T) {
	out, _, err := execute(t, "history", "--db", filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	assert.Equal(t, "No programs recorded.\n", out)
}

func TestHistoryCommand_UnknownProgram(t *testing.T) {
	db := recordRuns(t)

	out, _, err := execute(t, "history", "--db", db, "--program", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E008]")
}

func TestReplayCommand_OK(t *testing.T) {
	db := recordRuns(t)

	out, _, err := execute(t, "replay", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Replay Summary: 4 run(s)")
	assert.Contains(t, out, "✓ All runs verified deterministic")
}

func TestReplayCommand_Program(t *testing.T) {
	db := recordRuns(t)

	out, _, err := execute(t, "--format", "json", "replay", "--db", db, "--program", "scaled")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Checked)
	assert.True(t, resp.Data.AllDeterministic)
	assert.Empty(t, resp.Data.Mismatches)
}

func TestReplayCommand_DetectsTampering(t *testing.T) {
	db := recordRuns(t)

	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = st.DB().Exec(`UPDATE runs SET outputs = '["5"]' WHERE direction = 'forward'`)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := execute(t, "--format", "json", "replay", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, engine.IsReplayMismatch(err))

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
		Error  *CLIError    `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "REPLAY_MISMATCH", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "2 of 4 replayed run(s) differ")
	require.Len(t, resp.Data.Mismatches, 2)
	assert.Equal(t, []float64{5}, resp.Data.Mismatches[0].WantOutputs)
}

func TestReplayCommand_MissingDB(t *testing.T) {
	_, _, err := execute(t, "replay", "--db", filepath.Join(t.TempDir(), "missing", "runs.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHistoryCommand_Filters(t *testing.T) {
	db := recordRuns(t)

	tests := []struct {
		name       string
		args       []string
		wantDirs   []string
		wantFailed int
	}{
		{"inverse only", []string{"--direction", "inverse"}, []string{"inverse", "inverse"}, 1},
		{"failed only", []string{"--failed"}, []string{"inverse"}, 1},
		{"forward only", []string{"--direction", "forward"}, []string{"forward"}, 0},
		{"limit", []string{"--limit", "1"}, []string{"forward"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--format", "json", "history", "--db", db, "--program", "expTanh"}, tt.args...)
			out, _, err := execute(t, args...)
			require.NoError(t, err)

			var resp struct {
				Data []HistoryEntry `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))

			var dirs []string
			failed := 0
			for _, e := range resp.Data {
				dirs = append(dirs, e.Direction)
				if e.ErrorCode != "" {
					failed++
				}
			}
			assert.Equal(t, tt.wantDirs, dirs)
			assert.Equal(t, tt.wantFailed, failed)
		})
	}
}

func TestHistoryCommand_BadFilters(t *testing.T) {
	db := recordRuns(t)

	out, _, err := execute(t, "history", "--db", db, "--program", "expTanh", "--direction", "sideways")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E009]")

	out, _, err = execute(t, "history", "--db", db, "--failed")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "need --program")
}

func TestReplayCommand_TextMismatch(t *testing.T) {
	db := recordRuns(t)

	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = st.DB().Exec(`UPDATE runs SET error_code = 'DOMAIN_ERROR', outputs = '[]' WHERE direction = 'forward'`)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := execute(t, "replay", "--db", db, "--program", "scaled")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, engine.IsReplayMismatch(err))
	assert.Contains(t, out, "recorded: DOMAIN_ERROR")
	assert.Contains(t, out, "✗ Determinism verification failed")
}
