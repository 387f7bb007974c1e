package harness

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/gradient-ai/jax-gradient/internal/ir"
)

// snapshotDigits is the number of significant digits values are printed
// with in snapshots, so the listing does not depend on the last bits of the
// platform's math library.
const snapshotDigits = 9

// Snapshot renders the deterministic part of a scenario result: the program
// listing, its inverse, and the run log.
//
//	scenario: exp_tanh_roundtrip
//	function: expTanh
//	program: { lambda ; a. let
//	    b = tanh a
//	    c = exp b
//	  in (c) }
//	inverse: { lambda ; c. let ... }
//	runs:
//	  seq=2 run-0001 forward (1) -> (2.14168768)
//	  seq=3 run-0002 inverse (2.14168768) -> (1)
func Snapshot(scenario *Scenario, result *Result) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "scenario: %s\n", scenario.Name)
	fmt.Fprintf(&sb, "function: %s\n", scenario.Function)
	fmt.Fprintf(&sb, "program: %s\n", result.Program)
	fmt.Fprintf(&sb, "inverse: %s\n", result.Inverse)
	sb.WriteString("runs:\n")
	for _, run := range result.Runs {
		fmt.Fprintf(&sb, "  seq=%d %s %s (%s)", run.Seq, run.RunToken, run.Direction, formatValues(run.Inputs))
		if len(run.Consts) > 0 {
			fmt.Fprintf(&sb, " [%s]", formatBindings(run.Consts))
		}
		if run.Failed() {
			fmt.Fprintf(&sb, " -> !%s\n", run.ErrorCode)
		} else {
			fmt.Fprintf(&sb, " -> (%s)\n", formatValues(run.Outputs))
		}
	}
	return []byte(sb.String())
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', snapshotDigits, 64)
}

func formatValues(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatValue(v)
	}
	return strings.Join(parts, ", ")
}

func formatBindings(b ir.Bindings) string {
	names := slices.Sorted(maps.Keys(b))
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + formatValue(b[name])
	}
	return strings.Join(parts, " ")
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario, result)
	return result, nil
}

// AssertGolden compares the snapshot of an existing result against a golden
// file, without re-running the scenario.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, Snapshot(scenario, result))
}
