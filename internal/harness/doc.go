// Package harness runs conformance scenarios against compiled programs.
//
// A scenario names CUE spec files, a function or program defined in them,
// and a list of cases. Each case evaluates the program forward, inverts it,
// or both, and checks the values or error codes that come back.
//
// # Scenario Format
//
//	name: exp_tanh_roundtrip
//	description: "exp(tanh(x)) inverts back to x"
//	specs:
//	  - functions.cue
//	function: expTanh
//	registry: standard   # or "empty": only the specs' inverse blocks
//	run_token: rt        # optional run token prefix
//	cases:
//	  - input: 1.0                  # evaluate forward at 1.0
//	    output: 2.14168768474935    # expected forward output
//	    inverse: 1.0                # invert the forward output, expect 1.0
//	    tolerance: 1e-12
//	  - output: -1.0                # no input: invert at -1.0
//	    expect_error: DOMAIN_ERROR
//
// # Deterministic Testing
//
// Every scenario runs in a fresh in-memory store with a deterministic
// logical clock and counting run tokens, so the recorded run log is
// identical across executions and can be compared against a golden file.
//
// # Usage
//
//	scenario, err := harness.LoadScenarioWithBasePath("scenarios/roundtrip.yaml", "specs")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
