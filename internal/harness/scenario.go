package harness

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Registry modes.
const (
	RegistryStandard = "standard"
	RegistryEmpty    = "empty"
)

// DefaultTolerance is the absolute tolerance used when a case gives none.
const DefaultTolerance = 1e-9

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists paths to CUE spec files to compile and load.
	Specs []string `yaml:"specs"`

	// Function names the function or program under test.
	Function string `yaml:"function"`

	// Registry selects the starting inverse registry: "standard" (default)
	// or "empty". Inverse blocks from the specs are applied on top.
	Registry string `yaml:"registry,omitempty"`

	// RunToken is an optional run token prefix for deterministic tests.
	// If empty, tokens are "run-0001", "run-0002", ...
	RunToken string `yaml:"run_token,omitempty"`

	// Cases are executed in order against one runner.
	Cases []Case `yaml:"cases"`
}

// Case is one check against the program under test.
//
// With Input set the program is evaluated forward and, if Output is set,
// the first output is compared to it. With Inverse set the program is
// inverted at the forward output (or at Output when there is no Input) and
// the result compared to Inverse. A case with only Output is inverted
// without a value check, which is how inversion errors are expected.
type Case struct {
	Input       *float64           `yaml:"input,omitempty"`
	Output      *float64           `yaml:"output,omitempty"`
	Inverse     *float64           `yaml:"inverse,omitempty"`
	Consts      map[string]float64 `yaml:"consts,omitempty"`
	Tolerance   float64            `yaml:"tolerance,omitempty"`
	ExpectError string             `yaml:"expect_error,omitempty"`
}

// tolerance returns the case tolerance or DefaultTolerance.
func (c Case) tolerance() float64 {
	if c.Tolerance > 0 {
		return c.Tolerance
	}
	return DefaultTolerance
}

// forward reports whether the case evaluates forward.
func (c Case) forward() bool {
	return c.Input != nil
}

// inverse reports whether the case inverts.
func (c Case) inverse() bool {
	return c.Inverse != nil || c.Input == nil
}

// LoadScenario reads and parses a scenario YAML file.
// Spec paths are resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving spec paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve spec paths relative to base path BEFORE validation
	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) && basePath != "" {
			scenario.Specs[i] = filepath.Join(basePath, specPath)
		}
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes scenario YAML without resolving or checking spec
// paths.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "case:" vs "cases:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Specs) == 0 {
		return fmt.Errorf("specs list is required and must be non-empty")
	}

	if s.Function == "" {
		return fmt.Errorf("function is required")
	}

	switch s.Registry {
	case "", RegistryStandard, RegistryEmpty:
	default:
		return fmt.Errorf("registry must be %q or %q, got %q", RegistryStandard, RegistryEmpty, s.Registry)
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	// Validate spec paths exist
	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", specPath)
		}
	}

	// Specs load as one CUE package, so they must share a directory.
	dir := filepath.Dir(s.Specs[0])
	for _, specPath := range s.Specs[1:] {
		if filepath.Dir(specPath) != dir {
			return fmt.Errorf("specs must be in one directory: %s is not in %s", specPath, dir)
		}
	}

	for i, c := range s.Cases {
		if err := validateCase(i, c); err != nil {
			return err
		}
	}

	return nil
}

func validateCase(index int, c Case) error {
	if c.Input == nil && c.Output == nil {
		return fmt.Errorf("cases[%d]: input or output is required", index)
	}
	if c.Tolerance < 0 || math.IsNaN(c.Tolerance) {
		return fmt.Errorf("cases[%d]: tolerance must be non-negative", index)
	}
	if c.Input == nil && len(c.Consts) > 0 {
		return fmt.Errorf("cases[%d]: consts apply to forward evaluation and need an input", index)
	}
	return nil
}
