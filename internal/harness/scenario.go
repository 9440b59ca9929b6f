package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Source is the program text. Exactly one of Source and File is set.
	Source string `yaml:"source,omitempty"`

	// File is a path to the program. Relative paths are resolved against
	// the scenario file's directory.
	File string `yaml:"file,omitempty"`

	// JobID is the fixed job id for deterministic descriptors.
	// If empty, defaults to "test-job-default".
	JobID string `yaml:"job_id,omitempty"`

	// Package writes the artifact bundle to a temporary directory and
	// verifies its manifest.
	Package bool `yaml:"package,omitempty"`

	// Assertions validate the compilation outcome.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion checks one aspect of a compilation.
type Assertion struct {
	// Type selects the check; see the Assert* constants.
	Type string `yaml:"type"`

	// Contains is the expected error substring (compile_error).
	Contains string `yaml:"contains,omitempty"`

	// Operator and Kind name one operator's implementation (implementation).
	Operator string `yaml:"operator,omitempty"`
	Kind     string `yaml:"kind,omitempty"`

	// Kinds are every operator's implementation in order (implementations).
	Kinds []string `yaml:"kinds,omitempty"`

	// Names are the expected gate names in order (gates) or artifact
	// names in order (artifacts).
	Names []string `yaml:"names,omitempty"`

	// Safe is the expected entropy verdict (entropy_safe).
	Safe *bool `yaml:"safe,omitempty"`

	// Codes are the expected validator codes in order (diagnostics).
	Codes []string `yaml:"codes,omitempty"`

	// Method is the expected job truncation method (job_truncation).
	Method string `yaml:"method,omitempty"`
}

// Assertion type constants.
const (
	AssertCompileError    = "compile_error"
	AssertImplementation  = "implementation"
	AssertImplementations = "implementations"
	AssertGates           = "gates"
	AssertEntropySafe     = "entropy_safe"
	AssertDiagnostics     = "diagnostics"
	AssertJobTruncation   = "job_truncation"
	AssertArtifacts       = "artifacts"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Reject unknown fields so "assertion:" vs "assertions:" is caught.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.File != "" && !filepath.IsAbs(scenario.File) {
		scenario.File = filepath.Join(filepath.Dir(path), scenario.File)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, s)
	}
	return out, nil
}

// program returns the scenario's source text.
func (s *Scenario) program() (string, error) {
	if s.File == "" {
		return s.Source, nil
	}
	data, err := os.ReadFile(s.File)
	if err != nil {
		return "", fmt.Errorf("failed to read program: %w", err)
	}
	return string(data), nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if (s.Source == "") == (s.File == "") {
		return fmt.Errorf("exactly one of source and file is required")
	}
	if s.File != "" {
		if _, err := os.Stat(s.File); os.IsNotExist(err) {
			return fmt.Errorf("program file not found: %s", s.File)
		}
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
		if a.Type == AssertArtifacts && !s.Package {
			return fmt.Errorf("assertions[%d]: artifacts requires package: true", i)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCompileError:
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains is required for compile_error", index)
		}
	case AssertImplementation:
		if a.Operator == "" || a.Kind == "" {
			return fmt.Errorf("assertions[%d]: operator and kind are required for implementation", index)
		}
	case AssertImplementations:
		if a.Kinds == nil {
			return fmt.Errorf("assertions[%d]: kinds is required for implementations", index)
		}
	case AssertGates, AssertArtifacts:
		if a.Names == nil {
			return fmt.Errorf("assertions[%d]: names is required for %s", index, a.Type)
		}
	case AssertEntropySafe:
		if a.Safe == nil {
			return fmt.Errorf("assertions[%d]: safe is required for entropy_safe", index)
		}
	case AssertDiagnostics:
		if a.Codes == nil {
			return fmt.Errorf("assertions[%d]: codes is required for diagnostics", index)
		}
	case AssertJobTruncation:
		if a.Method == "" {
			return fmt.Errorf("assertions[%d]: method is required for job_truncation", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
