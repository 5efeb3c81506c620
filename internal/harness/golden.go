package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/criteria/internal/ir"
)

// Snapshot captures the observable outcome of a scenario.
// All fields use canonical JSON serialization for deterministic comparison.
type Snapshot struct {
	ScenarioName string
	Rendered     string
	Params       []string
	WellFormed   bool
	Kinds        map[string]int
	Error        string
}

// NewSnapshot builds the snapshot of result.
func NewSnapshot(name string, result *Result) Snapshot {
	s := Snapshot{
		ScenarioName: name,
		Rendered:     result.Rendered,
		Params:       result.Params,
		WellFormed:   result.WellFormed,
		Kinds:        map[string]int{},
	}
	if result.Compilation != nil {
		for k, n := range CountKinds(result.Compilation) {
			s.Kinds[string(k)] = n
		}
	}
	if result.BuildErr != nil {
		s.Error = result.BuildErr.Error()
	}
	return s
}

// toCanonical converts a Snapshot to an ir.IRObject for canonical JSON
// serialization.
func (s Snapshot) toCanonical() ir.IRObject {
	params := make(ir.IRArray, len(s.Params))
	for i, p := range s.Params {
		params[i] = ir.IRString(p)
	}
	kinds := ir.IRObject{}
	for k, n := range s.Kinds {
		kinds[k] = ir.IRInt(n)
	}

	obj := ir.IRObject{
		"scenario_name": ir.IRString(s.ScenarioName),
		"params":        params,
		"well_formed":   ir.IRBool(s.WellFormed),
		"kinds":         kinds,
	}
	if s.Rendered != "" {
		obj["rendered"] = ir.IRString(s.Rendered)
	}
	if s.Error != "" {
		obj["error"] = ir.IRString(s.Error)
	}
	return obj
}

// MarshalSnapshot returns the canonical JSON of s.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonical())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(NewSnapshot(scenarioName, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
