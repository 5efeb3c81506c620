package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Golden files live in testdata/golden. Regenerate with:
//
//	go test ./internal/harness -run TestGolden -update
func TestGolden_Scenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestMarshalSnapshot_Canonical(t *testing.T) {
	s := Snapshot{
		ScenarioName: "s",
		Rendered:     "SELECT this FROM Employee this WHERE (this.name = 'R&D')",
		Params:       []string{":b", ":a"},
		WellFormed:   true,
		Kinds:        map[string]int{"LITERAL": 1, "DYADIC": 1, "DOTTED_PATH": 1},
	}

	data, err := MarshalSnapshot(s)
	require.NoError(t, err)
	assert.Equal(t,
		`{"kinds":{"DOTTED_PATH":1,"DYADIC":1,"LITERAL":1},"params":[":b",":a"],"rendered":"SELECT this FROM Employee this WHERE (this.name = 'R&D')","scenario_name":"s","well_formed":true}`,
		string(data))
}

func TestMarshalSnapshot_Error(t *testing.T) {
	result := NewResult()
	result.BuildErr = errors.New("where: boom")

	data, err := MarshalSnapshot(NewSnapshot("broken", result))
	require.NoError(t, err)
	assert.Equal(t,
		`{"error":"where: boom","kinds":{},"params":[],"scenario_name":"broken","well_formed":false}`,
		string(data))
}

func TestMarshalSnapshot_Deterministic(t *testing.T) {
	result := compiledResult(t, QuerySpec{
		From:  []RootSpec{{Entity: "Employee", Alias: "e"}},
		Where: `e.salary > param("min") || e.salary < param("max")`,
	})

	first, err := MarshalSnapshot(NewSnapshot("det", result))
	require.NoError(t, err)
	for range 10 {
		again, err := MarshalSnapshot(NewSnapshot("det", result))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestNewSnapshot(t *testing.T) {
	result := compiledResult(t, QuerySpec{
		From:  []RootSpec{{Entity: "Employee", Alias: "e"}},
		Where: `e.salary > param("min")`,
	})

	s := NewSnapshot("snap", result)
	assert.Equal(t, "snap", s.ScenarioName)
	assert.Equal(t, "SELECT e FROM Employee e WHERE (e.salary > :min)", s.Rendered)
	assert.Equal(t, []string{":min"}, s.Params)
	assert.True(t, s.WellFormed)
	assert.Equal(t, map[string]int{"DYADIC": 1, "DOTTED_PATH": 1, "PARAMETER": 1}, s.Kinds)
	assert.Empty(t, s.Error)
}
