package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/criteria/internal/testutil"
)

// scenarioDir lays out schema/, scenarios/ and golden/ under a temp dir
// and returns the scenarios directory.
func scenarioDir(t *testing.T, scenarios map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for _, d := range []string{"schema", "scenarios"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "schema", "company.cue"), []byte(testutil.FixtureSchema), 0644))
	for name, body := range scenarios {
		require.NoError(t, os.WriteFile(filepath.Join(root, "scenarios", name+".yaml"), []byte(body), 0644))
	}
	return filepath.Join(root, "scenarios")
}

const passingScenario = `name: passing
description: Filter on an embeddable path
schemas:
  - ../schema/company.cue
query:
  from:
    - entity: Employee
      alias: e
  where: 'e.address.zip == "0150"'
assertions:
  - type: rendered
    expect: "SELECT e FROM Employee e WHERE (e.address.zip = '0150')"
`

const failingScenario = `name: failing
description: Expects the wrong rendering
schemas:
  - ../schema/company.cue
query:
  from:
    - entity: Project
      alias: p
assertions:
  - type: rendered
    expect: "SELECT x FROM Project x"
`

func TestTestCommand_Testdata(t *testing.T) {
	out, err := execute(t, "test", "testdata/scenarios")
	require.NoError(t, err, out)

	assert.Contains(t, out, "✓ department_budget")
	assert.Contains(t, out, "✓ employee_city")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommand_Failure(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"passing": passingScenario, "failing": failingScenario})

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ failing")
	assert.Contains(t, out, "Assertion failed: rendered")
	assert.Contains(t, out, "✓ passing")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommand_JSON(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"passing": passingScenario, "failing": failingScenario})

	out, err := execute(t, "--format", "json", "test", dir)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)

	byName := map[string]ScenarioResult{}
	for _, s := range resp.Data.Scenarios {
		byName[s.Name] = s
	}
	assert.True(t, byName["passing"].Pass)
	assert.NotEmpty(t, byName["passing"].ID)
	assert.False(t, byName["failing"].Pass)
	assert.Equal(t, "SELECT p FROM Project p", byName["failing"].Rendered)
}

func TestTestCommand_UpdateThenCompare(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"passing": passingScenario})
	golden := filepath.Join(filepath.Dir(dir), "golden", "passing.golden")

	_, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name":"passing"`)

	_, err = execute(t, "test", dir)
	require.NoError(t, err, "a freshly written golden matches")

	require.NoError(t, os.WriteFile(golden, []byte(`{"stale":true}`), 0644))
	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "snapshot does not match golden file")
}

func TestTestCommand_GoldenFlag(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"passing": passingScenario})
	golden := t.TempDir()

	_, err := execute(t, "test", dir, "--update", "--golden", golden)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(golden, "passing.golden"))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(dir), "golden", "passing.golden"))
}

func TestTestCommand_Filter(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"passing": passingScenario, "failing": failingScenario})

	out, err := execute(t, "test", dir, "--filter", "pass*")
	require.NoError(t, err)
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.NotContains(t, out, "failing")
}

func TestTestCommand_BadScenario(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"broken": "name: broken\nassertion: []\n"})

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommand_Record(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"passing": passingScenario})
	db := filepath.Join(t.TempDir(), "catalog.db")

	_, err := execute(t, "test", dir, "--db", db)
	require.NoError(t, err)

	out, err := execute(t, "catalog", db)
	require.NoError(t, err)
	assert.Contains(t, out, "test-session#1  SELECT e FROM Employee e WHERE (e.address.zip = '0150')")
}

func TestTestCommand_MissingDir(t *testing.T) {
	_, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommand_EmptyDir(t *testing.T) {
	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yml", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yml")}, files)

	_, err = findScenarioFiles(dir, "[")
	assert.Error(t, err)
}
