package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/criteria/internal/queryir"
)

// Scenario defines a lowering test scenario.
// A scenario builds one query through the criteria builder and asserts on
// the compiled tree, its rendered form, or the error the builder reports.
type Scenario struct {
	// Name uniquely identifies this scenario. Also the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schemas lists CUE schema files declaring the managed types.
	// Paths are relative to the scenario file location.
	Schemas []string `yaml:"schemas"`

	// Session is the builder session ID. Defaults to DefaultSession.
	Session string `yaml:"session,omitempty"`

	// Query describes the query to build.
	Query QuerySpec `yaml:"query"`

	// Assertions validate the outcome.
	Assertions []Assertion `yaml:"assertions"`
}

// DefaultSession is the session ID used when a scenario names none.
const DefaultSession = "test-session"

// Query kinds.
const (
	QuerySelect = "select"
	QueryTuple  = "tuple"
	QueryUpdate = "update"
	QueryDelete = "delete"
)

// QuerySpec describes a query. Expressions are CEL source naming roots and
// joins by alias.
type QuerySpec struct {
	// Type is one of select, tuple, update, delete. Defaults to select.
	Type string `yaml:"type,omitempty"`

	// Result is the declared result type of a select. Defaults to the
	// entity of the first root.
	Result string `yaml:"result,omitempty"`

	From     []RootSpec   `yaml:"from"`
	Distinct bool         `yaml:"distinct,omitempty"`
	Select   []SelectItem `yaml:"select,omitempty"`
	Where    string       `yaml:"where,omitempty"`
	GroupBy  []string     `yaml:"group_by,omitempty"`
	Having   string       `yaml:"having,omitempty"`
	OrderBy  []OrderSpec  `yaml:"order_by,omitempty"`
	Set      []Assignment `yaml:"set,omitempty"`
}

// RootSpec declares a query root and the joins hanging off it.
type RootSpec struct {
	Entity string     `yaml:"entity"`
	Alias  string     `yaml:"alias,omitempty"`
	Joins  []JoinSpec `yaml:"joins,omitempty"`
}

// JoinSpec declares a join over an attribute of its parent.
type JoinSpec struct {
	Attribute string     `yaml:"attribute"`
	Alias     string     `yaml:"alias,omitempty"`
	Type      string     `yaml:"type,omitempty"` // INNER, LEFT or RIGHT
	On        string     `yaml:"on,omitempty"`
	Joins     []JoinSpec `yaml:"joins,omitempty"`
}

// SelectItem is one selection, optionally aliased.
type SelectItem struct {
	Expr string `yaml:"expr"`
	As   string `yaml:"as,omitempty"`
}

// OrderSpec is one ordering term.
type OrderSpec struct {
	Expr  string `yaml:"expr"`
	Desc  bool   `yaml:"desc,omitempty"`
	Nulls string `yaml:"nulls,omitempty"` // first or last
}

// Assignment is one SET clause of an update. Exactly one of Value and Expr
// is used: Expr when non-empty.
type Assignment struct {
	Path  string `yaml:"path"`
	Value any    `yaml:"value,omitempty"`
	Expr  string `yaml:"expr,omitempty"`
}

// Assertion validates the outcome of a scenario.
type Assertion struct {
	// Type specifies the assertion type:
	// - "rendered": rendered text equals Expect
	// - "contains": rendered text contains Expect
	// - "params": parameters equal Params, in order
	// - "well_formed": validation outcome equals WellFormed
	// - "node_count": the tree holds Count nodes of Kind
	// - "error": building failed with Code, message containing Expect
	Type string `yaml:"type"`

	Expect     string   `yaml:"expect,omitempty"`
	Params     []string `yaml:"params,omitempty"`
	WellFormed *bool    `yaml:"well_formed,omitempty"`
	Kind       string   `yaml:"kind,omitempty"`
	Count      int      `yaml:"count,omitempty"`
	Code       string   `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertRendered   = "rendered"
	AssertContains   = "contains"
	AssertParams     = "params"
	AssertWellFormed = "well_formed"
	AssertNodeCount  = "node_count"
	AssertError      = "error"
)

// LoadScenario reads and parses a scenario YAML file. Schema paths are
// resolved relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields, or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i, p := range scenario.Schemas {
		if !filepath.IsAbs(p) {
			scenario.Schemas[i] = filepath.Join(base, p)
		}
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
	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Schemas) == 0 {
		return fmt.Errorf("schemas list is required and must be non-empty")
	}

	for _, p := range s.Schemas {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("schema file not found: %s", p)
		}
	}

	if err := validateQuery(&s.Query); err != nil {
		return fmt.Errorf("query: %w", err)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

func validateQuery(q *QuerySpec) error {
	switch q.Type {
	case "", QuerySelect, QueryTuple:
	case QueryUpdate, QueryDelete:
		if len(q.From) != 1 {
			return fmt.Errorf("%s requires exactly one root", q.Type)
		}
		if a := q.From[0].Alias; a != "" && a != "this" {
			return fmt.Errorf("%s root is always aliased this, got %q", q.Type, a)
		}
	default:
		return fmt.Errorf("unknown query type %q", q.Type)
	}

	if len(q.From) == 0 {
		return fmt.Errorf("from list is required and must be non-empty")
	}
	for i, r := range q.From {
		if r.Entity == "" {
			return fmt.Errorf("from[%d]: entity is required", i)
		}
		if err := validateJoins(fmt.Sprintf("from[%d]", i), r.Joins); err != nil {
			return err
		}
	}

	for i, item := range q.Select {
		if item.Expr == "" {
			return fmt.Errorf("select[%d]: expr is required", i)
		}
	}
	for i, o := range q.OrderBy {
		if o.Expr == "" {
			return fmt.Errorf("order_by[%d]: expr is required", i)
		}
		switch strings.ToLower(o.Nulls) {
		case "", "first", "last":
		default:
			return fmt.Errorf("order_by[%d]: nulls must be first or last", i)
		}
	}
	for i, a := range q.Set {
		if a.Path == "" {
			return fmt.Errorf("set[%d]: path is required", i)
		}
	}
	return nil
}

func validateJoins(prefix string, joins []JoinSpec) error {
	for i, j := range joins {
		at := fmt.Sprintf("%s.joins[%d]", prefix, i)
		if j.Attribute == "" {
			return fmt.Errorf("%s: attribute is required", at)
		}
		switch queryir.JoinType(strings.ToUpper(j.Type)) {
		case "", queryir.JoinInner, queryir.JoinLeft, queryir.JoinRight:
		default:
			return fmt.Errorf("%s: unknown join type %q", at, j.Type)
		}
		if err := validateJoins(at, j.Joins); err != nil {
			return err
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
	case AssertRendered, AssertContains:
		if a.Expect == "" {
			return fmt.Errorf("assertions[%d]: expect is required for %s", index, a.Type)
		}
	case AssertParams:
	case AssertWellFormed:
		if a.WellFormed == nil {
			return fmt.Errorf("assertions[%d]: well_formed is required", index)
		}
	case AssertNodeCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for node_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for node_count", index)
		}
	case AssertError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
