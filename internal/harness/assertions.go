package harness

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/criteria/internal/celfilter"
	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/queryir"
)

// CodeTranslate matches filter translation failures in "error" assertions.
const CodeTranslate = "UNTRANSLATABLE"

// AssertionError is returned when an assertion fails.
// It includes the rendered query to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Rendered string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Rendered != "" {
		fmt.Fprintf(&buf, "\nQuery:\n  %s\n", e.Rendered)
	}

	return buf.String()
}

// requireCompilation fails assertions that inspect output when the build
// produced none.
func requireCompilation(result *Result, a Assertion) error {
	if result.Compilation != nil {
		return nil
	}
	actual := "no compilation"
	if result.BuildErr != nil {
		actual = fmt.Sprintf("build failed: %v", result.BuildErr)
	}
	return &AssertionError{Type: a.Type, Expected: "a compiled query", Actual: actual}
}

func assertRendered(result *Result, a Assertion) error {
	if result.Rendered == a.Expect {
		return nil
	}
	return &AssertionError{
		Type:     AssertRendered,
		Expected: fmt.Sprintf("%q", a.Expect),
		Actual:   fmt.Sprintf("%q", result.Rendered),
	}
}

func assertContains(result *Result, a Assertion) error {
	if strings.Contains(result.Rendered, a.Expect) {
		return nil
	}
	return &AssertionError{
		Type:     AssertContains,
		Expected: fmt.Sprintf("text containing %q", a.Expect),
		Actual:   "not found",
		Rendered: result.Rendered,
	}
}

func assertParams(result *Result, a Assertion) error {
	want := a.Params
	if want == nil {
		want = []string{}
	}
	if slices.Equal(result.Params, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertParams,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", result.Params),
		Rendered: result.Rendered,
	}
}

func assertWellFormed(result *Result, a Assertion) error {
	if result.WellFormed == *a.WellFormed {
		return nil
	}
	actual := "well formed"
	if !result.WellFormed {
		actual = strings.Join(result.Warnings, "; ")
	}
	return &AssertionError{
		Type:     AssertWellFormed,
		Expected: fmt.Sprintf("well_formed = %t", *a.WellFormed),
		Actual:   actual,
		Rendered: result.Rendered,
	}
}

func assertNodeCount(result *Result, a Assertion) error {
	got := CountKinds(result.Compilation)[queryir.Kind(a.Kind)]
	if got == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertNodeCount,
		Expected: fmt.Sprintf("%d %s nodes", a.Count, a.Kind),
		Actual:   fmt.Sprintf("%d", got),
		Rendered: result.Rendered,
	}
}

func assertError(result *Result, a Assertion) error {
	err := result.BuildErr
	if err == nil {
		return &AssertionError{
			Type:     AssertError,
			Expected: fmt.Sprintf("error %s", a.Code),
			Actual:   "query compiled",
			Rendered: result.Rendered,
		}
	}

	var code string
	var ce *criteria.Error
	switch {
	case errors.As(err, &ce):
		code = string(ce.Code)
	case errors.Is(err, celfilter.ErrTranslate):
		code = CodeTranslate
	}
	if code != a.Code || !strings.Contains(err.Error(), a.Expect) {
		return &AssertionError{
			Type:     AssertError,
			Expected: fmt.Sprintf("error %s containing %q", a.Code, a.Expect),
			Actual:   err.Error(),
		}
	}
	return nil
}

type kindCounter map[queryir.Kind]int

func (k kindCounter) Visit(e queryir.Expr) queryir.Visitor {
	if e == nil {
		return nil
	}
	k[queryir.KindOf(e)]++
	return k
}

// CountKinds counts the nodes of c by kind, subqueries included.
func CountKinds(c *queryir.Compilation) map[queryir.Kind]int {
	counts := kindCounter{}
	var count func(*queryir.Compilation)
	count = func(c *queryir.Compilation) {
		if c == nil {
			return
		}
		c.Each(func(e queryir.Expr) { queryir.Walk(counts, e) })
		for _, sub := range c.Subqueries {
			count(sub)
		}
	}
	count(c)
	return counts
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertError:
			err = assertError(result, a)
		case AssertRendered, AssertContains, AssertParams, AssertWellFormed, AssertNodeCount:
			if err = requireCompilation(result, a); err != nil {
				break
			}
			switch a.Type {
			case AssertRendered:
				err = assertRendered(result, a)
			case AssertContains:
				err = assertContains(result, a)
			case AssertParams:
				err = assertParams(result, a)
			case AssertWellFormed:
				err = assertWellFormed(result, a)
			default:
				err = assertNodeCount(result, a)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}
