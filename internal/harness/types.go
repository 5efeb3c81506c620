package harness

import "github.com/roach88/criteria/internal/queryir"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Compilation is the compiled query. Nil when building failed.
	Compilation *queryir.Compilation `json:"-"`

	// ID is the catalog key of the compilation.
	ID string `json:"id,omitempty"`

	// Rendered is the display form of the compilation.
	Rendered string `json:"rendered,omitempty"`

	// Params lists parameters in order of first appearance.
	Params []string `json:"params"`

	// WellFormed and Warnings report tree validation.
	WellFormed bool     `json:"well_formed"`
	Warnings   []string `json:"warnings,omitempty"`

	// BuildErr is the error reported while building or compiling the query.
	BuildErr error `json:"-"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Params:   []string{},
		Warnings: []string{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
