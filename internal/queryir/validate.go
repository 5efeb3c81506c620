package queryir

import "fmt"

// ValidationResult contains the well-formedness analysis of a tree.
//
// Construction never rejects degenerate nodes, so this is where a consumer
// learns that a tree cannot be compiled.
type ValidationResult struct {
	// IsWellFormed is true when no degenerate node was found.
	IsWellFormed bool

	// Warnings lists the degenerate nodes found. Empty when IsWellFormed.
	Warnings []string
}

// Validate checks a tree for degenerate output:
//  1. Path nodes with an empty tuple list or an empty alias
//  2. Binary operators missing an operand, unary operators missing theirs
//  3. Invocations without a method name
//  4. Subqueries without a variable, or with an unknown keyword
//  5. CASE without any WHEN arm
//
// Validate is a pure function with no side effects.
func Validate(e Expr) ValidationResult {
	v := &validator{warnings: []string{}}
	if e == nil {
		v.addWarning("nil expression")
	}
	Walk(v, e)

	return ValidationResult{
		IsWellFormed: len(v.warnings) == 0,
		Warnings:     v.warnings,
	}
}

// ValidateCompilation validates every expression of c.
func ValidateCompilation(c *Compilation) ValidationResult {
	v := &validator{warnings: []string{}}
	c.Each(func(e Expr) { Walk(v, e) })
	for name, sub := range c.Subqueries {
		res := ValidateCompilation(sub)
		for _, w := range res.Warnings {
			v.addWarning("subquery %s: %s", name, w)
		}
	}
	if c.Candidate == "" {
		v.addWarning("compilation has no candidate type")
	}

	return ValidationResult{
		IsWellFormed: len(v.warnings) == 0,
		Warnings:     v.warnings,
	}
}

type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) Visit(e Expr) Visitor {
	switch n := e.(type) {
	case nil:
		return nil
	case *ClassExpr:
		if n.Alias == "" {
			v.addWarning("root alias node without an alias")
		}
	case *PrimaryExpr:
		if len(n.Tuples) == 0 {
			v.addWarning("%s node with empty tuple list", n.Kind())
		}
	case *DyadicExpr:
		v.validateDyadic(n)
	case *InvokeExpr:
		if n.Method == "" {
			v.addWarning("invocation without a method name")
		}
	case *LiteralExpr:
		if n.Value == nil {
			v.addWarning("literal without a value")
		}
	case *ParameterExpr:
		if n.Name == "" && n.Position == 0 {
			v.addWarning("parameter without name or position")
		}
	case *VariableExpr:
		if n.Name == "" {
			v.addWarning("variable without a name")
		}
	case *SubqueryExpr:
		if n.Right == nil {
			v.addWarning("%s subquery without a variable", n.Keyword)
		}
		switch n.Keyword {
		case SubqueryAll, SubqueryAny, SubquerySome, SubqueryExists:
		default:
			v.addWarning("unknown subquery keyword %q", n.Keyword)
		}
	case *CaseExpr:
		if len(n.Whens) == 0 {
			v.addWarning("CASE without WHEN arms")
		}
	case *JoinExpr:
		if n.Path == nil {
			v.addWarning("join without a path")
		}
		if n.Alias == "" {
			v.addWarning("join without an alias")
		}
	case *OrderExpr:
		if n.Expr == nil {
			v.addWarning("ordering without an expression")
		}
	default:
		v.addWarning("unknown node type: %T", e)
	}
	return v
}

func (v *validator) validateDyadic(n *DyadicExpr) {
	if n.Op == OpInvalid {
		v.addWarning("dyadic node with invalid operator")
		return
	}
	if n.Left == nil {
		v.addWarning("%s without a left operand", n.Op.Name())
	}
	if !n.Op.IsUnary() && n.Right == nil {
		v.addWarning("binary %s without a right operand", n.Op.Name())
	}
}
