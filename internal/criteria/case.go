package criteria

import (
	"github.com/roach88/criteria/internal/queryir"
	"github.com/roach88/criteria/internal/render"
)

// Case is a searched CASE expression under construction.
type Case struct {
	ops
	whens     []queryir.When
	otherwise queryir.Expr
}

// SelectCase starts a searched CASE.
func (b *Builder) SelectCase() *Case {
	c := &Case{}
	c.ops = ops{b: b, self: c}
	return c
}

// When adds an arm.
func (c *Case) When(cond Expression, result any) *Case {
	c.whens = append(c.whens, queryir.When{Cond: cond.Lower(), Result: c.b.operand("Case.When", result)})
	return c
}

// Otherwise sets the ELSE result and returns the case.
func (c *Case) Otherwise(result any) *Case {
	c.otherwise = c.b.operand("Case.Otherwise", result)
	return c
}

func (c *Case) Lower() queryir.Expr {
	return c.b.factory.Case(c.whens, c.otherwise)
}

func (c *Case) String() string { return render.Expr(c.Lower()) }

// SimpleCase is a CASE comparing one expression against values.
type SimpleCase struct {
	Case
	expr Expression
}

// SimpleCase starts a CASE over expr.
func (b *Builder) SimpleCase(expr Expression) *SimpleCase {
	c := &SimpleCase{expr: expr}
	c.ops = ops{b: b, self: c}
	return c
}

// Expression returns the compared expression.
func (c *SimpleCase) Expression() Expression { return c.expr }

// When adds an arm matching expr = value.
func (c *SimpleCase) When(value, result any) *SimpleCase {
	f := c.b.factory
	cond := f.Dyadic(queryir.OpEq, c.expr.Lower(), c.b.operand("SimpleCase.When", value))
	c.whens = append(c.whens, queryir.When{Cond: cond, Result: c.b.operand("SimpleCase.When", result)})
	return c
}

// Otherwise sets the ELSE result.
func (c *SimpleCase) Otherwise(result any) *SimpleCase {
	c.Case.Otherwise(result)
	return c
}

// Coalesce returns the first non-null of its values.
type Coalesce struct {
	ops
	values []queryir.Expr
}

// Coalesce starts a COALESCE over values.
func (b *Builder) Coalesce(values ...any) *Coalesce {
	c := &Coalesce{values: b.operands("Builder.Coalesce", values)}
	c.ops = ops{b: b, self: c}
	return c
}

// Value adds a value.
func (c *Coalesce) Value(v any) *Coalesce {
	c.values = append(c.values, c.b.operand("Coalesce.Value", v))
	return c
}

func (c *Coalesce) Lower() queryir.Expr {
	return c.b.factory.Invoke(nil, "COALESCE", c.values)
}

func (c *Coalesce) String() string { return render.Expr(c.Lower()) }
