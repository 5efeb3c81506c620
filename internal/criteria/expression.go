package criteria

import (
	"slices"

	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/metamodel"
	"github.com/roach88/criteria/internal/queryir"
	"github.com/roach88/criteria/internal/render"
)

// Expression is any builder value with a lowered form.
type Expression interface {
	// Lower returns the expression tree node for this value.
	Lower() queryir.Expr

	// String returns the display form.
	String() string
}

// ops carries the operations every builder expression shares.
type ops struct {
	b     *Builder
	self  Expression
	alias string
}

// As casts the expression to typeName.
func (o *ops) As(typeName string) *Expr {
	out := o.b.dyadic(queryir.OpCast, o.self.Lower(), o.b.factory.Literal(ir.IRString(typeName)))
	if t, err := o.b.model.Type(typeName); err == nil {
		out.typ = t
	}
	return out
}

// IsNull tests the expression against null.
func (o *ops) IsNull() *Predicate {
	return o.b.predicate(o.b.factory.Dyadic(queryir.OpEq, o.self.Lower(), o.b.factory.Literal(ir.IRNull{})))
}

// IsNotNull tests the expression against null.
func (o *ops) IsNotNull() *Predicate {
	return o.b.predicate(o.b.factory.Dyadic(queryir.OpNotEq, o.self.Lower(), o.b.factory.Literal(ir.IRNull{})))
}

// In tests membership in values.
func (o *ops) In(values ...any) *In {
	return o.b.In(o.self, values...)
}

// Alias names the expression when it is a selection item.
func (o *ops) Alias(name string) { o.alias = name }

// GetAlias returns the selection alias, or "".
func (o *ops) GetAlias() string { return o.alias }

func (o *ops) selectionAlias() string { return o.alias }

// selectable is implemented by values that carry a selection alias. Roots
// and joins expose GetAlias for their FROM alias and are not selectable.
type selectable interface {
	selectionAlias() string
}

func selectionAlias(e Expression) string {
	if a, ok := e.(selectable); ok {
		return a.selectionAlias()
	}
	return ""
}

// Expr is a computed expression. Its node is built eagerly.
type Expr struct {
	ops
	node queryir.Expr
	typ  *metamodel.Type
}

func (e *Expr) Lower() queryir.Expr { return e.node }

func (e *Expr) String() string { return render.Expr(e.node) }

// Type returns the result type, or nil when unknown.
func (e *Expr) Type() *metamodel.Type { return e.typ }

// Get navigates attr from a typed expression.
func (e *Expr) Get(attr *metamodel.Attribute) (*Path, error) {
	return get(e, attr)
}

// GetByName navigates the named attribute from a typed expression.
func (e *Expr) GetByName(name string) (*Path, error) {
	return getByName(e, name)
}

func (e *Expr) managedType() *metamodel.Type { return e.typ }
func (e *Expr) builder() *Builder            { return e.b }

// BooleanOperator joins the parts of a compound predicate.
type BooleanOperator int

const (
	And BooleanOperator = iota
	Or
)

func (op BooleanOperator) String() string {
	if op == Or {
		return "OR"
	}
	return "AND"
}

// Predicate is a boolean expression. A leaf predicate wraps one node; a
// compound predicate folds its parts with its operator.
type Predicate struct {
	ops
	op      BooleanOperator
	node    queryir.Expr
	parts   []Expression
	negated bool
}

// Lower folds compound parts left to right. An empty AND lowers to true and
// an empty OR to false.
func (p *Predicate) Lower() queryir.Expr {
	f := p.b.factory
	var node queryir.Expr
	switch {
	case p.node != nil:
		node = p.node
	case len(p.parts) == 0:
		node = f.Literal(ir.IRBool(p.op == And))
	default:
		qop := queryir.OpAnd
		if p.op == Or {
			qop = queryir.OpOr
		}
		node = p.parts[0].Lower()
		for _, part := range p.parts[1:] {
			node = f.Dyadic(qop, node, part.Lower())
		}
	}
	if p.negated {
		node = f.Dyadic(queryir.OpNot, node, nil)
	}
	return node
}

func (p *Predicate) String() string { return render.Expr(p.Lower()) }

// Operator returns the boolean operator of a compound predicate.
func (p *Predicate) Operator() BooleanOperator { return p.op }

// IsNegated reports whether the predicate was produced by Not.
func (p *Predicate) IsNegated() bool { return p.negated }

// Expressions returns the parts of a compound predicate. A leaf predicate
// has none.
func (p *Predicate) Expressions() []Expression { return slices.Clone(p.parts) }

// Not returns the negation of p. p is unchanged.
func (p *Predicate) Not() *Predicate {
	n := &Predicate{op: p.op, node: p.node, parts: slices.Clone(p.parts), negated: !p.negated}
	n.ops = ops{b: p.b, self: n}
	return n
}

// Append adds parts to p. A leaf predicate first becomes the sole part of
// a compound AND.
func (p *Predicate) Append(parts ...Expression) *Predicate {
	if p.node != nil {
		leaf := &Predicate{op: And, node: p.node, negated: p.negated}
		leaf.ops = ops{b: p.b, self: leaf}
		p.node = nil
		p.negated = false
		p.parts = []Expression{leaf}
	}
	p.parts = append(p.parts, parts...)
	return p
}

// In is a membership predicate over a growing value list.
type In struct {
	ops
	expr   Expression
	values []queryir.Expr
}

// In starts a membership test of expr against values.
func (b *Builder) In(expr Expression, values ...any) *In {
	in := &In{expr: expr, values: b.operands("Builder.In", values)}
	in.ops = ops{b: b, self: in}
	return in
}

// Value adds a candidate value.
func (in *In) Value(v any) *In {
	in.values = append(in.values, in.b.operand("In.Value", v))
	return in
}

// Expression returns the tested expression.
func (in *In) Expression() Expression { return in.expr }

// Lower returns an OR chain of equalities. An empty list lowers to false.
func (in *In) Lower() queryir.Expr {
	f := in.b.factory
	if len(in.values) == 0 {
		return f.Literal(ir.IRBool(false))
	}
	left := in.expr.Lower()
	var node queryir.Expr
	for _, v := range in.values {
		eq := f.Dyadic(queryir.OpEq, left, v)
		if node == nil {
			node = eq
			continue
		}
		node = f.Dyadic(queryir.OpOr, node, eq)
	}
	return node
}

func (in *In) String() string { return render.Expr(in.Lower()) }

// Predicate returns the membership test as a predicate.
func (in *In) Predicate() *Predicate {
	return in.b.predicate(in.Lower())
}

// Not returns the negated membership test.
func (in *In) Not() *Predicate {
	return in.Predicate().Not()
}
