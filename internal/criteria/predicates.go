package criteria

import (
	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/queryir"
)

// And combines predicates with AND. No predicates lowers to true.
func (b *Builder) And(preds ...Expression) *Predicate {
	p := &Predicate{op: And}
	p.ops = ops{b: b, self: p}
	return p.Append(preds...)
}

// Or combines predicates with OR. No predicates lowers to false.
func (b *Builder) Or(preds ...Expression) *Predicate {
	p := &Predicate{op: Or}
	p.ops = ops{b: b, self: p}
	return p.Append(preds...)
}

// Not negates x.
func (b *Builder) Not(x Expression) *Predicate {
	if p, ok := x.(*Predicate); ok {
		return p.Not()
	}
	return b.predicate(b.factory.Dyadic(queryir.OpNot, x.Lower(), nil))
}

// Conjunction is the always-true predicate.
func (b *Builder) Conjunction() *Predicate {
	return b.predicate(b.factory.Literal(ir.IRBool(true)))
}

// Disjunction is the always-false predicate.
func (b *Builder) Disjunction() *Predicate {
	return b.predicate(b.factory.Literal(ir.IRBool(false)))
}

func (b *Builder) IsTrue(x Expression) *Predicate {
	return b.compare("Builder.IsTrue", queryir.OpEq, x, true)
}

func (b *Builder) IsFalse(x Expression) *Predicate {
	return b.compare("Builder.IsFalse", queryir.OpEq, x, false)
}

func (b *Builder) IsNull(x Expression) *Predicate {
	return b.compare("Builder.IsNull", queryir.OpEq, x, nil)
}

func (b *Builder) IsNotNull(x Expression) *Predicate {
	return b.compare("Builder.IsNotNull", queryir.OpNotEq, x, nil)
}

// Comparisons take an Expression or a literal on the right.

func (b *Builder) Equal(x Expression, y any) *Predicate {
	return b.compare("Builder.Equal", queryir.OpEq, x, y)
}

func (b *Builder) NotEqual(x Expression, y any) *Predicate {
	return b.compare("Builder.NotEqual", queryir.OpNotEq, x, y)
}

func (b *Builder) GreaterThan(x Expression, y any) *Predicate {
	return b.compare("Builder.GreaterThan", queryir.OpGt, x, y)
}

func (b *Builder) GreaterThanOrEqualTo(x Expression, y any) *Predicate {
	return b.compare("Builder.GreaterThanOrEqualTo", queryir.OpGtEq, x, y)
}

func (b *Builder) LessThan(x Expression, y any) *Predicate {
	return b.compare("Builder.LessThan", queryir.OpLt, x, y)
}

func (b *Builder) LessThanOrEqualTo(x Expression, y any) *Predicate {
	return b.compare("Builder.LessThanOrEqualTo", queryir.OpLtEq, x, y)
}

// Gt, Ge, Lt, and Le are the numeric spellings of the comparisons.
func (b *Builder) Gt(x Expression, y any) *Predicate {
	return b.compare("Builder.Gt", queryir.OpGt, x, y)
}
func (b *Builder) Ge(x Expression, y any) *Predicate {
	return b.compare("Builder.Ge", queryir.OpGtEq, x, y)
}
func (b *Builder) Lt(x Expression, y any) *Predicate {
	return b.compare("Builder.Lt", queryir.OpLt, x, y)
}
func (b *Builder) Le(x Expression, y any) *Predicate {
	return b.compare("Builder.Le", queryir.OpLtEq, x, y)
}

// Between lowers to (x >= lo) AND (x <= hi). x is lowered once and shared.
func (b *Builder) Between(x Expression, lo, hi any) *Predicate {
	const op = "Builder.Between"
	f := b.factory
	node := x.Lower()
	lower := f.Dyadic(queryir.OpGtEq, node, b.operand(op, lo))
	upper := f.Dyadic(queryir.OpLtEq, node, b.operand(op, hi))
	return b.predicate(f.Dyadic(queryir.OpAnd, lower, upper))
}

// Like matches x against a pattern with an optional escape character.
func (b *Builder) Like(x Expression, pattern any, escape ...any) *Predicate {
	const op = "Builder.Like"
	args := append([]queryir.Expr{b.operand(op, pattern)}, b.operands(op, escape)...)
	return b.predicate(b.factory.Invoke(x.Lower(), "matches", args))
}

func (b *Builder) NotLike(x Expression, pattern any, escape ...any) *Predicate {
	return b.Like(x, pattern, escape...).Not()
}

// Collection predicates.

func (b *Builder) IsEmpty(coll Expression) *Predicate {
	return b.predicate(b.factory.Invoke(coll.Lower(), "isEmpty", nil))
}

func (b *Builder) IsNotEmpty(coll Expression) *Predicate {
	return b.IsEmpty(coll).Not()
}

// IsMember tests whether elem, an Expression or literal, is in coll.
func (b *Builder) IsMember(elem any, coll Expression) *Predicate {
	args := []queryir.Expr{b.operand("Builder.IsMember", elem)}
	return b.predicate(b.factory.Invoke(coll.Lower(), "contains", args))
}

func (b *Builder) IsNotMember(elem any, coll Expression) *Predicate {
	return b.IsMember(elem, coll).Not()
}
