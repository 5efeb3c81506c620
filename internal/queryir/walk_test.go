package queryir

import (
	"testing"

	"github.com/roach88/criteria/internal/ir"
	"github.com/stretchr/testify/assert"
)

func TestInspect_DepthFirstOrder(t *testing.T) {
	f := DefaultFactory{}
	path := f.Primary(nil, []string{"e", "salary"})
	lit := f.Literal(ir.IRInt(10))
	sum := f.Dyadic(OpAdd, path, lit)
	call := f.Invoke(sum, "abs", nil)
	composite := f.Primary(call, []string{"scale"})
	order := f.Order(composite, false, NullsNone)

	var kinds []Kind
	Inspect(order, func(e Expr) bool {
		if e != nil {
			kinds = append(kinds, KindOf(e))
		}
		return true
	})

	assert.Equal(t, []Kind{KindOrder, KindComposite, KindInvoke, KindDyadic, KindDottedPath, KindLiteral}, kinds)
}

func TestInspect_SkipChildren(t *testing.T) {
	f := DefaultFactory{}
	inner := f.Dyadic(OpEq, f.Primary(nil, []string{"e", "a"}), f.Literal(ir.IRInt(1)))
	outer := f.Dyadic(OpNot, inner, nil)

	count := 0
	Inspect(outer, func(e Expr) bool {
		if e == nil {
			return false
		}
		count++
		return e == Expr(outer)
	})

	assert.Equal(t, 2, count, "children of the inner node are skipped")
}

func TestWalk_CaseAndSubquery(t *testing.T) {
	f := DefaultFactory{}
	c := f.Case([]When{
		{Cond: f.Subquery(SubqueryExists, f.Variable("SUB1")), Result: f.Literal(ir.IRString("yes"))},
	}, f.Literal(ir.IRString("no")))

	var kinds []Kind
	Inspect(c, func(e Expr) bool {
		if e != nil {
			kinds = append(kinds, KindOf(e))
		}
		return true
	})

	assert.Equal(t, []Kind{KindCase, KindSubquery, KindVariable, KindLiteral, KindLiteral}, kinds)
}

func TestWalk_Nil(t *testing.T) {
	called := false
	Inspect(nil, func(Expr) bool {
		called = true
		return true
	})
	assert.False(t, called)
}
