package queryir

import (
	"testing"

	"github.com/roach88/criteria/internal/ir"
	"github.com/stretchr/testify/assert"
)

func TestPrimaryExpr_Kind(t *testing.T) {
	dotted := &PrimaryExpr{Tuples: []string{"e", "name"}}
	assert.Equal(t, KindDottedPath, dotted.Kind())
	assert.Equal(t, "e.name", dotted.ID())

	composite := &PrimaryExpr{
		Left:   &InvokeExpr{Method: "getBoss"},
		Tuples: []string{"name"},
	}
	assert.Equal(t, KindComposite, composite.Kind())
	assert.Equal(t, "name", composite.ID())
}

func TestKindOf_AllVariants(t *testing.T) {
	tests := []struct {
		expr Expr
		want Kind
	}{
		{&ClassExpr{Alias: "e"}, KindRootAlias},
		{&PrimaryExpr{Tuples: []string{"e"}}, KindDottedPath},
		{&PrimaryExpr{Left: &ClassExpr{}, Tuples: []string{"x"}}, KindComposite},
		{&DyadicExpr{Op: OpAdd}, KindDyadic},
		{&InvokeExpr{Method: "size"}, KindInvoke},
		{&LiteralExpr{Value: ir.IRInt(1)}, KindLiteral},
		{&ParameterExpr{Name: "p"}, KindParameter},
		{&VariableExpr{Name: "v"}, KindVariable},
		{&SubqueryExpr{Keyword: SubqueryAll}, KindSubquery},
		{&CaseExpr{}, KindCase},
		{&JoinExpr{}, KindJoin},
		{&OrderExpr{}, KindOrder},
		{nil, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.expr))
	}
}

func TestExpr_SealedInterface(t *testing.T) {
	var e Expr = &DyadicExpr{Op: OpEq}

	// Sealed interface - consumers can type switch exhaustively
	switch e.(type) {
	case *DyadicExpr:
		// Expected
	case *InvokeExpr, *PrimaryExpr, *ClassExpr:
		t.Fatal("unexpected type")
	}
}

func TestOperator_NameAndSymbol(t *testing.T) {
	assert.Equal(t, "GTEQ", OpGtEq.Name())
	assert.Equal(t, ">=", OpGtEq.String())
	assert.Equal(t, "<>", OpNotEq.String())
	assert.Equal(t, "INVALID", Operator(999).Name())
	assert.Equal(t, "?", Operator(-1).String())
}

func TestOperator_ParseRoundTrip(t *testing.T) {
	for op := OpAnd; op <= OpLike; op++ {
		parsed, err := ParseOperator(op.Name())
		assert.NoError(t, err)
		assert.Equal(t, op, parsed)
	}

	_, err := ParseOperator("INVALID")
	assert.Error(t, err)
	_, err = ParseOperator("XOR")
	assert.Error(t, err)
}

func TestOperator_IsUnary(t *testing.T) {
	assert.True(t, OpNot.IsUnary())
	assert.True(t, OpNeg.IsUnary())
	assert.True(t, OpDistinct.IsUnary())
	assert.False(t, OpAnd.IsUnary())
	assert.False(t, OpCast.IsUnary())
}

func TestDefaultFactory_PrimaryCopiesTuples(t *testing.T) {
	tuples := []string{"e", "address"}
	p := DefaultFactory{}.Primary(nil, tuples)

	tuples[1] = "mutated"
	assert.Equal(t, []string{"e", "address"}, p.Tuples)
}

func TestDefaultFactory_NilLiteralIsNull(t *testing.T) {
	lit := DefaultFactory{}.Literal(nil)
	assert.Equal(t, ir.IRNull{}, lit.Value)
}

func TestDefaultFactory_Pure(t *testing.T) {
	f := DefaultFactory{}
	a := f.Dyadic(OpEq, f.Primary(nil, []string{"e", "id"}), f.Literal(ir.IRInt(1)))
	b := f.Dyadic(OpEq, f.Primary(nil, []string{"e", "id"}), f.Literal(ir.IRInt(1)))

	assert.Equal(t, a, b, "same inputs yield structurally equal nodes")
	assert.NotSame(t, a, b)
}

func TestCompilation_EachClauseOrder(t *testing.T) {
	f := DefaultFactory{}
	sel := f.Primary(nil, []string{"e", "name"})
	join := f.Join(JoinInner, f.Primary(nil, []string{"e", "dept"}), "d", nil)
	filter := f.Dyadic(OpEq, f.Primary(nil, []string{"d", "name"}), f.Literal(ir.IRString("R&D")))
	group := f.Primary(nil, []string{"d", "id"})
	order := f.Order(sel, true, NullsLast)

	c := &Compilation{
		Type:      QuerySelect,
		Candidate: "Employee",
		Alias:     "e",
		Result:    []Expr{sel},
		From:      []*JoinExpr{join},
		Filter:    filter,
		Grouping:  []Expr{group},
		Ordering:  []*OrderExpr{order},
	}

	var seen []Expr
	c.Each(func(e Expr) { seen = append(seen, e) })
	assert.Equal(t, []Expr{sel, join, filter, group, order}, seen)
}
