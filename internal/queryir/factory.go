package queryir

import (
	"slices"

	"github.com/roach88/criteria/internal/ir"
)

// Factory constructs expression tree nodes. Implementations must be pure:
// the same inputs always yield structurally equal nodes.
type Factory interface {
	Class(alias string) *ClassExpr
	Primary(left Expr, tuples []string) *PrimaryExpr
	Dyadic(op Operator, left, right Expr) *DyadicExpr
	Invoke(left Expr, method string, args []Expr) *InvokeExpr
	Literal(v ir.IRValue) *LiteralExpr
	Parameter(name string, position int, typ string) *ParameterExpr
	Variable(name string) *VariableExpr
	Subquery(keyword string, v *VariableExpr) *SubqueryExpr
	Case(whens []When, elseExpr Expr) *CaseExpr
	Join(typ JoinType, path Expr, alias string, on Expr) *JoinExpr
	Order(e Expr, descending bool, nulls NullOrder) *OrderExpr
}

// DefaultFactory is the stateless Factory.
type DefaultFactory struct{}

var _ Factory = DefaultFactory{}

func (DefaultFactory) Class(alias string) *ClassExpr {
	return &ClassExpr{Alias: alias}
}

// Primary copies tuples so callers can keep appending to their slice.
func (DefaultFactory) Primary(left Expr, tuples []string) *PrimaryExpr {
	return &PrimaryExpr{Left: left, Tuples: slices.Clone(tuples)}
}

func (DefaultFactory) Dyadic(op Operator, left, right Expr) *DyadicExpr {
	return &DyadicExpr{Op: op, Left: left, Right: right}
}

func (DefaultFactory) Invoke(left Expr, method string, args []Expr) *InvokeExpr {
	return &InvokeExpr{Left: left, Method: method, Args: args}
}

func (DefaultFactory) Literal(v ir.IRValue) *LiteralExpr {
	if v == nil {
		v = ir.IRNull{}
	}
	return &LiteralExpr{Value: v}
}

func (DefaultFactory) Parameter(name string, position int, typ string) *ParameterExpr {
	return &ParameterExpr{Name: name, Position: position, Type: typ}
}

func (DefaultFactory) Variable(name string) *VariableExpr {
	return &VariableExpr{Name: name}
}

func (DefaultFactory) Subquery(keyword string, v *VariableExpr) *SubqueryExpr {
	return &SubqueryExpr{Keyword: keyword, Right: v}
}

func (DefaultFactory) Case(whens []When, elseExpr Expr) *CaseExpr {
	return &CaseExpr{Whens: slices.Clone(whens), Else: elseExpr}
}

func (DefaultFactory) Join(typ JoinType, path Expr, alias string, on Expr) *JoinExpr {
	return &JoinExpr{Type: typ, Path: path, Alias: alias, On: on}
}

func (DefaultFactory) Order(e Expr, descending bool, nulls NullOrder) *OrderExpr {
	return &OrderExpr{Expr: e, Descending: descending, Nulls: nulls}
}
