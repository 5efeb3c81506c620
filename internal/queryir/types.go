package queryir

import (
	"strings"

	"github.com/roach88/criteria/internal/ir"
)

// Expr is a node of the expression tree.
//
// This is a sealed interface: only pointer node types in this package
// implement it.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// Kind classifies a node for encoding and display.
type Kind string

// Node kinds. The first three are the path-shaped kinds produced by path
// lowering.
const (
	KindRootAlias  Kind = "ROOT_ALIAS"
	KindDottedPath Kind = "DOTTED_PATH"
	KindComposite  Kind = "COMPOSITE"
	KindDyadic     Kind = "DYADIC"
	KindInvoke     Kind = "INVOKE"
	KindLiteral    Kind = "LITERAL"
	KindParameter  Kind = "PARAMETER"
	KindVariable   Kind = "VARIABLE"
	KindSubquery   Kind = "SUBQUERY"
	KindCase       Kind = "CASE"
	KindJoin       Kind = "JOIN"
	KindOrder      Kind = "ORDER"
)

// KindOf returns the kind of e, or "" for nil.
func KindOf(e Expr) Kind {
	switch n := e.(type) {
	case *ClassExpr:
		return KindRootAlias
	case *PrimaryExpr:
		return n.Kind()
	case *DyadicExpr:
		return KindDyadic
	case *InvokeExpr:
		return KindInvoke
	case *LiteralExpr:
		return KindLiteral
	case *ParameterExpr:
		return KindParameter
	case *VariableExpr:
		return KindVariable
	case *SubqueryExpr:
		return KindSubquery
	case *CaseExpr:
		return KindCase
	case *JoinExpr:
		return KindJoin
	case *OrderExpr:
		return KindOrder
	default:
		return ""
	}
}

// ClassExpr is a root reference carrying its alias.
type ClassExpr struct {
	Alias string
}

func (*ClassExpr) exprNode() {}

// PrimaryExpr is a path node.
//
// With a nil Left it is a dotted path: Tuples holds the alias followed by
// attribute names. With a non-nil Left it is a composite: navigation of
// Tuples starting from the value of Left.
type PrimaryExpr struct {
	Left   Expr
	Tuples []string
}

func (*PrimaryExpr) exprNode() {}

// Kind reports KindDottedPath or KindComposite.
func (p *PrimaryExpr) Kind() Kind {
	if p.Left == nil {
		return KindDottedPath
	}
	return KindComposite
}

// ID joins the tuples with ".".
func (p *PrimaryExpr) ID() string {
	return strings.Join(p.Tuples, ".")
}

// DyadicExpr applies Op to Left and Right. Unary operators leave Right nil.
type DyadicExpr struct {
	Op    Operator
	Left  Expr
	Right Expr
}

func (*DyadicExpr) exprNode() {}

// InvokeExpr calls Method on Left with Args. A nil Left denotes a function
// (aggregates, CURRENT_DATE, NULLIF, COALESCE, SQL_function).
type InvokeExpr struct {
	Left   Expr
	Method string
	Args   []Expr
}

func (*InvokeExpr) exprNode() {}

// LiteralExpr is a constant value.
type LiteralExpr struct {
	Value ir.IRValue
}

func (*LiteralExpr) exprNode() {}

// ParameterExpr is a query parameter. Position is zero when the parameter
// is named; Type is the declared Go-side type name, if any.
type ParameterExpr struct {
	Name     string
	Position int
	Type     string
}

func (*ParameterExpr) exprNode() {}

// VariableExpr references a named variable, typically a subquery.
type VariableExpr struct {
	Name string
}

func (*VariableExpr) exprNode() {}

// Subquery keywords.
const (
	SubqueryAll    = "ALL"
	SubqueryAny    = "ANY"
	SubquerySome   = "SOME"
	SubqueryExists = "EXISTS"
)

// SubqueryExpr quantifies over the subquery bound to Right.
type SubqueryExpr struct {
	Keyword string
	Right   *VariableExpr
}

func (*SubqueryExpr) exprNode() {}

// When is one WHEN/THEN arm of a CaseExpr.
type When struct {
	Cond   Expr
	Result Expr
}

// CaseExpr is a searched CASE. Simple cases are lowered to searched cases
// comparing the operand with each WHEN value.
type CaseExpr struct {
	Whens []When
	Else  Expr
}

func (*CaseExpr) exprNode() {}

// JoinType is the kind of a from-clause join.
type JoinType string

// Join types. A cross join introduces an additional root: its Path is a
// single-tuple dotted path naming the entity.
const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinCross JoinType = "CROSS"
)

// JoinExpr declares a join: the navigated Path, bound to Alias, optionally
// restricted by On.
type JoinExpr struct {
	Type  JoinType
	Path  Expr
	Alias string
	On    Expr
}

func (*JoinExpr) exprNode() {}

// NullOrder is the null precedence of an ordering term.
type NullOrder string

// Null precedences. NullsNone leaves the choice to the compiler.
const (
	NullsNone  NullOrder = ""
	NullsFirst NullOrder = "FIRST"
	NullsLast  NullOrder = "LAST"
)

// OrderExpr is one ordering term.
type OrderExpr struct {
	Expr       Expr
	Descending bool
	Nulls      NullOrder
}

func (*OrderExpr) exprNode() {}
