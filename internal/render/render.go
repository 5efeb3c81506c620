// Package render produces the human-readable display form of expression
// trees and compilations. The output is for diagnostics, logs, and golden
// files; it is not a query language and is never executed.
package render

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/queryir"
)

// Renderer renders trees and records the parameters it meets.
type Renderer struct {
	// Params holds parameter names (":name" or "?N") in order of first
	// appearance.
	Params []string
}

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Expr renders a single expression.
func Expr(e queryir.Expr) string {
	return New().Expr(e)
}

// Compilation renders a whole compilation and returns the parameters it
// references, in order of first appearance.
func Compilation(c *queryir.Compilation) (string, []string, error) {
	if c == nil {
		return "", nil, fmt.Errorf("cannot render nil compilation")
	}
	r := New()
	text, err := r.Compilation(c)
	if err != nil {
		return "", nil, err
	}
	return text, r.Params, nil
}

// Compilation renders c, including its subqueries in name order.
func (r *Renderer) Compilation(c *queryir.Compilation) (string, error) {
	var sb strings.Builder

	switch c.Type {
	case queryir.QuerySelect, "":
		sb.WriteString("SELECT ")
		if c.Distinct {
			sb.WriteString("DISTINCT ")
		}
		if len(c.Result) == 0 {
			sb.WriteString(c.Alias)
		} else {
			parts := make([]string, len(c.Result))
			for i, e := range c.Result {
				parts[i] = r.Expr(e)
				if i < len(c.ResultAliases) && c.ResultAliases[i] != "" {
					parts[i] += " AS " + c.ResultAliases[i]
				}
			}
			sb.WriteString(strings.Join(parts, ", "))
		}
		sb.WriteString(" FROM ")
	case queryir.QueryUpdate:
		sb.WriteString("UPDATE ")
	case queryir.QueryDelete:
		sb.WriteString("DELETE FROM ")
	default:
		return "", fmt.Errorf("unsupported query type: %q", c.Type)
	}

	sb.WriteString(c.Candidate)
	if c.Alias != "" {
		sb.WriteString(" " + c.Alias)
	}
	for _, j := range c.From {
		sb.WriteString(" " + r.Expr(j))
	}

	if len(c.Updates) > 0 {
		parts := make([]string, len(c.Updates))
		for i, u := range c.Updates {
			parts[i] = r.Expr(u.Path) + " = " + r.Expr(u.Value)
		}
		sb.WriteString(" SET " + strings.Join(parts, ", "))
	}
	if c.Filter != nil {
		sb.WriteString(" WHERE " + r.Expr(c.Filter))
	}
	if len(c.Grouping) > 0 {
		sb.WriteString(" GROUP BY " + r.list(c.Grouping))
	}
	if c.Having != nil {
		sb.WriteString(" HAVING " + r.Expr(c.Having))
	}
	if len(c.Ordering) > 0 {
		parts := make([]string, len(c.Ordering))
		for i, o := range c.Ordering {
			parts[i] = r.Expr(o)
		}
		sb.WriteString(" ORDER BY " + strings.Join(parts, ", "))
	}

	names := make([]string, 0, len(c.Subqueries))
	for name := range c.Subqueries {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		sub, err := r.Compilation(c.Subqueries[name])
		if err != nil {
			return "", fmt.Errorf("subquery %s: %w", name, err)
		}
		fmt.Fprintf(&sb, " WITH %s = (%s)", name, sub)
	}

	return sb.String(), nil
}

// Expr renders e. Unknown nodes render as "?".
func (r *Renderer) Expr(e queryir.Expr) string {
	switch n := e.(type) {
	case nil:
		return "?"
	case *queryir.ClassExpr:
		return n.Alias
	case *queryir.PrimaryExpr:
		if n.Left != nil {
			return r.Expr(n.Left) + "." + n.ID()
		}
		return n.ID()
	case *queryir.DyadicExpr:
		return r.dyadic(n)
	case *queryir.InvokeExpr:
		call := n.Method + "(" + r.list(n.Args) + ")"
		if n.Left != nil {
			return r.Expr(n.Left) + "." + call
		}
		return call
	case *queryir.LiteralExpr:
		return Literal(n.Value)
	case *queryir.ParameterExpr:
		name := ":" + n.Name
		if n.Name == "" {
			name = fmt.Sprintf("?%d", n.Position)
		}
		if !slices.Contains(r.Params, name) {
			r.Params = append(r.Params, name)
		}
		return name
	case *queryir.VariableExpr:
		return n.Name
	case *queryir.SubqueryExpr:
		v := "?"
		if n.Right != nil {
			v = n.Right.Name
		}
		return n.Keyword + "(" + v + ")"
	case *queryir.CaseExpr:
		var sb strings.Builder
		sb.WriteString("CASE")
		for _, w := range n.Whens {
			sb.WriteString(" WHEN " + r.Expr(w.Cond) + " THEN " + r.Expr(w.Result))
		}
		if n.Else != nil {
			sb.WriteString(" ELSE " + r.Expr(n.Else))
		}
		sb.WriteString(" END")
		return sb.String()
	case *queryir.JoinExpr:
		s := fmt.Sprintf("%s JOIN %s %s", n.Type, r.Expr(n.Path), n.Alias)
		if n.On != nil {
			s += " ON " + r.Expr(n.On)
		}
		return s
	case *queryir.OrderExpr:
		s := r.Expr(n.Expr) + " ASC"
		if n.Descending {
			s = r.Expr(n.Expr) + " DESC"
		}
		if n.Nulls != queryir.NullsNone {
			s += " NULLS " + string(n.Nulls)
		}
		return s
	default:
		return "?"
	}
}

func (r *Renderer) dyadic(n *queryir.DyadicExpr) string {
	switch n.Op {
	case queryir.OpNot:
		return "NOT " + r.Expr(n.Left)
	case queryir.OpNeg:
		return "-" + r.Expr(n.Left)
	case queryir.OpDistinct:
		return "DISTINCT " + r.Expr(n.Left)
	case queryir.OpCast:
		typ := r.Expr(n.Right)
		if lit, ok := n.Right.(*queryir.LiteralExpr); ok {
			if s, ok := lit.Value.(ir.IRString); ok {
				typ = string(s)
			}
		}
		return "CAST(" + r.Expr(n.Left) + " AS " + typ + ")"
	}
	return "(" + r.Expr(n.Left) + " " + n.Op.String() + " " + r.Expr(n.Right) + ")"
}

func (r *Renderer) list(es []queryir.Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = r.Expr(e)
	}
	return strings.Join(parts, ", ")
}

// Literal renders a literal value. Strings are single-quoted with embedded
// quotes doubled.
func Literal(v ir.IRValue) string {
	switch val := v.(type) {
	case nil, ir.IRNull:
		return "null"
	case ir.IRString:
		return "'" + strings.ReplaceAll(string(val), "'", "''") + "'"
	case ir.IRInt:
		return fmt.Sprintf("%d", int64(val))
	case ir.IRBool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case ir.IRDecimal:
		return val.String()
	case ir.IRArray:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = Literal(elem)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case ir.IRObject:
		data, err := ir.MarshalCanonical(val)
		if err != nil {
			return "?"
		}
		return string(data)
	default:
		return "?"
	}
}
