// Package celfilter translates CEL filter expressions into criteria
// predicates.
//
// A filter names query roots by alias and navigates them with member
// selection:
//
//	e.salary > 1000 && e.department.name.startsWith("R")
//
// Translation goes through the builder, so navigation errors surface as
// *criteria.Error values exactly as they would for hand-built queries.
package celfilter

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/operators"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"

	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/metamodel"
)

// ErrTranslate is wrapped by every error for a construct with no criteria
// form.
var ErrTranslate = errors.New("untranslatable filter")

// Source is anything a filter may name by alias: roots and joins.
type Source interface {
	criteria.Expression
	GetByName(name string) (*criteria.Path, error)
}

// Translator parses CEL source against a fixed set of sources.
type Translator struct {
	b     *criteria.Builder
	roots map[string]Source
	env   *cel.Env
}

// New creates a Translator whose filters may reference roots by alias.
func New(b *criteria.Builder, roots map[string]Source) (*Translator, error) {
	names := make([]string, 0, len(roots))
	for name := range roots {
		names = append(names, name)
	}
	slices.Sort(names)

	opts := make([]cel.EnvOption, 0, len(names))
	for _, name := range names {
		opts = append(opts, cel.Variable(name, cel.DynType))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	return &Translator{b: b, roots: roots, env: env}, nil
}

// Translate is a convenience wrapper for New followed by Translate.
func Translate(b *criteria.Builder, roots map[string]Source, src string) (*criteria.Predicate, error) {
	t, err := New(b, roots)
	if err != nil {
		return nil, err
	}
	return t.Translate(src)
}

// Translate parses src and lowers it into a predicate. A non-predicate
// result, such as a bare boolean path, is wrapped in IsTrue.
func (t *Translator) Translate(src string) (*criteria.Predicate, error) {
	x, err := t.Expression(src)
	if err != nil {
		return nil, err
	}
	switch p := x.(type) {
	case *criteria.Predicate:
		return p, nil
	case *criteria.In:
		return p.Predicate(), nil
	}
	return t.b.IsTrue(x), nil
}

// Expression parses src into a criteria expression of any kind, for
// selections, groupings and orderings.
func (t *Translator) Expression(src string) (criteria.Expression, error) {
	parsed, issues := t.env.Parse(src)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("parse filter: %w", issues.Err())
	}
	pe, err := cel.AstToParsedExpr(parsed)
	if err != nil {
		return nil, fmt.Errorf("parse filter: %w", err)
	}

	x, err := t.expr(pe.GetExpr())
	if err != nil {
		return nil, err
	}
	if err := t.b.Err(); err != nil {
		return nil, err
	}
	return x, nil
}

func (t *Translator) expr(e *exprpb.Expr) (criteria.Expression, error) {
	switch e.GetExprKind().(type) {
	case *exprpb.Expr_IdentExpr:
		name := e.GetIdentExpr().GetName()
		root, ok := t.roots[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown root %q", ErrTranslate, name)
		}
		return root, nil

	case *exprpb.Expr_SelectExpr:
		sel := e.GetSelectExpr()
		if sel.GetTestOnly() {
			return nil, fmt.Errorf("%w: has(%s)", ErrTranslate, sel.GetField())
		}
		operand, err := t.expr(sel.GetOperand())
		if err != nil {
			return nil, err
		}
		nav, ok := operand.(Source)
		if !ok {
			return nil, fmt.Errorf("%w: cannot select %s from %s", ErrTranslate, sel.GetField(), operand)
		}
		return nav.GetByName(sel.GetField())

	case *exprpb.Expr_ConstExpr:
		v, err := constant(e.GetConstExpr())
		if err != nil {
			return nil, err
		}
		return t.b.Literal(v), nil

	case *exprpb.Expr_CallExpr:
		return t.call(e.GetCallExpr())

	case *exprpb.Expr_ListExpr:
		return nil, fmt.Errorf("%w: list literal outside of 'in'", ErrTranslate)

	default:
		return nil, fmt.Errorf("%w: %T", ErrTranslate, e.GetExprKind())
	}
}

func (t *Translator) call(c *exprpb.Expr_Call) (criteria.Expression, error) {
	fn := c.GetFunction()
	if c.GetTarget() != nil {
		return t.method(c)
	}

	if fn == operators.In || fn == operators.OldIn {
		return t.in(c.GetArgs())
	}
	if fn == "param" {
		return t.param(c.GetArgs())
	}

	args := make([]criteria.Expression, len(c.GetArgs()))
	for i, a := range c.GetArgs() {
		x, err := t.expr(a)
		if err != nil {
			return nil, err
		}
		args[i] = x
	}

	switch {
	case fn == operators.LogicalAnd && len(args) == 2:
		return t.b.And(args...), nil
	case fn == operators.LogicalOr && len(args) == 2:
		return t.b.Or(args...), nil
	case fn == operators.LogicalNot && len(args) == 1:
		return t.b.Not(args[0]), nil
	case fn == operators.Negate && len(args) == 1:
		return t.b.Neg(args[0]), nil
	case fn == operators.Conditional && len(args) == 3:
		return t.b.SelectCase().When(args[0], args[1]).Otherwise(args[2]), nil
	case fn == "size" && len(args) == 1:
		return t.size(args[0]), nil
	case len(args) == 1:
		if agg, ok := aggregates[fn]; ok {
			return agg(t.b, args[0]), nil
		}
	}

	if len(args) == 2 {
		x, y := args[0], args[1]
		switch fn {
		case operators.Equals:
			return t.b.Equal(x, y), nil
		case operators.NotEquals:
			return t.b.NotEqual(x, y), nil
		case operators.Less:
			return t.b.LessThan(x, y), nil
		case operators.LessEquals:
			return t.b.LessThanOrEqualTo(x, y), nil
		case operators.Greater:
			return t.b.GreaterThan(x, y), nil
		case operators.GreaterEquals:
			return t.b.GreaterThanOrEqualTo(x, y), nil
		case operators.Add:
			return t.b.Sum2(x, y), nil
		case operators.Subtract:
			return t.b.Diff(x, y), nil
		case operators.Multiply:
			return t.b.Prod(x, y), nil
		case operators.Divide:
			return t.b.Quot(x, y), nil
		case operators.Modulo:
			return t.b.Mod(x, y), nil
		}
	}
	return nil, fmt.Errorf("%w: function %s/%d", ErrTranslate, displayName(fn), len(args))
}

// method translates receiver-style calls.
func (t *Translator) method(c *exprpb.Expr_Call) (criteria.Expression, error) {
	fn := c.GetFunction()
	target, err := t.expr(c.GetTarget())
	if err != nil {
		return nil, err
	}

	switch fn {
	case "size", "lowerAscii", "upperAscii", "trim":
		if len(c.GetArgs()) != 0 {
			break
		}
		switch fn {
		case "size":
			return t.size(target), nil
		case "lowerAscii":
			return t.b.Lower(target), nil
		case "upperAscii":
			return t.b.Upper(target), nil
		default:
			return t.b.Trim(criteria.TrimBoth, target), nil
		}
	case "startsWith", "endsWith", "contains":
		if len(c.GetArgs()) != 1 {
			break
		}
		s, ok := stringConst(c.GetArgs()[0])
		if !ok {
			return nil, fmt.Errorf("%w: %s requires a string constant", ErrTranslate, fn)
		}
		lit := likeEscaper.Replace(s)
		var pattern string
		switch fn {
		case "startsWith":
			pattern = lit + "%"
		case "endsWith":
			pattern = "%" + lit
		default:
			pattern = "%" + lit + "%"
		}
		if lit != s {
			return t.b.Like(target, pattern, likeEscape), nil
		}
		return t.b.Like(target, pattern), nil
	}
	return nil, fmt.Errorf("%w: method %s/%d", ErrTranslate, fn, len(c.GetArgs()))
}

// likeEscape quotes the LIKE wildcards of a string matched literally.
const likeEscape = `\`

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// size is the length of a scalar string and the cardinality of anything
// else.
func (t *Translator) size(x criteria.Expression) criteria.Expression {
	if p, ok := x.(*criteria.Path); ok && p.Attribute() != nil && p.Attribute().IsCollection() {
		return t.b.Size(x)
	}
	if typed, ok := x.(interface{ Type() *metamodel.Type }); ok {
		if typ := typed.Type(); typ != nil && typ.IsBasic() && typ.Name == "string" {
			return t.b.Length(x)
		}
	}
	return t.b.Size(x)
}

// param declares a named parameter: param("name") or param("name", "type").
func (t *Translator) param(args []*exprpb.Expr) (criteria.Expression, error) {
	if len(args) == 0 || len(args) > 2 {
		return nil, fmt.Errorf("%w: function param/%d", ErrTranslate, len(args))
	}
	strs := make([]string, len(args))
	for i, a := range args {
		s, ok := stringConst(a)
		if !ok {
			return nil, fmt.Errorf("%w: param requires string constants", ErrTranslate)
		}
		strs[i] = s
	}
	typeName := ""
	if len(strs) == 2 {
		typeName = strs[1]
	}
	return t.b.NamedParameter(typeName, strs[0]), nil
}

// in handles both list membership and collection membership.
func (t *Translator) in(args []*exprpb.Expr) (criteria.Expression, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("%w: 'in' with %d operands", ErrTranslate, len(args))
	}
	elem, err := t.expr(args[0])
	if err != nil {
		return nil, err
	}

	if list := args[1].GetListExpr(); list != nil {
		values := make([]any, len(list.GetElements()))
		for i, el := range list.GetElements() {
			v, err := t.expr(el)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return t.b.In(elem, values...), nil
	}

	coll, err := t.expr(args[1])
	if err != nil {
		return nil, err
	}
	return t.b.IsMember(elem, coll), nil
}

var aggregates = map[string]func(*criteria.Builder, criteria.Expression) *criteria.Expr{
	"avg":           (*criteria.Builder).Avg,
	"count":         (*criteria.Builder).Count,
	"countDistinct": (*criteria.Builder).CountDistinct,
	"max":           (*criteria.Builder).Max,
	"min":           (*criteria.Builder).Min,
	"sum":           (*criteria.Builder).Sum,
}

func constant(c *exprpb.Constant) (any, error) {
	switch k := c.GetConstantKind().(type) {
	case *exprpb.Constant_NullValue:
		return nil, nil
	case *exprpb.Constant_BoolValue:
		return k.BoolValue, nil
	case *exprpb.Constant_Int64Value:
		return k.Int64Value, nil
	case *exprpb.Constant_Uint64Value:
		return k.Uint64Value, nil
	case *exprpb.Constant_DoubleValue:
		return k.DoubleValue, nil
	case *exprpb.Constant_StringValue:
		return k.StringValue, nil
	default:
		return nil, fmt.Errorf("%w: constant %T", ErrTranslate, k)
	}
}

func stringConst(e *exprpb.Expr) (string, bool) {
	k, ok := e.GetConstExpr().GetConstantKind().(*exprpb.Constant_StringValue)
	if !ok {
		return "", false
	}
	return k.StringValue, true
}

func displayName(fn string) string {
	if d, ok := operators.FindReverse(fn); ok {
		return d
	}
	return fn
}
