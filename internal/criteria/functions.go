package criteria

import (
	"reflect"

	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/queryir"
)

// Aggregates lower to static invocations. The *Distinct forms wrap their
// argument in a DISTINCT node.

func (b *Builder) aggregate(method string, x Expression, distinct bool) *Expr {
	arg := x.Lower()
	if distinct {
		arg = b.factory.Dyadic(queryir.OpDistinct, arg, nil)
	}
	return b.invoke(nil, method, arg)
}

func (b *Builder) Avg(x Expression) *Expr         { return b.aggregate("avg", x, false) }
func (b *Builder) AvgDistinct(x Expression) *Expr { return b.aggregate("avg", x, true) }
func (b *Builder) Sum(x Expression) *Expr         { return b.aggregate("sum", x, false) }
func (b *Builder) SumDistinct(x Expression) *Expr { return b.aggregate("sum", x, true) }
func (b *Builder) SumAsLong(x Expression) *Expr   { return b.aggregate("sum", x, false) }
func (b *Builder) SumAsDouble(x Expression) *Expr { return b.aggregate("sum", x, false) }
func (b *Builder) Max(x Expression) *Expr         { return b.aggregate("max", x, false) }
func (b *Builder) MaxDistinct(x Expression) *Expr { return b.aggregate("max", x, true) }
func (b *Builder) Min(x Expression) *Expr         { return b.aggregate("min", x, false) }
func (b *Builder) MinDistinct(x Expression) *Expr { return b.aggregate("min", x, true) }
func (b *Builder) Greatest(x Expression) *Expr    { return b.aggregate("max", x, false) }
func (b *Builder) Least(x Expression) *Expr       { return b.aggregate("min", x, false) }

func (b *Builder) Count(x Expression) *Expr         { return b.aggregate("count", x, false) }
func (b *Builder) CountDistinct(x Expression) *Expr { return b.aggregate("count", x, true) }

// Abs lowers to an avg invocation; downstream compilers key on that name.
func (b *Builder) Abs(x Expression) *Expr { return b.aggregate("avg", x, false) }

// Sqrt lowers to a static sqrt invocation.
func (b *Builder) Sqrt(x Expression) *Expr { return b.aggregate("sqrt", x, false) }

// Arithmetic. Either operand may be an Expression or a literal value.

func (b *Builder) arith(name string, op queryir.Operator, x, y any) *Expr {
	return b.dyadic(op, b.operand(name, x), b.operand(name, y))
}

// Sum2 is binary addition.
func (b *Builder) Sum2(x, y any) *Expr { return b.arith("Builder.Sum2", queryir.OpAdd, x, y) }
func (b *Builder) Diff(x, y any) *Expr { return b.arith("Builder.Diff", queryir.OpSub, x, y) }
func (b *Builder) Prod(x, y any) *Expr { return b.arith("Builder.Prod", queryir.OpMul, x, y) }
func (b *Builder) Quot(x, y any) *Expr { return b.arith("Builder.Quot", queryir.OpDiv, x, y) }
func (b *Builder) Mod(x, y any) *Expr  { return b.arith("Builder.Mod", queryir.OpMod, x, y) }

// Neg negates x.
func (b *Builder) Neg(x Expression) *Expr {
	return b.dyadic(queryir.OpNeg, x.Lower(), nil)
}

func (b *Builder) method(x Expression, name string) *Expr {
	return b.invoke(x.Lower(), name)
}

func (b *Builder) Sign(x Expression) *Expr    { return b.method(x, "sign") }
func (b *Builder) Ceiling(x Expression) *Expr { return b.method(x, "ceil") }
func (b *Builder) Floor(x Expression) *Expr   { return b.method(x, "floor") }
func (b *Builder) Exp(x Expression) *Expr     { return b.method(x, "exp") }
func (b *Builder) Ln(x Expression) *Expr      { return b.method(x, "ln") }
func (b *Builder) Log(x Expression) *Expr     { return b.method(x, "log") }
func (b *Builder) Cos(x Expression) *Expr     { return b.method(x, "cos") }
func (b *Builder) Sin(x Expression) *Expr     { return b.method(x, "sin") }
func (b *Builder) Tan(x Expression) *Expr     { return b.method(x, "tan") }
func (b *Builder) Acos(x Expression) *Expr    { return b.method(x, "acos") }
func (b *Builder) Asin(x Expression) *Expr    { return b.method(x, "asin") }
func (b *Builder) Atan(x Expression) *Expr    { return b.method(x, "atan") }

// Power raises x to pow. A nil pow omits the argument list.
func (b *Builder) Power(x Expression, pow any) *Expr {
	if pow == nil {
		return b.invoke(x.Lower(), "power")
	}
	return b.invoke(x.Lower(), "power", b.operand("Builder.Power", pow))
}

// Round rounds x. A nil digits omits the argument list.
func (b *Builder) Round(x Expression, digits any) *Expr {
	if digits == nil {
		return b.invoke(x.Lower(), "round")
	}
	return b.invoke(x.Lower(), "round", b.operand("Builder.Round", digits))
}

// Casts.

func (b *Builder) ToLong(x Expression) *Expr       { return b.cast(x, "long") }
func (b *Builder) ToInteger(x Expression) *Expr    { return b.cast(x, "int") }
func (b *Builder) ToFloat(x Expression) *Expr      { return b.cast(x, "float") }
func (b *Builder) ToDouble(x Expression) *Expr     { return b.cast(x, "double") }
func (b *Builder) ToBigDecimal(x Expression) *Expr { return b.cast(x, "decimal") }
func (b *Builder) ToBigInteger(x Expression) *Expr { return b.cast(x, "biginteger") }
func (b *Builder) ToString(x Expression) *Expr     { return b.cast(x, "string") }

func (b *Builder) cast(x Expression, typeName string) *Expr {
	out := b.dyadic(queryir.OpCast, x.Lower(), b.factory.Literal(ir.IRString(typeName)))
	if t, err := b.model.Type(typeName); err == nil {
		out.typ = t
	}
	return out
}

// Strings.

// Concat lowers to addition of its operands.
func (b *Builder) Concat(x, y any) *Expr { return b.arith("Builder.Concat", queryir.OpAdd, x, y) }

// Substring takes a 1-based start and an optional length.
func (b *Builder) Substring(x Expression, from any, length ...any) *Expr {
	args := []queryir.Expr{b.operand("Builder.Substring", from)}
	args = append(args, b.operands("Builder.Substring", length)...)
	return b.invoke(x.Lower(), "substring", args...)
}

// Locate finds pattern in x, optionally from a start position.
func (b *Builder) Locate(x Expression, pattern any, from ...any) *Expr {
	args := []queryir.Expr{b.operand("Builder.Locate", pattern)}
	args = append(args, b.operands("Builder.Locate", from)...)
	return b.invoke(x.Lower(), "indexOf", args...)
}

// TrimSpec selects which ends Trim strips.
type TrimSpec int

const (
	TrimBoth TrimSpec = iota
	TrimLeading
	TrimTrailing
)

// Trim strips spaces, or the optional character, from x.
func (b *Builder) Trim(spec TrimSpec, x Expression, char ...any) *Expr {
	method := "trim"
	switch spec {
	case TrimLeading:
		method = "trimLeft"
	case TrimTrailing:
		method = "trimRight"
	}
	return b.invoke(x.Lower(), method, b.operands("Builder.Trim", char)...)
}

func (b *Builder) Lower(x Expression) *Expr  { return b.method(x, "toLowerCase") }
func (b *Builder) Upper(x Expression) *Expr  { return b.method(x, "toUpperCase") }
func (b *Builder) Length(x Expression) *Expr { return b.method(x, "length") }

// Temporal.

func (b *Builder) CurrentDate() *Expr      { return b.invoke(nil, "CURRENT_DATE") }
func (b *Builder) CurrentTime() *Expr      { return b.invoke(nil, "CURRENT_TIME") }
func (b *Builder) CurrentTimestamp() *Expr { return b.invoke(nil, "CURRENT_TIMESTAMP") }
func (b *Builder) LocalDate() *Expr        { return b.invoke(nil, "LOCAL_DATE") }
func (b *Builder) LocalDateTime() *Expr    { return b.invoke(nil, "LOCAL_DATETIME") }
func (b *Builder) LocalTime() *Expr        { return b.invoke(nil, "LOCAL_TIME") }

func (b *Builder) Year(x Expression) *Expr   { return b.method(x, "getYear") }
func (b *Builder) Month(x Expression) *Expr  { return b.method(x, "getMonth") }
func (b *Builder) Day(x Expression) *Expr    { return b.method(x, "getDay") }
func (b *Builder) Hour(x Expression) *Expr   { return b.method(x, "getHour") }
func (b *Builder) Minute(x Expression) *Expr { return b.method(x, "getMinute") }
func (b *Builder) Second(x Expression) *Expr { return b.method(x, "getSecond") }

// Collections.

// Size is the element count of a collection path.
func (b *Builder) Size(coll Expression) *Expr { return b.method(coll, "size") }

// SizeOf is the length of a Go slice, array, or map as a literal.
func (b *Builder) SizeOf(coll any) *Expr {
	rv := reflect.ValueOf(coll)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return b.expr(b.factory.Literal(ir.IRInt(rv.Len())))
	}
	b.fail(&Error{Code: CodeInvalidLiteral, Op: "Builder.SizeOf", Message: "not a collection: " + rv.Kind().String()})
	return b.expr(b.factory.Literal(ir.IRNull{}))
}

// Keys projects the keys of a map. Not supported.
func (b *Builder) Keys(m any) (*Expr, error) { return nil, unsupported("Builder.Keys") }

// Values projects the values of a map. Not supported.
func (b *Builder) Values(m any) (*Expr, error) { return nil, unsupported("Builder.Values") }

// Literals and parameters.

// Literal lowers v to a literal. Values with no literal form record a
// sticky error.
func (b *Builder) Literal(v any) *Expr {
	return b.expr(b.operand("Builder.Literal", v))
}

// NullLiteral is a typed null.
func (b *Builder) NullLiteral(typeName string) *Expr {
	e := b.expr(b.factory.Literal(ir.IRNull{}))
	if t, err := b.model.Type(typeName); err == nil {
		e.typ = t
	}
	return e
}

// Parameter is a query parameter.
type Parameter struct {
	ops
	name     string
	typeName string
	node     *queryir.ParameterExpr
}

// Parameter creates an anonymous parameter named from the session counter.
func (b *Builder) Parameter(typeName string) *Parameter {
	return b.NamedParameter(typeName, b.counter.Name(b.paramPrefix))
}

// NamedParameter creates a parameter with an explicit name.
func (b *Builder) NamedParameter(typeName, name string) *Parameter {
	p := &Parameter{name: name, typeName: typeName, node: b.factory.Parameter(name, 0, typeName)}
	p.ops = ops{b: b, self: p}
	return p
}

func (p *Parameter) Lower() queryir.Expr { return p.node }
func (p *Parameter) String() string      { return ":" + p.name }

// Name returns the parameter name.
func (p *Parameter) Name() string { return p.name }

// TypeName returns the declared parameter type.
func (p *Parameter) TypeName() string { return p.typeName }

// Function calls a database function by name.
func (b *Builder) Function(name, returnType string, args ...any) *Expr {
	all := append([]queryir.Expr{b.factory.Literal(ir.IRString(name))}, b.operands("Builder.Function", args)...)
	e := b.invoke(nil, "SQL_function", all...)
	if t, err := b.model.Type(returnType); err == nil {
		e.typ = t
	}
	return e
}

// NullIf returns null when x equals y, otherwise x.
func (b *Builder) NullIf(x Expression, y any) *Expr {
	return b.invoke(nil, "NULLIF", x.Lower(), b.operand("Builder.NullIf", y))
}
