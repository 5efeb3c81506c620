package criteria

import (
	"fmt"
	"slices"

	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/queryir"
	"github.com/roach88/criteria/internal/render"
)

// Query is a criteria query, update, or delete under construction.
type Query struct {
	b          *Builder
	typ        queryir.QueryType
	resultType string
	roots      []*Root
	selection  []Expression
	distinct   bool
	where      Expression
	groupBy    []Expression
	having     Expression
	orders     []*Order
	updates    []assignment
	subqueries []*Subquery
	parent     *Query
}

type assignment struct {
	path  Expression
	value queryir.Expr
}

// CreateQuery starts a SELECT whose results are resultType.
func (b *Builder) CreateQuery(resultType string) *Query {
	return &Query{b: b, typ: queryir.QuerySelect, resultType: resultType}
}

// CreateTupleQuery starts a SELECT of tuples.
func (b *Builder) CreateTupleQuery() *Query {
	return b.CreateQuery("Tuple")
}

// CreateCriteriaUpdate starts an UPDATE of entity and returns its root.
func (b *Builder) CreateCriteriaUpdate(entity string) (*Query, *Root, error) {
	q := &Query{b: b, typ: queryir.QueryUpdate, resultType: entity}
	r, err := q.From(entity)
	if err != nil {
		return nil, nil, err
	}
	return q, r, nil
}

// CreateCriteriaDelete starts a DELETE of entity and returns its root.
func (b *Builder) CreateCriteriaDelete(entity string) (*Query, *Root, error) {
	q := &Query{b: b, typ: queryir.QueryDelete, resultType: entity}
	r, err := q.From(entity)
	if err != nil {
		return nil, nil, err
	}
	return q, r, nil
}

// Type returns the statement kind.
func (q *Query) Type() queryir.QueryType { return q.typ }

// ResultType returns the declared result type name.
func (q *Query) ResultType() string { return q.resultType }

// From adds a root over the managed type entity. The first root of a
// top-level query is aliased "this"; other roots get generated aliases.
func (q *Query) From(entity string) (*Root, error) {
	alias := "this"
	if len(q.roots) > 0 || q.parent != nil {
		alias = q.b.counter.Name("alias")
	}
	return q.FromAs(entity, alias)
}

// FromAs adds a root over entity bound to alias.
func (q *Query) FromAs(entity, alias string) (*Root, error) {
	t, err := q.b.model.Type(entity)
	if err != nil {
		return nil, &Error{Code: CodeNoSuchAttribute, Op: "Query.From", Message: err.Error(), Err: err}
	}
	if t.IsBasic() {
		return nil, &Error{Code: CodeInvalidNavigation, Op: "Query.From", Message: fmt.Sprintf("%s is not a managed type", t)}
	}
	r := &Root{b: q.b, typ: t, alias: alias}
	q.roots = append(q.roots, r)
	return r, nil
}

// Roots returns the query roots in declaration order.
func (q *Query) Roots() []*Root { return q.roots }

// Select sets a single selection. A Tuple or Array expands to its items.
func (q *Query) Select(sel Expression) *Query {
	if c, ok := sel.(*Compound); ok && c.kind != compoundConstruct {
		q.selection = slices.Clone(c.items)
		return q
	}
	q.selection = []Expression{sel}
	return q
}

// Multiselect sets several selections.
func (q *Query) Multiselect(items ...Expression) *Query {
	q.selection = slices.Clone(items)
	return q
}

// Distinct toggles duplicate elimination.
func (q *Query) Distinct(distinct bool) *Query {
	q.distinct = distinct
	return q
}

// Where sets the filter. Several restrictions are combined with AND;
// none clears the filter.
func (q *Query) Where(restrictions ...Expression) *Query {
	q.where = q.combine(restrictions)
	return q
}

// GroupBy sets the grouping expressions.
func (q *Query) GroupBy(exprs ...Expression) *Query {
	q.groupBy = slices.Clone(exprs)
	return q
}

// Having sets the group filter.
func (q *Query) Having(restrictions ...Expression) *Query {
	q.having = q.combine(restrictions)
	return q
}

func (q *Query) combine(rs []Expression) Expression {
	switch len(rs) {
	case 0:
		return nil
	case 1:
		return rs[0]
	default:
		return q.b.And(rs...)
	}
}

// OrderBy sets the ordering.
func (q *Query) OrderBy(orders ...*Order) *Query {
	q.orders = slices.Clone(orders)
	return q
}

// Set adds an UPDATE assignment of value, an Expression or literal.
func (q *Query) Set(path Expression, value any) *Query {
	q.updates = append(q.updates, assignment{path: path, value: q.b.operand("Query.Set", value)})
	return q
}

// Restriction returns the filter, or nil.
func (q *Query) Restriction() Expression { return q.where }

// Subquery starts a subquery of q. Its variable is named from the session
// counter.
func (q *Query) Subquery(resultType string) *Subquery {
	s := &Subquery{
		Query: &Query{b: q.b, typ: queryir.QuerySelect, resultType: resultType, parent: q},
		name:  q.b.counter.Name("SUB"),
	}
	q.subqueries = append(q.subqueries, s)
	return s
}

// Compile lowers the query into a Compilation. It reports the first sticky
// builder error, if any.
func (q *Query) Compile() (*queryir.Compilation, error) {
	if err := q.b.Err(); err != nil {
		return nil, fmt.Errorf("compile %s query: %w", q.typ, err)
	}
	c, err := q.compile()
	if err != nil {
		return nil, err
	}
	q.b.logger.Debug("query compiled",
		"session", q.b.sessionID,
		"type", c.Type,
		"candidate", c.Candidate,
		"subqueries", len(c.Subqueries),
	)
	return c, nil
}

func (q *Query) compile() (*queryir.Compilation, error) {
	if len(q.roots) == 0 {
		return nil, &Error{Code: CodeInvalidQuery, Op: "Query.Compile", Message: "query has no root"}
	}
	switch q.typ {
	case queryir.QueryUpdate:
		if len(q.updates) == 0 {
			return nil, &Error{Code: CodeInvalidQuery, Op: "Query.Compile", Message: "update has no assignments"}
		}
	case queryir.QueryDelete:
		if len(q.selection) > 0 {
			return nil, &Error{Code: CodeInvalidQuery, Op: "Query.Compile", Message: "delete cannot select"}
		}
	}

	f := q.b.factory
	first := q.roots[0]
	c := &queryir.Compilation{
		Type:      q.typ,
		Candidate: first.typ.Name,
		Alias:     first.alias,
		Distinct:  q.distinct,
	}

	for i, r := range q.roots {
		if i > 0 {
			c.From = append(c.From, f.Join(queryir.JoinCross, f.Primary(nil, []string{r.typ.Name}), r.alias, nil))
		}
		c.From = appendJoins(c.From, r.joins)
	}

	var aliased bool
	for _, sel := range q.selection {
		c.Result = append(c.Result, sel.Lower())
		a := selectionAlias(sel)
		aliased = aliased || a != ""
		c.ResultAliases = append(c.ResultAliases, a)
	}
	if !aliased {
		c.ResultAliases = nil
	}

	if q.where != nil {
		c.Filter = q.where.Lower()
	}
	c.Grouping = lowerAll(q.groupBy)
	if q.having != nil {
		c.Having = q.having.Lower()
	}
	for _, o := range q.orders {
		c.Ordering = append(c.Ordering, o.lowerOrder())
	}
	for _, u := range q.updates {
		c.Updates = append(c.Updates, queryir.Update{Path: u.path.Lower(), Value: u.value})
	}

	if len(q.subqueries) > 0 {
		c.Subqueries = make(map[string]*queryir.Compilation, len(q.subqueries))
		for _, s := range q.subqueries {
			sub, err := s.Query.compile()
			if err != nil {
				return nil, fmt.Errorf("subquery %s: %w", s.name, err)
			}
			c.Subqueries[s.name] = sub
		}
	}
	return c, nil
}

func appendJoins(out []*queryir.JoinExpr, joins []*Join) []*queryir.JoinExpr {
	for _, j := range joins {
		out = append(out, j.declaration())
		out = appendJoins(out, j.joins)
	}
	return out
}

// Subquery is a nested query referenced through a variable.
type Subquery struct {
	*Query
	name  string
	alias string
}

// Name returns the subquery variable name.
func (s *Subquery) Name() string { return s.name }

// Parent returns the enclosing query.
func (s *Subquery) Parent() *Query { return s.parent }

// Lower returns the subquery variable.
func (s *Subquery) Lower() queryir.Expr { return s.b.factory.Variable(s.name) }

func (s *Subquery) String() string { return s.name }

// Alias names the subquery when it is a selection item.
func (s *Subquery) Alias(name string) { s.alias = name }

// GetAlias returns the selection alias, or "".
func (s *Subquery) GetAlias() string { return s.alias }

func (s *Subquery) selectionAlias() string { return s.alias }

// Correlate adds a root of the subquery that stands for parent's root r.
func (s *Subquery) Correlate(r *Root) *Root {
	cr := &Root{b: s.b, typ: r.typ, alias: r.alias}
	s.roots = append(s.roots, cr)
	return cr
}

func (b *Builder) quantified(keyword string, s *Subquery) queryir.Expr {
	return b.factory.Subquery(keyword, b.factory.Variable(s.name))
}

func (b *Builder) All(s *Subquery) *Expr  { return b.expr(b.quantified(queryir.SubqueryAll, s)) }
func (b *Builder) Any(s *Subquery) *Expr  { return b.expr(b.quantified(queryir.SubqueryAny, s)) }
func (b *Builder) Some(s *Subquery) *Expr { return b.expr(b.quantified(queryir.SubquerySome, s)) }

// Exists tests that s returns a row.
func (b *Builder) Exists(s *Subquery) *Predicate {
	return b.predicate(b.quantified(queryir.SubqueryExists, s))
}

// Order is one ordering term. Orders are immutable; the modifiers return
// new terms.
type Order struct {
	b          *Builder
	expr       Expression
	descending bool
	nulls      queryir.NullOrder
}

// Asc orders by x ascending.
func (b *Builder) Asc(x Expression) *Order { return &Order{b: b, expr: x} }

// Desc orders by x descending.
func (b *Builder) Desc(x Expression) *Order { return &Order{b: b, expr: x, descending: true} }

// Reverse flips the direction.
func (o *Order) Reverse() *Order {
	r := *o
	r.descending = !o.descending
	return &r
}

// NullsFirst sorts nulls before other values.
func (o *Order) NullsFirst() *Order {
	r := *o
	r.nulls = queryir.NullsFirst
	return &r
}

// NullsLast sorts nulls after other values.
func (o *Order) NullsLast() *Order {
	r := *o
	r.nulls = queryir.NullsLast
	return &r
}

func (o *Order) IsAscending() bool                 { return !o.descending }
func (o *Order) Expression() Expression            { return o.expr }
func (o *Order) NullPrecedence() queryir.NullOrder { return o.nulls }

func (o *Order) lowerOrder() *queryir.OrderExpr {
	return o.b.factory.Order(o.expr.Lower(), o.descending, o.nulls)
}

func (o *Order) String() string { return render.Expr(o.lowerOrder()) }

type compoundKind int

const (
	compoundTuple compoundKind = iota
	compoundArray
	compoundConstruct
)

// Compound is a multi-item selection.
type Compound struct {
	ops
	kind      compoundKind
	className string
	items     []Expression
}

// Tuple selects items as a tuple.
func (b *Builder) Tuple(items ...Expression) *Compound {
	return b.compound(compoundTuple, "", items)
}

// Array selects items as an array.
func (b *Builder) Array(items ...Expression) *Compound {
	return b.compound(compoundArray, "", items)
}

// Construct selects items as constructor arguments of className.
func (b *Builder) Construct(className string, items ...Expression) *Compound {
	return b.compound(compoundConstruct, className, items)
}

func (b *Builder) compound(kind compoundKind, className string, items []Expression) *Compound {
	c := &Compound{kind: kind, className: className, items: slices.Clone(items)}
	c.ops = ops{b: b, self: c}
	return c
}

// Items returns the selected items.
func (c *Compound) Items() []Expression { return slices.Clone(c.items) }

// Lower returns a constructor invocation. Tuples and arrays lower the same
// way when nested, with their kind as the class name.
func (c *Compound) Lower() queryir.Expr {
	name := c.className
	switch c.kind {
	case compoundTuple:
		name = "Tuple"
	case compoundArray:
		name = "Array"
	}
	args := append([]queryir.Expr{c.b.factory.Literal(ir.IRString(name))}, lowerAll(c.items)...)
	return c.b.factory.Invoke(nil, "new", args)
}

func (c *Compound) String() string { return render.Expr(c.Lower()) }
