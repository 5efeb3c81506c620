package criteria

import (
	"fmt"

	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/metamodel"
	"github.com/roach88/criteria/internal/queryir"
)

// Root is a query root: a managed type bound to an alias.
type Root struct {
	b       *Builder
	typ     *metamodel.Type
	alias   string
	joins   []*Join
	lowered cell[queryir.ClassExpr]
}

// Lower returns the root alias node.
func (r *Root) Lower() queryir.Expr {
	return r.lowered.get(func() *queryir.ClassExpr {
		return r.b.factory.Class(r.alias)
	})
}

func (r *Root) String() string { return r.alias }

// GetAlias returns the alias the root is bound to.
func (r *Root) GetAlias() string { return r.alias }

// Type returns the root's managed type.
func (r *Root) Type() *metamodel.Type { return r.typ }

// Get navigates attr from the root.
func (r *Root) Get(attr *metamodel.Attribute) (*Path, error) { return get(r, attr) }

// GetByName navigates the named attribute from the root.
func (r *Root) GetByName(name string) (*Path, error) { return getByName(r, name) }

// Join joins the named attribute with a generated alias.
func (r *Root) Join(name string, jt queryir.JoinType) (*Join, error) {
	return join(r, &r.joins, name, "", jt)
}

// JoinAs joins the named attribute bound to alias.
func (r *Root) JoinAs(name, alias string, jt queryir.JoinType) (*Join, error) {
	return join(r, &r.joins, name, alias, jt)
}

// Joins returns the joins declared directly on the root.
func (r *Root) Joins() []*Join { return r.joins }

func (r *Root) managedType() *metamodel.Type { return r.typ }
func (r *Root) builder() *Builder            { return r.b }

// Join is a joined attribute bound to its own alias. It lowers like a root;
// the navigated path appears only in the join declaration.
type Join struct {
	b       *Builder
	path    *Path
	alias   string
	typ     queryir.JoinType
	on      Expression
	joins   []*Join
	lowered cell[queryir.ClassExpr]
}

func join(from navigable, into *[]*Join, name, alias string, jt queryir.JoinType) (*Join, error) {
	p, err := getByName(from, name)
	if err != nil {
		return nil, err
	}
	if jt == "" {
		jt = queryir.JoinInner
	}
	if jt == queryir.JoinCross {
		return nil, &Error{Code: CodeInvalidQuery, Op: "Root.Join", Message: "cross joins are declared with Query.From"}
	}
	b := from.builder()
	if alias == "" {
		alias = b.counter.Name("alias")
	}
	j := &Join{b: b, path: p, alias: alias, typ: jt}
	*into = append(*into, j)
	return j, nil
}

func (j *Join) Lower() queryir.Expr {
	return j.lowered.get(func() *queryir.ClassExpr {
		return j.b.factory.Class(j.alias)
	})
}

func (j *Join) String() string { return j.alias }

// GetAlias returns the alias the join is bound to.
func (j *Join) GetAlias() string { return j.alias }

// JoinType returns the kind of join.
func (j *Join) JoinType() queryir.JoinType { return j.typ }

// Path returns the navigated path.
func (j *Join) Path() *Path { return j.path }

// On sets the join condition.
func (j *Join) On(cond Expression) *Join {
	j.on = cond
	return j
}

// Get navigates attr from the join.
func (j *Join) Get(attr *metamodel.Attribute) (*Path, error) { return get(j, attr) }

// GetByName navigates the named attribute from the join.
func (j *Join) GetByName(name string) (*Path, error) { return getByName(j, name) }

// Join joins a further attribute from this join.
func (j *Join) Join(name string, jt queryir.JoinType) (*Join, error) {
	return join(j, &j.joins, name, "", jt)
}

// JoinAs joins a further attribute from this join bound to alias.
func (j *Join) JoinAs(name, alias string, jt queryir.JoinType) (*Join, error) {
	return join(j, &j.joins, name, alias, jt)
}

func (j *Join) managedType() *metamodel.Type { return j.path.typ }
func (j *Join) builder() *Builder            { return j.b }

func (j *Join) declaration() *queryir.JoinExpr {
	var on queryir.Expr
	if j.on != nil {
		on = j.on.Lower()
	}
	return j.b.factory.Join(j.typ, j.path.Lower(), j.alias, on)
}

// Treat is a downcast of a path or root to a subtype.
type Treat struct {
	b       *Builder
	parent  navigable
	typ     *metamodel.Type
	lowered cell[queryir.DyadicExpr]
}

// Treat downcasts from to the managed subtype typeName. Navigation from
// the result yields composite paths over the cast.
func (b *Builder) Treat(from Expression, typeName string) (*Treat, error) {
	const op = "Builder.Treat"
	nav, ok := from.(navigable)
	if !ok {
		return nil, &Error{Code: CodeInvalidTreat, Op: op, Message: fmt.Sprintf("%s cannot be treated", from)}
	}
	if _, isJoin := from.(*Join); isJoin {
		return nil, unsupported("Builder.TreatJoin")
	}
	target, err := b.model.Type(typeName)
	if err != nil {
		return nil, &Error{Code: CodeInvalidTreat, Op: op, Message: err.Error(), Err: err}
	}
	base := nav.managedType()
	if base == nil || target.IsBasic() || !target.IsSubtypeOf(base) {
		return nil, &Error{
			Code:    CodeInvalidTreat,
			Op:      op,
			Message: fmt.Sprintf("%s is not a subtype of %s", target, base),
		}
	}
	return &Treat{b: b, parent: nav, typ: target}, nil
}

// TreatJoin downcasts a join. No join kind has a lowering.
func (b *Builder) TreatJoin(j *Join, typeName string) (*Join, error) {
	return nil, unsupported("Builder.TreatJoin")
}

func (t *Treat) Lower() queryir.Expr {
	return t.lowered.get(func() *queryir.DyadicExpr {
		f := t.b.factory
		return f.Dyadic(queryir.OpCast, t.parent.Lower(), f.Literal(ir.IRString(t.typ.Name)))
	})
}

func (t *Treat) String() string {
	return fmt.Sprintf("TREAT(%s AS %s)", t.parent, t.typ)
}

// Type returns the target subtype.
func (t *Treat) Type() *metamodel.Type { return t.typ }

// Get navigates attr from the treated value.
func (t *Treat) Get(attr *metamodel.Attribute) (*Path, error) { return get(t, attr) }

// GetByName navigates the named attribute from the treated value.
func (t *Treat) GetByName(name string) (*Path, error) { return getByName(t, name) }

func (t *Treat) managedType() *metamodel.Type { return t.typ }
func (t *Treat) builder() *Builder            { return t.b }
