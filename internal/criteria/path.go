package criteria

import (
	"fmt"

	"github.com/roach88/criteria/internal/metamodel"
	"github.com/roach88/criteria/internal/queryir"
)

// navigable is anything a path step can start from.
type navigable interface {
	Expression
	managedType() *metamodel.Type
	builder() *Builder
}

// Path is one navigation step.
type Path struct {
	ops
	parent    navigable
	attr      *metamodel.Attribute
	rootAlias string
	typ       *metamodel.Type
	lowered   cell[queryir.PrimaryExpr]
}

// NewPath creates a parent-less path. It contributes the attribute name
// when attr is set, otherwise alias.
func (b *Builder) NewPath(attr *metamodel.Attribute, alias string) (*Path, error) {
	if attr == nil && alias == "" {
		return nil, &Error{
			Code:    CodeDegeneratePath,
			Op:      "Builder.NewPath",
			Message: "root path needs an attribute or an alias",
		}
	}
	return newPath(b, nil, attr, alias), nil
}

func newPath(b *Builder, parent navigable, attr *metamodel.Attribute, alias string) *Path {
	p := &Path{parent: parent, attr: attr, rootAlias: alias}
	if attr != nil {
		p.typ = attr.Type
	}
	p.ops = ops{b: b, self: p}
	return p
}

// get navigates attr from a parent. Nothing is built on error.
func get(from navigable, attr *metamodel.Attribute) (*Path, error) {
	const op = "Path.Get"
	typ := from.managedType()
	if attr == nil {
		return nil, &Error{Code: CodeNoSuchAttribute, Op: op, Message: "nil attribute"}
	}
	if err := checkNavigable(op, typ, attr.Name); err != nil {
		return nil, err
	}
	if !typ.IsSubtypeOf(attr.Declaring) {
		return nil, &Error{
			Code:    CodeNoSuchAttribute,
			Op:      op,
			Message: fmt.Sprintf("%s is not an attribute of %s", attr, typ),
			Err:     metamodel.ErrNoSuchAttribute,
		}
	}
	return newPath(from.builder(), from, attr, ""), nil
}

// getByName resolves name on the parent's type and navigates it.
func getByName(from navigable, name string) (*Path, error) {
	const op = "Path.GetByName"
	typ := from.managedType()
	if err := checkNavigable(op, typ, name); err != nil {
		return nil, err
	}
	attr, err := typ.Attribute(name)
	if err != nil {
		return nil, &Error{Code: CodeNoSuchAttribute, Op: op, Message: err.Error(), Err: err}
	}
	return newPath(from.builder(), from, attr, ""), nil
}

// checkNavigable builds its messages from types only: rendering from
// would lower it.
func checkNavigable(op string, typ *metamodel.Type, name string) error {
	if typ == nil {
		return &Error{
			Code:    CodeNoSuchAttribute,
			Op:      op,
			Message: fmt.Sprintf("untyped expression cannot navigate to %s", name),
			Err:     metamodel.ErrNoSuchAttribute,
		}
	}
	if typ.IsBasic() {
		return &Error{
			Code:    CodeInvalidNavigation,
			Op:      op,
			Message: fmt.Sprintf("%s is basic and cannot navigate to %s", typ, name),
		}
	}
	return nil
}

// Lower returns the path node, computing it on first use.
func (p *Path) Lower() queryir.Expr {
	return p.lowerPath()
}

func (p *Path) lowerPath() *queryir.PrimaryExpr {
	return p.lowered.get(p.compute)
}

// compute builds the node for p:
//   - no parent: a dotted path of p's own contribution
//   - parent lowers to a root alias: [alias, own]
//   - parent lowers to a dotted path: parent tuples + own
//   - anything else: a composite over the parent node with [own]
func (p *Path) compute() *queryir.PrimaryExpr {
	f := p.b.factory
	var tuples []string
	var left queryir.Expr

	if p.parent != nil {
		switch pe := p.parent.Lower().(type) {
		case *queryir.ClassExpr:
			tuples = append(tuples, pe.Alias)
		case *queryir.PrimaryExpr:
			if pe.Left == nil {
				tuples = append(tuples, pe.Tuples...)
			} else {
				left = pe
			}
		default:
			left = pe
		}
	}
	if own := p.contribution(); own != "" {
		tuples = append(tuples, own)
	}
	if tuples == nil {
		tuples = []string{}
	}

	node := f.Primary(left, tuples)
	p.b.logger.Debug("path lowered",
		"session", p.b.sessionID,
		"kind", node.Kind(),
		"tuples", node.Tuples,
	)
	return node
}

func (p *Path) contribution() string {
	if p.attr != nil {
		return p.attr.Name
	}
	return p.rootAlias
}

// String renders the path. A composite renders its parent followed by its
// own tuples.
func (p *Path) String() string {
	node := p.lowerPath()
	if node.Left != nil && p.parent != nil {
		return p.parent.String() + "." + node.ID()
	}
	return node.ID()
}

// Get navigates attr from p.
func (p *Path) Get(attr *metamodel.Attribute) (*Path, error) {
	return get(p, attr)
}

// GetByName navigates the named attribute from p. It fails with an
// invalid-navigation error when p is of a basic type.
func (p *Path) GetByName(name string) (*Path, error) {
	return getByName(p, name)
}

// Type returns the type p resolves to: the element type for plural
// attributes and the value type for map attributes.
func (p *Path) Type() *metamodel.Type { return p.typ }

// Attribute returns the navigated attribute, or nil for a root path.
func (p *Path) Attribute() *metamodel.Attribute { return p.attr }

// Model returns the attribute p is bound to.
func (p *Path) Model() (*metamodel.Attribute, error) {
	if p.attr == nil || !p.attr.IsBindable() {
		return nil, &Error{
			Code:    CodeNotBindable,
			Op:      "Path.Model",
			Message: fmt.Sprintf("%s is not bound to a bindable attribute", p),
		}
	}
	return p.attr, nil
}

// ParentPath returns the step p was navigated from, or nil.
func (p *Path) ParentPath() Expression {
	if p.parent == nil {
		return nil
	}
	return p.parent
}

// TypeExpr returns the entity-type expression of p.
func (p *Path) TypeExpr() *Expr {
	return p.b.invoke(nil, "TYPE", p.Lower())
}

func (p *Path) managedType() *metamodel.Type { return p.typ }
func (p *Path) builder() *Builder            { return p.b }
