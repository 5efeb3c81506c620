package metamodel

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/criteria/internal/ir"
)

var (
	// ErrNoSuchAttribute is returned when a type has no attribute of the
	// requested name.
	ErrNoSuchAttribute = errors.New("no such attribute")

	// ErrNoSuchType is returned when a model has no type of the requested name.
	ErrNoSuchType = errors.New("no such type")
)

// Kind classifies a Type.
type Kind int

const (
	Basic Kind = iota
	Entity
	Embeddable
	MappedSuperclass
)

func (k Kind) String() string {
	switch k {
	case Basic:
		return "basic"
	case Entity:
		return ir.KindEntity
	case Embeddable:
		return ir.KindEmbeddable
	case MappedSuperclass:
		return ir.KindMappedSuperclass
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Type is a basic or managed type.
type Type struct {
	Name  string
	Kind  Kind
	Super *Type

	attrs  []*Attribute
	byName map[string]*Attribute
	id     string
}

// IsBasic reports whether t is a leaf type. Navigation past a basic type
// is invalid.
func (t *Type) IsBasic() bool { return t.Kind == Basic }

// IDAttribute returns the identifier attribute, searching supertypes.
func (t *Type) IDAttribute() (*Attribute, bool) {
	for s := t; s != nil; s = s.Super {
		if s.id != "" {
			a, err := t.Attribute(s.id)
			return a, err == nil
		}
	}
	return nil, false
}

// Attribute returns the named attribute declared on t or a supertype.
func (t *Type) Attribute(name string) (*Attribute, error) {
	for s := t; s != nil; s = s.Super {
		if a, ok := s.byName[name]; ok {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrNoSuchAttribute, t.Name, name)
}

// Attributes returns the attributes of t, supertype attributes first.
func (t *Type) Attributes() []*Attribute {
	var chain []*Type
	for s := t; s != nil; s = s.Super {
		chain = append(chain, s)
	}
	var out []*Attribute
	for _, s := range slices.Backward(chain) {
		out = append(out, s.attrs...)
	}
	return out
}

// IsSubtypeOf reports whether t is other or extends it.
func (t *Type) IsSubtypeOf(other *Type) bool {
	for s := t; s != nil; s = s.Super {
		if s == other {
			return true
		}
	}
	return false
}

func (t *Type) String() string { return t.Name }

// CollectionKind is the shape of a plural attribute.
type CollectionKind string

// Collection kinds; CollectionNone marks a singular attribute.
const (
	CollectionNone CollectionKind = ir.CollectionNone
	CollectionBag  CollectionKind = ir.CollectionBag
	CollectionSet  CollectionKind = ir.CollectionSet
	CollectionList CollectionKind = ir.CollectionList
	CollectionMap  CollectionKind = ir.CollectionMap
)

// Attribute is one persistent attribute of a managed type.
type Attribute struct {
	Name       string
	Declaring  *Type
	Type       *Type // element type for plural attributes
	Collection CollectionKind
	Key        *Type // map attributes only
}

// IsCollection reports whether a is plural.
func (a *Attribute) IsCollection() bool { return a.Collection != CollectionNone }

// IsBindable reports whether a can be the model of a path. Map attributes
// are not: their keys and values cannot be projected.
func (a *Attribute) IsBindable() bool { return a.Collection != CollectionMap }

func (a *Attribute) String() string {
	return a.Declaring.Name + "." + a.Name
}

// Model is a registry of types.
type Model struct {
	types map[string]*Type
	order []string
}

// New returns a model containing only the basic types.
func New() *Model {
	m := &Model{types: make(map[string]*Type)}
	for _, name := range ir.BasicTypeNames() {
		m.types[name] = &Type{Name: name, Kind: Basic}
	}
	return m
}

// FromSpecs builds a model from compiled entity specs. Specs must have
// passed compiler.Validate; FromSpecs reports only the reference errors it
// cannot build past.
func FromSpecs(specs []ir.EntitySpec) (*Model, error) {
	m := New()

	for _, s := range specs {
		if _, dup := m.types[s.Name]; dup {
			return nil, fmt.Errorf("duplicate type %q", s.Name)
		}
		kind, err := parseKind(s.Kind)
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", s.Name, err)
		}
		m.types[s.Name] = &Type{
			Name:   s.Name,
			Kind:   kind,
			byName: make(map[string]*Attribute),
			id:     s.IDAttribute,
		}
		m.order = append(m.order, s.Name)
	}

	for _, s := range specs {
		t := m.types[s.Name]
		if s.Super != "" {
			super, err := m.Type(s.Super)
			if err != nil {
				return nil, fmt.Errorf("type %s extends: %w", s.Name, err)
			}
			if super.IsSubtypeOf(t) {
				return nil, fmt.Errorf("type %s: inheritance cycle through %s", s.Name, s.Super)
			}
			t.Super = super
		}
		for _, as := range s.Attributes {
			attr, err := m.buildAttribute(t, as)
			if err != nil {
				return nil, err
			}
			t.attrs = append(t.attrs, attr)
			t.byName[attr.Name] = attr
		}
	}
	return m, nil
}

func (m *Model) buildAttribute(t *Type, as ir.AttributeSpec) (*Attribute, error) {
	elem, err := m.Type(as.Type)
	if err != nil {
		return nil, fmt.Errorf("attribute %s.%s: %w", t.Name, as.Name, err)
	}
	attr := &Attribute{
		Name:       as.Name,
		Declaring:  t,
		Type:       elem,
		Collection: CollectionKind(as.Collection),
	}
	if as.KeyType != "" {
		if attr.Key, err = m.Type(as.KeyType); err != nil {
			return nil, fmt.Errorf("attribute %s.%s key: %w", t.Name, as.Name, err)
		}
	}
	return attr, nil
}

func parseKind(s string) (Kind, error) {
	switch s {
	case ir.KindEntity, "":
		return Entity, nil
	case ir.KindEmbeddable:
		return Embeddable, nil
	case ir.KindMappedSuperclass:
		return MappedSuperclass, nil
	default:
		return Basic, fmt.Errorf("invalid kind %q", s)
	}
}

// Type returns the named type.
func (m *Model) Type(name string) (*Type, error) {
	t, ok := m.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchType, name)
	}
	return t, nil
}

// Managed returns the managed types in declaration order.
func (m *Model) Managed() []*Type {
	out := make([]*Type, len(m.order))
	for i, name := range m.order {
		out[i] = m.types[name]
	}
	return out
}
