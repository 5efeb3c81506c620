package metamodel

import (
	"testing"

	"github.com/roach88/criteria/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func specs() []ir.EntitySpec {
	return []ir.EntitySpec{
		{
			Name:        "Employee",
			Kind:        ir.KindEntity,
			IDAttribute: "id",
			Attributes: []ir.AttributeSpec{
				{Name: "id", Type: "long"},
				{Name: "name", Type: "string"},
				{Name: "address", Type: "Address"},
				{Name: "phones", Type: "string", Collection: ir.CollectionMap, KeyType: "string"},
			},
		},
		{Name: "Address", Kind: ir.KindEmbeddable, Attributes: []ir.AttributeSpec{{Name: "city", Type: "string"}}},
		{Name: "Manager", Kind: ir.KindEntity, Super: "Employee", Attributes: []ir.AttributeSpec{{Name: "bonus", Type: "decimal"}}},
	}
}

func TestFromSpecs(t *testing.T) {
	m, err := FromSpecs(specs())
	require.NoError(t, err)

	emp, err := m.Type("Employee")
	require.NoError(t, err)
	assert.Equal(t, Entity, emp.Kind)
	assert.False(t, emp.IsBasic())

	addr, err := emp.Attribute("address")
	require.NoError(t, err)
	assert.Equal(t, Embeddable, addr.Type.Kind)
	assert.Equal(t, "Employee.address", addr.String())

	city, err := addr.Type.Attribute("city")
	require.NoError(t, err)
	assert.True(t, city.Type.IsBasic())

	assert.Equal(t, []string{"Employee", "Address", "Manager"}, names(m.Managed()))
}

func TestTypeInheritance(t *testing.T) {
	m, err := FromSpecs(specs())
	require.NoError(t, err)

	mgr, _ := m.Type("Manager")
	emp, _ := m.Type("Employee")

	assert.True(t, mgr.IsSubtypeOf(emp))
	assert.False(t, emp.IsSubtypeOf(mgr))

	name, err := mgr.Attribute("name")
	require.NoError(t, err)
	assert.Same(t, emp, name.Declaring)

	id, ok := mgr.IDAttribute()
	require.True(t, ok)
	assert.Equal(t, "id", id.Name)

	attrs := mgr.Attributes()
	require.Len(t, attrs, 5)
	assert.Equal(t, "id", attrs[0].Name)
	assert.Equal(t, "bonus", attrs[4].Name)
}

func TestAttributeNotFound(t *testing.T) {
	m, err := FromSpecs(specs())
	require.NoError(t, err)
	emp, _ := m.Type("Employee")

	_, err = emp.Attribute("salary")
	require.ErrorIs(t, err, ErrNoSuchAttribute)
	assert.Contains(t, err.Error(), "Employee.salary")

	_, err = m.Type("Dept")
	assert.ErrorIs(t, err, ErrNoSuchType)
}

func TestMapAttributeNotBindable(t *testing.T) {
	m, err := FromSpecs(specs())
	require.NoError(t, err)
	emp, _ := m.Type("Employee")

	phones, err := emp.Attribute("phones")
	require.NoError(t, err)
	assert.True(t, phones.IsCollection())
	assert.False(t, phones.IsBindable())
	assert.Equal(t, "string", phones.Key.Name)

	name, _ := emp.Attribute("name")
	assert.True(t, name.IsBindable())
	assert.False(t, name.IsCollection())
}

func TestFromSpecsErrors(t *testing.T) {
	_, err := FromSpecs([]ir.EntitySpec{{Name: "A", Attributes: []ir.AttributeSpec{{Name: "b", Type: "B"}}}})
	assert.ErrorIs(t, err, ErrNoSuchType)

	_, err = FromSpecs([]ir.EntitySpec{{Name: "A"}, {Name: "A"}})
	assert.ErrorContains(t, err, "duplicate type")

	_, err = FromSpecs([]ir.EntitySpec{{Name: "A", Super: "B"}, {Name: "B", Super: "A"}})
	assert.ErrorContains(t, err, "inheritance cycle")

	_, err = FromSpecs([]ir.EntitySpec{{Name: "A", Kind: "record"}})
	assert.ErrorContains(t, err, "invalid kind")

	_, err = FromSpecs([]ir.EntitySpec{{Name: "string"}})
	assert.ErrorContains(t, err, "duplicate type")
}

func TestNewHasBasicTypes(t *testing.T) {
	m := New()
	for _, name := range ir.BasicTypeNames() {
		typ, err := m.Type(name)
		require.NoError(t, err)
		assert.True(t, typ.IsBasic())
	}
	assert.Empty(t, m.Managed())
}

func names(ts []*Type) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return out
}
