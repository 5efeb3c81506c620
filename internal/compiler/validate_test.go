package compiler

import (
	"testing"

	"github.com/roach88/criteria/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSpecs() []ir.EntitySpec {
	return []ir.EntitySpec{
		{
			Name:        "Employee",
			Kind:        ir.KindEntity,
			IDAttribute: "id",
			Attributes: []ir.AttributeSpec{
				{Name: "id", Type: "long"},
				{Name: "address", Type: "Address"},
				{Name: "phones", Type: "string", Collection: ir.CollectionMap, KeyType: "string"},
			},
		},
		{
			Name:       "Address",
			Kind:       ir.KindEmbeddable,
			Attributes: []ir.AttributeSpec{{Name: "city", Type: "string"}},
		},
		{
			Name:        "Manager",
			Kind:        ir.KindEntity,
			Super:       "Employee",
			IDAttribute: "id",
		},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValid(t *testing.T) {
	assert.Empty(t, Validate(validSpecs()))
}

func TestValidateDuplicateEntity(t *testing.T) {
	specs := append(validSpecs(), ir.EntitySpec{Name: "Address", Kind: ir.KindEmbeddable})
	errs := Validate(specs)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateName, errs[0].Code)
	assert.Contains(t, errs[0].Error(), `duplicate entity name: "Address"`)
}

func TestValidateBadReferences(t *testing.T) {
	specs := validSpecs()
	specs[0].Attributes = append(specs[0].Attributes,
		ir.AttributeSpec{Name: "dept", Type: "Department"},
		ir.AttributeSpec{Name: "tags", Type: "string", Collection: "bag"},
		ir.AttributeSpec{Name: "scores", Type: "int", Collection: ir.CollectionMap},
		ir.AttributeSpec{Name: "id", Type: "long"},
	)
	specs[2].Super = "Person"

	errs := Validate(specs)
	assert.ElementsMatch(t,
		[]string{ErrUnknownType, ErrInvalidCollection, ErrMapKeyMissing, ErrDuplicateName, ErrUnknownSupertype, ErrUnknownIDAttribute},
		codes(errs))
}

func TestValidateInvalidKindAndNames(t *testing.T) {
	specs := []ir.EntitySpec{
		{Name: "string", Kind: ir.KindEntity},
		{Name: "9Lives", Kind: "record"},
	}

	errs := Validate(specs)
	assert.ElementsMatch(t, []string{ErrBasicNameClash, ErrEmptyName, ErrInvalidKind}, codes(errs))
}

func TestValidateInheritedID(t *testing.T) {
	specs := validSpecs()
	// Manager declares no attributes; id resolves through Employee.
	assert.Empty(t, Validate(specs))

	specs[2].IDAttribute = "bonus"
	errs := Validate(specs)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnknownIDAttribute, errs[0].Code)
}

func TestValidateInheritanceCycle(t *testing.T) {
	specs := []ir.EntitySpec{
		{Name: "A", Kind: ir.KindEntity, Super: "B", IDAttribute: "id"},
		{Name: "B", Kind: ir.KindEntity, Super: "A"},
	}

	errs := Validate(specs)
	assert.Contains(t, codes(errs), ErrInheritanceCycle)
	assert.Contains(t, codes(errs), ErrUnknownIDAttribute)
}
