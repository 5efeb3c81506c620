package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentIDDeterminism(t *testing.T) {
	v := IRObject{
		"kind":   IRString("DOTTED_PATH"),
		"tuples": IRArray{IRString("e"), IRString("name")},
	}

	id1, err := ContentID(DomainExpr, v)
	require.NoError(t, err)
	id2, err := ContentID(DomainExpr, v)
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "ContentID must be deterministic")
	assert.Len(t, id1, 64, "SHA-256 hex is 64 characters")
}

func TestContentIDDomainSeparation(t *testing.T) {
	v := IRArray{IRString("e")}

	assert.NotEqual(t,
		MustContentID(DomainExpr, v),
		MustContentID(DomainCompilation, v),
		"same payload under different domains must not collide")
}

func TestContentIDKeyOrderIndependent(t *testing.T) {
	a := IRObject{"x": IRInt(1), "y": IRInt(2)}
	b := IRObject{"y": IRInt(2), "x": IRInt(1)}
	assert.Equal(t, MustContentID(DomainExpr, a), MustContentID(DomainExpr, b))
}

func TestMustContentIDPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustContentID(DomainExpr, IRArray{IRValue(nil), floatHolder{}})
	})
}

// floatHolder is an IRValue the canonical encoder does not know.
type floatHolder struct{}

func (floatHolder) irValue() {}
