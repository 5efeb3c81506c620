package compiler

import (
	"testing"

	"github.com/roach88/criteria/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInheritanceCyclesNone(t *testing.T) {
	assert.Empty(t, InheritanceCycles(validSpecs()))
}

func TestInheritanceCyclesSelfLoop(t *testing.T) {
	warnings := InheritanceCycles([]ir.EntitySpec{{Name: "A", Super: "A"}})
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"A", "A"}, warnings[0].Path)
	assert.Equal(t, "error", warnings[0].Level)
}

func TestInheritanceCyclesThreeNodes(t *testing.T) {
	warnings := InheritanceCycles([]ir.EntitySpec{
		{Name: "C", Super: "A"},
		{Name: "A", Super: "B"},
		{Name: "B", Super: "C"},
		{Name: "D", Super: "A"},
	})

	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"A", "B", "C", "A"}, warnings[0].Path)
	assert.Equal(t, "inheritance cycle: A → B → C → A", warnings[0].Message)
}

func TestEmbeddingCycles(t *testing.T) {
	specs := []ir.EntitySpec{
		{Name: "Range", Kind: ir.KindEmbeddable, Attributes: []ir.AttributeSpec{{Name: "lo", Type: "Bound"}}},
		{Name: "Bound", Kind: ir.KindEmbeddable, Attributes: []ir.AttributeSpec{{Name: "range", Type: "Range"}}},
		{Name: "Node", Kind: ir.KindEntity, Attributes: []ir.AttributeSpec{{Name: "parent", Type: "Node"}}},
		{Name: "Tree", Kind: ir.KindEmbeddable, Attributes: []ir.AttributeSpec{{Name: "children", Type: "Tree", Collection: ir.CollectionList}}},
	}

	warnings := EmbeddingCycles(specs)
	require.Len(t, warnings, 1, "entity self-references and collections are not embedding cycles")
	assert.Equal(t, []string{"Bound", "Range", "Bound"}, warnings[0].Path)
	assert.Equal(t, "warning", warnings[0].Level)
}
