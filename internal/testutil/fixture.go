package testutil

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/require"

	"github.com/roach88/criteria/internal/compiler"
	"github.com/roach88/criteria/internal/metamodel"
)

// FixtureSchema is the CUE schema shared by builder, harness, and CLI tests.
const FixtureSchema = `
entity: Person: {
	kind: "mapped_superclass"
	id:   "id"
	attributes: {
		id:   "long"
		name: "string"
	}
}
entity: Employee: {
	extends: "Person"
	attributes: {
		salary:     "decimal"
		active:     "bool"
		hired:      "date"
		address:    "Address"
		department: "Department"
		projects:   {type: "Project", collection: "set"}
		phones:     {type: "string", collection: "map", key: "string"}
		nicknames:  {type: "string", collection: "list"}
	}
}
entity: Manager: {
	extends: "Employee"
	attributes: {
		bonus:   "decimal"
		reports: {type: "Employee", collection: "collection"}
	}
}
entity: Department: {
	id: "id"
	attributes: {
		id:       "long"
		name:     "string"
		budget:   "decimal"
		location: "Address"
	}
}
entity: Project: {
	id: "id"
	attributes: {
		id:    "long"
		title: "string"
		due:   "date"
	}
}
entity: Address: {
	kind: "embeddable"
	attributes: {
		street: "string"
		city:   "string"
		zip:    "string"
		geo:    "Geo"
	}
}
entity: Geo: {
	kind: "embeddable"
	attributes: {
		lat: "decimal"
		lng: "decimal"
	}
}
`

// FixtureModel compiles FixtureSchema into a metamodel.
func FixtureModel(t testing.TB) *metamodel.Model {
	t.Helper()

	v := cuecontext.New().CompileString(FixtureSchema)
	require.NoError(t, v.Err())

	specs, err := compiler.CompileSchema(v)
	require.NoError(t, err)
	require.Empty(t, compiler.Validate(specs))

	m, err := metamodel.FromSpecs(specs)
	require.NoError(t, err)
	return m
}
