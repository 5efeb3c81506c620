package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/criteria/internal/compiler"
)

func TestLoadSchemas(t *testing.T) {
	res, errs := LoadSchemas(schemaDir, LoadModeCollectAll)
	require.Empty(t, errs)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.FileCount)
	require.Len(t, res.Entities, 7)
	assert.Equal(t, "Person", res.Entities[0].Name)
	assert.True(t, res.CUEValue.Exists())
}

func TestLoadSchemas_FailFastStopsAtFirstError(t *testing.T) {
	dir := writeSchemaDir(t, `
entity: A: attributes: x: 1
entity: B: attributes: y: 2
`)

	_, errs := LoadSchemas(dir, LoadModeFailFast)
	assert.Len(t, errs, 1)

	_, errs = LoadSchemas(dir, LoadModeCollectAll)
	assert.Len(t, errs, 2)
}

func TestLoadSchemas_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "x.cue")
	require.NoError(t, os.WriteFile(file, []byte("package x\n"), 0644))

	res, errs := LoadSchemas(file, LoadModeCollectAll)
	assert.Nil(t, res)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "not a directory")
}

func TestLoadSchemas_NoEntities(t *testing.T) {
	_, errs := LoadSchemas(writeSchemaDir(t, "other: 1\n"), LoadModeCollectAll)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "no entities found in schema")
}

func TestLoadModel(t *testing.T) {
	m, res, err := LoadModel(schemaDir)
	require.NoError(t, err)
	require.NotNil(t, res)

	emp, err := m.Type("Employee")
	require.NoError(t, err)
	assert.Equal(t, "Person", emp.Super.Name)
}

func TestLoadModel_InvalidSchema(t *testing.T) {
	dir := writeSchemaDir(t, `
entity: A: attributes: b: "Missing"
`)

	_, _, err := LoadModel(dir)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, compiler.ErrUnknownType, le.Code)
	assert.Contains(t, le.Message, `"Missing"`)
}

func TestLoadErrorFormat(t *testing.T) {
	assert.Equal(t, "E005: gone", (&LoadError{Code: ErrCodeNotFound, Message: "gone"}).Error())
	assert.Equal(t, "E122: bad", (&LoadError{Code: ErrCodeCUE, Message: "bad", Pos: token.NoPos}).Error())
}

func TestConvertCompileError(t *testing.T) {
	le := convertCompileError(&compiler.CompileError{Field: "attributes.x", Message: "must be a type name"}, "entity.A")
	assert.Equal(t, ErrCodeAttribute, le.Code)
	assert.Equal(t, "entity.A: must be a type name", le.Message)

	le = convertCompileError(errors.New("boom"), "entity.B")
	assert.Equal(t, ErrCodeGeneric, le.Code)
	assert.Equal(t, "entity.B: boom", le.Message)
}
