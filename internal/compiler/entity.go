package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/criteria/internal/ir"
)

// CompileSchema compiles every entry under the top-level "entity" field of
// a CUE value. Entities are returned in declaration order.
//
//	entity: Employee: {
//		id: "id"
//		attributes: {
//			id:       "long"
//			name:     "string"
//			address:  "Address"
//			projects: {type: "Project", collection: "set"}
//		}
//	}
func CompileSchema(v cue.Value) ([]ir.EntitySpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	entityVal := v.LookupPath(cue.ParsePath("entity"))
	if !entityVal.Exists() {
		return nil, nil
	}

	iter, err := entityVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []ir.EntitySpec
	for iter.Next() {
		spec, err := CompileEntity(iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, *spec)
	}
	return specs, nil
}

// CompileEntity parses one CUE entity struct into an EntitySpec.
// The entity name is the last path selector of v.
func CompileEntity(v cue.Value) (*ir.EntitySpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.EntitySpec{Kind: ir.KindEntity}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	var err error
	if spec.Kind, err = optionalString(v, "kind", ir.KindEntity); err != nil {
		return nil, err
	}
	if spec.Super, err = optionalString(v, "extends", ""); err != nil {
		return nil, err
	}
	if spec.IDAttribute, err = optionalString(v, "id", ""); err != nil {
		return nil, err
	}

	attrsVal := v.LookupPath(cue.ParsePath("attributes"))
	if !attrsVal.Exists() {
		return spec, nil
	}

	iter, err := attrsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		attr, err := parseAttribute(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		spec.Attributes = append(spec.Attributes, attr)
	}

	return spec, nil
}

// parseAttribute accepts either a bare type name or a struct with type,
// collection, and key fields.
func parseAttribute(name string, v cue.Value) (ir.AttributeSpec, error) {
	attr := ir.AttributeSpec{Name: name}

	if typ, err := v.String(); err == nil {
		attr.Type = typ
		return attr, nil
	}

	if v.IncompleteKind() != cue.StructKind {
		return attr, &CompileError{
			Field:   "attributes." + name,
			Message: fmt.Sprintf("must be a type name or struct, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return attr, &CompileError{
			Field:   "attributes." + name + ".type",
			Message: "type is required",
			Pos:     v.Pos(),
		}
	}
	typ, err := typeVal.String()
	if err != nil {
		return attr, formatCUEError(err)
	}
	attr.Type = typ

	if attr.Collection, err = optionalString(v, "collection", ""); err != nil {
		return attr, err
	}
	if attr.KeyType, err = optionalString(v, "key", ""); err != nil {
		return attr, err
	}
	return attr, nil
}

func optionalString(v cue.Value, field, def string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return def, nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
