package compiler

import (
	"fmt"
	"regexp"

	"github.com/roach88/criteria/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrEmptyName          = "E101" // entity or attribute name missing or malformed
	ErrInvalidKind        = "E102" // unknown entity kind
	ErrDuplicateName      = "E103" // duplicate entity or attribute name
	ErrUnknownType        = "E104" // attribute type is neither basic nor declared
	ErrInvalidCollection  = "E105" // unknown collection shape
	ErrMapKeyMissing      = "E106" // map attribute without key type
	ErrUnknownSupertype   = "E107" // extends names an undeclared entity
	ErrUnknownIDAttribute = "E108" // id names an undeclared attribute
	ErrInheritanceCycle   = "E109" // extends chain loops
	ErrBasicNameClash     = "E110" // entity named like a basic type
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks entity specs for cross-reference consistency.
// Returns all errors found (does not fail-fast).
func Validate(specs []ir.EntitySpec) []ValidationError {
	var errs []ValidationError

	declared := make(map[string]*ir.EntitySpec, len(specs))
	for i := range specs {
		spec := &specs[i]
		field := fmt.Sprintf("entity[%d]", i)

		if !identPattern.MatchString(spec.Name) {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("invalid entity name %q", spec.Name),
				Code:    ErrEmptyName,
			})
		}
		if ir.IsBasicTypeName(spec.Name) {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("entity name %q is a basic type", spec.Name),
				Code:    ErrBasicNameClash,
			})
		}
		if declared[spec.Name] != nil {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate entity name: %q", spec.Name),
				Code:    ErrDuplicateName,
			})
		}
		declared[spec.Name] = spec

		if !ir.ValidEntityKinds[spec.Kind] {
			errs = append(errs, ValidationError{
				Field:   field + ".kind",
				Message: fmt.Sprintf("invalid kind %q, must be \"entity\", \"embeddable\", or \"mapped_superclass\"", spec.Kind),
				Code:    ErrInvalidKind,
			})
		}
	}

	for i := range specs {
		errs = append(errs, validateEntity(i, &specs[i], declared)...)
	}

	for _, cycle := range InheritanceCycles(specs) {
		errs = append(errs, ValidationError{
			Field:   "extends",
			Message: cycle.Message,
			Code:    ErrInheritanceCycle,
		})
	}

	return errs
}

func validateEntity(i int, spec *ir.EntitySpec, declared map[string]*ir.EntitySpec) []ValidationError {
	var errs []ValidationError
	field := fmt.Sprintf("entity[%d]", i)

	if spec.Super != "" && declared[spec.Super] == nil {
		errs = append(errs, ValidationError{
			Field:   field + ".extends",
			Message: fmt.Sprintf("%s extends undeclared entity %q", spec.Name, spec.Super),
			Code:    ErrUnknownSupertype,
		})
	}

	attrNames := make(map[string]bool)
	for j, attr := range spec.Attributes {
		af := fmt.Sprintf("%s.attributes[%d]", field, j)

		if !identPattern.MatchString(attr.Name) {
			errs = append(errs, ValidationError{
				Field:   af + ".name",
				Message: fmt.Sprintf("invalid attribute name %q", attr.Name),
				Code:    ErrEmptyName,
			})
		}
		if attrNames[attr.Name] {
			errs = append(errs, ValidationError{
				Field:   af + ".name",
				Message: fmt.Sprintf("duplicate attribute name: %q", attr.Name),
				Code:    ErrDuplicateName,
			})
		}
		attrNames[attr.Name] = true

		errs = append(errs, validateTypeRef(af+".type", attr.Name, attr.Type, declared)...)

		if !ir.ValidCollections[attr.Collection] {
			errs = append(errs, ValidationError{
				Field:   af + ".collection",
				Message: fmt.Sprintf("invalid collection %q for attribute %q", attr.Collection, attr.Name),
				Code:    ErrInvalidCollection,
			})
		}
		if attr.Collection == ir.CollectionMap {
			if attr.KeyType == "" {
				errs = append(errs, ValidationError{
					Field:   af + ".key",
					Message: fmt.Sprintf("map attribute %q requires a key type", attr.Name),
					Code:    ErrMapKeyMissing,
				})
			} else {
				errs = append(errs, validateTypeRef(af+".key", attr.Name, attr.KeyType, declared)...)
			}
		}
	}

	if spec.IDAttribute != "" && !hasAttribute(spec, spec.IDAttribute, declared) {
		errs = append(errs, ValidationError{
			Field:   field + ".id",
			Message: fmt.Sprintf("id attribute %q is not declared on %s", spec.IDAttribute, spec.Name),
			Code:    ErrUnknownIDAttribute,
		})
	}

	return errs
}

func validateTypeRef(field, attrName, typ string, declared map[string]*ir.EntitySpec) []ValidationError {
	if ir.IsBasicTypeName(typ) || declared[typ] != nil {
		return nil
	}
	return []ValidationError{{
		Field:   field,
		Message: fmt.Sprintf("unknown type %q for attribute %q", typ, attrName),
		Code:    ErrUnknownType,
	}}
}

// hasAttribute searches spec and its supertypes. The visited set stops on
// inheritance cycles, which are reported separately.
func hasAttribute(spec *ir.EntitySpec, name string, declared map[string]*ir.EntitySpec) bool {
	visited := make(map[string]bool)
	for s := spec; s != nil && !visited[s.Name]; s = declared[s.Super] {
		visited[s.Name] = true
		if _, ok := s.Attribute(name); ok {
			return true
		}
		if s.Super == "" {
			break
		}
	}
	return false
}
