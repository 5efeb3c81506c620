package store

import (
	"fmt"

	"github.com/roach88/criteria/internal/ir"
)

// marshalTree converts an encoded tree to canonical JSON TEXT for storage.
func marshalTree(tree ir.IRObject) (string, error) {
	data, err := ir.MarshalCanonical(tree)
	if err != nil {
		return "", fmt.Errorf("marshal tree: %w", err)
	}
	return string(data), nil
}

// unmarshalTree parses stored JSON TEXT back into an encoded tree.
// Integral numbers stay exact through ir.UnmarshalIRValue.
func unmarshalTree(data string) (ir.IRObject, error) {
	if data == "" || data == "{}" {
		return ir.IRObject{}, nil
	}
	v, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal tree: %w", err)
	}
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("unmarshal tree: expected object, got %s", ir.TypeName(v))
	}
	return obj, nil
}
