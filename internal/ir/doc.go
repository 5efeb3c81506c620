// Package ir provides the constrained value and schema types shared by the
// criteria builder, the expression tree, and the catalog.
//
// This package contains type definitions and their serialization only.
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Literal values are IRValue types only; binary floats are converted to
//     exact decimals (IRDecimal) at the boundary
//   - Canonical JSON (RFC 8785 key order, NFC strings) is the only encoding
//     used for content-addressed identity
//   - All JSON tags use snake_case
package ir
