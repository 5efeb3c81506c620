// Package metamodel is the managed-type metamodel the criteria builder
// navigates: types, their attributes, and the basic/managed classification
// that decides whether navigation may continue past a path.
//
// A Model is built once from compiled ir.EntitySpec values and is read-only
// afterwards, so it may be shared between builder sessions.
package metamodel
