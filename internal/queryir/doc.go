// Package queryir provides the expression tree consumed by the downstream
// query compiler.
//
// The criteria builder never produces query text. Every builder call is
// lowered to one node of this tree, and the tree (wrapped in a Compilation)
// is the whole contract with the compiler:
//
//	[criteria builder] → [queryir tree] → [downstream compiler]
//	                                    → [render] (diagnostics)
//	                                    → [store] (catalog)
//
// NODE VARIANTS:
//
// Path-shaped nodes:
//   - ClassExpr: a root alias (ROOT_ALIAS)
//   - PrimaryExpr with nil Left: a flattened alias chain (DOTTED_PATH)
//   - PrimaryExpr with non-nil Left: navigation from a computed
//     expression (COMPOSITE)
//
// Computed nodes:
//   - DyadicExpr: binary operator, or unary when Right is nil
//   - InvokeExpr: method or function call; Left is nil for functions
//   - LiteralExpr, ParameterExpr, VariableExpr
//   - SubqueryExpr: ALL/ANY/SOME/EXISTS over a subquery variable
//   - CaseExpr
//
// Clause nodes:
//   - JoinExpr: a from-clause join declaration
//   - OrderExpr: one ordering term
//
// SEALED INTERFACES:
//
// Expr is sealed with a marker method on pointer receivers. Only pointer
// nodes from this package implement it, so identity comparison of nodes is
// meaningful and consumers can switch exhaustively:
//
//	switch e := expr.(type) {
//	case *ClassExpr:
//	case *PrimaryExpr:
//	case *DyadicExpr:
//	...
//	}
//
// CONSTRUCTION:
//
// Nodes are built through a Factory. DefaultFactory is stateless; tests
// wrap it to count constructions. Constructors never fail and never
// validate: degenerate output (an empty tuple list, a binary operator with
// a nil operand) is reported by Validate, not rejected at build time.
//
// LITERALS:
//
// LiteralExpr carries an ir.IRValue. Binary floats never appear in the
// tree; they are converted to ir.IRDecimal before a node is built.
package queryir
