// Package criteria implements a typed criteria builder that lowers builder
// calls into queryir expression trees.
//
// A Builder is one construction session. It owns the metamodel used for
// attribute lookup, the node factory, and the counter that names anonymous
// parameters, subquery variables, and generated aliases. Builders are
// independent of each other; nothing is process-wide.
//
// # Paths
//
// Paths are chains of navigation steps rooted at a Root, a Join, a Treat,
// or a typed computed expression. Each step lowers at most once:
//
//	root "e", get "address", get "city"  ->  DOTTED_PATH [e address city]
//	upper(e.name), get "length"          ->  COMPOSITE parent=INVOKE [length]
//
// Chains of alias and attribute hops flatten into one dotted path. A step
// whose parent lowers to anything else keeps that parent as an explicit
// left operand.
//
// # Errors
//
// Navigation errors and unsupported operations are returned immediately
// from the call that caused them. Literal conversion errors are sticky:
// the first one is recorded on the Builder and reported by Query.Compile.
package criteria
