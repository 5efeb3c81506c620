// Package harness provides conformance testing for criteria lowering.
//
// A scenario compiles CUE schemas into a model, builds one query through
// the criteria builder, and asserts on the compiled expression tree, its
// rendered form, or the builder error. Every successful compilation is
// recorded in a catalog and read back before assertions run.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: select_join_filter
//	description: "What this scenario validates"
//	schemas:
//	  - ../schemas/company.cue
//	query:
//	  type: select            # select, tuple, update or delete
//	  from:
//	    - entity: Employee
//	      alias: e
//	      joins:
//	        - attribute: department
//	          alias: d
//	          type: left
//	  select:
//	    - expr: d.name
//	      as: dept
//	  where: 'e.salary > param("min") && d.location.city == "Oslo"'
//	  order_by:
//	    - expr: e.name
//	      desc: true
//	assertions:
//	  - type: rendered
//	    expect: "SELECT d.name AS dept FROM ..."
//
// Expressions are CEL source; see package celfilter for the supported
// subset.
//
// # Assertion Types
//
//   - rendered: the display form equals expect
//   - contains: the display form contains expect
//   - params: parameter names in order of first appearance
//   - well_formed: tree validation outcome
//   - node_count: number of nodes of one kind, subqueries included
//   - error: the build failed with code, and its message contains expect
//
// # Golden Snapshots
//
// RunWithGolden compares the canonical JSON snapshot of a result against
// testdata/golden/<name>.golden. Snapshots hold no content hashes, so
// they stay stable across IR encoding changes that do not alter the tree.
package harness
