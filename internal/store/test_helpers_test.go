package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/criteria/internal/queryir"
)

// createTestStore creates a new temporary store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testCompilation selects Employee rows whose name equals a parameter.
func testCompilation(candidate, param string) *queryir.Compilation {
	return &queryir.Compilation{
		Type:      queryir.QuerySelect,
		Candidate: candidate,
		Alias:     "this",
		Filter: &queryir.DyadicExpr{
			Op:    queryir.OpEq,
			Left:  &queryir.PrimaryExpr{Tuples: []string{"this", "name"}},
			Right: &queryir.ParameterExpr{Name: param},
		},
		Ordering: []*queryir.OrderExpr{{
			Expr: &queryir.PrimaryExpr{Tuples: []string{"this", "salary"}},
		}},
	}
}

// createTestEntry builds a catalog entry for testCompilation.
func createTestEntry(t *testing.T, session string, seq int64, candidate, param string) Entry {
	t.Helper()
	e, err := NewEntry(session, seq, testCompilation(candidate, param))
	if err != nil {
		t.Fatalf("NewEntry() failed: %v", err)
	}
	return e
}
