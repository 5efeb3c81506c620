package testutil

import (
	"maps"
	"sync"

	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/queryir"
)

// CountingFactory wraps a queryir.Factory and counts constructions per
// node kind. Lowering tests use it to observe recomputation.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type CountingFactory struct {
	inner queryir.Factory

	mu     sync.Mutex
	counts map[string]int
}

var _ queryir.Factory = (*CountingFactory)(nil)

// NewCountingFactory wraps inner. A nil inner wraps queryir.DefaultFactory.
func NewCountingFactory(inner queryir.Factory) *CountingFactory {
	if inner == nil {
		inner = queryir.DefaultFactory{}
	}
	return &CountingFactory{inner: inner, counts: make(map[string]int)}
}

func (f *CountingFactory) hit(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[method]++
}

// Calls returns how many times method ("Primary", "Dyadic", ...) was called.
func (f *CountingFactory) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[method]
}

// Total returns the number of nodes constructed.
func (f *CountingFactory) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.counts {
		n += c
	}
	return n
}

// Snapshot returns a copy of the counts.
func (f *CountingFactory) Snapshot() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.counts)
}

// Reset clears the counts.
func (f *CountingFactory) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.counts)
}

func (f *CountingFactory) Class(alias string) *queryir.ClassExpr {
	f.hit("Class")
	return f.inner.Class(alias)
}

func (f *CountingFactory) Primary(left queryir.Expr, tuples []string) *queryir.PrimaryExpr {
	f.hit("Primary")
	return f.inner.Primary(left, tuples)
}

func (f *CountingFactory) Dyadic(op queryir.Operator, left, right queryir.Expr) *queryir.DyadicExpr {
	f.hit("Dyadic")
	return f.inner.Dyadic(op, left, right)
}

func (f *CountingFactory) Invoke(left queryir.Expr, method string, args []queryir.Expr) *queryir.InvokeExpr {
	f.hit("Invoke")
	return f.inner.Invoke(left, method, args)
}

func (f *CountingFactory) Literal(v ir.IRValue) *queryir.LiteralExpr {
	f.hit("Literal")
	return f.inner.Literal(v)
}

func (f *CountingFactory) Parameter(name string, position int, typ string) *queryir.ParameterExpr {
	f.hit("Parameter")
	return f.inner.Parameter(name, position, typ)
}

func (f *CountingFactory) Variable(name string) *queryir.VariableExpr {
	f.hit("Variable")
	return f.inner.Variable(name)
}

func (f *CountingFactory) Subquery(keyword string, v *queryir.VariableExpr) *queryir.SubqueryExpr {
	f.hit("Subquery")
	return f.inner.Subquery(keyword, v)
}

func (f *CountingFactory) Case(whens []queryir.When, elseExpr queryir.Expr) *queryir.CaseExpr {
	f.hit("Case")
	return f.inner.Case(whens, elseExpr)
}

func (f *CountingFactory) Join(typ queryir.JoinType, path queryir.Expr, alias string, on queryir.Expr) *queryir.JoinExpr {
	f.hit("Join")
	return f.inner.Join(typ, path, alias, on)
}

func (f *CountingFactory) Order(e queryir.Expr, descending bool, nulls queryir.NullOrder) *queryir.OrderExpr {
	f.hit("Order")
	return f.inner.Order(e, descending, nulls)
}
