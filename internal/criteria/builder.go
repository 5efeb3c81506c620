package criteria

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/metamodel"
	"github.com/roach88/criteria/internal/queryir"
)

// Builder is one criteria construction session.
type Builder struct {
	model       *metamodel.Model
	factory     queryir.Factory
	logger      *slog.Logger
	paramPrefix string
	sessionID   string
	counter     *Counter

	mu  sync.Mutex
	err error
}

// New creates a builder over model.
//
// Options can be passed to configure the builder (e.g., WithFactory).
func New(model *metamodel.Model, opts ...Option) *Builder {
	if model == nil {
		model = metamodel.New()
	}
	b := &Builder{
		model:       model,
		factory:     queryir.DefaultFactory{},
		logger:      slog.Default(),
		paramPrefix: DefaultParamPrefix,
		counter:     NewCounter(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.sessionID == "" {
		b.sessionID = uuid.NewString()
	}
	return b
}

// Model returns the metamodel the builder navigates.
func (b *Builder) Model() *metamodel.Model { return b.model }

// Factory returns the node factory.
func (b *Builder) Factory() queryir.Factory { return b.factory }

// SessionID identifies this construction session.
func (b *Builder) SessionID() string { return b.sessionID }

// Counter returns the session counter.
func (b *Builder) Counter() *Counter { return b.counter }

// Err returns the first literal conversion error recorded by the session,
// or nil.
func (b *Builder) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func (b *Builder) fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err == nil {
		b.err = err
		b.logger.Debug("builder error recorded", "session", b.sessionID, "error", err)
	}
}

// operand lowers x: an Expression lowers to its node, anything else becomes
// a literal. A value with no literal form records a sticky error and lowers
// to a null literal.
func (b *Builder) operand(op string, x any) queryir.Expr {
	if e, ok := x.(Expression); ok {
		return e.Lower()
	}
	v, err := ir.ValueOf(x)
	if err != nil {
		b.fail(&Error{Code: CodeInvalidLiteral, Op: op, Message: err.Error()})
		return b.factory.Literal(ir.IRNull{})
	}
	return b.factory.Literal(v)
}

func (b *Builder) operands(op string, xs []any) []queryir.Expr {
	if len(xs) == 0 {
		return nil
	}
	out := make([]queryir.Expr, len(xs))
	for i, x := range xs {
		out[i] = b.operand(op, x)
	}
	return out
}

// lowerAll lowers expressions that are already typed.
func lowerAll(es []Expression) []queryir.Expr {
	if len(es) == 0 {
		return nil
	}
	out := make([]queryir.Expr, len(es))
	for i, e := range es {
		out[i] = e.Lower()
	}
	return out
}

func (b *Builder) expr(node queryir.Expr) *Expr {
	e := &Expr{node: node}
	e.ops = ops{b: b, self: e}
	return e
}

func (b *Builder) predicate(node queryir.Expr) *Predicate {
	p := &Predicate{node: node, op: And}
	p.ops = ops{b: b, self: p}
	return p
}

func (b *Builder) dyadic(op queryir.Operator, left, right queryir.Expr) *Expr {
	return b.expr(b.factory.Dyadic(op, left, right))
}

func (b *Builder) compare(name string, op queryir.Operator, x Expression, y any) *Predicate {
	return b.predicate(b.factory.Dyadic(op, x.Lower(), b.operand(name, y)))
}

func (b *Builder) invoke(left queryir.Expr, method string, args ...queryir.Expr) *Expr {
	return b.expr(b.factory.Invoke(left, method, args))
}

// Typed returns an expression with the node of e that can be navigated as
// typeName. Navigating from it produces composite paths.
func (b *Builder) Typed(e Expression, typeName string) (*Expr, error) {
	t, err := b.model.Type(typeName)
	if err != nil {
		return nil, &Error{Code: CodeNoSuchAttribute, Op: "Builder.Typed", Message: err.Error(), Err: err}
	}
	out := b.expr(e.Lower())
	out.typ = t
	return out, nil
}

func (b *Builder) String() string {
	return fmt.Sprintf("criteria.Builder(session=%s)", b.sessionID)
}
