package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/criteria/internal/celfilter"
	"github.com/roach88/criteria/internal/compiler"
	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/metamodel"
	"github.com/roach88/criteria/internal/queryir"
	"github.com/roach88/criteria/internal/render"
	"github.com/roach88/criteria/internal/store"
)

// Harness runs scenarios against a catalog.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger routes builder and harness logs to l.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// WithStore records compilations into s instead of a private in-memory
// catalog.
func WithStore(s *store.Store) Option {
	return func(h *Harness) { h.store = s }
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Compile the scenario schemas into a model
// 2. Build and compile the query
// 3. Validate and render the compilation
// 4. Record it in the catalog and read it back
// 5. Evaluate assertions
//
// A builder error is not a Run error: it is recorded in Result.BuildErr
// for "error" assertions. Run fails only when the scenario itself cannot
// be executed.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(h)
	}
	if h.store == nil {
		st, err := store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
		h.store = st
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	model, err := LoadModel(scenario.Schemas...)
	if err != nil {
		return nil, err
	}

	session := scenario.Session
	if session == "" {
		session = DefaultSession
	}
	b := criteria.New(model, criteria.WithSessionID(session), criteria.WithLogger(h.logger))

	result := NewResult()
	c, err := Build(b, &scenario.Query)
	if err != nil {
		result.BuildErr = err
		h.logger.Debug("scenario build failed", "scenario", scenario.Name, "error", err)
	} else if err := h.record(ctx, session, c, result); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// record validates, renders and catalogs c.
func (h *Harness) record(ctx context.Context, session string, c *queryir.Compilation, result *Result) error {
	result.Compilation = c

	v := queryir.ValidateCompilation(c)
	result.WellFormed = v.IsWellFormed
	result.Warnings = v.Warnings

	text, params, err := render.Compilation(c)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	result.Rendered = text
	if params != nil {
		result.Params = params
	}

	seq, err := h.store.LastSeq(ctx)
	if err != nil {
		return err
	}
	entry, err := store.NewEntry(session, seq+1, c)
	if err != nil {
		return err
	}
	if _, err := h.store.WriteEntry(ctx, entry); err != nil {
		return err
	}
	stored, err := h.store.ReadEntry(ctx, entry.ID)
	if err != nil {
		return fmt.Errorf("read back %s: %w", entry.ID, err)
	}
	if stored.Rendered != text {
		return fmt.Errorf("catalog round trip changed %s: %q", entry.ID, stored.Rendered)
	}
	result.ID = entry.ID

	h.logger.Info("scenario compiled",
		"session", session,
		"id", entry.ID,
		"rendered", text,
	)
	return nil
}

// LoadModel compiles CUE schema files into a model.
func LoadModel(paths ...string) (*metamodel.Model, error) {
	specs, err := compiler.CompileFiles(paths...)
	if err != nil {
		return nil, err
	}
	if errs := compiler.Validate(specs); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("invalid schema: %s", strings.Join(msgs, "; "))
	}
	return metamodel.FromSpecs(specs)
}

// Build constructs and compiles the query described by q.
func Build(b *criteria.Builder, q *QuerySpec) (*queryir.Compilation, error) {
	var query *criteria.Query
	sources := make(map[string]celfilter.Source)

	switch q.Type {
	case QueryUpdate, QueryDelete:
		create := b.CreateCriteriaUpdate
		if q.Type == QueryDelete {
			create = b.CreateCriteriaDelete
		}
		var root *criteria.Root
		var err error
		query, root, err = create(q.From[0].Entity)
		if err != nil {
			return nil, err
		}
		if err := declareRoot(root, q.From[0], sources); err != nil {
			return nil, err
		}
	default:
		switch {
		case q.Type == QueryTuple:
			query = b.CreateTupleQuery()
		case q.Result != "":
			query = b.CreateQuery(q.Result)
		default:
			query = b.CreateQuery(q.From[0].Entity)
		}
		for _, rs := range q.From {
			var root *criteria.Root
			var err error
			if rs.Alias != "" {
				root, err = query.FromAs(rs.Entity, rs.Alias)
			} else {
				root, err = query.From(rs.Entity)
			}
			if err != nil {
				return nil, err
			}
			if err := declareRoot(root, rs, sources); err != nil {
				return nil, err
			}
		}
	}

	t, err := celfilter.New(b, sources)
	if err != nil {
		return nil, err
	}
	if err := declareOn(t, q.From, sources); err != nil {
		return nil, err
	}

	var items []criteria.Expression
	for _, item := range q.Select {
		x, err := t.Expression(item.Expr)
		if err != nil {
			return nil, fmt.Errorf("select %q: %w", item.Expr, err)
		}
		if item.As != "" {
			aliasable, ok := x.(interface{ Alias(string) })
			if !ok {
				return nil, fmt.Errorf("select %q: expression cannot be aliased", item.Expr)
			}
			aliasable.Alias(item.As)
		}
		items = append(items, x)
	}
	if len(items) > 0 {
		query.Multiselect(items...)
	}
	query.Distinct(q.Distinct)

	if q.Where != "" {
		p, err := t.Translate(q.Where)
		if err != nil {
			return nil, fmt.Errorf("where: %w", err)
		}
		query.Where(p)
	}

	var grouping []criteria.Expression
	for _, g := range q.GroupBy {
		x, err := t.Expression(g)
		if err != nil {
			return nil, fmt.Errorf("group_by %q: %w", g, err)
		}
		grouping = append(grouping, x)
	}
	if len(grouping) > 0 {
		query.GroupBy(grouping...)
	}

	if q.Having != "" {
		p, err := t.Translate(q.Having)
		if err != nil {
			return nil, fmt.Errorf("having: %w", err)
		}
		query.Having(p)
	}

	var orders []*criteria.Order
	for _, o := range q.OrderBy {
		x, err := t.Expression(o.Expr)
		if err != nil {
			return nil, fmt.Errorf("order_by %q: %w", o.Expr, err)
		}
		ord := b.Asc(x)
		if o.Desc {
			ord = b.Desc(x)
		}
		switch strings.ToLower(o.Nulls) {
		case "first":
			ord = ord.NullsFirst()
		case "last":
			ord = ord.NullsLast()
		}
		orders = append(orders, ord)
	}
	if len(orders) > 0 {
		query.OrderBy(orders...)
	}

	for _, a := range q.Set {
		path, err := t.Expression(a.Path)
		if err != nil {
			return nil, fmt.Errorf("set %q: %w", a.Path, err)
		}
		var value any = a.Value
		if a.Expr != "" {
			if value, err = t.Expression(a.Expr); err != nil {
				return nil, fmt.Errorf("set %q: %w", a.Path, err)
			}
		}
		query.Set(path, value)
	}

	return query.Compile()
}

// declareRoot registers root and its joins under their aliases.
func declareRoot(root *criteria.Root, rs RootSpec, sources map[string]celfilter.Source) error {
	if _, dup := sources[root.GetAlias()]; dup {
		return fmt.Errorf("duplicate alias %q", root.GetAlias())
	}
	sources[root.GetAlias()] = root
	return declareJoins(root, rs.Joins, sources)
}

type joiner interface {
	JoinAs(name, alias string, jt queryir.JoinType) (*criteria.Join, error)
}

func declareJoins(from joiner, specs []JoinSpec, sources map[string]celfilter.Source) error {
	for _, js := range specs {
		j, err := from.JoinAs(js.Attribute, js.Alias, queryir.JoinType(strings.ToUpper(js.Type)))
		if err != nil {
			return err
		}
		if _, dup := sources[j.GetAlias()]; dup {
			return fmt.Errorf("duplicate alias %q", j.GetAlias())
		}
		sources[j.GetAlias()] = j
		if err := declareJoins(j, js.Joins, sources); err != nil {
			return err
		}
	}
	return nil
}

// declareOn attaches ON conditions once every alias is known, so a
// condition may reference joins declared after it.
func declareOn(t *celfilter.Translator, roots []RootSpec, sources map[string]celfilter.Source) error {
	var walk func([]JoinSpec) error
	walk = func(specs []JoinSpec) error {
		for _, js := range specs {
			if js.On != "" {
				j, ok := sources[js.Alias].(*criteria.Join)
				if !ok {
					return fmt.Errorf("join %s: on requires an explicit alias", js.Attribute)
				}
				p, err := t.Translate(js.On)
				if err != nil {
					return fmt.Errorf("join %s on: %w", js.Alias, err)
				}
				j.On(p)
			}
			if err := walk(js.Joins); err != nil {
				return err
			}
		}
		return nil
	}
	for _, rs := range roots {
		if err := walk(rs.Joins); err != nil {
			return err
		}
	}
	return nil
}
