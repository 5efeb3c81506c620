package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/harness"
	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/queryir"
	"github.com/roach88/criteria/internal/render"
	"github.com/roach88/criteria/internal/store"
)

// LowerOptions holds flags for the lower command.
type LowerOptions struct {
	*RootOptions
	Type     string
	Result   string
	From     []string // Entity[:alias]
	Joins    []string // source.attribute[:alias[:type]]
	Distinct bool
	Select   []string // expr [AS alias]
	Where    string
	GroupBy  []string
	Having   string
	OrderBy  []string // expr [desc] [nulls first|last]
	Set      []string // path=expr
	Session  string
	DB       string
	Tree     bool
}

// LowerResult is the outcome of lowering one query.
type LowerResult struct {
	ID         string               `json:"id"`
	Rendered   string               `json:"rendered"`
	Params     []string             `json:"params"`
	WellFormed bool                 `json:"well_formed"`
	Warnings   []string             `json:"warnings,omitempty"`
	Kinds      map[queryir.Kind]int `json:"kinds"`
	Tree       json.RawMessage      `json:"tree,omitempty"`
	Recorded   *bool                `json:"recorded,omitempty"`
}

// NewLowerCommand creates the lower command.
func NewLowerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LowerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lower <schema-dir>",
		Short: "Build a query and print its lowered form",
		Long: `Build one criteria query against the schemas in <schema-dir> and
print its display form, parameters, and node statistics.

Expressions are CEL, naming roots and joins by alias.

Examples:
  criteria lower ./schema --from Employee:e --where 'e.address.city == "Oslo"'
  criteria lower ./schema --from Employee:e --join e.department:d:left \
      --select 'd.name AS dept' --select 'count(e)' --group-by d.name
  criteria lower ./schema --type update --from Employee \
      --set 'this.salary=this.salary * 2' --db catalog.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLower(opts, args[0], cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Type, "type", harness.QuerySelect, "query type (select|tuple|update|delete)")
	f.StringVar(&opts.Result, "result", "", "result type of a select query")
	f.StringArrayVar(&opts.From, "from", nil, "query root as Entity[:alias] (repeatable)")
	f.StringArrayVar(&opts.Joins, "join", nil, "join as source.attribute[:alias[:type]] (repeatable)")
	f.BoolVar(&opts.Distinct, "distinct", false, "eliminate duplicate results")
	f.StringArrayVar(&opts.Select, "select", nil, "selection as expr [AS alias] (repeatable)")
	f.StringVar(&opts.Where, "where", "", "filter expression")
	f.StringArrayVar(&opts.GroupBy, "group-by", nil, "grouping expression (repeatable)")
	f.StringVar(&opts.Having, "having", "", "group filter expression")
	f.StringArrayVar(&opts.OrderBy, "order-by", nil, "ordering as expr [desc] [nulls first|last] (repeatable)")
	f.StringArrayVar(&opts.Set, "set", nil, "update assignment as path=expr (repeatable)")
	f.StringVar(&opts.Session, "session", "cli", "builder session ID")
	f.StringVar(&opts.DB, "db", "", "record the compilation into this catalog")
	f.BoolVar(&opts.Tree, "tree", false, "include the canonical expression tree")

	return cmd
}

func runLower(opts *LowerOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	q, err := opts.querySpec()
	if err != nil {
		_ = formatter.Error(ErrCodeQuery, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid query flags", err)
	}

	model, _, err := LoadModel(schemaDir)
	if err != nil {
		code, message := parseCompileError(err)
		_ = formatter.Error(code, message, nil)
		return WrapExitError(ExitCommandError, "loading schema", err)
	}

	b := criteria.New(model,
		criteria.WithSessionID(opts.Session),
		criteria.WithLogger(formatter.Logger()),
	)
	c, err := harness.Build(b, q)
	if err != nil {
		_ = formatter.Error(ErrCodeQuery, err.Error(), errorDetails(err))
		return WrapExitError(ExitFailure, "query failed", err)
	}

	result, err := lowerResult(c, opts.Tree)
	if err != nil {
		return WrapExitError(ExitCommandError, "lowering", err)
	}

	if opts.DB != "" {
		inserted, err := record(cmd.Context(), opts.DB, opts.Session, c)
		if err != nil {
			_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
			return WrapExitError(ExitCommandError, "recording compilation", err)
		}
		result.Recorded = &inserted
	}

	return outputLower(formatter, result)
}

func lowerResult(c *queryir.Compilation, withTree bool) (*LowerResult, error) {
	text, params, err := render.Compilation(c)
	if err != nil {
		return nil, err
	}
	id, err := queryir.CompilationID(c)
	if err != nil {
		return nil, err
	}
	v := queryir.ValidateCompilation(c)
	result := &LowerResult{
		ID:         id,
		Rendered:   text,
		Params:     params,
		WellFormed: v.IsWellFormed,
		Warnings:   v.Warnings,
		Kinds:      harness.CountKinds(c),
	}
	if result.Params == nil {
		result.Params = []string{}
	}
	if withTree {
		tree, err := queryir.EncodeCompilation(c)
		if err != nil {
			return nil, err
		}
		data, err := ir.MarshalCanonical(tree)
		if err != nil {
			return nil, err
		}
		result.Tree = data
	}
	return result, nil
}

// record writes c into the catalog at path, sequenced after its last entry.
func record(ctx context.Context, path, session string, c *queryir.Compilation) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(path)
	if err != nil {
		return false, err
	}
	defer st.Close()

	seq, err := st.LastSeq(ctx)
	if err != nil {
		return false, err
	}
	entry, err := store.NewEntry(session, seq+1, c)
	if err != nil {
		return false, err
	}
	return st.WriteEntry(ctx, entry)
}

func outputLower(formatter *OutputFormatter, r *LowerResult) error {
	if formatter.Format == "json" {
		return formatter.Success(r)
	}

	w := formatter.Writer
	fmt.Fprintln(w, r.Rendered)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "id:     %s\n", r.ID)
	if len(r.Params) > 0 {
		fmt.Fprintf(w, "params: %s\n", strings.Join(r.Params, ", "))
	}

	kinds := make([]string, 0, len(r.Kinds))
	for k := range r.Kinds {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s=%d", k, r.Kinds[queryir.Kind(k)])
	}
	fmt.Fprintf(w, "nodes:  %s\n", strings.Join(parts, " "))

	if r.WellFormed {
		formatter.Pass("well formed")
	} else {
		formatter.Fail("not well formed: %s", strings.Join(r.Warnings, "; "))
	}
	if r.Recorded != nil {
		if *r.Recorded {
			fmt.Fprintln(w, "recorded in catalog")
		} else {
			fmt.Fprintln(w, "already in catalog")
		}
	}
	if len(r.Tree) > 0 {
		fmt.Fprintf(w, "\n%s\n", r.Tree)
	}
	return nil
}

// errorDetails exposes the structured fields of a builder error.
func errorDetails(err error) any {
	var ce *criteria.Error
	if errors.As(err, &ce) {
		return map[string]string{"code": string(ce.Code), "op": ce.Op}
	}
	return nil
}

// querySpec turns the flags into a harness query description.
func (o *LowerOptions) querySpec() (*harness.QuerySpec, error) {
	q := &harness.QuerySpec{
		Type:     o.Type,
		Result:   o.Result,
		Distinct: o.Distinct,
		Where:    o.Where,
		GroupBy:  o.GroupBy,
		Having:   o.Having,
	}
	switch q.Type {
	case harness.QuerySelect, harness.QueryTuple, harness.QueryUpdate, harness.QueryDelete:
	default:
		return nil, fmt.Errorf("unknown query type %q", q.Type)
	}
	if len(o.From) == 0 {
		return nil, fmt.Errorf("at least one --from is required")
	}

	for _, f := range o.From {
		entity, alias, _ := strings.Cut(f, ":")
		if entity == "" {
			return nil, fmt.Errorf("--from %q: entity is required", f)
		}
		q.From = append(q.From, harness.RootSpec{Entity: entity, Alias: alias})
	}

	type pending struct {
		source string
		spec   harness.JoinSpec
	}
	known := map[string]bool{}
	for i, r := range q.From {
		switch {
		case r.Alias != "":
			known[r.Alias] = true
		case i == 0:
			known["this"] = true
		}
	}
	var joins []pending
	for _, j := range o.Joins {
		parts := strings.Split(j, ":")
		if len(parts) > 3 {
			return nil, fmt.Errorf("--join %q: expected source.attribute[:alias[:type]]", j)
		}
		source, attr, ok := strings.Cut(parts[0], ".")
		if !ok || source == "" || attr == "" {
			return nil, fmt.Errorf("--join %q: expected source.attribute", j)
		}
		if !known[source] {
			return nil, fmt.Errorf("--join %q: unknown source %q", j, source)
		}
		js := harness.JoinSpec{Attribute: attr}
		if len(parts) > 1 {
			js.Alias = parts[1]
		}
		if len(parts) > 2 {
			js.Type = parts[2]
		}
		if js.Alias != "" {
			known[js.Alias] = true
		}
		joins = append(joins, pending{source: source, spec: js})
	}

	var children func(source string) []harness.JoinSpec
	children = func(source string) []harness.JoinSpec {
		var out []harness.JoinSpec
		for _, p := range joins {
			if p.source != source {
				continue
			}
			js := p.spec
			if js.Alias != "" {
				js.Joins = children(js.Alias)
			}
			out = append(out, js)
		}
		return out
	}
	for i := range q.From {
		alias := q.From[i].Alias
		if alias == "" && i == 0 {
			alias = "this"
		}
		if alias != "" {
			q.From[i].Joins = children(alias)
		}
	}

	for _, s := range o.Select {
		item := harness.SelectItem{Expr: s}
		if i := strings.LastIndex(strings.ToUpper(s), " AS "); i >= 0 {
			item.Expr, item.As = strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+4:])
		}
		q.Select = append(q.Select, item)
	}

	for _, s := range o.OrderBy {
		ord, err := parseOrder(s)
		if err != nil {
			return nil, err
		}
		q.OrderBy = append(q.OrderBy, ord)
	}

	for _, s := range o.Set {
		path, expr, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("--set %q: expected path=expr", s)
		}
		q.Set = append(q.Set, harness.Assignment{Path: strings.TrimSpace(path), Expr: strings.TrimSpace(expr)})
	}
	return q, nil
}

// parseOrder reads trailing "desc", "asc" and "nulls first|last" words.
func parseOrder(s string) (harness.OrderSpec, error) {
	fields := strings.Fields(s)
	var o harness.OrderSpec
	for len(fields) > 0 {
		n := len(fields)
		last := strings.ToLower(fields[n-1])
		switch {
		case (last == "first" || last == "last") && n > 1 && strings.EqualFold(fields[n-2], "nulls"):
			o.Nulls = last
			fields = fields[:n-2]
			continue
		case last == "desc":
			o.Desc = true
		case last == "asc":
		default:
			o.Expr = strings.Join(fields, " ")
			return o, nil
		}
		fields = fields[:n-1]
	}
	return o, fmt.Errorf("--order-by %q: expression is required", s)
}
