package queryir

// QueryType is the statement kind of a Compilation.
type QueryType string

// Query types.
const (
	QuerySelect QueryType = "SELECT"
	QueryUpdate QueryType = "UPDATE"
	QueryDelete QueryType = "DELETE"
)

// Update is one SET assignment of an UPDATE compilation.
type Update struct {
	Path  Expr
	Value Expr
}

// Compilation is the whole-query node set handed to the downstream
// compiler. Nil fields are absent clauses.
type Compilation struct {
	Type      QueryType
	Candidate string // candidate entity name
	Alias     string // candidate alias
	Distinct  bool

	Result        []Expr   // select list; empty selects the candidate
	ResultAliases []string // parallel to Result; "" for unaliased items
	From          []*JoinExpr
	Filter        Expr
	Grouping      []Expr
	Having        Expr
	Ordering      []*OrderExpr
	Updates       []Update

	// Subqueries maps subquery variable names to their compilations.
	Subqueries map[string]*Compilation
}

// Each calls f for every top-level expression of c in clause order.
// Subqueries are not visited.
func (c *Compilation) Each(f func(Expr)) {
	for _, e := range c.Result {
		f(e)
	}
	for _, j := range c.From {
		f(j)
	}
	if c.Filter != nil {
		f(c.Filter)
	}
	for _, e := range c.Grouping {
		f(e)
	}
	if c.Having != nil {
		f(c.Having)
	}
	for _, o := range c.Ordering {
		f(o)
	}
	for _, u := range c.Updates {
		f(u.Path)
		f(u.Value)
	}
}
