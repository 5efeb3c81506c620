package queryir

// Visitor's Visit method is invoked for each node encountered by Walk.
// If the result visitor w is not nil, Walk visits each of the children of
// node with w, followed by a call of w.Visit(nil).
type Visitor interface {
	Visit(e Expr) (w Visitor)
}

// Walk traverses the tree rooted at e in depth-first order.
func Walk(v Visitor, e Expr) {
	if e == nil {
		return
	}
	if v = v.Visit(e); v == nil {
		return
	}

	switch n := e.(type) {
	case *PrimaryExpr:
		walkIf(v, n.Left)
	case *DyadicExpr:
		walkIf(v, n.Left)
		walkIf(v, n.Right)
	case *InvokeExpr:
		walkIf(v, n.Left)
		for _, a := range n.Args {
			walkIf(v, a)
		}
	case *SubqueryExpr:
		if n.Right != nil {
			Walk(v, n.Right)
		}
	case *CaseExpr:
		for _, w := range n.Whens {
			walkIf(v, w.Cond)
			walkIf(v, w.Result)
		}
		walkIf(v, n.Else)
	case *JoinExpr:
		walkIf(v, n.Path)
		walkIf(v, n.On)
	case *OrderExpr:
		walkIf(v, n.Expr)
	}

	v.Visit(nil)
}

func walkIf(v Visitor, e Expr) {
	if e != nil {
		Walk(v, e)
	}
}

type inspector func(Expr) bool

func (f inspector) Visit(e Expr) Visitor {
	if f(e) {
		return f
	}
	return nil
}

// Inspect traverses the tree rooted at e, calling f for each node and then
// f(nil) after its children. If f returns false the children are skipped.
func Inspect(e Expr, f func(Expr) bool) {
	Walk(inspector(f), e)
}
