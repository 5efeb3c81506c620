package queryir

import (
	"fmt"
	"slices"

	"github.com/roach88/criteria/internal/ir"
)

// Encode converts a tree to its IRValue form. The result is stable under
// ir.MarshalCanonical and round-trips through Decode.
//
// Every node is an object with a "kind" field; absent children are omitted
// rather than encoded as null. Literal values carry their "value_type" so
// that decimals survive a plain JSON round trip.
func Encode(e Expr) (ir.IRObject, error) {
	switch n := e.(type) {
	case nil:
		return nil, fmt.Errorf("cannot encode nil expression")
	case *ClassExpr:
		return ir.IRObject{"kind": kindValue(KindRootAlias), "alias": ir.IRString(n.Alias)}, nil
	case *PrimaryExpr:
		obj := ir.IRObject{"kind": kindValue(n.Kind()), "tuples": stringsValue(n.Tuples)}
		if err := putChild(obj, "parent", n.Left); err != nil {
			return nil, err
		}
		return obj, nil
	case *DyadicExpr:
		obj := ir.IRObject{"kind": kindValue(KindDyadic), "op": ir.IRString(n.Op.Name())}
		if err := putChild(obj, "left", n.Left); err != nil {
			return nil, err
		}
		if err := putChild(obj, "right", n.Right); err != nil {
			return nil, err
		}
		return obj, nil
	case *InvokeExpr:
		obj := ir.IRObject{"kind": kindValue(KindInvoke), "method": ir.IRString(n.Method)}
		if err := putChild(obj, "left", n.Left); err != nil {
			return nil, err
		}
		if len(n.Args) > 0 {
			args, err := encodeList(n.Args)
			if err != nil {
				return nil, fmt.Errorf("%s args: %w", n.Method, err)
			}
			obj["args"] = args
		}
		return obj, nil
	case *LiteralExpr:
		return encodeLiteral(n.Value), nil
	case *ParameterExpr:
		obj := ir.IRObject{"kind": kindValue(KindParameter), "name": ir.IRString(n.Name)}
		if n.Position != 0 {
			obj["position"] = ir.IRInt(n.Position)
		}
		if n.Type != "" {
			obj["type"] = ir.IRString(n.Type)
		}
		return obj, nil
	case *VariableExpr:
		return ir.IRObject{"kind": kindValue(KindVariable), "name": ir.IRString(n.Name)}, nil
	case *SubqueryExpr:
		obj := ir.IRObject{"kind": kindValue(KindSubquery), "keyword": ir.IRString(n.Keyword)}
		if n.Right != nil {
			obj["variable"] = ir.IRString(n.Right.Name)
		}
		return obj, nil
	case *CaseExpr:
		whens := make(ir.IRArray, 0, len(n.Whens))
		for i, w := range n.Whens {
			arm := ir.IRObject{}
			if err := putChild(arm, "when", w.Cond); err != nil {
				return nil, fmt.Errorf("case[%d]: %w", i, err)
			}
			if err := putChild(arm, "then", w.Result); err != nil {
				return nil, fmt.Errorf("case[%d]: %w", i, err)
			}
			whens = append(whens, arm)
		}
		obj := ir.IRObject{"kind": kindValue(KindCase), "whens": whens}
		if err := putChild(obj, "else", n.Else); err != nil {
			return nil, err
		}
		return obj, nil
	case *JoinExpr:
		obj := ir.IRObject{
			"kind":      kindValue(KindJoin),
			"join_type": ir.IRString(n.Type),
			"alias":     ir.IRString(n.Alias),
		}
		if err := putChild(obj, "path", n.Path); err != nil {
			return nil, err
		}
		if err := putChild(obj, "on", n.On); err != nil {
			return nil, err
		}
		return obj, nil
	case *OrderExpr:
		obj := ir.IRObject{"kind": kindValue(KindOrder), "descending": ir.IRBool(n.Descending)}
		if n.Nulls != NullsNone {
			obj["nulls"] = ir.IRString(n.Nulls)
		}
		if err := putChild(obj, "expr", n.Expr); err != nil {
			return nil, err
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unknown node type: %T", e)
	}
}

func kindValue(k Kind) ir.IRString { return ir.IRString(k) }

func stringsValue(ss []string) ir.IRArray {
	arr := make(ir.IRArray, len(ss))
	for i, s := range ss {
		arr[i] = ir.IRString(s)
	}
	return arr
}

func putChild(obj ir.IRObject, key string, e Expr) error {
	if e == nil {
		return nil
	}
	child, err := Encode(e)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	obj[key] = child
	return nil
}

func encodeList(es []Expr) (ir.IRArray, error) {
	arr := make(ir.IRArray, len(es))
	for i, e := range es {
		child, err := Encode(e)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		arr[i] = child
	}
	return arr, nil
}

func encodeLiteral(v ir.IRValue) ir.IRObject {
	obj := ir.IRObject{"kind": kindValue(KindLiteral), "value_type": ir.IRString(ir.TypeName(v))}
	switch val := v.(type) {
	case nil:
		obj["value"] = ir.IRNull{}
	case ir.IRDecimal:
		obj["value"] = ir.IRString(val.String())
	default:
		obj["value"] = v
	}
	return obj
}

// Decode rebuilds a tree from its encoded form.
func Decode(v ir.IRValue) (Expr, error) {
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("expected object, got %s", ir.TypeName(v))
	}
	kind := Kind(stringField(obj, "kind"))

	switch kind {
	case KindRootAlias:
		return &ClassExpr{Alias: stringField(obj, "alias")}, nil
	case KindDottedPath, KindComposite:
		tuples, err := stringsField(obj, "tuples")
		if err != nil {
			return nil, err
		}
		parent, err := decodeChild(obj, "parent")
		if err != nil {
			return nil, err
		}
		if kind == KindComposite && parent == nil {
			return nil, fmt.Errorf("COMPOSITE node without parent")
		}
		if tuples == nil {
			tuples = []string{}
		}
		return &PrimaryExpr{Left: parent, Tuples: tuples}, nil
	case KindDyadic:
		op, err := ParseOperator(stringField(obj, "op"))
		if err != nil {
			return nil, err
		}
		left, err := decodeChild(obj, "left")
		if err != nil {
			return nil, err
		}
		right, err := decodeChild(obj, "right")
		if err != nil {
			return nil, err
		}
		return &DyadicExpr{Op: op, Left: left, Right: right}, nil
	case KindInvoke:
		left, err := decodeChild(obj, "left")
		if err != nil {
			return nil, err
		}
		var args []Expr
		if raw, ok := obj["args"].(ir.IRArray); ok {
			args, err = decodeList(raw)
			if err != nil {
				return nil, fmt.Errorf("args: %w", err)
			}
		}
		return &InvokeExpr{Left: left, Method: stringField(obj, "method"), Args: args}, nil
	case KindLiteral:
		return decodeLiteral(obj)
	case KindParameter:
		p := &ParameterExpr{Name: stringField(obj, "name"), Type: stringField(obj, "type")}
		if pos, ok := obj["position"].(ir.IRInt); ok {
			p.Position = int(pos)
		}
		return p, nil
	case KindVariable:
		return &VariableExpr{Name: stringField(obj, "name")}, nil
	case KindSubquery:
		s := &SubqueryExpr{Keyword: stringField(obj, "keyword")}
		if name, ok := obj["variable"].(ir.IRString); ok {
			s.Right = &VariableExpr{Name: string(name)}
		}
		return s, nil
	case KindCase:
		c := &CaseExpr{}
		raw, _ := obj["whens"].(ir.IRArray)
		for i, item := range raw {
			arm, ok := item.(ir.IRObject)
			if !ok {
				return nil, fmt.Errorf("case[%d]: expected object", i)
			}
			cond, err := decodeChild(arm, "when")
			if err != nil {
				return nil, fmt.Errorf("case[%d]: %w", i, err)
			}
			result, err := decodeChild(arm, "then")
			if err != nil {
				return nil, fmt.Errorf("case[%d]: %w", i, err)
			}
			c.Whens = append(c.Whens, When{Cond: cond, Result: result})
		}
		elseExpr, err := decodeChild(obj, "else")
		if err != nil {
			return nil, err
		}
		c.Else = elseExpr
		return c, nil
	case KindJoin:
		path, err := decodeChild(obj, "path")
		if err != nil {
			return nil, err
		}
		on, err := decodeChild(obj, "on")
		if err != nil {
			return nil, err
		}
		return &JoinExpr{
			Type:  JoinType(stringField(obj, "join_type")),
			Path:  path,
			Alias: stringField(obj, "alias"),
			On:    on,
		}, nil
	case KindOrder:
		e, err := decodeChild(obj, "expr")
		if err != nil {
			return nil, err
		}
		desc, _ := obj["descending"].(ir.IRBool)
		return &OrderExpr{Expr: e, Descending: bool(desc), Nulls: NullOrder(stringField(obj, "nulls"))}, nil
	default:
		return nil, fmt.Errorf("unknown node kind %q", kind)
	}
}

func stringField(obj ir.IRObject, key string) string {
	s, _ := obj[key].(ir.IRString)
	return string(s)
}

func stringsField(obj ir.IRObject, key string) ([]string, error) {
	raw, ok := obj[key]
	if !ok {
		return nil, nil
	}
	arr, ok := raw.(ir.IRArray)
	if !ok {
		return nil, fmt.Errorf("%s: expected array, got %s", key, ir.TypeName(raw))
	}
	out := make([]string, len(arr))
	for i, item := range arr {
		s, ok := item.(ir.IRString)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: expected string, got %s", key, i, ir.TypeName(item))
		}
		out[i] = string(s)
	}
	return out, nil
}

func decodeChild(obj ir.IRObject, key string) (Expr, error) {
	raw, ok := obj[key]
	if !ok {
		return nil, nil
	}
	e, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return e, nil
}

func decodeList(arr ir.IRArray) ([]Expr, error) {
	out := make([]Expr, len(arr))
	for i, item := range arr {
		e, err := Decode(item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = e
	}
	return out, nil
}

func decodeLiteral(obj ir.IRObject) (Expr, error) {
	raw := obj["value"]
	if raw == nil {
		raw = ir.IRNull{}
	}
	switch vt := stringField(obj, "value_type"); vt {
	case "decimal":
		s, ok := raw.(ir.IRString)
		if !ok {
			return nil, fmt.Errorf("decimal literal must be a string")
		}
		d, err := ir.NewIRDecimal(string(s))
		if err != nil {
			return nil, err
		}
		return &LiteralExpr{Value: d}, nil
	case "", ir.TypeName(raw):
		return &LiteralExpr{Value: raw}, nil
	default:
		return nil, fmt.Errorf("literal value_type %q does not match %s", vt, ir.TypeName(raw))
	}
}

// EncodeCompilation converts a Compilation to its IRValue form.
func EncodeCompilation(c *Compilation) (ir.IRObject, error) {
	obj := ir.IRObject{
		"type":      ir.IRString(c.Type),
		"candidate": ir.IRString(c.Candidate),
		"alias":     ir.IRString(c.Alias),
		"distinct":  ir.IRBool(c.Distinct),
	}

	putList := func(key string, es []Expr) error {
		if len(es) == 0 {
			return nil
		}
		arr, err := encodeList(es)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		obj[key] = arr
		return nil
	}

	if err := putList("result", c.Result); err != nil {
		return nil, err
	}
	if slices.ContainsFunc(c.ResultAliases, func(a string) bool { return a != "" }) {
		obj["result_aliases"] = stringsValue(c.ResultAliases)
	}
	if err := putList("from", joinsAsExprs(c.From)); err != nil {
		return nil, err
	}
	if err := putChild(obj, "filter", c.Filter); err != nil {
		return nil, err
	}
	if err := putList("grouping", c.Grouping); err != nil {
		return nil, err
	}
	if err := putChild(obj, "having", c.Having); err != nil {
		return nil, err
	}
	if err := putList("ordering", ordersAsExprs(c.Ordering)); err != nil {
		return nil, err
	}
	if len(c.Updates) > 0 {
		arr := make(ir.IRArray, 0, len(c.Updates))
		for i, u := range c.Updates {
			item := ir.IRObject{}
			if err := putChild(item, "path", u.Path); err != nil {
				return nil, fmt.Errorf("updates[%d]: %w", i, err)
			}
			if err := putChild(item, "value", u.Value); err != nil {
				return nil, fmt.Errorf("updates[%d]: %w", i, err)
			}
			arr = append(arr, item)
		}
		obj["updates"] = arr
	}
	if len(c.Subqueries) > 0 {
		subs := ir.IRObject{}
		for _, name := range sortedKeys(c.Subqueries) {
			sub, err := EncodeCompilation(c.Subqueries[name])
			if err != nil {
				return nil, fmt.Errorf("subquery %s: %w", name, err)
			}
			subs[name] = sub
		}
		obj["subqueries"] = subs
	}
	return obj, nil
}

// DecodeCompilation rebuilds a Compilation from its encoded form.
func DecodeCompilation(v ir.IRValue) (*Compilation, error) {
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("expected object, got %s", ir.TypeName(v))
	}
	c := &Compilation{
		Type:      QueryType(stringField(obj, "type")),
		Candidate: stringField(obj, "candidate"),
		Alias:     stringField(obj, "alias"),
	}
	if d, ok := obj["distinct"].(ir.IRBool); ok {
		c.Distinct = bool(d)
	}

	list := func(key string) ([]Expr, error) {
		arr, ok := obj[key].(ir.IRArray)
		if !ok {
			return nil, nil
		}
		es, err := decodeList(arr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return es, nil
	}

	var err error
	if c.Result, err = list("result"); err != nil {
		return nil, err
	}
	if c.ResultAliases, err = stringsField(obj, "result_aliases"); err != nil {
		return nil, err
	}
	from, err := list("from")
	if err != nil {
		return nil, err
	}
	for i, e := range from {
		j, ok := e.(*JoinExpr)
		if !ok {
			return nil, fmt.Errorf("from[%d]: expected JOIN, got %s", i, KindOf(e))
		}
		c.From = append(c.From, j)
	}
	if c.Filter, err = decodeChild(obj, "filter"); err != nil {
		return nil, err
	}
	if c.Grouping, err = list("grouping"); err != nil {
		return nil, err
	}
	if c.Having, err = decodeChild(obj, "having"); err != nil {
		return nil, err
	}
	orders, err := list("ordering")
	if err != nil {
		return nil, err
	}
	for i, e := range orders {
		o, ok := e.(*OrderExpr)
		if !ok {
			return nil, fmt.Errorf("ordering[%d]: expected ORDER, got %s", i, KindOf(e))
		}
		c.Ordering = append(c.Ordering, o)
	}
	if raw, ok := obj["updates"].(ir.IRArray); ok {
		for i, item := range raw {
			uo, ok := item.(ir.IRObject)
			if !ok {
				return nil, fmt.Errorf("updates[%d]: expected object", i)
			}
			path, err := decodeChild(uo, "path")
			if err != nil {
				return nil, fmt.Errorf("updates[%d]: %w", i, err)
			}
			value, err := decodeChild(uo, "value")
			if err != nil {
				return nil, fmt.Errorf("updates[%d]: %w", i, err)
			}
			c.Updates = append(c.Updates, Update{Path: path, Value: value})
		}
	}
	if subs, ok := obj["subqueries"].(ir.IRObject); ok {
		c.Subqueries = make(map[string]*Compilation, len(subs))
		for name, raw := range subs {
			sub, err := DecodeCompilation(raw)
			if err != nil {
				return nil, fmt.Errorf("subquery %s: %w", name, err)
			}
			c.Subqueries[name] = sub
		}
	}
	return c, nil
}

// CompilationID returns the content hash of c.
func CompilationID(c *Compilation) (string, error) {
	obj, err := EncodeCompilation(c)
	if err != nil {
		return "", err
	}
	return ir.ContentID(ir.DomainCompilation, obj)
}

// ExprID returns the content hash of e.
func ExprID(e Expr) (string, error) {
	obj, err := Encode(e)
	if err != nil {
		return "", err
	}
	return ir.ContentID(ir.DomainExpr, obj)
}

func joinsAsExprs(js []*JoinExpr) []Expr {
	out := make([]Expr, len(js))
	for i, j := range js {
		out[i] = j
	}
	return out
}

func ordersAsExprs(os []*OrderExpr) []Expr {
	out := make([]Expr, len(os))
	for i, o := range os {
		out[i] = o
	}
	return out
}

func sortedKeys(m map[string]*Compilation) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
