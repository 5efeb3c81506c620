package queryir

import "fmt"

// Operator is the operator code of a DyadicExpr.
type Operator int

// Operators. Unary operators (NOT, NEG, DISTINCT) take only a left operand.
const (
	OpInvalid Operator = iota
	OpAnd
	OpOr
	OpEq
	OpNotEq
	OpLt
	OpLtEq
	OpGt
	OpGtEq
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNot
	OpNeg
	OpDistinct
	OpCast
	OpIs
	OpIsNot
	OpIn
	OpNotIn
	OpLike
)

var opNames = [...]string{
	OpInvalid:  "INVALID",
	OpAnd:      "AND",
	OpOr:       "OR",
	OpEq:       "EQ",
	OpNotEq:    "NOTEQ",
	OpLt:       "LT",
	OpLtEq:     "LTEQ",
	OpGt:       "GT",
	OpGtEq:     "GTEQ",
	OpAdd:      "ADD",
	OpSub:      "SUB",
	OpMul:      "MUL",
	OpDiv:      "DIV",
	OpMod:      "MOD",
	OpNot:      "NOT",
	OpNeg:      "NEG",
	OpDistinct: "DISTINCT",
	OpCast:     "CAST",
	OpIs:       "IS",
	OpIsNot:    "ISNOT",
	OpIn:       "IN",
	OpNotIn:    "NOTIN",
	OpLike:     "LIKE",
}

var opSymbols = [...]string{
	OpInvalid:  "?",
	OpAnd:      "AND",
	OpOr:       "OR",
	OpEq:       "=",
	OpNotEq:    "<>",
	OpLt:       "<",
	OpLtEq:     "<=",
	OpGt:       ">",
	OpGtEq:     ">=",
	OpAdd:      "+",
	OpSub:      "-",
	OpMul:      "*",
	OpDiv:      "/",
	OpMod:      "%",
	OpNot:      "NOT",
	OpNeg:      "-",
	OpDistinct: "DISTINCT",
	OpCast:     "AS",
	OpIs:       "IS",
	OpIsNot:    "IS NOT",
	OpIn:       "IN",
	OpNotIn:    "NOT IN",
	OpLike:     "LIKE",
}

// Name returns the operator code, e.g. "GTEQ".
func (op Operator) Name() string {
	if op < 0 || int(op) >= len(opNames) {
		return opNames[OpInvalid]
	}
	return opNames[op]
}

// String returns the display symbol, e.g. ">=".
func (op Operator) String() string {
	if op < 0 || int(op) >= len(opSymbols) {
		return opSymbols[OpInvalid]
	}
	return opSymbols[op]
}

// IsUnary reports whether op takes a single operand.
func (op Operator) IsUnary() bool {
	switch op {
	case OpNot, OpNeg, OpDistinct:
		return true
	}
	return false
}

// ParseOperator returns the operator with the given code.
func ParseOperator(name string) (Operator, error) {
	for i, n := range opNames {
		if i != int(OpInvalid) && n == name {
			return Operator(i), nil
		}
	}
	return OpInvalid, fmt.Errorf("unknown operator %q", name)
}
