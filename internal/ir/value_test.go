package ir

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueOf(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want IRValue
	}{
		{"nil", nil, IRNull{}},
		{"string", "abc", IRString("abc")},
		{"bool", true, IRBool(true)},
		{"int", 7, IRInt(7)},
		{"int32", int32(-3), IRInt(-3)},
		{"uint16", uint16(9), IRInt(9)},
		{"float", 2.5, MustIRDecimal("2.5")},
		{"decimal", decimal.RequireFromString("1.25"), MustIRDecimal("1.25")},
		{"time", ts, IRString("2024-03-01T12:00:00Z")},
		{"passthrough", IRString("x"), IRString("x")},
		{"slice", []int{1, 2}, IRArray{IRInt(1), IRInt(2)}},
		{"map", map[string]any{"a": "b"}, IRObject{"a": IRString("b")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValueOf(tt.in)
			require.NoError(t, err)
			if d, ok := tt.want.(IRDecimal); ok {
				gd, ok := got.(IRDecimal)
				require.True(t, ok, "want IRDecimal, got %T", got)
				assert.True(t, d.Equal(gd.Decimal), "want %s, got %s", d, gd)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueOfErrors(t *testing.T) {
	_, err := ValueOf(math.NaN())
	assert.ErrorContains(t, err, "non-finite")

	_, err = ValueOf(math.Inf(1))
	assert.ErrorContains(t, err, "non-finite")

	_, err = ValueOf(uint64(math.MaxUint64))
	assert.ErrorContains(t, err, "overflows")

	_, err = ValueOf(map[int]string{1: "a"})
	assert.ErrorContains(t, err, "map key")

	_, err = ValueOf(struct{}{})
	assert.ErrorContains(t, err, "unsupported literal type")

	_, err = ValueOf([]any{1, math.NaN()})
	assert.ErrorContains(t, err, "[1]")
}

func TestUnmarshalIRValueRoundTrip(t *testing.T) {
	in := IRObject{
		"n":   IRNull{},
		"s":   IRString("x"),
		"i":   IRInt(42),
		"b":   IRBool(false),
		"arr": IRArray{IRInt(1), IRString("two")},
	}

	data, err := MarshalIRValue(in)
	require.NoError(t, err)
	assert.Equal(t, `{"arr":[1,"two"],"b":false,"i":42,"n":null,"s":"x"}`, string(data))

	out, err := UnmarshalIRValue(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestUnmarshalIRValueFractional(t *testing.T) {
	v, err := UnmarshalIRValue([]byte(`1.5`))
	require.NoError(t, err)
	d, ok := v.(IRDecimal)
	require.True(t, ok)
	assert.Equal(t, "1.5", d.String())

	_, err = UnmarshalIRValue([]byte(`99999999999999999999`))
	assert.ErrorContains(t, err, "out of int64 range")
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "null", TypeName(IRNull{}))
	assert.Equal(t, "null", TypeName(nil))
	assert.Equal(t, "string", TypeName(IRString("")))
	assert.Equal(t, "int", TypeName(IRInt(0)))
	assert.Equal(t, "bool", TypeName(IRBool(true)))
	assert.Equal(t, "decimal", TypeName(MustIRDecimal("1")))
	assert.Equal(t, "array", TypeName(IRArray{}))
	assert.Equal(t, "object", TypeName(IRObject{}))
}
