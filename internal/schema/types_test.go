package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergePairs(t *testing.T) {
	tests := []struct {
		a, b, want FieldType
	}{
		{TypeUnknown, TypeUnknown, TypeUnknown},
		{TypeUnknown, TypeInteger, TypeInteger},
		{TypeInteger, TypeUnknown, TypeInteger},
		{TypeInteger, TypeInteger, TypeInteger},
		{TypeInteger, TypeFloat, TypeFloat},
		{TypeFloat, TypeInteger, TypeFloat},
		{TypeInteger, TypeBoolean, TypeString},
		{TypeBoolean, TypeFloat, TypeString},
		{TypeString, TypeInteger, TypeString},
		{TypeString, TypeFloat, TypeString},
		{TypeString, TypeBoolean, TypeString},
		{TypeString, TypeString, TypeString},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Merge(tt.a, tt.b), "Merge(%s, %s)", tt.a, tt.b)
		// Commutative.
		assert.Equal(t, Merge(tt.a, tt.b), Merge(tt.b, tt.a), "Merge(%s, %s) not commutative", tt.a, tt.b)
	}
}

func TestMergeOrderIndependent(t *testing.T) {
	fold := func(types []FieldType) FieldType {
		acc := TypeUnknown
		for _, typ := range types {
			acc = Merge(acc, typ)
		}
		return acc
	}

	tests := []struct {
		name  string
		types []FieldType
		want  FieldType
	}{
		{"mixed primitives widen to string", []FieldType{TypeInteger, TypeFloat, TypeBoolean}, TypeString},
		{"integer and float widen to float", []FieldType{TypeInteger, TypeInteger, TypeFloat}, TypeFloat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, perm := range permutations(tt.types) {
				assert.Equal(t, tt.want, fold(perm), "permutation %v", perm)
			}
		})
	}
}

func TestMergeIdempotent(t *testing.T) {
	for _, typ := range []FieldType{TypeUnknown, TypeString, TypeInteger, TypeFloat, TypeBoolean} {
		assert.Equal(t, typ, Merge(typ, typ))
	}
}

// No widening back: once STRING, always STRING.
func TestMergeMonotonic(t *testing.T) {
	for _, typ := range []FieldType{TypeInteger, TypeFloat, TypeBoolean, TypeUnknown} {
		assert.Equal(t, TypeString, Merge(TypeString, typ))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  FieldType
	}{
		{"nil", nil, TypeUnknown},
		{"string", "x", TypeString},
		{"bool", true, TypeBoolean},
		{"integer number", json.Number("42"), TypeInteger},
		{"negative integer number", json.Number("-7"), TypeInteger},
		{"decimal number", json.Number("3.14"), TypeFloat},
		{"exponent number", json.Number("1e6"), TypeFloat},
		{"float64", 2.5, TypeFloat},
		{"nested object", map[string]interface{}{"a": json.Number("1")}, TypeString},
		{"nested array", []interface{}{json.Number("1")}, TypeString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.value))
		})
	}
}

func permutations(in []FieldType) [][]FieldType {
	if len(in) <= 1 {
		return [][]FieldType{append([]FieldType(nil), in...)}
	}
	var out [][]FieldType
	for i := range in {
		rest := make([]FieldType, 0, len(in)-1)
		rest = append(rest, in[:i]...)
		rest = append(rest, in[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]FieldType{in[i]}, p...))
		}
	}
	return out
}
