// Package schema infers BigQuery column types from a stream of features and
// renders the resulting schema as JSON and plaintext files.
package schema

import (
	"encoding/json"
	"strings"
)

// FieldType is a BigQuery column datatype.
type FieldType string

// Supported datatypes. TypeUnknown marks a column whose values were always
// null, so no type could be determined.
const (
	TypeUnknown   FieldType = "UNKNOWN"
	TypeString    FieldType = "STRING"
	TypeInteger   FieldType = "INTEGER"
	TypeFloat     FieldType = "FLOAT"
	TypeBoolean   FieldType = "BOOLEAN"
	TypeGeography FieldType = "GEOGRAPHY"
)

// Mode is a BigQuery column mode.
type Mode string

// Column modes.
const (
	ModeNullable Mode = "NULLABLE"
	ModeRequired Mode = "REQUIRED"
)

// Merge widens two observed types into the type that can hold values of both.
// Widening is monotonic: once a column has conflicting primitive kinds it
// stays STRING. INTEGER and FLOAT merge to FLOAT. The merge is commutative
// and idempotent.
func Merge(a, b FieldType) FieldType {
	if a == b {
		return a
	}
	if a == TypeUnknown {
		return b
	}
	if b == TypeUnknown {
		return a
	}
	if (a == TypeInteger && b == TypeFloat) || (a == TypeFloat && b == TypeInteger) {
		return TypeFloat
	}
	return TypeString
}

// Classify maps a decoded JSON property value to its datatype. Nested objects
// and arrays classify as STRING since they are emitted in serialized form.
// Null values classify as UNKNOWN.
func Classify(value interface{}) FieldType {
	switch v := value.(type) {
	case nil:
		return TypeUnknown
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case json.Number:
		if strings.ContainsAny(v.String(), ".eE") {
			return TypeFloat
		}
		return TypeInteger
	case float64:
		return TypeFloat
	default:
		return TypeString
	}
}
