package vectordb

import (
	"encoding/json"
	"fmt"
)

// Operation is a comparison applied to a single metadata field.
type Operation string

// The full predicate algebra. Every backend adapter translates as much
// of it as its filter language allows and falls back to [Evaluate] for
// the rest.
const (
	OpEq          Operation = "eq"
	OpNe          Operation = "ne"
	OpGt          Operation = "gt"
	OpGte         Operation = "gte"
	OpLt          Operation = "lt"
	OpLte         Operation = "lte"
	OpIn          Operation = "in"
	OpNotIn       Operation = "not_in"
	OpIsNull      Operation = "is_null"
	OpIsNotNull   Operation = "is_not_null"
	OpStartsWith  Operation = "starts_with"
	OpEndsWith    Operation = "ends_with"
	OpContains    Operation = "contains"
	OpNotContains Operation = "not_contains"
)

// Predicate is one field comparison. Key addresses a metadata field,
// Value is the comparand (ignored by the null checks) and Op selects
// the comparison.
type Predicate struct {
	Key   string    `json:"key"`
	Value any       `json:"value,omitempty"`
	Op    Operation `json:"op"`
}

// ── Predicate Constructors ───────────────────────────────────────────────────

// Eq matches documents whose field equals value.
func Eq(key string, value any) Predicate { return Predicate{Key: key, Value: value, Op: OpEq} }

// Ne matches documents whose field differs from value.
func Ne(key string, value any) Predicate { return Predicate{Key: key, Value: value, Op: OpNe} }

// Gt matches documents whose field is strictly greater than value.
func Gt(key string, value any) Predicate { return Predicate{Key: key, Value: value, Op: OpGt} }

// Gte matches documents whose field is greater than or equal to value.
func Gte(key string, value any) Predicate { return Predicate{Key: key, Value: value, Op: OpGte} }

// Lt matches documents whose field is strictly less than value.
func Lt(key string, value any) Predicate { return Predicate{Key: key, Value: value, Op: OpLt} }

// Lte matches documents whose field is less than or equal to value.
func Lte(key string, value any) Predicate { return Predicate{Key: key, Value: value, Op: OpLte} }

// In matches documents whose field equals one of the given values.
// Values are variadic: spread an existing slice with In("k", vals...)
// or build the Predicate literal directly; passing a slice as a single
// argument wraps it in another slice and matches nothing.
func In(key string, values ...any) Predicate {
	return Predicate{Key: key, Value: values, Op: OpIn}
}

// NotIn matches documents whose field equals none of the given values.
// The same variadic caveat as [In] applies.
func NotIn(key string, values ...any) Predicate {
	return Predicate{Key: key, Value: values, Op: OpNotIn}
}

// IsNull matches documents where the field is absent or explicitly null.
func IsNull(key string) Predicate { return Predicate{Key: key, Op: OpIsNull} }

// IsNotNull matches documents where the field is present and non-null.
func IsNotNull(key string) Predicate { return Predicate{Key: key, Op: OpIsNotNull} }

// StartsWith matches string fields with the given prefix.
func StartsWith(key, prefix string) Predicate {
	return Predicate{Key: key, Value: prefix, Op: OpStartsWith}
}

// EndsWith matches string fields with the given suffix.
func EndsWith(key, suffix string) Predicate {
	return Predicate{Key: key, Value: suffix, Op: OpEndsWith}
}

// Contains matches string fields containing value as a substring, or
// array fields containing value as an element.
func Contains(key string, value any) Predicate {
	return Predicate{Key: key, Value: value, Op: OpContains}
}

// NotContains is the negation of Contains.
func NotContains(key string, value any) Predicate {
	return Predicate{Key: key, Value: value, Op: OpNotContains}
}

// ── Parsing ──────────────────────────────────────────────────────────────────

// ParsePredicates decodes a JSON array of predicate objects, e.g.
//
//	[{"key":"status","op":"eq","value":"published"},
//	 {"key":"year","op":"gte","value":2020}]
//
// Unknown operations are accepted here; [Evaluate] treats them as
// matching and adapters refuse to translate them.
func ParsePredicates(data []byte) ([]Predicate, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var preds []Predicate
	if err := json.Unmarshal(data, &preds); err != nil {
		return nil, fmt.Errorf("parsing predicates: %w", err)
	}
	for i, p := range preds {
		if p.Key == "" {
			return nil, fmt.Errorf("predicate %d: missing key", i)
		}
		if p.Op == "" {
			return nil, fmt.Errorf("predicate %d: missing op", i)
		}
	}
	return preds, nil
}

// ParseFilterMode converts its string form, defaulting to AND.
func ParseFilterMode(s string) (FilterMode, error) {
	switch s {
	case "", string(FilterAnd):
		return FilterAnd, nil
	case string(FilterOr):
		return FilterOr, nil
	default:
		return "", fmt.Errorf("unknown filter mode %q", s)
	}
}
