package vectordb

import (
	"encoding/json"
	"reflect"
	"strings"
)

// Evaluate reports whether a document's metadata satisfies the
// predicates under the given mode. It is the reference semantics that
// every backend translation must agree with, and the fallback adapters
// use for predicates their filter language cannot express.
//
// An empty predicate list matches everything. Predicates with an
// operation this package does not know match as well, so that filters
// written against a newer revision degrade to "no constraint" instead
// of silently hiding documents.
func Evaluate(metadata map[string]any, predicates []Predicate, mode FilterMode) bool {
	if len(predicates) == 0 {
		return true
	}
	if mode == FilterOr {
		for _, p := range predicates {
			if evalPredicate(metadata, p) {
				return true
			}
		}
		return false
	}
	for _, p := range predicates {
		if !evalPredicate(metadata, p) {
			return false
		}
	}
	return true
}

// FilterDocuments returns the documents whose metadata passes Evaluate.
func FilterDocuments(docs []Document, predicates []Predicate, mode FilterMode) []Document {
	if len(predicates) == 0 {
		return docs
	}
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if Evaluate(d.Metadata, predicates, mode) {
			out = append(out, d)
		}
	}
	return out
}

// FilterResults is FilterDocuments over scored results.
func FilterResults(results []SearchResult, predicates []Predicate, mode FilterMode) []SearchResult {
	if len(predicates) == 0 {
		return results
	}
	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		if Evaluate(r.Document.Metadata, predicates, mode) {
			out = append(out, r)
		}
	}
	return out
}

func evalPredicate(metadata map[string]any, p Predicate) bool {
	var (
		value   any
		present bool
	)
	if metadata != nil {
		value, present = metadata[p.Key]
	}

	// The null checks see absent and explicit-null fields as the same
	// thing and must run before the missing-key short circuit.
	switch p.Op {
	case OpIsNull:
		return !present || value == nil
	case OpIsNotNull:
		return present && value != nil
	}

	if !present {
		return false
	}

	switch p.Op {
	case OpEq:
		return looseEqual(value, p.Value)
	case OpNe:
		return !looseEqual(value, p.Value)
	case OpGt:
		cmp, ok := compareValues(value, p.Value)
		return ok && cmp > 0
	case OpGte:
		cmp, ok := compareValues(value, p.Value)
		return ok && cmp >= 0
	case OpLt:
		cmp, ok := compareValues(value, p.Value)
		return ok && cmp < 0
	case OpLte:
		cmp, ok := compareValues(value, p.Value)
		return ok && cmp <= 0
	case OpIn:
		set, ok := asSlice(p.Value)
		if !ok {
			return false
		}
		return sliceContains(set, value)
	case OpNotIn:
		set, ok := asSlice(p.Value)
		if !ok {
			return true
		}
		return !sliceContains(set, value)
	case OpStartsWith:
		fs, ok1 := value.(string)
		ps, ok2 := p.Value.(string)
		return ok1 && ok2 && strings.HasPrefix(fs, ps)
	case OpEndsWith:
		fs, ok1 := value.(string)
		ps, ok2 := p.Value.(string)
		return ok1 && ok2 && strings.HasSuffix(fs, ps)
	case OpContains:
		if fs, ok := value.(string); ok {
			if ps, ok := p.Value.(string); ok {
				return strings.Contains(fs, ps)
			}
			return false
		}
		if elems, ok := asSlice(value); ok {
			return sliceContains(elems, p.Value)
		}
		return false
	case OpNotContains:
		if fs, ok := value.(string); ok {
			if ps, ok := p.Value.(string); ok {
				return !strings.Contains(fs, ps)
			}
			return true
		}
		if elems, ok := asSlice(value); ok {
			return !sliceContains(elems, p.Value)
		}
		return true
	}

	// Unknown operation: treat as matching.
	return true
}

// looseEqual compares two metadata values, coercing across numeric
// types so that int64(3) from a caller equals float64(3) from decoded
// JSON.
func looseEqual(a, b any) bool {
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		return bok && af == bf
	}
	return reflect.DeepEqual(a, b)
}

// compareValues orders two values if they are both numeric or both
// strings. The second return is false when they are incomparable.
func compareValues(a, b any) (int, bool) {
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		if !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if !aok || !bok {
		return 0, false
	}
	return strings.Compare(as, bs), true
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []int:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []float64:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	default:
		return nil, false
	}
}

func sliceContains(set []any, v any) bool {
	for _, e := range set {
		if looseEqual(e, v) {
			return true
		}
	}
	return false
}
