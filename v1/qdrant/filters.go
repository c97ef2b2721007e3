package qdrant

import (
	qdrant "github.com/qdrant/go-client/qdrant"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

//
// ──────────────────────────────────────────────────────────────
//   FILTER TRANSLATION
// ──────────────────────────────────────────────────────────────
//
// Predicates compile onto Qdrant's must / should / must_not clauses.
// Qdrant covers most of the algebra natively; what it cannot express
// exactly is re-checked client-side through the shared evaluator.
//
// The translation is allowed to be a superset of the true match set
// (taking is_null to Qdrant's IsEmpty, for example, which also matches
// empty arrays) because every approximate compile sets PostFilter and
// the evaluator trims the extras. A subset would silently drop valid
// results, so nothing here ever narrows beyond the predicate.
//

// translation is the outcome of compiling a predicate list.
type translation struct {
	// Filter is the native Qdrant filter, nil when nothing compiled.
	Filter *qdrant.Filter
	// PostFilter requires the caller to re-run the full predicate list
	// through vectordb.Evaluate on the fetched candidates.
	PostFilter bool
}

// compiled is one predicate's native form.
type compiled struct {
	cond *qdrant.Condition
	// negated conditions belong in must_not, which only exists at the
	// top level of an AND filter.
	negated bool
	// exact is false when cond matches a superset of the predicate.
	exact bool
	ok    bool
}

// compileFilter translates predicates for the given mode.
//
// AND mode keeps every condition that compiled and post-filters when
// any predicate was approximate or dropped; a partial must clause
// still narrows candidates correctly. OR mode cannot keep a partial
// clause (it would exclude rows matched only by the dropped
// predicate), so one untranslatable predicate abandons the native
// filter entirely.
func compileFilter(predicates []vectordb.Predicate, mode vectordb.FilterMode) translation {
	if len(predicates) == 0 {
		return translation{}
	}

	if mode == vectordb.FilterOr {
		var should []*qdrant.Condition
		post := false
		for _, p := range predicates {
			c := compilePredicate(p)
			if !c.ok || c.negated {
				return translation{PostFilter: true}
			}
			if !c.exact {
				post = true
			}
			should = append(should, c.cond)
		}
		return translation{Filter: &qdrant.Filter{Should: should}, PostFilter: post}
	}

	var (
		must    []*qdrant.Condition
		mustNot []*qdrant.Condition
		post    = false
	)
	for _, p := range predicates {
		c := compilePredicate(p)
		if !c.ok {
			post = true
			continue
		}
		if !c.exact {
			post = true
		}
		if c.negated {
			mustNot = append(mustNot, c.cond)
		} else {
			must = append(must, c.cond)
		}
	}
	if len(must) == 0 && len(mustNot) == 0 {
		return translation{PostFilter: post}
	}
	return translation{Filter: &qdrant.Filter{Must: must, MustNot: mustNot}, PostFilter: post}
}

func compilePredicate(p vectordb.Predicate) compiled {
	switch p.Op {
	case vectordb.OpEq:
		if cond, ok := matchCondition(p.Key, p.Value); ok {
			return compiled{cond: cond, exact: true, ok: true}
		}
	case vectordb.OpNe:
		if cond, ok := matchCondition(p.Key, p.Value); ok {
			return compiled{cond: cond, negated: true, exact: true, ok: true}
		}
	case vectordb.OpGt:
		if f, ok := numeric(p.Value); ok {
			return compiled{cond: qdrant.NewRange(p.Key, &qdrant.Range{Gt: &f}), exact: true, ok: true}
		}
	case vectordb.OpGte:
		if f, ok := numeric(p.Value); ok {
			return compiled{cond: qdrant.NewRange(p.Key, &qdrant.Range{Gte: &f}), exact: true, ok: true}
		}
	case vectordb.OpLt:
		if f, ok := numeric(p.Value); ok {
			return compiled{cond: qdrant.NewRange(p.Key, &qdrant.Range{Lt: &f}), exact: true, ok: true}
		}
	case vectordb.OpLte:
		if f, ok := numeric(p.Value); ok {
			return compiled{cond: qdrant.NewRange(p.Key, &qdrant.Range{Lte: &f}), exact: true, ok: true}
		}
	case vectordb.OpIn:
		if keywords, ok := stringSlice(p.Value); ok {
			return compiled{cond: qdrant.NewMatchKeywords(p.Key, keywords...), exact: true, ok: true}
		}
	case vectordb.OpNotIn:
		if keywords, ok := stringSlice(p.Value); ok {
			return compiled{cond: qdrant.NewMatchExceptKeywords(p.Key, keywords...), exact: true, ok: true}
		}
	case vectordb.OpIsNull:
		// IsEmpty also matches empty arrays, a superset of is_null.
		return compiled{cond: qdrant.NewIsEmpty(p.Key), exact: false, ok: true}
	case vectordb.OpIsNotNull:
		// Negated IsNull drops explicit nulls natively; absent keys
		// survive the native filter and fall to the evaluator. Negating
		// IsEmpty instead would also drop empty arrays, which the
		// predicate considers non-null.
		return compiled{cond: qdrant.NewIsNull(p.Key), negated: true, exact: false, ok: true}
	}
	// The string operators (starts_with, ends_with, contains,
	// not_contains) do not map onto Qdrant's token-based text match.
	return compiled{}
}

// matchCondition builds an equality condition for scalar values.
// Numbers go through range bounds because payloads decoded from JSON
// arrive as doubles, which Qdrant's integer match does not see.
func matchCondition(key string, value any) (*qdrant.Condition, bool) {
	switch v := value.(type) {
	case string:
		return qdrant.NewMatch(key, v), true
	case bool:
		return qdrant.NewMatchBool(key, v), true
	default:
		if f, ok := numeric(value); ok {
			return qdrant.NewRange(key, &qdrant.Range{Gte: &f, Lte: &f}), true
		}
	}
	return nil, false
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func stringSlice(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, len(s) > 0
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			str, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, len(out) > 0
	default:
		return nil, false
	}
}
