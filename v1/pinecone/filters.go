package pinecone

import (
	pc "github.com/pinecone-io/go-pinecone/v3/pinecone"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

//
// ──────────────────────────────────────────────────────────────
//   FILTER TRANSLATION
// ──────────────────────────────────────────────────────────────
//
// Predicates compile onto Pinecone's metadata query language
// ($eq, $ne, $gt, $gte, $lt, $lte, $in, $nin, $exists) combined with
// $and / $or. Pinecone cannot store null metadata values and its
// operators skip records missing the field, which lines up with the
// evaluator's missing-key semantics, so the translated operators are
// exact. The string operators (starts_with, ends_with, contains,
// not_contains) have no native form and fall back to client-side
// evaluation.
//
// As everywhere, a native filter may only widen the match set when
// PostFilter is set; it must never narrow it. That is why OR mode
// abandons the whole native filter when any predicate fails to
// compile.
//

// translation is the outcome of compiling a predicate list.
type translation struct {
	// Filter is the native metadata filter, nil when nothing compiled.
	Filter *pc.MetadataFilter
	// PostFilter requires the caller to re-run the full predicate list
	// through vectordb.Evaluate on the fetched candidates.
	PostFilter bool
}

// compileFilter translates predicates for the given mode.
func compileFilter(predicates []vectordb.Predicate, mode vectordb.FilterMode) translation {
	if len(predicates) == 0 {
		return translation{}
	}

	clauses := make([]map[string]any, 0, len(predicates))
	post := false
	for _, p := range predicates {
		clause, ok := compilePredicate(p)
		if !ok {
			if mode == vectordb.FilterOr {
				// A partial should-list would narrow the results.
				return translation{PostFilter: true}
			}
			post = true
			continue
		}
		clauses = append(clauses, clause)
	}
	if len(clauses) == 0 {
		return translation{PostFilter: post}
	}

	var root map[string]any
	switch {
	case len(clauses) == 1:
		root = clauses[0]
	case mode == vectordb.FilterOr:
		root = map[string]any{"$or": anyClauses(clauses)}
	default:
		root = map[string]any{"$and": anyClauses(clauses)}
	}

	filter, err := structpb.NewStruct(root)
	if err != nil {
		// Unrepresentable value slipped through; fall back entirely.
		return translation{PostFilter: true}
	}
	return translation{Filter: filter, PostFilter: post}
}

func compilePredicate(p vectordb.Predicate) (map[string]any, bool) {
	switch p.Op {
	case vectordb.OpEq:
		if v, ok := scalar(p.Value); ok {
			return map[string]any{p.Key: map[string]any{"$eq": v}}, true
		}
	case vectordb.OpNe:
		if v, ok := scalar(p.Value); ok {
			return map[string]any{p.Key: map[string]any{"$ne": v}}, true
		}
	case vectordb.OpGt:
		if f, ok := numeric(p.Value); ok {
			return map[string]any{p.Key: map[string]any{"$gt": f}}, true
		}
	case vectordb.OpGte:
		if f, ok := numeric(p.Value); ok {
			return map[string]any{p.Key: map[string]any{"$gte": f}}, true
		}
	case vectordb.OpLt:
		if f, ok := numeric(p.Value); ok {
			return map[string]any{p.Key: map[string]any{"$lt": f}}, true
		}
	case vectordb.OpLte:
		if f, ok := numeric(p.Value); ok {
			return map[string]any{p.Key: map[string]any{"$lte": f}}, true
		}
	case vectordb.OpIn:
		if list, ok := scalarList(p.Value); ok {
			return map[string]any{p.Key: map[string]any{"$in": list}}, true
		}
	case vectordb.OpNotIn:
		if list, ok := scalarList(p.Value); ok {
			return map[string]any{p.Key: map[string]any{"$nin": list}}, true
		}
	case vectordb.OpIsNull:
		// Nulls are stripped at write time, so absence is the only
		// null form Pinecone can hold.
		return map[string]any{p.Key: map[string]any{"$exists": false}}, true
	case vectordb.OpIsNotNull:
		return map[string]any{p.Key: map[string]any{"$exists": true}}, true
	}
	return nil, false
}

// scalar normalizes filterable scalar values; numbers become float64
// so they survive the structpb round trip.
func scalar(v any) (any, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case bool:
		return s, true
	default:
		if f, ok := numeric(v); ok {
			return f, true
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

// scalarList normalizes membership lists. Pinecone requires the list
// elements to share a type, so mixed lists fall back.
func scalarList(v any) ([]any, bool) {
	switch s := v.(type) {
	case []string:
		out := make([]any, 0, len(s))
		for _, e := range s {
			out = append(out, e)
		}
		return out, len(out) > 0
	case []any:
		if len(s) == 0 {
			return nil, false
		}
		out := make([]any, 0, len(s))
		_, firstIsString := s[0].(string)
		for _, e := range s {
			switch sc := e.(type) {
			case string:
				if !firstIsString {
					return nil, false
				}
				out = append(out, sc)
			default:
				f, ok := numeric(e)
				if !ok || firstIsString {
					return nil, false
				}
				out = append(out, f)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func anyClauses(clauses []map[string]any) []any {
	out := make([]any, 0, len(clauses))
	for _, c := range clauses {
		out = append(out, c)
	}
	return out
}
