package weaviate

import (
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

//
// ──────────────────────────────────────────────────────────────
//   FILTER TRANSLATION
// ──────────────────────────────────────────────────────────────
//
// Only equality pushes down. Weaviate's where filters are typed per
// property, and the flattened metadata properties get their types from
// auto-schema at write time; pushing anything beyond an exact match
// would need the schema consulted per key to pick the right operand
// type. Equality on scalars is unambiguous, everything else goes
// through the shared evaluator on an over-fetched candidate set.
//
// The usual rule applies: a native filter may only widen the match set
// when PostFilter is set, never narrow it, so OR mode abandons the
// native filter as soon as one predicate fails to compile.
//

// translation is the outcome of compiling a predicate list.
type translation struct {
	// Where is the native filter, nil when nothing compiled.
	Where *filters.WhereBuilder
	// PostFilter requires the caller to re-run the full predicate list
	// through vectordb.Evaluate on the fetched candidates.
	PostFilter bool
}

// compileFilter translates predicates for the given mode.
func compileFilter(predicates []vectordb.Predicate, mode vectordb.FilterMode) translation {
	if len(predicates) == 0 {
		return translation{}
	}

	operands := make([]*filters.WhereBuilder, 0, len(predicates))
	post := false
	for _, p := range predicates {
		where, ok := compilePredicate(p)
		if !ok {
			if mode == vectordb.FilterOr {
				// A partial operand list would narrow the results.
				return translation{PostFilter: true}
			}
			post = true
			continue
		}
		operands = append(operands, where)
	}
	if len(operands) == 0 {
		return translation{PostFilter: post}
	}
	if len(operands) == 1 {
		return translation{Where: operands[0], PostFilter: post}
	}

	op := filters.And
	if mode == vectordb.FilterOr {
		op = filters.Or
	}
	return translation{
		Where:      filters.Where().WithOperator(op).WithOperands(operands),
		PostFilter: post,
	}
}

// compilePredicate handles the single native case: equality on a
// scalar value against a flattenable key.
func compilePredicate(p vectordb.Predicate) (*filters.WhereBuilder, bool) {
	if p.Op != vectordb.OpEq || !flattenable(p.Key, p.Value) {
		return nil, false
	}

	where := filters.Where().WithPath([]string{p.Key})
	switch v := p.Value.(type) {
	case string:
		return where.WithOperator(filters.Equal).WithValueText(v), true
	case bool:
		return where.WithOperator(filters.Equal).WithValueBoolean(v), true
	case float64:
		return where.WithOperator(filters.Equal).WithValueNumber(v), true
	case float32:
		return where.WithOperator(filters.Equal).WithValueNumber(float64(v)), true
	case int:
		return where.WithOperator(filters.Equal).WithValueNumber(float64(v)), true
	case int32:
		return where.WithOperator(filters.Equal).WithValueNumber(float64(v)), true
	case int64:
		return where.WithOperator(filters.Equal).WithValueNumber(float64(v)), true
	default:
		return nil, false
	}
}
