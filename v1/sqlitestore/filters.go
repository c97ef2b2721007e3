package sqlitestore

import (
	"encoding/json"
	"strings"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

// whereClause is a compiled SQL fragment over the documents table.
// Native is false when at least one predicate could not be pushed
// down, in which case the caller must re-run the full predicate list
// through the evaluator on the fetched rows.
type whereClause struct {
	SQL    string
	Args   []any
	Native bool
}

// compileWhere pushes equality predicates into SQL via json_extract.
// Everything beyond equality stays client-side: SQLite's JSON1 would
// let us express more, but its type coercion rules differ from the
// evaluator's and equality is the only operator where the two agree on
// every input.
//
// In AND mode the supported subset still narrows rows correctly even
// when other predicates remain client-side. In OR mode a partial
// clause would wrongly exclude rows matched only by unsupported
// predicates, so the clause is dropped unless every predicate
// compiled.
func compileWhere(predicates []vectordb.Predicate, mode vectordb.FilterMode) whereClause {
	if len(predicates) == 0 {
		return whereClause{Native: true}
	}

	var (
		frags []string
		args  []any
		all   = true
	)
	for _, p := range predicates {
		frag, arg, ok := compilePredicate(p)
		if !ok {
			all = false
			continue
		}
		frags = append(frags, frag)
		args = append(args, arg...)
	}

	if mode == vectordb.FilterOr {
		if !all {
			return whereClause{Native: false}
		}
		return whereClause{SQL: "(" + strings.Join(frags, " OR ") + ")", Args: args, Native: true}
	}

	wc := whereClause{Args: args, Native: all}
	if len(frags) > 0 {
		wc.SQL = strings.Join(frags, " AND ")
	}
	return wc
}

func compilePredicate(p vectordb.Predicate) (string, []any, bool) {
	if p.Op != vectordb.OpEq {
		return "", nil, false
	}
	if !simpleKey(p.Key) {
		// Dots and quotes would change the JSON path's meaning.
		return "", nil, false
	}
	arg, ok := sqlValue(p.Value)
	if !ok {
		return "", nil, false
	}
	return "json_extract(metadata, '$.' || ?) = ?", []any{p.Key, arg}, true
}

func simpleKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// sqlValue maps a predicate comparand onto what json_extract yields
// for it. Composite values never push down.
func sqlValue(v any) (any, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		// json_extract surfaces JSON booleans as 0/1.
		if x {
			return 1, true
		}
		return 0, true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return int64(x), true
	case int64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	default:
		return nil, false
	}
}
