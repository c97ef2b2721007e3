package milvus

import (
	"strconv"
	"strings"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

//
// ──────────────────────────────────────────────────────────────
//   EXPRESSION COMPILATION
// ──────────────────────────────────────────────────────────────
//
// Predicates compile into Milvus boolean expressions over the JSON
// metadata field, e.g.
//
//	metadata["lang"] == "en" and metadata["pages"] >= 100
//
// Unlike the other adapters there is no client-side fallback here:
// anything the expression language cannot express returns a
// TranslationError and the operation fails up front. Null metadata
// values are stripped at write time, so `exists` is an exact stand-in
// for the null-check operators.
//

// compileExpr translates predicates into one boolean expression.
// An empty predicate list compiles to the empty expression, which
// Milvus treats as match-all.
func compileExpr(predicates []vectordb.Predicate, mode vectordb.FilterMode) (string, error) {
	if len(predicates) == 0 {
		return "", nil
	}
	clauses := make([]string, 0, len(predicates))
	for _, p := range predicates {
		clause, err := compilePredicate(p)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}
	if len(clauses) == 1 {
		return clauses[0], nil
	}
	joiner := " and "
	if mode == vectordb.FilterOr {
		joiner = " or "
	}
	return "(" + strings.Join(clauses, joiner) + ")", nil
}

func compilePredicate(p vectordb.Predicate) (string, error) {
	field := fieldRef(p.Key)
	switch p.Op {
	case vectordb.OpEq:
		v, err := literal(p, p.Value)
		if err != nil {
			return "", err
		}
		return field + " == " + v, nil
	case vectordb.OpNe:
		v, err := literal(p, p.Value)
		if err != nil {
			return "", err
		}
		return field + " != " + v, nil
	case vectordb.OpGt, vectordb.OpGte, vectordb.OpLt, vectordb.OpLte:
		op := map[vectordb.Operation]string{
			vectordb.OpGt:  ">",
			vectordb.OpGte: ">=",
			vectordb.OpLt:  "<",
			vectordb.OpLte: "<=",
		}[p.Op]
		// Strings compare lexicographically.
		if s, ok := p.Value.(string); ok {
			return field + " " + op + " " + quoteString(s), nil
		}
		f, ok := numeric(p.Value)
		if !ok {
			return "", translationErr(p, "comparison requires a numeric or string value")
		}
		return field + " " + op + " " + formatNumber(f), nil
	case vectordb.OpIn:
		list, err := literalList(p)
		if err != nil {
			return "", err
		}
		return field + " in " + list, nil
	case vectordb.OpNotIn:
		list, err := literalList(p)
		if err != nil {
			return "", err
		}
		return field + " not in " + list, nil
	case vectordb.OpIsNull:
		return "not exists " + field, nil
	case vectordb.OpIsNotNull:
		return "exists " + field, nil
	case vectordb.OpStartsWith:
		return likeClause(p, field, false, true)
	case vectordb.OpEndsWith:
		return likeClause(p, field, true, false)
	case vectordb.OpContains:
		return likeClause(p, field, true, true)
	case vectordb.OpNotContains:
		clause, err := likeClause(p, field, true, true)
		if err != nil {
			return "", err
		}
		return "not (" + clause + ")", nil
	default:
		return "", translationErr(p, "unknown operation")
	}
}

// likeClause builds a LIKE pattern. Milvus has no escape syntax for
// its wildcards, so values containing them are untranslatable.
func likeClause(p vectordb.Predicate, field string, leadingWild, trailingWild bool) (string, error) {
	s, ok := p.Value.(string)
	if !ok {
		return "", translationErr(p, "string operator requires a string value")
	}
	if strings.ContainsAny(s, "%_") {
		return "", translationErr(p, "value contains LIKE wildcards")
	}
	pattern := s
	if leadingWild {
		pattern = "%" + pattern
	}
	if trailingWild {
		pattern += "%"
	}
	return field + " like " + quoteString(pattern), nil
}

func literal(p vectordb.Predicate, v any) (string, error) {
	switch s := v.(type) {
	case string:
		return quoteString(s), nil
	case bool:
		return strconv.FormatBool(s), nil
	default:
		if f, ok := numeric(v); ok {
			return formatNumber(f), nil
		}
	}
	return "", translationErr(p, "unsupported literal type")
}

func literalList(p vectordb.Predicate) (string, error) {
	var elems []any
	switch s := p.Value.(type) {
	case []string:
		for _, e := range s {
			elems = append(elems, e)
		}
	case []any:
		elems = s
	default:
		return "", translationErr(p, "membership requires a list value")
	}
	if len(elems) == 0 {
		return "", translationErr(p, "membership list is empty")
	}
	parts := make([]string, 0, len(elems))
	for _, e := range elems {
		lit, err := literal(p, e)
		if err != nil {
			return "", err
		}
		parts = append(parts, lit)
	}
	return "[" + strings.Join(parts, ", ") + "]", nil
}

// fieldRef addresses a metadata key inside the JSON column.
func fieldRef(key string) string {
	return fieldMetadata + "[" + quoteString(key) + "]"
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
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

func translationErr(p vectordb.Predicate, reason string) error {
	return &vectordb.TranslationError{Provider: providerName, Predicate: p, Reason: reason}
}
