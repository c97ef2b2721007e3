package pinecone

import (
	"testing"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

func filterMap(t *testing.T, tr translation) map[string]any {
	t.Helper()
	if tr.Filter == nil {
		t.Fatal("expected a native filter")
	}
	return tr.Filter.AsMap()
}

func TestCompileFilterEmpty(t *testing.T) {
	tr := compileFilter(nil, vectordb.FilterAnd)
	if tr.Filter != nil || tr.PostFilter {
		t.Fatalf("empty predicates should compile to nothing, got %+v", tr)
	}
}

func TestCompileFilterSingleClause(t *testing.T) {
	tr := compileFilter([]vectordb.Predicate{
		vectordb.Eq("lang", "en"),
	}, vectordb.FilterAnd)

	m := filterMap(t, tr)
	if tr.PostFilter {
		t.Error("eq is exact, no post-filter expected")
	}
	// Single clauses skip the $and wrapper.
	clause, ok := m["lang"].(map[string]any)
	if !ok || clause["$eq"] != "en" {
		t.Errorf("filter = %v, want {lang: {$eq: en}}", m)
	}
}

func TestCompileFilterAndWrapper(t *testing.T) {
	tr := compileFilter([]vectordb.Predicate{
		vectordb.Eq("lang", "en"),
		vectordb.Gte("pages", 100),
	}, vectordb.FilterAnd)

	m := filterMap(t, tr)
	clauses, ok := m["$and"].([]any)
	if !ok || len(clauses) != 2 {
		t.Fatalf("filter = %v, want two $and clauses", m)
	}
	if tr.PostFilter {
		t.Error("fully native AND should not post-filter")
	}
}

func TestCompileFilterOrWrapper(t *testing.T) {
	tr := compileFilter([]vectordb.Predicate{
		vectordb.Eq("lang", "en"),
		vectordb.Eq("lang", "de"),
	}, vectordb.FilterOr)

	m := filterMap(t, tr)
	if clauses, ok := m["$or"].([]any); !ok || len(clauses) != 2 {
		t.Fatalf("filter = %v, want two $or clauses", m)
	}
}

func TestCompileFilterNumbersBecomeDoubles(t *testing.T) {
	tr := compileFilter([]vectordb.Predicate{
		vectordb.Gt("pages", 100),
	}, vectordb.FilterAnd)

	m := filterMap(t, tr)
	clause := m["pages"].(map[string]any)
	if f, ok := clause["$gt"].(float64); !ok || f != 100 {
		t.Errorf("$gt = %v (%T), want float64 100", clause["$gt"], clause["$gt"])
	}
}

func TestCompileFilterNullChecks(t *testing.T) {
	tr := compileFilter([]vectordb.Predicate{
		vectordb.IsNull("deleted_at"),
		vectordb.IsNotNull("author"),
	}, vectordb.FilterAnd)

	m := filterMap(t, tr)
	if tr.PostFilter {
		t.Error("null checks are exact on pinecone, no post-filter expected")
	}
	clauses := m["$and"].([]any)
	first := clauses[0].(map[string]any)["deleted_at"].(map[string]any)
	if exists, ok := first["$exists"].(bool); !ok || exists {
		t.Errorf("is_null clause = %v, want $exists false", first)
	}
}

func TestCompileFilterAndPartial(t *testing.T) {
	tr := compileFilter([]vectordb.Predicate{
		vectordb.Eq("lang", "en"),
		vectordb.StartsWith("title", "intro"),
	}, vectordb.FilterAnd)

	m := filterMap(t, tr)
	if _, ok := m["lang"]; !ok {
		t.Errorf("filter = %v, want the surviving eq clause", m)
	}
	if !tr.PostFilter {
		t.Error("partial AND translation must post-filter")
	}
}

func TestCompileFilterOrDropsOnUntranslatable(t *testing.T) {
	tr := compileFilter([]vectordb.Predicate{
		vectordb.Eq("lang", "en"),
		vectordb.Contains("title", "go"),
	}, vectordb.FilterOr)

	if tr.Filter != nil {
		t.Errorf("OR with an untranslatable predicate must drop the filter, got %v", tr.Filter.AsMap())
	}
	if !tr.PostFilter {
		t.Error("expected post-filter after dropping the native filter")
	}
}

func TestCompileFilterMembership(t *testing.T) {
	tr := compileFilter([]vectordb.Predicate{
		{Key: "lang", Op: vectordb.OpIn, Value: []string{"en", "de"}},
	}, vectordb.FilterAnd)

	m := filterMap(t, tr)
	clause := m["lang"].(map[string]any)
	if list, ok := clause["$in"].([]any); !ok || len(list) != 2 {
		t.Errorf("$in = %v, want two elements", clause["$in"])
	}

	// The variadic helper compiles identically.
	tr = compileFilter([]vectordb.Predicate{
		vectordb.In("lang", "en", "de"),
	}, vectordb.FilterAnd)
	m = filterMap(t, tr)
	clause = m["lang"].(map[string]any)
	if list, ok := clause["$in"].([]any); !ok || len(list) != 2 {
		t.Errorf("$in = %v, want two elements", clause["$in"])
	}

	// Mixed-type lists stay client-side.
	tr = compileFilter([]vectordb.Predicate{
		vectordb.In("rank", 1, "two"),
	}, vectordb.FilterAnd)
	if tr.Filter != nil || !tr.PostFilter {
		t.Errorf("mixed-type in should fall back, got %+v", tr)
	}
}
