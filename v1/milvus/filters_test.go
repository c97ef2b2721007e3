package milvus

import (
	"testing"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

func TestCompileExprEmpty(t *testing.T) {
	expr, err := compileExpr(nil, vectordb.FilterAnd)
	if err != nil || expr != "" {
		t.Fatalf("empty predicates should compile to the empty expression, got %q, %v", expr, err)
	}
}

func TestCompileExprOperators(t *testing.T) {
	cases := []struct {
		name string
		pred vectordb.Predicate
		want string
	}{
		{"eq string", vectordb.Eq("lang", "en"), `metadata["lang"] == "en"`},
		{"eq bool", vectordb.Eq("starred", true), `metadata["starred"] == true`},
		{"eq number", vectordb.Eq("pages", 120), `metadata["pages"] == 120`},
		{"ne", vectordb.Ne("lang", "en"), `metadata["lang"] != "en"`},
		{"gt", vectordb.Gt("pages", 100), `metadata["pages"] > 100`},
		{"gte", vectordb.Gte("pages", 100.5), `metadata["pages"] >= 100.5`},
		{"lt", vectordb.Lt("pages", 10), `metadata["pages"] < 10`},
		{"lte", vectordb.Lte("pages", 10), `metadata["pages"] <= 10`},
		{"in", vectordb.In("lang", "en", "de"), `metadata["lang"] in ["en", "de"]`},
		{"in slice value", vectordb.Predicate{Key: "lang", Op: vectordb.OpIn, Value: []string{"en", "de"}}, `metadata["lang"] in ["en", "de"]`},
		{"not_in", vectordb.NotIn("lang", "en", "de"), `metadata["lang"] not in ["en", "de"]`},
		{"gt string", vectordb.Gt("title", "intro"), `metadata["title"] > "intro"`},
		{"lte string", vectordb.Lte("version", "1.9"), `metadata["version"] <= "1.9"`},
		{"is_null", vectordb.IsNull("deleted_at"), `not exists metadata["deleted_at"]`},
		{"is_not_null", vectordb.IsNotNull("author"), `exists metadata["author"]`},
		{"starts_with", vectordb.StartsWith("title", "intro"), `metadata["title"] like "intro%"`},
		{"ends_with", vectordb.EndsWith("title", "guide"), `metadata["title"] like "%guide"`},
		{"contains", vectordb.Contains("title", "go"), `metadata["title"] like "%go%"`},
		{"not_contains", vectordb.NotContains("title", "go"), `not (metadata["title"] like "%go%")`},
	}
	for _, tc := range cases {
		got, err := compileExpr([]vectordb.Predicate{tc.pred}, vectordb.FilterAnd)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: expr = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestCompileExprModes(t *testing.T) {
	preds := []vectordb.Predicate{
		vectordb.Eq("lang", "en"),
		vectordb.Gt("pages", 100),
	}

	and, err := compileExpr(preds, vectordb.FilterAnd)
	if err != nil {
		t.Fatal(err)
	}
	if and != `(metadata["lang"] == "en" and metadata["pages"] > 100)` {
		t.Errorf("and expr = %q", and)
	}

	or, err := compileExpr(preds, vectordb.FilterOr)
	if err != nil {
		t.Fatal(err)
	}
	if or != `(metadata["lang"] == "en" or metadata["pages"] > 100)` {
		t.Errorf("or expr = %q", or)
	}
}

func TestCompileExprStringEscaping(t *testing.T) {
	expr, err := compileExpr([]vectordb.Predicate{
		vectordb.Eq("title", `say "hi"`),
	}, vectordb.FilterAnd)
	if err != nil {
		t.Fatal(err)
	}
	want := `metadata["title"] == "say \"hi\""`
	if expr != want {
		t.Errorf("expr = %q, want %q", expr, want)
	}
}

func TestCompileExprHardFailures(t *testing.T) {
	cases := []struct {
		name string
		pred vectordb.Predicate
	}{
		{"gt with bool", vectordb.Gt("pages", true)},
		{"in with scalar", vectordb.Predicate{Key: "lang", Op: vectordb.OpIn, Value: "en"}},
		{"in with empty list", vectordb.Predicate{Key: "lang", Op: vectordb.OpIn, Value: []string{}}},
		{"in with map element", vectordb.In("lang", map[string]any{"x": 1})},
		{"contains wildcard", vectordb.Contains("title", "50%")},
		{"starts_with underscore", vectordb.StartsWith("code", "a_b")},
		{"starts_with non-string", vectordb.Predicate{Key: "title", Op: vectordb.OpStartsWith, Value: 42}},
		{"eq with slice", vectordb.Eq("tags", []string{"a"})},
		{"unknown op", vectordb.Predicate{Key: "x", Op: vectordb.Operation("between"), Value: 1}},
	}
	for _, tc := range cases {
		_, err := compileExpr([]vectordb.Predicate{tc.pred}, vectordb.FilterAnd)
		if !vectordb.IsTranslationError(err) {
			t.Errorf("%s: err = %v, want TranslationError", tc.name, err)
		}
	}
}

func TestStringList(t *testing.T) {
	if got := stringList([]string{"a", `b"c`}); got != `["a", "b\"c"]` {
		t.Errorf("stringList = %q", got)
	}
}
