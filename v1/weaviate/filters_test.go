package weaviate

import (
	"testing"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

func TestCompileFilterEmpty(t *testing.T) {
	tr := compileFilter(nil, vectordb.FilterAnd)
	if tr.Where != nil || tr.PostFilter {
		t.Fatalf("empty predicates should compile to nothing, got %+v", tr)
	}
}

func TestCompileFilterEqualityIsNative(t *testing.T) {
	for _, p := range []vectordb.Predicate{
		vectordb.Eq("lang", "en"),
		vectordb.Eq("starred", true),
		vectordb.Eq("pages", 120),
		vectordb.Eq("score", 0.5),
	} {
		tr := compileFilter([]vectordb.Predicate{p}, vectordb.FilterAnd)
		if tr.Where == nil {
			t.Errorf("eq on %s should compile natively", p.Key)
		}
		if tr.PostFilter {
			t.Errorf("eq on %s should not post-filter", p.Key)
		}
	}
}

func TestCompileFilterNonEqualityFallsBack(t *testing.T) {
	for _, p := range []vectordb.Predicate{
		vectordb.Ne("lang", "en"),
		vectordb.Gt("pages", 100),
		vectordb.In("lang", "en"),
		vectordb.IsNull("deleted_at"),
		vectordb.StartsWith("title", "intro"),
		vectordb.Eq("Bad-Key", "x"),             // not a GraphQL-safe name
		vectordb.Eq("tags", []string{"a", "b"}), // not a scalar
	} {
		tr := compileFilter([]vectordb.Predicate{p}, vectordb.FilterAnd)
		if tr.Where != nil {
			t.Errorf("%s on %s should not compile natively", p.Op, p.Key)
		}
		if !tr.PostFilter {
			t.Errorf("%s on %s must post-filter", p.Op, p.Key)
		}
	}
}

func TestCompileFilterAndPartial(t *testing.T) {
	tr := compileFilter([]vectordb.Predicate{
		vectordb.Eq("lang", "en"),
		vectordb.Gt("pages", 100),
	}, vectordb.FilterAnd)

	if tr.Where == nil {
		t.Error("the eq clause should survive as a partial native filter")
	}
	if !tr.PostFilter {
		t.Error("partial AND translation must post-filter")
	}
}

func TestCompileFilterOrDropsOnUntranslatable(t *testing.T) {
	tr := compileFilter([]vectordb.Predicate{
		vectordb.Eq("lang", "en"),
		vectordb.Gt("pages", 100),
	}, vectordb.FilterOr)

	if tr.Where != nil {
		t.Error("OR with an untranslatable predicate must drop the filter")
	}
	if !tr.PostFilter {
		t.Error("expected post-filter after dropping the native filter")
	}
}

func TestClassName(t *testing.T) {
	cases := map[string]string{
		"library":       "Library",
		"my-documents":  "My_documents",
		"Already_upper": "Already_upper",
	}
	for in, want := range cases {
		if got := className(in); got != want {
			t.Errorf("className(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestObjectIDDeterministic(t *testing.T) {
	a := objectID("library", "doc-1")
	if a != objectID("library", "doc-1") {
		t.Error("object IDs must be deterministic")
	}
	if a == objectID("library", "doc-2") || a == objectID("other", "doc-1") {
		t.Error("object IDs must differ per collection and document")
	}
}

func TestObjectRoundTrip(t *testing.T) {
	doc := vectordb.Document{
		ID:      "doc-1",
		Content: "hello world",
		Metadata: map[string]any{
			"lang":    "en",
			"pages":   120,
			"Bad-Key": "kept in blob only",
		},
		Embedding: []float32{1, 0},
	}

	obj, err := toObject("library", doc)
	if err != nil {
		t.Fatal(err)
	}
	props := obj.Properties.(map[string]any)

	// Flattened copies exist for safe keys, widened to float64.
	if props["pages"] != float64(120) {
		t.Errorf("pages = %v (%T), want float64 120", props["pages"], props["pages"])
	}
	if _, ok := props["Bad-Key"]; ok {
		t.Error("unsafe keys must not be flattened")
	}

	got := fromProps(props)
	if got.ID != "doc-1" || got.Content != "hello world" {
		t.Errorf("round trip lost identity: %+v", got)
	}
	if got.Metadata["Bad-Key"] != "kept in blob only" {
		t.Error("blob must preserve unsafe keys")
	}
	if got.Metadata["pages"] != float64(120) {
		t.Errorf("pages = %v, want 120", got.Metadata["pages"])
	}
}
