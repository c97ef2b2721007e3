package sqlitestore

import (
	"testing"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

func TestCompileWhere_Empty(t *testing.T) {
	wc := compileWhere(nil, vectordb.FilterAnd)
	if !wc.Native || wc.SQL != "" {
		t.Errorf("empty predicates should compile to a native no-op, got %+v", wc)
	}
}

func TestCompileWhere_EqualityAnd(t *testing.T) {
	wc := compileWhere([]vectordb.Predicate{
		vectordb.Eq("lang", "go"),
		vectordb.Eq("year", 2021),
	}, vectordb.FilterAnd)
	if !wc.Native {
		t.Error("all-equality AND should be fully native")
	}
	want := "json_extract(metadata, '$.' || ?) = ? AND json_extract(metadata, '$.' || ?) = ?"
	if wc.SQL != want {
		t.Errorf("SQL = %q, want %q", wc.SQL, want)
	}
	if len(wc.Args) != 4 || wc.Args[0] != "lang" || wc.Args[1] != "go" {
		t.Errorf("unexpected args: %v", wc.Args)
	}
	if wc.Args[3] != int64(2021) {
		t.Errorf("int comparand should bind as int64, got %T", wc.Args[3])
	}
}

func TestCompileWhere_BooleanBindsAsInteger(t *testing.T) {
	wc := compileWhere([]vectordb.Predicate{vectordb.Eq("draft", true)}, vectordb.FilterAnd)
	if !wc.Native || wc.Args[1] != 1 {
		t.Errorf("true should bind as 1, got %+v", wc)
	}
}

func TestCompileWhere_MixedAndKeepsPartialClause(t *testing.T) {
	wc := compileWhere([]vectordb.Predicate{
		vectordb.Eq("lang", "go"),
		vectordb.Gte("year", 2020),
	}, vectordb.FilterAnd)
	if wc.Native {
		t.Error("gte cannot push down; clause must be marked partial")
	}
	if wc.SQL == "" {
		t.Error("the equality half should still narrow the candidate rows")
	}
	if len(wc.Args) != 2 {
		t.Errorf("expected 2 args for the eq predicate, got %v", wc.Args)
	}
}

func TestCompileWhere_MixedOrDropsClause(t *testing.T) {
	wc := compileWhere([]vectordb.Predicate{
		vectordb.Eq("lang", "go"),
		vectordb.Gte("year", 2020),
	}, vectordb.FilterOr)
	if wc.Native || wc.SQL != "" {
		t.Errorf("partial OR clause would exclude valid rows; must be dropped, got %+v", wc)
	}
}

func TestCompileWhere_AllEqualityOr(t *testing.T) {
	wc := compileWhere([]vectordb.Predicate{
		vectordb.Eq("lang", "go"),
		vectordb.Eq("lang", "rust"),
	}, vectordb.FilterOr)
	if !wc.Native {
		t.Error("all-equality OR should be fully native")
	}
	want := "(json_extract(metadata, '$.' || ?) = ? OR json_extract(metadata, '$.' || ?) = ?)"
	if wc.SQL != want {
		t.Errorf("SQL = %q, want %q", wc.SQL, want)
	}
}

func TestCompileWhere_UnsafeKeyStaysClientSide(t *testing.T) {
	wc := compileWhere([]vectordb.Predicate{vectordb.Eq("a.b", "x")}, vectordb.FilterAnd)
	if wc.Native || wc.SQL != "" {
		t.Errorf("dotted keys must not push down, got %+v", wc)
	}
}

func TestCompileWhere_CompositeValueStaysClientSide(t *testing.T) {
	wc := compileWhere([]vectordb.Predicate{
		vectordb.Eq("tags", []any{"a", "b"}),
	}, vectordb.FilterAnd)
	if wc.Native || wc.SQL != "" {
		t.Errorf("composite comparands must not push down, got %+v", wc)
	}
}
