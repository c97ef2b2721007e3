package vectordb

import "testing"

func TestParsePredicates(t *testing.T) {
	data := []byte(`[
		{"key":"status","op":"eq","value":"published"},
		{"key":"year","op":"gte","value":2020},
		{"key":"author","op":"is_null"}
	]`)
	preds, err := ParsePredicates(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(preds) != 3 {
		t.Fatalf("expected 3 predicates, got %d", len(preds))
	}
	if preds[0].Op != OpEq || preds[0].Key != "status" || preds[0].Value != "published" {
		t.Errorf("unexpected first predicate: %+v", preds[0])
	}
	if preds[1].Value != float64(2020) {
		t.Errorf("numeric value should decode as float64, got %T", preds[1].Value)
	}
	if preds[2].Op != OpIsNull || preds[2].Value != nil {
		t.Errorf("unexpected null-check predicate: %+v", preds[2])
	}
}

func TestParsePredicates_Invalid(t *testing.T) {
	if _, err := ParsePredicates([]byte(`[{"op":"eq","value":1}]`)); err == nil {
		t.Error("missing key should fail")
	}
	if _, err := ParsePredicates([]byte(`[{"key":"a","value":1}]`)); err == nil {
		t.Error("missing op should fail")
	}
	if _, err := ParsePredicates([]byte(`{`)); err == nil {
		t.Error("malformed JSON should fail")
	}
	preds, err := ParsePredicates(nil)
	if err != nil || preds != nil {
		t.Errorf("empty input should yield nil, nil; got %v, %v", preds, err)
	}
}

func TestParseFilterMode(t *testing.T) {
	if m, err := ParseFilterMode(""); err != nil || m != FilterAnd {
		t.Errorf("empty mode should default to AND, got %v, %v", m, err)
	}
	if m, err := ParseFilterMode("or"); err != nil || m != FilterOr {
		t.Errorf("got %v, %v", m, err)
	}
	if _, err := ParseFilterMode("xor"); err == nil {
		t.Error("unknown mode should fail")
	}
}
