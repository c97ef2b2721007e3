package vectordb

import "testing"

func results(scores ...float32) []SearchResult {
	out := make([]SearchResult, len(scores))
	for i, s := range scores {
		out[i] = SearchResult{Document: Document{ID: string(rune('a' + i))}, Score: s}
	}
	return out
}

func TestPaginate_Defaults(t *testing.T) {
	page := Paginate(results(0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3), PageOptions{})
	if page.Total != 7 {
		t.Errorf("total = %d, want 7", page.Total)
	}
	if len(page.Results) != DefaultLimit {
		t.Errorf("len(results) = %d, want %d", len(page.Results), DefaultLimit)
	}
}

func TestPaginate_ThresholdBeforeWindow(t *testing.T) {
	th := float32(0.5)
	page := Paginate(results(0.9, 0.8, 0.4, 0.7, 0.2), PageOptions{Threshold: &th, Limit: 2})
	if page.Total != 3 {
		t.Errorf("total = %d, want 3 (after threshold, before window)", page.Total)
	}
	if len(page.Results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(page.Results))
	}
	if page.Results[0].Score != 0.9 || page.Results[1].Score != 0.8 {
		t.Errorf("unexpected page: %+v", page.Results)
	}
}

func TestPaginate_ThresholdInclusive(t *testing.T) {
	th := float32(0.5)
	page := Paginate(results(0.5), PageOptions{Threshold: &th, Limit: 10})
	if page.Total != 1 {
		t.Errorf("score equal to threshold should be kept, total = %d", page.Total)
	}
}

func TestPaginate_OffsetWindow(t *testing.T) {
	page := Paginate(results(0.9, 0.8, 0.7, 0.6), PageOptions{Offset: 1, Limit: 2})
	if page.Total != 4 {
		t.Errorf("total = %d, want 4", page.Total)
	}
	if len(page.Results) != 2 || page.Results[0].Score != 0.8 || page.Results[1].Score != 0.7 {
		t.Errorf("unexpected window: %+v", page.Results)
	}
}

func TestPaginate_OffsetPastEnd(t *testing.T) {
	page := Paginate(results(0.9, 0.8), PageOptions{Offset: 5, Limit: 2})
	if page.Total != 2 {
		t.Errorf("total = %d, want 2", page.Total)
	}
	if len(page.Results) != 0 {
		t.Errorf("expected empty page, got %+v", page.Results)
	}
	if page.Results == nil {
		t.Error("expected empty slice, not nil")
	}
}

func TestPaginate_LimitFallsBackToTopK(t *testing.T) {
	page := Paginate(results(0.9, 0.8, 0.7), PageOptions{TopK: 2})
	if len(page.Results) != 2 {
		t.Errorf("len(results) = %d, want TopK fallback 2", len(page.Results))
	}
}

func TestPaginate_NegativeOffsetTreatedAsZero(t *testing.T) {
	page := Paginate(results(0.9, 0.8), PageOptions{Offset: -3, Limit: 1})
	if len(page.Results) != 1 || page.Results[0].Score != 0.9 {
		t.Errorf("unexpected page: %+v", page.Results)
	}
}

func TestPaginate_Empty(t *testing.T) {
	page := Paginate(nil, PageOptions{Limit: 5})
	if page.Total != 0 || len(page.Results) != 0 {
		t.Errorf("unexpected page for empty input: %+v", page)
	}
}
