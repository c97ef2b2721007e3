package vectordb

// DefaultLimit is the page size used when a request names neither a
// limit nor a top-k.
const DefaultLimit = 5

// PageOptions controls Paginate. Threshold is applied before the
// window, so Total counts everything that passed the cutoff. A
// non-positive Limit falls back to TopK, then to DefaultLimit.
type PageOptions struct {
	Threshold *float32
	Offset    int
	Limit     int
	TopK      int
}

// Paginate applies the shared threshold-then-window normalization to a
// scored result list. Every store runs its backend results through
// this, so paging behaves identically across backends.
func Paginate(results []SearchResult, opts PageOptions) Page {
	kept := results
	if opts.Threshold != nil {
		kept = make([]SearchResult, 0, len(results))
		for _, r := range results {
			if r.Score >= *opts.Threshold {
				kept = append(kept, r)
			}
		}
	}

	total := len(kept)

	limit := opts.Limit
	if limit <= 0 {
		limit = opts.TopK
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return Page{Results: []SearchResult{}, Total: total}
	}

	end := offset + limit
	if end > total {
		end = total
	}
	return Page{Results: kept[offset:end], Total: total}
}
