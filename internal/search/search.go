package search

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
)

// WorkRef is one ranked search result: a resolvable work reference plus
// the stored fields needed to render a result row.
type WorkRef struct {
	ID              string  `json:"id"`
	Score           float64 `json:"score"`
	Title           string  `json:"title,omitempty"`
	AuthorsToSortOn string  `json:"authors_to_sort_on,omitempty"`
}

// WorkResults is an ordered page of search results.
type WorkResults struct {
	Total  uint64    `json:"total"`
	TookMs int64     `json:"took_ms"`
	Works  []WorkRef `json:"works"`
}

// SearchWorks compiles the filter and sort, executes the query, and
// returns the ranked page. Compilation never fails for parseable input;
// engine errors are the only failure mode.
func (ix *WorkIndex) SearchWorks(ctx context.Context, f WorkFilter) (*WorkResults, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}

	req := bleve.NewSearchRequestOptions(f.BuildQuery(), limit, f.Offset, false)
	req.SortBy(buildSort(f.SortColumn, f.SortDirection))
	req.Fields = []string{"id", "title", "authors_to_sort_on"}

	res, err := ix.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	results := &WorkResults{
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Works:  make([]WorkRef, 0, len(res.Hits)),
	}

	for _, hit := range res.Hits {
		ref := WorkRef{
			ID:    hit.ID,
			Score: hit.Score,
		}
		if title, ok := hit.Fields["title"].(string); ok {
			ref.Title = title
		}
		if sortKey, ok := hit.Fields["authors_to_sort_on"].(string); ok {
			ref.AuthorsToSortOn = sortKey
		}
		results.Works = append(results.Works, ref)
	}

	return results, nil
}
