package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwellarchive/inkwell-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search-works",
		Method:      http.MethodGet,
		Path:        "/api/v1/search/works",
		Summary:     "Search works",
		Description: "Filtered full-text search over posted works",
		Tags:        []string{"Search"},
	}, s.handleSearchWorks)
}

// === DTOs ===

// SearchWorksInput contains parameters for searching works.
type SearchWorksInput struct {
	Query        string `query:"q" validate:"omitempty,max=500" doc:"Free-text query. Supports field:term scoping, quoted phrases, and leading - for exclusion."`
	Title        string `query:"title" validate:"omitempty,max=200" doc:"Phrase-match against work titles"`
	Creators     string `query:"creators" validate:"omitempty,max=200" doc:"Match against creator bylines. Leading - excludes."`
	Fandoms      string `query:"fandoms" validate:"omitempty,max=500" doc:"Comma-separated fandom names"`
	SeriesTitles string `query:"series" validate:"omitempty,max=200" doc:"Match against series titles. * matches any work in a series."`

	LanguageID  string   `query:"language_id" validate:"omitempty,max=50" doc:"Restrict to one language"`
	Collections []string `query:"collection_ids" validate:"omitempty,max=20" doc:"Restrict to works in any of these collections"`

	Complete string `query:"complete" enum:",true,false" doc:"Restrict by completion status. Omit for both."`

	WordCount      string `query:"word_count" validate:"omitempty,max=40" doc:"Count range: N, A-B, <N, or >N. Commas in numbers allowed."`
	KudosCount     string `query:"kudos_count" validate:"omitempty,max=40" doc:"Count range for kudos"`
	CommentsCount  string `query:"comments_count" validate:"omitempty,max=40" doc:"Count range for comments"`
	BookmarksCount string `query:"bookmarks_count" validate:"omitempty,max=40" doc:"Count range for bookmarks"`

	ShowRestricted bool `query:"show_restricted" doc:"Include restricted works"`

	SortColumn    string `query:"sort_column" validate:"omitempty,max=40" doc:"Sort column (e.g. authors_to_sort_on, kudos_count). Omit for relevance."`
	SortDirection string `query:"sort_direction" enum:",asc,desc" doc:"Sort direction (default asc)"`

	Limit  int `query:"limit" validate:"omitempty,gte=1" doc:"Max results (default 20)"`
	Offset int `query:"offset" validate:"omitempty,gte=0" doc:"Pagination offset (default 0)"`
}

// WorkHit is a single search result.
type WorkHit struct {
	ID       string  `json:"id" doc:"Work ID"`
	Score    float64 `json:"score" doc:"Search relevance score"`
	Title    string  `json:"title" doc:"Work title"`
	Creators string  `json:"creators,omitempty" doc:"Sortable creator identities"`
}

// SearchWorksResponse contains search results.
type SearchWorksResponse struct {
	Query  string    `json:"query,omitempty" doc:"Original free-text query"`
	Total  uint64    `json:"total" doc:"Total matches"`
	TookMs int64     `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []WorkHit `json:"hits" doc:"Search results"`
}

// SearchWorksOutput wraps the search response for Huma.
type SearchWorksOutput struct {
	Body SearchWorksResponse
}

// === Handlers ===

func (s *Server) handleSearchWorks(ctx context.Context, input *SearchWorksInput) (*SearchWorksOutput, error) {
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > s.searchCfg.MaxPageSize {
		limit = s.searchCfg.MaxPageSize
	}

	filter := search.WorkFilter{
		Query:          input.Query,
		Title:          input.Title,
		Creators:       input.Creators,
		FandomNames:    input.Fandoms,
		SeriesTitles:   input.SeriesTitles,
		LanguageID:     input.LanguageID,
		CollectionIDs:  input.Collections,
		WordCount:      input.WordCount,
		KudosCount:     input.KudosCount,
		CommentsCount:  input.CommentsCount,
		BookmarksCount: input.BookmarksCount,
		ShowRestricted: input.ShowRestricted,
		SortColumn:     input.SortColumn,
		SortDirection:  input.SortDirection,
		Limit:          limit,
		Offset:         input.Offset,
	}

	switch input.Complete {
	case "true":
		v := true
		filter.Complete = &v
	case "false":
		v := false
		filter.Complete = &v
	}

	result, err := s.services.Search.Search(ctx, filter)
	if err != nil {
		s.logger.Error("Search failed", "error", err, "query", input.Query)
		return nil, err
	}

	s.logger.Debug("Search completed",
		"query", input.Query,
		"total", result.Total,
		"took_ms", result.TookMs,
	)

	resp := SearchWorksResponse{
		Query:  input.Query,
		Total:  result.Total,
		TookMs: result.TookMs,
		Hits:   make([]WorkHit, 0, len(result.Works)),
	}
	for _, hit := range result.Works {
		resp.Hits = append(resp.Hits, WorkHit{
			ID:       hit.ID,
			Score:    hit.Score,
			Title:    hit.Title,
			Creators: hit.AuthorsToSortOn,
		})
	}

	return &SearchWorksOutput{Body: resp}, nil
}
