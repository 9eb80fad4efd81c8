// Package service bridges the catalog store and the search index: it
// projects works into search documents and executes queries against them.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/inkwellarchive/inkwell-server/internal/domain"
	"github.com/inkwellarchive/inkwell-server/internal/search"
	"github.com/inkwellarchive/inkwell-server/internal/store"
)

// SearchService provides search functionality across the archive.
// It bridges the search index with the data store, handling document
// projection, updates, and query execution.
type SearchService struct {
	index  *search.WorkIndex
	store  *store.Store
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.WorkIndex, store *store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		store:  store,
		logger: logger,
	}
}

// Search executes a compiled work search against the index.
func (s *SearchService) Search(ctx context.Context, filter search.WorkFilter) (*search.WorkResults, error) {
	return s.index.SearchWorks(ctx, filter)
}

// IndexWork brings the index entry for a work in line with current store
// state. Unsearchable works (drafts, deleted) are retracted rather than
// filtered later, so a query can never surface them.
func (s *SearchService) IndexWork(ctx context.Context, workID string) error {
	work, err := s.store.GetWork(ctx, workID)
	if err != nil {
		if errors.Is(err, store.ErrWorkNotFound) {
			return s.index.Delete(workID)
		}
		return fmt.Errorf("get work: %w", err)
	}

	if !work.Searchable() {
		return s.index.Delete(workID)
	}

	doc, err := s.BuildWorkDocument(ctx, work)
	if err != nil {
		return fmt.Errorf("build document: %w", err)
	}

	if err := s.index.Upsert(doc); err != nil {
		return fmt.Errorf("index document: %w", err)
	}

	s.logger.Debug("indexed work", "id", work.ID, "title", work.Title)
	return nil
}

// DocumentCount returns the number of indexed documents.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}

// ReindexAll rebuilds the entire search index from store state.
// This is a heavy operation - use sparingly.
func (s *SearchService) ReindexAll(ctx context.Context) error {
	s.logger.Info("starting full reindex")

	// Rebuild index (drops existing)
	if err := s.index.Rebuild(); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	workIDs, err := s.store.ListWorkIDs(ctx)
	if err != nil {
		return fmt.Errorf("list works: %w", err)
	}

	docs := make([]*search.WorkDocument, 0, len(workIDs))
	for _, workID := range workIDs {
		work, err := s.store.GetWork(ctx, workID)
		if err != nil {
			if errors.Is(err, store.ErrWorkNotFound) {
				continue
			}
			return fmt.Errorf("get work: %w", err)
		}
		if !work.Searchable() {
			continue
		}

		doc, err := s.BuildWorkDocument(ctx, work)
		if err != nil {
			s.logger.Warn("failed to build work document", "id", workID, "error", err)
			continue
		}
		docs = append(docs, doc)
	}

	if len(docs) > 0 {
		if err := s.index.UpsertBatch(docs); err != nil {
			return fmt.Errorf("index works: %w", err)
		}
	}

	total, _ := s.index.DocumentCount()
	s.logger.Info("full reindex complete", "total_documents", total)

	return nil
}

// BuildWorkDocument projects a work into its search document, denormalizing
// creator bylines, series titles, word count, and stat counters from current
// store state. Nothing is read from the previous document: the projection
// must be reproducible from relational state alone.
func (s *SearchService) BuildWorkDocument(ctx context.Context, work *domain.Work) (*search.WorkDocument, error) {
	creators, sortNames, err := s.resolveCreators(ctx, work.PseudIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve creators: %w", err)
	}

	seriesList, err := s.store.GetSeriesByWork(ctx, work.ID)
	if err != nil {
		return nil, fmt.Errorf("series for work: %w", err)
	}
	seriesTitles := make([]string, 0, len(seriesList))
	for _, series := range seriesList {
		seriesTitles = append(seriesTitles, series.Title)
	}

	chapters, err := s.store.GetChaptersByWork(ctx, work.ID)
	if err != nil {
		return nil, fmt.Errorf("chapters for work: %w", err)
	}
	wordCount := 0
	for _, chapter := range chapters {
		if chapter.Posted {
			wordCount += chapter.WordCount()
		}
	}

	stats, err := s.store.GetStatCounter(ctx, work.ID)
	if err != nil {
		return nil, fmt.Errorf("stats for work: %w", err)
	}

	return &search.WorkDocument{
		ID:              work.ID,
		Title:           work.Title,
		Summary:         work.Summary,
		Fandoms:         work.Fandoms,
		Characters:      work.Characters,
		Freeforms:       work.Freeforms,
		Creators:        creators,
		AuthorsToSortOn: strings.Join(sortNames, ", "),
		TitleToSortOn:   sortableTitle(work.Title),
		SeriesTitles:    seriesTitles,
		LanguageID:      work.LanguageID,
		CollectionIDs:   work.CollectionIDs,
		Posted:          work.Posted,
		Restricted:      work.Restricted,
		Complete:        work.Complete,
		WordCount:       wordCount,
		KudosCount:      stats.KudosCount,
		CommentsCount:   stats.CommentsCount,
		BookmarksCount:  stats.BookmarksCount,
		CreatedAt:       work.CreatedAt.UnixMilli(),
		UpdatedAt:       work.UpdatedAt.UnixMilli(),
	}, nil
}

// resolveCreators resolves pseud IDs through their owning users' current
// logins, returning display bylines and the sorted identity keys. A stale
// byline can only exist in the index, never come out of this function.
func (s *SearchService) resolveCreators(ctx context.Context, pseudIDs []string) (bylines, sortNames []string, err error) {
	for _, pseudID := range pseudIDs {
		pseud, err := s.store.GetPseud(ctx, pseudID)
		if err != nil {
			if errors.Is(err, store.ErrPseudNotFound) {
				continue // Orphaned attribution contributes nothing
			}
			return nil, nil, err
		}

		user, err := s.store.GetUser(ctx, pseud.UserID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				continue
			}
			return nil, nil, err
		}

		bylines = append(bylines, pseud.Byline(user.Login))
		sortNames = append(sortNames, pseud.SortName(user.Login))
	}

	sort.Strings(bylines)
	sort.Strings(sortNames)
	return bylines, sortNames, nil
}

// sortableTitle produces the lexical sort key for a title: case-folded with
// leading non-alphanumerics and a leading English article stripped.
func sortableTitle(title string) string {
	folded := cases.Fold().String(strings.TrimSpace(title))
	for _, article := range []string{"a ", "an ", "the "} {
		if strings.HasPrefix(folded, article) {
			folded = folded[len(article):]
			break
		}
	}
	return strings.TrimLeftFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
