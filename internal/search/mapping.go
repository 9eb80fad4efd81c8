package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for work documents.
//
// Priorities:
//  1. Full-text phrase search with English stemming on titles, summaries,
//     tag strings, creator bylines, and series titles
//  2. Exact keyword matching for language, collection, and sortable fields
//  3. Numeric range queries on the count fields
//  4. Boolean flags for the visibility defaults
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// --- Text fields (full-text searchable) ---

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	// Summary is searchable but not stored; result rows only need the
	// reference fields.
	summaryFieldMapping := bleve.NewTextFieldMapping()
	summaryFieldMapping.Analyzer = en.AnalyzerName
	summaryFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("summary", summaryFieldMapping)

	for _, field := range []string{"fandoms", "characters", "freeforms"} {
		tagFieldMapping := bleve.NewTextFieldMapping()
		tagFieldMapping.Analyzer = en.AnalyzerName
		tagFieldMapping.Store = false
		docMapping.AddFieldMappingsAt(field, tagFieldMapping)
	}

	creatorsFieldMapping := bleve.NewTextFieldMapping()
	creatorsFieldMapping.Analyzer = en.AnalyzerName
	creatorsFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("creators", creatorsFieldMapping)

	seriesFieldMapping := bleve.NewTextFieldMapping()
	seriesFieldMapping.Analyzer = en.AnalyzerName
	seriesFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("series_titles", seriesFieldMapping)

	// --- Keyword fields (exact match, sortable) ---

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	languageFieldMapping := bleve.NewTextFieldMapping()
	languageFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("language_id", languageFieldMapping)

	collectionsFieldMapping := bleve.NewTextFieldMapping()
	collectionsFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("collection_ids", collectionsFieldMapping)

	// Sortable identities are single keyword values so lexical ordering
	// is over the whole normalized string, not individual tokens.
	authorsSortFieldMapping := bleve.NewTextFieldMapping()
	authorsSortFieldMapping.Analyzer = keyword.Name
	authorsSortFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("authors_to_sort_on", authorsSortFieldMapping)

	titleSortFieldMapping := bleve.NewTextFieldMapping()
	titleSortFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("title_to_sort_on", titleSortFieldMapping)

	// --- Boolean flags (visibility defaults) ---

	for _, field := range []string{"posted", "restricted", "complete"} {
		flagFieldMapping := bleve.NewBooleanFieldMapping()
		flagFieldMapping.Store = false
		docMapping.AddFieldMappingsAt(field, flagFieldMapping)
	}

	// --- Numeric fields (range queries, sorting) ---

	for _, field := range []string{
		"word_count", "kudos_count", "comments_count", "bookmarks_count",
		"created_at", "updated_at",
	} {
		countFieldMapping := bleve.NewNumericFieldMapping()
		countFieldMapping.Store = false
		docMapping.AddFieldMappingsAt(field, countFieldMapping)
	}

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
