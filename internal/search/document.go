// Package search provides the work search index built on Bleve: the query
// and range grammars, the filter and sort compilers, and the denormalized
// work document that gets indexed.
package search

// WorkDocument is the engine-facing projection of a work. It is rebuilt
// wholesale on every reindex and replaces the prior document; no field is
// ever patched in place. Creator bylines and series titles are denormalized
// from *current* relational state, which is what keeps renames honest.
type WorkDocument struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`

	// Free-text tag strings.
	Fandoms    []string `json:"fandoms,omitempty"`
	Characters []string `json:"characters,omitempty"`
	Freeforms  []string `json:"freeforms,omitempty"`

	// Creator identities resolved through the owning users' current logins.
	Creators        []string `json:"creators,omitempty"`
	AuthorsToSortOn string   `json:"authors_to_sort_on,omitempty"`

	TitleToSortOn string `json:"title_to_sort_on,omitempty"`

	// Titles of all non-deleted series the work currently belongs to.
	SeriesTitles []string `json:"series_titles,omitempty"`

	LanguageID    string   `json:"language_id,omitempty"`
	CollectionIDs []string `json:"collection_ids,omitempty"`

	Posted     bool `json:"posted"`
	Restricted bool `json:"restricted"`
	Complete   bool `json:"complete"`

	// Derived and aggregated counts, read fresh at projection time.
	WordCount      int `json:"word_count"`
	KudosCount     int `json:"kudos_count"`
	CommentsCount  int `json:"comments_count"`
	BookmarksCount int `json:"bookmarks_count"`

	// Unix millis, for recency sorting.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// ToMap converts the document to a map with lowercase field names matching
// the index mapping. Bleve would otherwise index Go struct field names.
// The output is deterministic for a given document, which is what makes
// repeat reindexes of unchanged state bit-identical.
func (d *WorkDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":              d.ID,
		"title":           d.Title,
		"posted":          d.Posted,
		"restricted":      d.Restricted,
		"complete":        d.Complete,
		"word_count":      d.WordCount,
		"kudos_count":     d.KudosCount,
		"comments_count":  d.CommentsCount,
		"bookmarks_count": d.BookmarksCount,
		"created_at":      d.CreatedAt,
		"updated_at":      d.UpdatedAt,
	}

	if d.Summary != "" {
		m["summary"] = d.Summary
	}
	if len(d.Fandoms) > 0 {
		m["fandoms"] = d.Fandoms
	}
	if len(d.Characters) > 0 {
		m["characters"] = d.Characters
	}
	if len(d.Freeforms) > 0 {
		m["freeforms"] = d.Freeforms
	}
	if len(d.Creators) > 0 {
		m["creators"] = d.Creators
	}
	if d.AuthorsToSortOn != "" {
		m["authors_to_sort_on"] = d.AuthorsToSortOn
	}
	if d.TitleToSortOn != "" {
		m["title_to_sort_on"] = d.TitleToSortOn
	}
	if len(d.SeriesTitles) > 0 {
		m["series_titles"] = d.SeriesTitles
	}
	if d.LanguageID != "" {
		m["language_id"] = d.LanguageID
	}
	if len(d.CollectionIDs) > 0 {
		m["collection_ids"] = d.CollectionIDs
	}

	return m
}
