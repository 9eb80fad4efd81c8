// Package domain defines the catalog entities of the archive: works, the
// pseuds and users who author them, series and collection groupings, and the
// stat counters that other subsystems keep up to date.
package domain

// Work is the primary searchable unit of the archive.
//
// Tag strings (fandoms, characters, freeforms) are free text supplied by the
// author. Word count is not stored here: it is derived from the posted
// chapters' content whenever a search document is built.
type Work struct {
	Syncable
	Title            string   `json:"title"`
	Summary          string   `json:"summary,omitempty"`
	Fandoms          []string `json:"fandoms,omitempty"`
	Characters       []string `json:"characters,omitempty"`
	Freeforms        []string `json:"freeforms,omitempty"`
	LanguageID       string   `json:"language_id,omitempty"`
	Posted           bool     `json:"posted"`
	Restricted       bool     `json:"restricted"`
	Complete         bool     `json:"complete"`
	ExpectedChapters int      `json:"expected_chapters,omitempty"` // 0 = unknown/ongoing
	PseudIDs         []string `json:"pseud_ids"`
	CollectionIDs    []string `json:"collection_ids,omitempty"`
}

// Searchable reports whether the work should appear in the index at all.
// Unposted and deleted works are retracted rather than filtered at query
// time, so drafts can never leak through an engine query.
func (w *Work) Searchable() bool {
	return w.Posted && !w.IsDeleted()
}
