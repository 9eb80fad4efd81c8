package search

// sortColumns whitelists the sortable document fields. Sorting always runs
// over denormalized sortable projections, never over analyzed text fields.
var sortColumns = map[string]bool{
	"authors_to_sort_on": true,
	"title_to_sort_on":   true,
	"word_count":         true,
	"kudos_count":        true,
	"comments_count":     true,
	"bookmarks_count":    true,
	"created_at":         true,
	"updated_at":         true,
}

// buildSort resolves a sort column/direction pair into an engine sort
// specification. Unknown or absent columns fall back to relevance order.
// Direction defaults to ascending when unspecified. The document ID is
// always appended as a tiebreaker so repeated identical queries return
// identical orderings.
func buildSort(column, direction string) []string {
	if !sortColumns[column] {
		return []string{"-_score", "_id"}
	}

	field := column
	if direction == "desc" {
		field = "-" + field
	}
	return []string{field, "_id"}
}
