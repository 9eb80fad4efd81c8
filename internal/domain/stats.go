package domain

// StatCounter aggregates the engagement counts for a single work. Other
// subsystems mutate these; search only ever reads the current values while
// projecting a document.
type StatCounter struct {
	Syncable
	WorkID         string `json:"work_id"`
	KudosCount     int    `json:"kudos_count"`
	CommentsCount  int    `json:"comments_count"`
	BookmarksCount int    `json:"bookmarks_count"`
}
