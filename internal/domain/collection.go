package domain

// Collection is a named grouping of works. Membership is a plain identifier
// set on the work side; no denormalization beyond the ID is needed for search.
type Collection struct {
	Syncable
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
}
