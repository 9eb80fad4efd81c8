package domain

// Series is an ordered grouping of works sharing a title.
type Series struct {
	Syncable
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
}

// SerialWork is the membership link between a work and a series.
// Position orders works within the series.
type SerialWork struct {
	Syncable
	WorkID   string `json:"work_id"`
	SeriesID string `json:"series_id"`
	Position int    `json:"position"`
}
