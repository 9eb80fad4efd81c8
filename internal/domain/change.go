package domain

// ChangeKind identifies which entity mutation occurred and therefore which
// reindex fan-out applies.
type ChangeKind string

const (
	// ChangeWorkUpserted: a work or something projected into its document
	// (chapters, stats, collection membership) changed. EntityID is the work.
	ChangeWorkUpserted ChangeKind = "work_upserted"
	// ChangeWorkDeleted: the work was soft-deleted. EntityID is the work.
	ChangeWorkDeleted ChangeKind = "work_deleted"
	// ChangeUserRenamed: the user's login changed, invalidating every byline
	// derived from it. EntityID is the user.
	ChangeUserRenamed ChangeKind = "user_renamed"
	// ChangeSeriesUpdated: series metadata changed. EntityID is the series.
	ChangeSeriesUpdated ChangeKind = "series_updated"
	// ChangeSeriesDeleted: the series was soft-deleted. EntityID is the
	// series; its membership links are kept so fan-out can find the works.
	ChangeSeriesDeleted ChangeKind = "series_deleted"
	// ChangeSeriesLinkRemoved: one work left a series. EntityID is the work,
	// since only that work's document needs rebuilding.
	ChangeSeriesLinkRemoved ChangeKind = "series_link_removed"
)

// Change is a store mutation notification consumed by the reindex
// coordinator. EntityID is interpreted per Kind.
type Change struct {
	Kind     ChangeKind `json:"kind"`
	EntityID string     `json:"entity_id"`
}
