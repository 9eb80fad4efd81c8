package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellarchive/inkwell-server/internal/domain"
	"github.com/inkwellarchive/inkwell-server/internal/search"
	"github.com/inkwellarchive/inkwell-server/internal/store"
)

func setupSearchService(t *testing.T) (*SearchService, *store.Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "search-service-test-*")
	require.NoError(t, err)

	st, err := store.New(filepath.Join(tmpDir, "test.db"), nil)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)

	index, err := search.NewWorkIndex(search.Options{
		DataPath: tmpDir,
		Logger:   logger,
	})
	require.NoError(t, err)

	svc := NewSearchService(index, st, logger)

	cleanup := func() {
		_ = index.Close()
		_ = st.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return svc, st, cleanup
}

// seedCreator creates a user plus one pseud and returns the pseud ID.
func seedCreator(t *testing.T, st *store.Store, userID, login, pseudID, pseudName string, isDefault bool) string {
	t.Helper()
	ctx := context.Background()

	if _, err := st.GetUser(ctx, userID); err != nil {
		user := &domain.User{Syncable: domain.Syncable{ID: userID}, Login: login}
		user.InitTimestamps()
		require.NoError(t, st.CreateUser(ctx, user))
	}

	pseud := &domain.Pseud{
		Syncable:  domain.Syncable{ID: pseudID},
		UserID:    userID,
		Name:      pseudName,
		IsDefault: isDefault,
	}
	pseud.InitTimestamps()
	require.NoError(t, st.CreatePseud(ctx, pseud))
	return pseudID
}

func seedWork(t *testing.T, st *store.Store, workID string, pseudIDs ...string) *domain.Work {
	t.Helper()

	work := &domain.Work{
		Syncable: domain.Syncable{ID: workID},
		Title:    "The Hobbit",
		Posted:   true,
		PseudIDs: pseudIDs,
	}
	work.InitTimestamps()
	require.NoError(t, st.CreateWork(context.Background(), work))
	return work
}

func TestBuildWorkDocument_Creators(t *testing.T) {
	svc, st, cleanup := setupSearchService(t)
	defer cleanup()

	ctx := context.Background()
	defaultPseud := seedCreator(t, st, "user-1", "jrrt", "pseud-1", "jrrt", true)
	namedPseud := seedCreator(t, st, "user-1", "jrrt", "pseud-2", "The Professor", false)
	work := seedWork(t, st, "work-1", defaultPseud, namedPseud)

	doc, err := svc.BuildWorkDocument(ctx, work)
	require.NoError(t, err)

	// Default pseud is the bare login; named pseud shows both halves.
	assert.ElementsMatch(t, []string{"jrrt", "The Professor (jrrt)"}, doc.Creators)
	assert.Equal(t, "jrrt, the professor", doc.AuthorsToSortOn)
}

func TestBuildWorkDocument_RenameIsInvisible(t *testing.T) {
	svc, st, cleanup := setupSearchService(t)
	defer cleanup()

	ctx := context.Background()
	pseudID := seedCreator(t, st, "user-1", "81_white_chain", "pseud-1", "81_white_chain", true)
	work := seedWork(t, st, "work-1", pseudID)

	require.NoError(t, st.RenameUser(ctx, "user-1", "82_white_chain"))

	// The projection only ever sees the current login.
	doc, err := svc.BuildWorkDocument(ctx, work)
	require.NoError(t, err)
	assert.Equal(t, []string{"82_white_chain"}, doc.Creators)
	assert.Equal(t, "82_white_chain", doc.AuthorsToSortOn)
}

func TestBuildWorkDocument_SeriesTitlesSkipDeleted(t *testing.T) {
	svc, st, cleanup := setupSearchService(t)
	defer cleanup()

	ctx := context.Background()
	work := seedWork(t, st, "work-1")

	for _, row := range []struct{ id, title string }{
		{"series-1", "Middle Earth"},
		{"series-2", "Forgotten"},
	} {
		series := &domain.Series{Syncable: domain.Syncable{ID: row.id}, Title: row.title}
		series.InitTimestamps()
		require.NoError(t, st.CreateSeries(ctx, series))

		link := &domain.SerialWork{WorkID: work.ID, SeriesID: row.id, Position: 1}
		link.InitTimestamps()
		require.NoError(t, st.AddWorkToSeries(ctx, link))
	}
	require.NoError(t, st.DeleteSeries(ctx, "series-2"))

	doc, err := svc.BuildWorkDocument(ctx, work)
	require.NoError(t, err)
	assert.Equal(t, []string{"Middle Earth"}, doc.SeriesTitles)
}

func TestBuildWorkDocument_WordCountPostedOnly(t *testing.T) {
	svc, st, cleanup := setupSearchService(t)
	defer cleanup()

	ctx := context.Background()
	work := seedWork(t, st, "work-1")

	for i, row := range []struct {
		content string
		posted  bool
	}{
		{"one two three", true},
		{"four five", true},
		{"draft words never counted", false},
	} {
		chapter := &domain.Chapter{
			Syncable: domain.Syncable{ID: "chapter-" + string(rune('a'+i))},
			WorkID:   work.ID,
			Position: i + 1,
			Content:  row.content,
			Posted:   row.posted,
		}
		chapter.InitTimestamps()
		require.NoError(t, st.CreateChapter(ctx, chapter))
	}

	doc, err := svc.BuildWorkDocument(ctx, work)
	require.NoError(t, err)
	assert.Equal(t, 5, doc.WordCount)
}

func TestBuildWorkDocument_Stats(t *testing.T) {
	svc, st, cleanup := setupSearchService(t)
	defer cleanup()

	ctx := context.Background()
	work := seedWork(t, st, "work-1")

	require.NoError(t, st.SetStatCounter(ctx, &domain.StatCounter{
		WorkID:         work.ID,
		KudosCount:     1200,
		CommentsCount:  120,
		BookmarksCount: 12,
	}))

	doc, err := svc.BuildWorkDocument(ctx, work)
	require.NoError(t, err)
	assert.Equal(t, 1200, doc.KudosCount)
	assert.Equal(t, 120, doc.CommentsCount)
	assert.Equal(t, 12, doc.BookmarksCount)
}

func TestBuildWorkDocument_Deterministic(t *testing.T) {
	svc, st, cleanup := setupSearchService(t)
	defer cleanup()

	ctx := context.Background()
	pseudID := seedCreator(t, st, "user-1", "jrrt", "pseud-1", "jrrt", true)
	work := seedWork(t, st, "work-1", pseudID)

	first, err := svc.BuildWorkDocument(ctx, work)
	require.NoError(t, err)
	second, err := svc.BuildWorkDocument(ctx, work)
	require.NoError(t, err)

	// Unchanged state projects bit-identically.
	assert.Equal(t, first.ToMap(), second.ToMap())
}

func TestIndexWork_RetractsDrafts(t *testing.T) {
	svc, st, cleanup := setupSearchService(t)
	defer cleanup()

	ctx := context.Background()
	work := seedWork(t, st, "work-1")
	require.NoError(t, svc.IndexWork(ctx, work.ID))

	count, err := svc.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	// Unposting retracts the document on the next index pass.
	work.Posted = false
	require.NoError(t, st.UpdateWork(ctx, work))
	require.NoError(t, svc.IndexWork(ctx, work.ID))

	count, err = svc.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)

	// Missing works retract too, without error.
	require.NoError(t, svc.IndexWork(ctx, "work-gone"))
}

func TestReindexAll(t *testing.T) {
	svc, st, cleanup := setupSearchService(t)
	defer cleanup()

	ctx := context.Background()
	seedWork(t, st, "work-1")
	seedWork(t, st, "work-2")

	draft := &domain.Work{
		Syncable: domain.Syncable{ID: "work-3"},
		Title:    "Unfinished Draft",
	}
	draft.InitTimestamps()
	require.NoError(t, st.CreateWork(ctx, draft))

	require.NoError(t, svc.ReindexAll(ctx))

	count, err := svc.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestSearch_EndToEnd(t *testing.T) {
	svc, st, cleanup := setupSearchService(t)
	defer cleanup()

	ctx := context.Background()
	pseudID := seedCreator(t, st, "user-1", "jrrt", "pseud-1", "jrrt", true)
	work := seedWork(t, st, "work-1", pseudID)
	require.NoError(t, svc.IndexWork(ctx, work.ID))

	res, err := svc.Search(ctx, search.WorkFilter{Creators: "jrrt"})
	require.NoError(t, err)
	require.Len(t, res.Works, 1)
	assert.Equal(t, "work-1", res.Works[0].ID)
	assert.Equal(t, "The Hobbit", res.Works[0].Title)
}

func TestSortableTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"The Hobbit", "hobbit"},
		{"A Study in Scarlet", "study in scarlet"},
		{"An Unexpected Journey", "unexpected journey"},
		{"...And Back Again", "and back again"},
		{"Theory of Everything", "theory of everything"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sortableTitle(tc.in), "title %q", tc.in)
	}
}
