package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellarchive/inkwell-server/internal/domain"
	"github.com/inkwellarchive/inkwell-server/internal/id"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "inkwell-store-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := New(dbPath, nil)
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return s, cleanup
}

// recordingNotifier captures emitted changes for assertions.
type recordingNotifier struct {
	mu      sync.Mutex
	changes []domain.Change
}

func (r *recordingNotifier) Notify(c domain.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recordingNotifier) all() []domain.Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Change(nil), r.changes...)
}

func newTestWork(t *testing.T, pseudIDs ...string) *domain.Work {
	t.Helper()
	workID, err := id.Generate("work")
	require.NoError(t, err)

	work := &domain.Work{
		Syncable: domain.Syncable{ID: workID},
		Title:    "Test Work",
		Posted:   true,
		PseudIDs: pseudIDs,
	}
	work.InitTimestamps()
	return work
}

func TestCreateAndGetWork(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	work := newTestWork(t, "pseud-1")

	require.NoError(t, s.CreateWork(ctx, work))

	retrieved, err := s.GetWork(ctx, work.ID)
	require.NoError(t, err)
	assert.Equal(t, work.Title, retrieved.Title)
	assert.Equal(t, []string{"pseud-1"}, retrieved.PseudIDs)

	// Duplicate creation is rejected
	assert.ErrorIs(t, s.CreateWork(ctx, work), ErrWorkExists)
}

func TestGetWork_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.GetWork(context.Background(), "nonexistent-id")
	assert.ErrorIs(t, err, ErrWorkNotFound)
}

func TestUpdateWork_ReconcilesPseudIndex(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	work := newTestWork(t, "pseud-1", "pseud-2")
	require.NoError(t, s.CreateWork(ctx, work))

	work.PseudIDs = []string{"pseud-2", "pseud-3"}
	require.NoError(t, s.UpdateWork(ctx, work))

	ids, err := s.GetWorkIDsByPseud(ctx, "pseud-1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	for _, pseudID := range []string{"pseud-2", "pseud-3"} {
		ids, err = s.GetWorkIDsByPseud(ctx, pseudID)
		require.NoError(t, err)
		assert.Equal(t, []string{work.ID}, ids)
	}
}

func TestDeleteWork_SoftDelete(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	work := newTestWork(t, "pseud-1")
	require.NoError(t, s.CreateWork(ctx, work))
	require.NoError(t, s.DeleteWork(ctx, work.ID))

	_, err := s.GetWork(ctx, work.ID)
	assert.ErrorIs(t, err, ErrWorkNotFound)

	// The attribution index survives so fan-out can retract the document.
	ids, err := s.GetWorkIDsByPseud(ctx, "pseud-1")
	require.NoError(t, err)
	assert.Equal(t, []string{work.ID}, ids)

	// Deleted works are excluded from full enumeration.
	all, err := s.ListWorkIDs(ctx)
	require.NoError(t, err)
	assert.NotContains(t, all, work.ID)
}

func TestWorkChangesEmitted(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	notifier := &recordingNotifier{}
	s.SetNotifier(notifier)

	ctx := context.Background()
	work := newTestWork(t)
	require.NoError(t, s.CreateWork(ctx, work))
	require.NoError(t, s.UpdateWork(ctx, work))
	require.NoError(t, s.DeleteWork(ctx, work.ID))

	assert.Equal(t, []domain.Change{
		{Kind: domain.ChangeWorkUpserted, EntityID: work.ID},
		{Kind: domain.ChangeWorkUpserted, EntityID: work.ID},
		{Kind: domain.ChangeWorkDeleted, EntityID: work.ID},
	}, notifier.all())
}

func TestCreateUser_LoginUnique(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	user := &domain.User{Syncable: domain.Syncable{ID: "user-1"}, Login: "white_chain"}
	user.InitTimestamps()
	require.NoError(t, s.CreateUser(ctx, user))

	// Same login, different case, different ID
	dup := &domain.User{Syncable: domain.Syncable{ID: "user-2"}, Login: "White_Chain"}
	dup.InitTimestamps()
	assert.ErrorIs(t, s.CreateUser(ctx, dup), ErrUserExists)

	found, err := s.GetUserByLogin(ctx, "WHITE_CHAIN")
	require.NoError(t, err)
	assert.Equal(t, "user-1", found.ID)
}

func TestRenameUser(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	notifier := &recordingNotifier{}
	s.SetNotifier(notifier)

	ctx := context.Background()
	user := &domain.User{Syncable: domain.Syncable{ID: "user-1"}, Login: "81_white_chain"}
	user.InitTimestamps()
	require.NoError(t, s.CreateUser(ctx, user))

	require.NoError(t, s.RenameUser(ctx, "user-1", "82_white_chain"))

	renamed, err := s.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "82_white_chain", renamed.Login)

	// Old login is released, new one resolves.
	_, err = s.GetUserByLogin(ctx, "81_white_chain")
	assert.ErrorIs(t, err, ErrUserNotFound)
	found, err := s.GetUserByLogin(ctx, "82_white_chain")
	require.NoError(t, err)
	assert.Equal(t, "user-1", found.ID)

	assert.Contains(t, notifier.all(), domain.Change{
		Kind: domain.ChangeUserRenamed, EntityID: "user-1",
	})
}

func TestRenameUser_TakenLogin(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	for i, login := range []string{"alice", "bob"} {
		user := &domain.User{
			Syncable: domain.Syncable{ID: []string{"user-1", "user-2"}[i]},
			Login:    login,
		}
		user.InitTimestamps()
		require.NoError(t, s.CreateUser(ctx, user))
	}

	assert.ErrorIs(t, s.RenameUser(context.Background(), "user-1", "bob"), ErrUserExists)
}

func TestPseudsByUser(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	defaultPseud := &domain.Pseud{
		Syncable:  domain.Syncable{ID: "pseud-1"},
		UserID:    "user-1",
		Name:      "81_white_chain",
		IsDefault: true,
	}
	secondary := &domain.Pseud{
		Syncable: domain.Syncable{ID: "pseud-2"},
		UserID:   "user-1",
		Name:     "Angel of Repentance",
	}
	other := &domain.Pseud{
		Syncable: domain.Syncable{ID: "pseud-3"},
		UserID:   "user-2",
		Name:     "someone_else",
	}
	for _, p := range []*domain.Pseud{defaultPseud, secondary, other} {
		p.InitTimestamps()
		require.NoError(t, s.CreatePseud(ctx, p))
	}

	pseuds, err := s.GetPseudsByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, pseuds, 2)
	ids := []string{pseuds[0].ID, pseuds[1].ID}
	assert.ElementsMatch(t, []string{"pseud-1", "pseud-2"}, ids)
}

func TestSeriesSoftDeleteKeepsLinks(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	notifier := &recordingNotifier{}
	s.SetNotifier(notifier)

	ctx := context.Background()
	series := &domain.Series{Syncable: domain.Syncable{ID: "series-1"}, Title: "Kill Six Billion Demons"}
	series.InitTimestamps()
	require.NoError(t, s.CreateSeries(ctx, series))

	work := newTestWork(t)
	require.NoError(t, s.CreateWork(ctx, work))

	link := &domain.SerialWork{WorkID: work.ID, SeriesID: "series-1", Position: 1}
	link.InitTimestamps()
	require.NoError(t, s.AddWorkToSeries(ctx, link))

	require.NoError(t, s.DeleteSeries(ctx, "series-1"))

	// The series itself is gone...
	_, err := s.GetSeries(ctx, "series-1")
	assert.ErrorIs(t, err, ErrSeriesNotFound)

	// ...its projection contribution is gone...
	byWork, err := s.GetSeriesByWork(ctx, work.ID)
	require.NoError(t, err)
	assert.Empty(t, byWork)

	// ...but the membership link still names the affected work.
	workIDs, err := s.GetWorkIDsBySeries(ctx, "series-1")
	require.NoError(t, err)
	assert.Equal(t, []string{work.ID}, workIDs)

	assert.Contains(t, notifier.all(), domain.Change{
		Kind: domain.ChangeSeriesDeleted, EntityID: "series-1",
	})
}

func TestRemoveWorkFromSeries(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	notifier := &recordingNotifier{}
	s.SetNotifier(notifier)

	ctx := context.Background()
	series := &domain.Series{Syncable: domain.Syncable{ID: "series-1"}, Title: "A Series"}
	series.InitTimestamps()
	require.NoError(t, s.CreateSeries(ctx, series))

	work := newTestWork(t)
	require.NoError(t, s.CreateWork(ctx, work))

	link := &domain.SerialWork{WorkID: work.ID, SeriesID: "series-1", Position: 1}
	link.InitTimestamps()
	require.NoError(t, s.AddWorkToSeries(ctx, link))

	require.NoError(t, s.RemoveWorkFromSeries(ctx, work.ID, "series-1"))

	byWork, err := s.GetSeriesByWork(ctx, work.ID)
	require.NoError(t, err)
	assert.Empty(t, byWork)

	workIDs, err := s.GetWorkIDsBySeries(ctx, "series-1")
	require.NoError(t, err)
	assert.Empty(t, workIDs)

	// The change names the work, not the series.
	assert.Contains(t, notifier.all(), domain.Change{
		Kind: domain.ChangeSeriesLinkRemoved, EntityID: work.ID,
	})

	// Removing again is an error.
	assert.ErrorIs(t, s.RemoveWorkFromSeries(ctx, work.ID, "series-1"), ErrSerialWorkNotFound)
}

func TestChaptersByWork_Ordered(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	work := newTestWork(t)
	require.NoError(t, s.CreateWork(ctx, work))

	// Insert out of order; retrieval sorts by position.
	for _, pos := range []int{3, 1, 2} {
		chapterID, err := id.Generate("chapter")
		require.NoError(t, err)
		chapter := &domain.Chapter{
			Syncable: domain.Syncable{ID: chapterID},
			WorkID:   work.ID,
			Position: pos,
			Content:  "some words here",
			Posted:   true,
		}
		chapter.InitTimestamps()
		require.NoError(t, s.CreateChapter(ctx, chapter))
	}

	chapters, err := s.GetChaptersByWork(ctx, work.ID)
	require.NoError(t, err)
	require.Len(t, chapters, 3)
	for i, c := range chapters {
		assert.Equal(t, i+1, c.Position)
	}
}

func TestStatCounter_DefaultsToZero(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	stats, err := s.GetStatCounter(ctx, "work-unknown")
	require.NoError(t, err)
	assert.Zero(t, stats.KudosCount)
	assert.Zero(t, stats.CommentsCount)
	assert.Zero(t, stats.BookmarksCount)

	require.NoError(t, s.SetStatCounter(ctx, &domain.StatCounter{
		WorkID:     "work-1",
		KudosCount: 1200,
	}))

	stats, err = s.GetStatCounter(ctx, "work-1")
	require.NoError(t, err)
	assert.Equal(t, 1200, stats.KudosCount)
}

func TestCreateWork_GeneratesID(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	work := &domain.Work{Title: "Untitled Draft"}
	work.InitTimestamps()
	require.NoError(t, s.CreateWork(ctx, work))

	assert.True(t, strings.HasPrefix(work.ID, "work-"))

	retrieved, err := s.GetWork(ctx, work.ID)
	require.NoError(t, err)
	assert.Equal(t, "Untitled Draft", retrieved.Title)
}
