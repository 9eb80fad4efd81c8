package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/inkwellarchive/inkwell-server/internal/domain"
	"github.com/inkwellarchive/inkwell-server/internal/id"
)

const (
	chapterPrefix       = "chapter:"
	chapterByWorkPrefix = "idx:chapters:work:" // Format: idx:chapters:work:{workID}:{chapterID}
)

var (
	// ErrChapterNotFound is returned when a chapter is not found in the store.
	ErrChapterNotFound = errors.New("chapter not found")
	// ErrChapterExists is returned when attempting to create a chapter that already exists.
	ErrChapterExists = errors.New("chapter already exists")
)

// CreateChapter creates a new chapter under its work. A missing ID is filled
// in with a generated one.
func (s *Store) CreateChapter(ctx context.Context, chapter *domain.Chapter) error {
	if chapter.ID == "" {
		newID, err := id.Generate("chapter")
		if err != nil {
			return err
		}
		chapter.ID = newID
	}

	key := []byte(chapterPrefix + chapter.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check chapter exists: %w", err)
	}
	if exists {
		return ErrChapterExists
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := setInTxn(txn, key, chapter); err != nil {
			return err
		}
		idxKey := []byte(chapterByWorkPrefix + chapter.WorkID + ":" + chapter.ID)
		return txn.Set(idxKey, []byte{})
	})
	if err != nil {
		return err
	}

	s.notify(domain.ChangeWorkUpserted, chapter.WorkID)
	return nil
}

// GetChapter retrieves a chapter by ID.
func (s *Store) GetChapter(_ context.Context, id string) (*domain.Chapter, error) {
	key := []byte(chapterPrefix + id)

	var chapter domain.Chapter
	if err := s.get(key, &chapter); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrChapterNotFound
		}
		return nil, fmt.Errorf("get chapter: %w", err)
	}

	return &chapter, nil
}

// UpdateChapter updates an existing chapter's content or posted state.
func (s *Store) UpdateChapter(ctx context.Context, chapter *domain.Chapter) error {
	key := []byte(chapterPrefix + chapter.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check chapter exists: %w", err)
	}
	if !exists {
		return ErrChapterNotFound
	}

	chapter.Touch()
	if err := s.set(key, chapter); err != nil {
		return fmt.Errorf("update chapter: %w", err)
	}

	s.notify(domain.ChangeWorkUpserted, chapter.WorkID)
	return nil
}

// GetChaptersByWork returns a work's chapters ordered by position.
func (s *Store) GetChaptersByWork(ctx context.Context, workID string) ([]*domain.Chapter, error) {
	chapterIDs, err := s.collectIndexSuffixes(chapterByWorkPrefix + workID + ":")
	if err != nil {
		return nil, fmt.Errorf("lookup chapters by work: %w", err)
	}

	chapters := make([]*domain.Chapter, 0, len(chapterIDs))
	for _, chapterID := range chapterIDs {
		chapter, err := s.GetChapter(ctx, chapterID)
		if err != nil {
			if errors.Is(err, ErrChapterNotFound) {
				continue
			}
			return nil, err
		}
		chapters = append(chapters, chapter)
	}

	sort.Slice(chapters, func(i, j int) bool {
		return chapters[i].Position < chapters[j].Position
	})

	return chapters, nil
}
