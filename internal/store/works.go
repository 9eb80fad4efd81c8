package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/inkwellarchive/inkwell-server/internal/domain"
	"github.com/inkwellarchive/inkwell-server/internal/id"
)

const (
	workPrefix        = "work:"
	workByPseudPrefix = "idx:works:pseud:" // Format: idx:works:pseud:{pseudID}:{workID}
)

var (
	// ErrWorkNotFound is returned when a work is not found in the store.
	ErrWorkNotFound = errors.New("work not found")
	// ErrWorkExists is returned when attempting to create a work that already exists.
	ErrWorkExists = errors.New("work already exists")
)

// CreateWork creates a new work and its creator-attribution index entries.
// A missing ID is filled in with a generated one.
func (s *Store) CreateWork(ctx context.Context, work *domain.Work) error {
	if work.ID == "" {
		newID, err := id.Generate("work")
		if err != nil {
			return err
		}
		work.ID = newID
	}

	key := []byte(workPrefix + work.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check work exists: %w", err)
	}
	if exists {
		return ErrWorkExists
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := setInTxn(txn, key, work); err != nil {
			return err
		}

		for _, pseudID := range work.PseudIDs {
			idxKey := []byte(workByPseudPrefix + pseudID + ":" + work.ID)
			if err := txn.Set(idxKey, []byte{}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.notify(domain.ChangeWorkUpserted, work.ID)
	return nil
}

// GetWork retrieves a work by ID. Soft-deleted works are not found.
func (s *Store) GetWork(_ context.Context, id string) (*domain.Work, error) {
	key := []byte(workPrefix + id)

	var work domain.Work
	if err := s.get(key, &work); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrWorkNotFound
		}
		return nil, fmt.Errorf("get work: %w", err)
	}

	if work.IsDeleted() {
		return nil, ErrWorkNotFound
	}

	return &work, nil
}

// UpdateWork updates an existing work, reconciling the attribution index
// when the pseud set changed.
func (s *Store) UpdateWork(ctx context.Context, work *domain.Work) error {
	key := []byte(workPrefix + work.ID)

	old, err := s.GetWork(ctx, work.ID)
	if err != nil {
		return err
	}

	work.Touch()

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := setInTxn(txn, key, work); err != nil {
			return err
		}

		removed, added := diffIDs(old.PseudIDs, work.PseudIDs)
		for _, pseudID := range removed {
			idxKey := []byte(workByPseudPrefix + pseudID + ":" + work.ID)
			if err := txn.Delete(idxKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		for _, pseudID := range added {
			idxKey := []byte(workByPseudPrefix + pseudID + ":" + work.ID)
			if err := txn.Set(idxKey, []byte{}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.notify(domain.ChangeWorkUpserted, work.ID)
	return nil
}

// DeleteWork soft-deletes a work. The attribution index entries are kept so
// creator-driven fan-out can still locate the record and retract it.
func (s *Store) DeleteWork(ctx context.Context, id string) error {
	key := []byte(workPrefix + id)

	var work domain.Work
	if err := s.get(key, &work); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrWorkNotFound
		}
		return fmt.Errorf("get work: %w", err)
	}
	if work.IsDeleted() {
		return ErrWorkNotFound
	}

	work.MarkDeleted()
	if err := s.set(key, &work); err != nil {
		return fmt.Errorf("mark work deleted: %w", err)
	}

	s.notify(domain.ChangeWorkDeleted, id)
	return nil
}

// ListWorkIDs returns the IDs of all non-deleted works. Used to enumerate
// the corpus for a full reindex.
func (s *Store) ListWorkIDs(ctx context.Context) ([]string, error) {
	var ids []string
	prefix := []byte(workPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			var work domain.Work
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &work)
			})
			if err != nil {
				return err
			}
			if work.IsDeleted() {
				continue
			}
			ids = append(ids, work.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list work ids: %w", err)
	}

	return ids, nil
}

// GetWorkIDsByPseud returns the IDs of all works attributed to a pseud,
// including soft-deleted ones so fan-out can retract them.
func (s *Store) GetWorkIDsByPseud(_ context.Context, pseudID string) ([]string, error) {
	suffixes, err := s.collectIndexSuffixes(workByPseudPrefix + pseudID + ":")
	if err != nil {
		return nil, fmt.Errorf("lookup works by pseud: %w", err)
	}
	return suffixes, nil
}

// diffIDs returns the elements only in a (removed) and only in b (added).
func diffIDs(a, b []string) (removed, added []string) {
	inA := make(map[string]struct{}, len(a))
	for _, id := range a {
		inA[id] = struct{}{}
	}
	inB := make(map[string]struct{}, len(b))
	for _, id := range b {
		inB[id] = struct{}{}
		if _, ok := inA[id]; !ok {
			added = append(added, id)
		}
	}
	for _, id := range a {
		if _, ok := inB[id]; !ok {
			removed = append(removed, id)
		}
	}
	return removed, added
}
