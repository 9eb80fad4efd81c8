package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/inkwellarchive/inkwell-server/internal/domain"
	"github.com/inkwellarchive/inkwell-server/internal/id"
)

const collectionPrefix = "collection:"

var (
	// ErrCollectionNotFound is returned when a collection is not found in the store.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrCollectionExists is returned when attempting to create a collection that already exists.
	ErrCollectionExists = errors.New("collection already exists")
)

// CreateCollection creates a new collection. A missing ID is filled in with
// a generated one.
func (s *Store) CreateCollection(_ context.Context, collection *domain.Collection) error {
	if collection.ID == "" {
		newID, err := id.Generate("collection")
		if err != nil {
			return err
		}
		collection.ID = newID
	}

	key := []byte(collectionPrefix + collection.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check collection exists: %w", err)
	}
	if exists {
		return ErrCollectionExists
	}

	if err := s.set(key, collection); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	return nil
}

// GetCollection retrieves a collection by ID.
func (s *Store) GetCollection(_ context.Context, id string) (*domain.Collection, error) {
	key := []byte(collectionPrefix + id)

	var collection domain.Collection
	if err := s.get(key, &collection); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("get collection: %w", err)
	}

	return &collection, nil
}
