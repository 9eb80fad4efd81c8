// Package store persists the archive catalog in Badger and notifies the
// reindex coordinator about every mutation that can change a search document.
package store

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/inkwellarchive/inkwell-server/internal/domain"
)

// ChangeNotifier receives a notification for every store mutation that
// affects search documents. Store depends on this interface rather than the
// reindex implementation so tests can observe or drop notifications.
type ChangeNotifier interface {
	Notify(change domain.Change)
}

// NoopNotifier is a no-op implementation of ChangeNotifier for testing.
type NoopNotifier struct{}

// Notify implements ChangeNotifier.Notify as a no-op.
func (NoopNotifier) Notify(domain.Change) {}

// NewNoopNotifier creates a new no-op notifier for testing.
func NewNoopNotifier() ChangeNotifier {
	return NoopNotifier{}
}

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Change notifier for driving incremental reindexing.
	// Set via SetNotifier after store creation to avoid circular dependencies
	// (the coordinator reads from the store it is notified about).
	notifier ChangeNotifier
}

// New creates a new Store instance with the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:       db,
		logger:   logger,
		notifier: NoopNotifier{},
	}

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// SetNotifier installs the change notifier. Mutations before this call are
// silently dropped, which is what a cold start wants: the initial full
// reindex covers them.
func (s *Store) SetNotifier(notifier ChangeNotifier) {
	s.notifier = notifier
}

func (s *Store) notify(kind domain.ChangeKind, entityID string) {
	s.notifier.Notify(domain.Change{Kind: kind, EntityID: entityID})
}

// Helper methods for database operations.

// get retrieves a value by key.
func (s *Store) get(key []byte, dest any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
}

// set stores a value by key.
func (s *Store) set(key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// exists checks if a key exists.
func (s *Store) exists(key []byte) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// setInTxn marshals and writes a value inside an existing transaction.
func setInTxn(txn *badger.Txn, key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return txn.Set(key, data)
}

// collectIndexSuffixes scans an index prefix and returns the key suffixes
// after it. Index keys carry no values, only the key encodes the relation.
func (s *Store) collectIndexSuffixes(prefix string) ([]string, error) {
	var suffixes []string
	p := []byte(prefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // Only need keys

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			key := it.Item().Key()
			suffixes = append(suffixes, string(key[len(p):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return suffixes, nil
}
