package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/inkwellarchive/inkwell-server/internal/domain"
)

const statPrefix = "stat:" // Keyed by work ID, one counter row per work

// GetStatCounter retrieves the stat counter for a work. Works without a
// counter row report zeros rather than an error.
func (s *Store) GetStatCounter(_ context.Context, workID string) (*domain.StatCounter, error) {
	key := []byte(statPrefix + workID)

	var stats domain.StatCounter
	if err := s.get(key, &stats); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return &domain.StatCounter{WorkID: workID}, nil
		}
		return nil, fmt.Errorf("get stat counter: %w", err)
	}

	return &stats, nil
}

// SetStatCounter replaces the stat counter for a work.
func (s *Store) SetStatCounter(ctx context.Context, stats *domain.StatCounter) error {
	key := []byte(statPrefix + stats.WorkID)

	stats.Touch()
	if err := s.set(key, stats); err != nil {
		return fmt.Errorf("set stat counter: %w", err)
	}

	s.notify(domain.ChangeWorkUpserted, stats.WorkID)
	return nil
}
