package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/inkwellarchive/inkwell-server/internal/domain"
	"github.com/inkwellarchive/inkwell-server/internal/id"
)

const (
	seriesPrefix        = "series:"
	serialWorkPrefix    = "serialwork:"
	seriesByWorkPrefix  = "idx:series:work:"   // Format: idx:series:work:{workID}:{seriesID}
	seriesMembersPrefix = "idx:series:member:" // Format: idx:series:member:{seriesID}:{workID}
)

var (
	// ErrSeriesNotFound is returned when a series is not found in the store.
	ErrSeriesNotFound = errors.New("series not found")
	// ErrSeriesExists is returned when attempting to create a series that already exists.
	ErrSeriesExists = errors.New("series already exists")
	// ErrSerialWorkNotFound is returned when a work is not in the series.
	ErrSerialWorkNotFound = errors.New("work is not in series")
)

// CreateSeries creates a new series. A missing ID is filled in with a
// generated one.
func (s *Store) CreateSeries(ctx context.Context, series *domain.Series) error {
	if series.ID == "" {
		newID, err := id.Generate("series")
		if err != nil {
			return err
		}
		series.ID = newID
	}

	key := []byte(seriesPrefix + series.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check series exists: %w", err)
	}
	if exists {
		return ErrSeriesExists
	}

	if err := s.set(key, series); err != nil {
		return fmt.Errorf("create series: %w", err)
	}

	s.notify(domain.ChangeSeriesUpdated, series.ID)
	return nil
}

// GetSeries retrieves a series by ID. Soft-deleted series are not found.
func (s *Store) GetSeries(_ context.Context, id string) (*domain.Series, error) {
	key := []byte(seriesPrefix + id)

	var series domain.Series
	if err := s.get(key, &series); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrSeriesNotFound
		}
		return nil, fmt.Errorf("get series: %w", err)
	}

	if series.IsDeleted() {
		return nil, ErrSeriesNotFound
	}

	return &series, nil
}

// UpdateSeries updates an existing series. A title change invalidates the
// series_titles entry of every member work's document, which is why the
// change fans out by series rather than by work.
func (s *Store) UpdateSeries(ctx context.Context, series *domain.Series) error {
	if _, err := s.GetSeries(ctx, series.ID); err != nil {
		return err
	}

	series.Touch()
	if err := s.set([]byte(seriesPrefix+series.ID), series); err != nil {
		return fmt.Errorf("update series: %w", err)
	}

	s.notify(domain.ChangeSeriesUpdated, series.ID)
	return nil
}

// DeleteSeries soft-deletes a series. The membership links survive so the
// fan-out can still enumerate the works whose documents must drop the title.
func (s *Store) DeleteSeries(ctx context.Context, id string) error {
	series, err := s.GetSeries(ctx, id)
	if err != nil {
		return err
	}

	series.MarkDeleted()
	if err := s.set([]byte(seriesPrefix+id), series); err != nil {
		return fmt.Errorf("mark series deleted: %w", err)
	}

	s.notify(domain.ChangeSeriesDeleted, id)
	return nil
}

// AddWorkToSeries links a work into a series at the given position.
// Re-adding an existing member updates its position.
func (s *Store) AddWorkToSeries(ctx context.Context, link *domain.SerialWork) error {
	if _, err := s.GetSeries(ctx, link.SeriesID); err != nil {
		return err
	}
	if _, err := s.GetWork(ctx, link.WorkID); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := setInTxn(txn, []byte(serialWorkPrefix+serialWorkID(link)), link); err != nil {
			return err
		}
		byWorkKey := []byte(seriesByWorkPrefix + link.WorkID + ":" + link.SeriesID)
		if err := txn.Set(byWorkKey, []byte{}); err != nil {
			return err
		}
		memberKey := []byte(seriesMembersPrefix + link.SeriesID + ":" + link.WorkID)
		return txn.Set(memberKey, []byte{})
	})
	if err != nil {
		return err
	}

	s.notify(domain.ChangeWorkUpserted, link.WorkID)
	return nil
}

// RemoveWorkFromSeries removes the membership link between a work and a
// series. Only the leaving work's document is affected, so the change
// carries the work ID.
func (s *Store) RemoveWorkFromSeries(ctx context.Context, workID, seriesID string) error {
	linkKey := []byte(serialWorkPrefix + workID + ":" + seriesID)

	exists, err := s.exists(linkKey)
	if err != nil {
		return fmt.Errorf("check series membership: %w", err)
	}
	if !exists {
		return ErrSerialWorkNotFound
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(linkKey); err != nil {
			return err
		}
		byWorkKey := []byte(seriesByWorkPrefix + workID + ":" + seriesID)
		if err := txn.Delete(byWorkKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		memberKey := []byte(seriesMembersPrefix + seriesID + ":" + workID)
		if err := txn.Delete(memberKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notify(domain.ChangeSeriesLinkRemoved, workID)
	return nil
}

// GetSeriesByWork returns the non-deleted series a work belongs to, in
// link order. This is the projection source for series_titles.
func (s *Store) GetSeriesByWork(ctx context.Context, workID string) ([]*domain.Series, error) {
	seriesIDs, err := s.collectIndexSuffixes(seriesByWorkPrefix + workID + ":")
	if err != nil {
		return nil, fmt.Errorf("lookup series by work: %w", err)
	}

	seriesList := make([]*domain.Series, 0, len(seriesIDs))
	for _, seriesID := range seriesIDs {
		series, err := s.GetSeries(ctx, seriesID)
		if err != nil {
			if errors.Is(err, ErrSeriesNotFound) {
				continue // Deleted series contribute nothing
			}
			return nil, err
		}
		seriesList = append(seriesList, series)
	}

	return seriesList, nil
}

// GetWorkIDsBySeries returns the IDs of all works linked into a series.
// Works even for soft-deleted series, which is what deletion fan-out needs.
func (s *Store) GetWorkIDsBySeries(_ context.Context, seriesID string) ([]string, error) {
	workIDs, err := s.collectIndexSuffixes(seriesMembersPrefix + seriesID + ":")
	if err != nil {
		return nil, fmt.Errorf("lookup works by series: %w", err)
	}
	return workIDs, nil
}

// serialWorkID builds the composite key identity of a membership link.
func serialWorkID(link *domain.SerialWork) string {
	return link.WorkID + ":" + link.SeriesID
}
