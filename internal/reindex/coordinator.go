package reindex

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/inkwellarchive/inkwell-server/internal/domain"
	"github.com/inkwellarchive/inkwell-server/internal/service"
	"github.com/inkwellarchive/inkwell-server/internal/store"
)

// maxAttempts bounds redelivery of a failing change before it is dropped.
// Delivery is at-least-once; rebuilding a document is idempotent, so a
// duplicate delivery is harmless while a lost one leaves a stale document.
const maxAttempts = 3

// Coordinator fans store changes out to the work documents they invalidate
// and rebuilds those documents through the search service. It implements
// store.ChangeNotifier.
type Coordinator struct {
	store  *store.Store
	search *service.SearchService
	logger *slog.Logger

	workers int
	q       *queue
	wg      sync.WaitGroup

	// pending counts changes accepted but not yet finally resolved
	// (succeeded or dropped). Drain waits for it to reach zero.
	mu      sync.Mutex
	idle    *sync.Cond
	pending int
}

// NewCoordinator creates a reindex coordinator with the given worker count.
func NewCoordinator(st *store.Store, search *service.SearchService, workers int, logger *slog.Logger) *Coordinator {
	if workers < 1 {
		workers = 1
	}
	c := &Coordinator{
		store:   st,
		search:  search,
		logger:  logger,
		workers: workers,
		q:       newQueue(),
	}
	c.idle = sync.NewCond(&c.mu)
	return c
}

// Notify implements store.ChangeNotifier. It never blocks the caller.
// Changes arriving after Stop are dropped; the next full reindex covers them.
func (c *Coordinator) Notify(change domain.Change) {
	c.mu.Lock()
	c.pending++
	c.mu.Unlock()
	if !c.q.push(task{change: change}) {
		c.resolve()
	}
}

// Start launches the worker pool.
func (c *Coordinator) Start() {
	c.logger.Info("starting reindex workers", slog.Int("workers", c.workers))
	for i := range c.workers {
		c.wg.Add(1)
		go c.worker(i)
	}
}

// Stop drains the queue and waits for workers to finish their current task.
func (c *Coordinator) Stop() {
	c.logger.Info("stopping reindex coordinator")
	c.q.close()
	c.wg.Wait()
	c.logger.Info("reindex coordinator stopped")
}

// Drain blocks until every accepted change has been fully processed,
// including retries. Intended for tests and for the admin reindex endpoint
// to report convergence.
func (c *Coordinator) Drain() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pending > 0 {
		c.idle.Wait()
	}
}

func (c *Coordinator) worker(n int) {
	defer c.wg.Done()

	for {
		t, ok := c.q.pop()
		if !ok {
			return
		}

		err := c.process(context.Background(), t.change)
		if err == nil {
			c.resolve()
			continue
		}

		t.attempts++
		if t.attempts < maxAttempts {
			c.logger.Warn("reindex change failed, requeueing",
				slog.String("kind", string(t.change.Kind)),
				slog.String("entity_id", t.change.EntityID),
				slog.Int("attempts", t.attempts),
				slog.Any("error", err),
			)
			if c.q.push(t) {
				continue
			}
			// Shutdown raced the requeue; settle the task so Drain
			// cannot hang on it.
			c.resolve()
			continue
		}

		c.logger.Error("reindex change dropped after repeated failures",
			slog.String("kind", string(t.change.Kind)),
			slog.String("entity_id", t.change.EntityID),
			slog.Int("worker", n),
			slog.Any("error", err),
		)
		c.resolve()
	}
}

// resolve marks one accepted change as finally settled.
func (c *Coordinator) resolve() {
	c.mu.Lock()
	c.pending--
	if c.pending == 0 {
		c.idle.Broadcast()
	}
	c.mu.Unlock()
}

// process expands a change into the set of affected works and rebuilds each
// document.
func (c *Coordinator) process(ctx context.Context, change domain.Change) error {
	switch change.Kind {
	case domain.ChangeWorkUpserted, domain.ChangeWorkDeleted, domain.ChangeSeriesLinkRemoved:
		// Single-document changes: EntityID is the work itself.
		return c.search.IndexWork(ctx, change.EntityID)

	case domain.ChangeUserRenamed:
		workIDs, err := c.worksForUser(ctx, change.EntityID)
		if err != nil {
			return err
		}
		return c.indexAll(ctx, workIDs)

	case domain.ChangeSeriesUpdated, domain.ChangeSeriesDeleted:
		workIDs, err := c.store.GetWorkIDsBySeries(ctx, change.EntityID)
		if err != nil {
			return err
		}
		return c.indexAll(ctx, workIDs)

	default:
		// Unknown kinds are dropped loudly rather than retried forever.
		c.logger.Error("unknown change kind", slog.String("kind", string(change.Kind)))
		return nil
	}
}

// worksForUser collects every work attributed to any of the user's pseuds.
// A rename touches all of them: default-pseud bylines are the login itself
// and named-pseud bylines embed it.
func (c *Coordinator) worksForUser(ctx context.Context, userID string) ([]string, error) {
	pseuds, err := c.store.GetPseudsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("pseuds for user: %w", err)
	}

	seen := make(map[string]struct{})
	var workIDs []string
	for _, pseud := range pseuds {
		ids, err := c.store.GetWorkIDsByPseud(ctx, pseud.ID)
		if err != nil {
			return nil, fmt.Errorf("works for pseud: %w", err)
		}
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			workIDs = append(workIDs, id)
		}
	}

	return workIDs, nil
}

func (c *Coordinator) indexAll(ctx context.Context, workIDs []string) error {
	var firstErr error
	for _, workID := range workIDs {
		if err := c.search.IndexWork(ctx, workID); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("index work %s: %w", workID, err)
		}
	}
	return firstErr
}
