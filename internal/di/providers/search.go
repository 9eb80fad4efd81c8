package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/inkwellarchive/inkwell-server/internal/config"
	"github.com/inkwellarchive/inkwell-server/internal/logger"
	"github.com/inkwellarchive/inkwell-server/internal/reindex"
	"github.com/inkwellarchive/inkwell-server/internal/search"
	"github.com/inkwellarchive/inkwell-server/internal/service"
)

// WorkIndexHandle wraps the search index with shutdown capability.
type WorkIndexHandle struct {
	*search.WorkIndex
}

// Shutdown implements do.Shutdownable.
func (h *WorkIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideWorkIndex provides the Bleve search index.
func ProvideWorkIndex(i do.Injector) (*WorkIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewWorkIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &WorkIndexHandle{WorkIndex: index}, nil
}

// ProvideSearchService provides the search service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	indexHandle := do.MustInvoke[*WorkIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSearchService(indexHandle.WorkIndex, storeHandle.Store, log.Logger), nil
}

// CoordinatorHandle wraps the reindex coordinator with shutdown capability.
type CoordinatorHandle struct {
	*reindex.Coordinator
}

// Shutdown implements do.Shutdownable.
func (h *CoordinatorHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideCoordinator provides the reindex coordinator and wires it into the
// store so catalog mutations fan out to the index automatically.
func ProvideCoordinator(i do.Injector) (*CoordinatorHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	log := do.MustInvoke[*logger.Logger](i)

	coord := reindex.NewCoordinator(storeHandle.Store, searchService, cfg.Reindex.Workers, log.Logger)
	storeHandle.SetNotifier(coord)
	coord.Start()

	log.Info("Reindex coordinator started", "workers", cfg.Reindex.Workers)

	return &CoordinatorHandle{Coordinator: coord}, nil
}

// TriggerReindexIfNeeded rebuilds the search index at startup when forced by
// configuration, or when the index is empty but the catalog is not.
// Should be called after all services are wired.
func TriggerReindexIfNeeded(i do.Injector) {
	cfg := do.MustInvoke[*config.Config](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx := context.Background()

	if !cfg.Reindex.RebuildOnStart {
		docCount, _ := searchService.DocumentCount()
		if docCount > 0 {
			return
		}

		workIDs, err := storeHandle.ListWorkIDs(ctx)
		if err != nil || len(workIDs) == 0 {
			return
		}

		log.Info("Search index is empty but works exist, triggering initial reindex",
			"work_count", len(workIDs),
		)
	}

	go func() {
		if err := searchService.ReindexAll(context.Background()); err != nil {
			log.Error("Startup reindex failed", "error", err)
		} else {
			count, _ := searchService.DocumentCount()
			log.Info("Startup reindex completed", "documents", count)
		}
	}()
}
