package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// WorkIndex wraps a Bleve index with work-document operations.
//
// Thread safety: all public methods are safe for concurrent use. The mutex
// protects against index corruption during rebuild operations; upserts and
// searches only take the read lock and never block each other.
type WorkIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex // Protects index operations during rebuild
}

// Options configures the work index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Logger for operations (stderr if nil)
}

// mappingVersion is incremented whenever the index mapping changes.
// This triggers an automatic rebuild on startup when the version doesn't match.
const mappingVersion = "1"

// NewWorkIndex creates or opens a work search index.
// If an existing index is found, it opens it. Otherwise, creates a new one.
// If the existing index is corrupted or has an outdated mapping, it's removed
// and recreated.
func NewWorkIndex(opts Options) (*WorkIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	indexPath := filepath.Join(opts.DataPath, "works.bleve")
	versionPath := filepath.Join(opts.DataPath, "works.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil {
			logger.Info("work index has no version file, will rebuild with current mapping",
				"new_version", mappingVersion,
			)
			needsRebuild = true
		} else if string(existingVersion) != mappingVersion {
			logger.Info("work index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing work index, will recreate",
				"path", indexPath,
				"error", err,
			)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		indexMapping := buildIndexMapping()
		index, err = bleve.New(indexPath, indexMapping)
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0644); writeErr != nil {
			logger.Warn("failed to write work index version file", "error", writeErr)
		}
		logger.Info("created new work index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing work index", "path", indexPath)
	}

	return &WorkIndex{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, nil
}

// Close closes the index and releases resources.
func (ix *WorkIndex) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.index.Close()
}

// Upsert indexes a single work document, replacing any prior version.
func (ix *WorkIndex) Upsert(doc *WorkDocument) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	// Convert to map to ensure field names match the mapping (lowercase).
	return ix.index.Index(doc.ID, doc.ToMap())
}

// UpsertBatch indexes multiple work documents in batches.
// This is significantly faster than calling Upsert in a loop. Large sets
// are chunked to limit memory pressure during a full reindex.
func (ix *WorkIndex) UpsertBatch(docs []*WorkDocument) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))
		chunk := docs[i:end]

		batch := ix.index.NewBatch()
		for _, doc := range chunk {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}

		if err := ix.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// Delete removes a work document from the index.
// Deleting an absent document is not an error.
func (ix *WorkIndex) Delete(workID string) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.index.Delete(workID)
}

// DocumentCount returns the total number of indexed documents.
func (ix *WorkIndex) DocumentCount() (uint64, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.index.DocCount()
}

// Rebuild drops the existing index and creates a fresh empty one.
// Used for full reindex operations when the schema changes.
//
// This acquires an exclusive lock and blocks all other operations until
// it returns.
func (ix *WorkIndex) Rebuild() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	if err := os.RemoveAll(ix.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	indexMapping := buildIndexMapping()
	index, err := bleve.New(ix.path, indexMapping)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	ix.index = index
	ix.logger.Info("rebuilt work index", "path", ix.path)

	return nil
}
