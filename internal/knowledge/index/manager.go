// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/philippgille/chromem-go"
	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/dossier/internal/platform/blob"
	"github.com/taibuivan/dossier/internal/platform/ctxutil"
	"github.com/taibuivan/dossier/internal/platform/keylock"
	"github.com/taibuivan/dossier/internal/platform/metrics"
	"github.com/taibuivan/dossier/pkg/slice"
	"github.com/taibuivan/dossier/pkg/uuid"
)

// # Definitions & Constructors

// Options configures a [Manager].
type Options struct {
	// Root is the directory holding one subdirectory per principal.
	Root string

	// MinScore is the relevance floor; weaker hits are not returned.
	MinScore float32

	Embedder    Embedder
	Synthesizer Synthesizer
	Metrics     *metrics.Metrics
}

// tenant is the in-memory handle of one principal's index.
type tenant struct {
	// collection is nil when the principal owns no documents.
	collection *chromem.Collection
	documents  []int64
}

type manifest struct {
	OwnerID     int64     `json:"owner_id"`
	DocumentIDs []int64   `json:"document_ids"`
	Chunks      int       `json:"chunks"`
	BuiltAt     time.Time `json:"built_at"`
}

// Manager owns every principal's index and the per-owner locks guarding them.
type Manager struct {
	root        string
	corpus      Corpus
	blobs       blob.Store
	embedder    Embedder
	synthesizer Synthesizer
	minScore    float32
	metrics     *metrics.Metrics

	locks *keylock.Keyed[int64]

	// mu guards the maps only. Index contents are guarded by locks.
	mu      sync.RWMutex
	tenants map[int64]*tenant
	stale   map[int64]struct{}
}

/*
NewManager creates a Manager rooted at options.Root.

Parameters:
  - corpus: Corpus (authoritative document set)
  - blobs: blob.Store (document bytes)
  - options: Options

Returns:
  - *Manager: Ready manager; indexes load lazily
  - error: Root directory failures
*/
func NewManager(corpus Corpus, blobs blob.Store, options Options) (*Manager, error) {
	if err := os.MkdirAll(options.Root, 0o750); err != nil {
		return nil, fmt.Errorf("index_root_create_failed: %w", err)
	}

	embedder := options.Embedder
	if embedder == nil {
		embedder = NewHashEmbedder(DefaultHashDimensions)
	}

	synthesizer := options.Synthesizer
	if synthesizer == nil {
		synthesizer = NoSynthesizer{}
	}

	return &Manager{
		root:        options.Root,
		corpus:      corpus,
		blobs:       blobs,
		embedder:    embedder,
		synthesizer: synthesizer,
		minScore:    options.MinScore,
		metrics:     options.Metrics,
		locks:       keylock.New[int64](),
		tenants:     make(map[int64]*tenant),
		stale:       make(map[int64]struct{}),
	}, nil
}

// # Mutation

/*
Mutate runs apply under ownerID's write lock and rebuilds the index if apply
reports a change.

Description: apply is the registry mutation. Its result stands even if the
rebuild fails; in that case the index is dropped and marked stale, and
indexed is false. Searches never observe the registry change without the
matching rebuild.

Parameters:
  - ctx: context.Context
  - ownerID: int64
  - apply: func(context.Context) (changed bool, err error)

Returns:
  - indexed: Whether the rebuild succeeded
  - err: The error returned by apply
*/
func (manager *Manager) Mutate(ctx context.Context, ownerID int64, apply func(context.Context) (bool, error)) (bool, error) {
	unlock := manager.locks.Lock(ownerID)
	defer unlock()

	changed, err := apply(ctx)
	if err != nil || !changed {
		return false, err
	}

	// The registry change is committed; a client hanging up must not abort
	// the rebuild that follows it.
	if err := manager.rebuildLocked(context.WithoutCancel(ctx), ownerID); err != nil {
		manager.invalidate(ctx, ownerID, err)
		return false, nil
	}
	return true, nil
}

// Rebuild recomputes ownerID's index from its current document set.
func (manager *Manager) Rebuild(ctx context.Context, ownerID int64) error {
	unlock := manager.locks.Lock(ownerID)
	defer unlock()

	if err := manager.rebuildLocked(ctx, ownerID); err != nil {
		manager.invalidate(ctx, ownerID, err)
		return err
	}
	return nil
}

// # Queries

/*
Search returns ownerID's best hits for query, strongest first.

Description: Only ownerID's index is consulted. Hits below the relevance
floor are dropped. A missing or empty index yields no hits. An index that is
not loaded or is stale is loaded or rebuilt first.

Returns:
  - []Hit: Possibly empty
  - error: ErrIndexUnavailable or query failures
*/
func (manager *Manager) Search(ctx context.Context, ownerID int64, query string, topK int) ([]Hit, error) {
	unlock := manager.locks.RLock(ownerID)

	current := manager.loaded(ownerID)
	if current == nil {
		unlock()
		unlock = manager.locks.Lock(ownerID)

		var err error
		if current, err = manager.ensureLocked(ctx, ownerID); err != nil {
			unlock()
			return nil, err
		}
	}
	defer unlock()

	if current.collection == nil || topK <= 0 {
		return []Hit{}, nil
	}

	count := current.collection.Count()
	if count == 0 {
		return []Hit{}, nil
	}

	owner := strconv.FormatInt(ownerID, 10)
	results, err := current.collection.Query(ctx, query, min(topK, count), map[string]string{metaOwner: owner}, nil)
	if err != nil {
		return nil, fmt.Errorf("index_query_failed: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, result := range results {
		if result.Similarity < manager.minScore || result.Metadata[metaOwner] != owner {
			continue
		}
		documentID, _ := strconv.ParseInt(result.Metadata[metaDocument], 10, 64)
		hits = append(hits, Hit{
			DocumentID: documentID,
			Filename:   result.Metadata[metaFilename],
			Excerpt:    result.Content,
			Score:      result.Similarity,
		})
	}
	return hits, nil
}

/*
Answer synthesizes an answer to query from hits.

Description: Hits for documents outside ownerID's current index are
discarded, and each excerpt is bounded before it reaches the synthesizer.

Returns:
  - string: The synthesized answer
  - error: ErrSynthesisUnavailable or synthesizer failures
*/
func (manager *Manager) Answer(ctx context.Context, ownerID int64, query string, hits []Hit) (string, error) {
	unlock := manager.locks.RLock(ownerID)
	current := manager.loaded(ownerID)
	unlock()

	owned := slice.Filter(hits, func(hit Hit) bool {
		return current != nil && slices.Contains(current.documents, hit.DocumentID)
	})
	contextDocuments := slice.Map(owned, func(hit Hit) string {
		return Excerpt(hit.Excerpt, maxContextRunes)
	})

	return manager.synthesizer.Answer(ctx, query, contextDocuments)
}

// Ready reports whether ownerID has a non-empty index that the next search
// would serve without rebuilding.
func (manager *Manager) Ready(ctx context.Context, ownerID int64) bool {
	unlock := manager.locks.RLock(ownerID)
	defer unlock()

	manager.mu.RLock()
	_, isStale := manager.stale[ownerID]
	current, isLoaded := manager.tenants[ownerID]
	manager.mu.RUnlock()

	switch {
	case isStale:
		return false
	case isLoaded:
		return current.collection != nil && len(current.documents) > 0
	default:
		saved, err := manager.currentManifest(ctx, ownerID)
		return err == nil && saved != nil && len(saved.DocumentIDs) > 0
	}
}

// # Internals

func (manager *Manager) loaded(ownerID int64) *tenant {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return manager.tenants[ownerID]
}

func (manager *Manager) isStale(ownerID int64) bool {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	_, isStale := manager.stale[ownerID]
	return isStale
}

func (manager *Manager) install(ownerID int64, current *tenant) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.tenants[ownerID] = current
	delete(manager.stale, ownerID)
}

func (manager *Manager) invalidate(ctx context.Context, ownerID int64, cause error) {
	manager.mu.Lock()
	delete(manager.tenants, ownerID)
	manager.stale[ownerID] = struct{}{}
	manager.mu.Unlock()

	logger := ctxutil.GetLogger(ctx)
	logger.ErrorContext(ctx, "tenant_index_rebuild_failed", slog.Int64("owner_id", ownerID), slog.Any("error", cause))

	if err := os.RemoveAll(manager.ownerDir(ownerID)); err != nil {
		logger.WarnContext(ctx, "tenant_index_drop_failed", slog.Int64("owner_id", ownerID), slog.Any("error", err))
	}
}

// ensureLocked must be called with ownerID's write lock held.
func (manager *Manager) ensureLocked(ctx context.Context, ownerID int64) (*tenant, error) {
	if current := manager.loaded(ownerID); current != nil {
		return current, nil
	}

	if !manager.isStale(ownerID) {
		current, err := manager.load(ctx, ownerID)
		if err != nil {
			ctxutil.GetLogger(ctx).WarnContext(ctx, "tenant_index_load_failed", slog.Int64("owner_id", ownerID), slog.Any("error", err))
		}
		if current != nil {
			manager.install(ownerID, current)
			return current, nil
		}
	}

	if err := manager.rebuildLocked(ctx, ownerID); err != nil {
		manager.invalidate(ctx, ownerID, err)
		return nil, ErrIndexUnavailable
	}
	return manager.loaded(ownerID), nil
}

// load opens the persisted index if its manifest matches the current
// document set. A nil tenant means a rebuild is needed.
func (manager *Manager) load(ctx context.Context, ownerID int64) (*tenant, error) {
	saved, err := manager.currentManifest(ctx, ownerID)
	if saved == nil || err != nil {
		return nil, err
	}

	db, err := chromem.NewPersistentDB(filepath.Join(manager.ownerDir(ownerID), vectorsDir), false)
	if err != nil {
		return nil, fmt.Errorf("index_open_failed: %w", err)
	}

	collection := db.GetCollection(collectionName, embeddingFunc(manager.embedder))
	if collection == nil {
		return nil, nil
	}
	return &tenant{collection: collection, documents: saved.DocumentIDs}, nil
}

// currentManifest reads ownerID's persisted manifest. It returns nil when
// there is none or when it no longer matches the registered document set.
func (manager *Manager) currentManifest(ctx context.Context, ownerID int64) (*manifest, error) {
	raw, err := os.ReadFile(filepath.Join(manager.ownerDir(ownerID), manifestName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var saved manifest
	if err := json.Unmarshal(raw, &saved); err != nil {
		return nil, fmt.Errorf("index_manifest_decode_failed: %w", err)
	}

	sources, err := manager.corpus.Sources(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if saved.OwnerID != ownerID || !slices.Equal(saved.DocumentIDs, documentIDs(sources)) {
		return nil, nil
	}
	return &saved, nil
}

// rebuildLocked must be called with ownerID's write lock held.
func (manager *Manager) rebuildLocked(ctx context.Context, ownerID int64) error {
	started := time.Now()
	chunks, err := manager.rebuild(ctx, ownerID)
	manager.metrics.IndexRebuilt(err, time.Since(started))

	if err == nil {
		ctxutil.GetLogger(ctx).InfoContext(ctx, "tenant_index_rebuilt",
			slog.Int64("owner_id", ownerID),
			slog.Int("chunks", chunks),
			slog.Duration("elapsed", time.Since(started)),
		)
	}
	return err
}

func (manager *Manager) rebuild(ctx context.Context, ownerID int64) (int, error) {
	sources, err := manager.corpus.Sources(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("index_rebuild_sources_failed: %w", err)
	}

	if len(sources) == 0 {
		if err := os.RemoveAll(manager.ownerDir(ownerID)); err != nil {
			return 0, fmt.Errorf("index_rebuild_clear_failed: %w", err)
		}
		manager.install(ownerID, &tenant{})
		return 0, nil
	}

	documents, err := manager.read(ctx, ownerID, sources)
	if err != nil {
		return 0, err
	}

	staging := filepath.Join(manager.root, fmt.Sprintf(".staging-%d-%s", ownerID, uuid.New()))
	defer os.RemoveAll(staging)

	db, err := chromem.NewPersistentDB(filepath.Join(staging, vectorsDir), false)
	if err != nil {
		return 0, fmt.Errorf("index_rebuild_open_failed: %w", err)
	}

	owner := strconv.FormatInt(ownerID, 10)
	collection, err := db.CreateCollection(collectionName, map[string]string{metaOwner: owner}, embeddingFunc(manager.embedder))
	if err != nil {
		return 0, fmt.Errorf("index_rebuild_collection_failed: %w", err)
	}

	if len(documents) > 0 {
		if err := manager.embed(ctx, documents); err != nil {
			return 0, err
		}
		if err := collection.AddDocuments(ctx, documents, 1); err != nil {
			return 0, fmt.Errorf("index_rebuild_add_failed: %w", err)
		}
	}

	ids := documentIDs(sources)
	if err := writeManifest(staging, manifest{OwnerID: ownerID, DocumentIDs: ids, Chunks: len(documents), BuiltAt: time.Now().UTC()}); err != nil {
		return 0, err
	}

	if err := manager.swap(ownerID, staging); err != nil {
		return 0, err
	}

	if err := manager.corpus.MarkIndexed(ctx, ownerID, ids); err != nil {
		return 0, fmt.Errorf("index_rebuild_mark_failed: %w", err)
	}

	manager.install(ownerID, &tenant{collection: collection, documents: ids})
	return len(documents), nil
}

// read loads and chunks every source in parallel. Sources whose bytes are
// gone are skipped with a warning.
func (manager *Manager) read(ctx context.Context, ownerID int64, sources []Source) ([]chromem.Document, error) {
	perSource := make([][]chromem.Document, len(sources))
	owner := strconv.FormatInt(ownerID, 10)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(readConcurrency)

	for i, source := range sources {
		group.Go(func() error {
			reader, err := manager.blobs.Open(groupCtx, source.BlobKey)
			if errors.Is(err, blob.ErrNotFound) {
				ctxutil.GetLogger(ctx).WarnContext(ctx, "tenant_index_source_missing",
					slog.Int64("owner_id", ownerID),
					slog.Int64("document_id", source.DocumentID),
				)
				return nil
			}
			if err != nil {
				return fmt.Errorf("index_rebuild_open_blob_failed: %w", err)
			}
			defer reader.Close()

			raw, err := io.ReadAll(reader)
			if err != nil {
				return fmt.Errorf("index_rebuild_read_blob_failed: %w", err)
			}

			documentID := strconv.FormatInt(source.DocumentID, 10)
			for j, piece := range Chunk(Normalize(raw)) {
				perSource[i] = append(perSource[i], chromem.Document{
					ID:      documentID + "-" + strconv.Itoa(j),
					Content: piece,
					Metadata: map[string]string{
						metaOwner:    owner,
						metaDocument: documentID,
						metaFilename: source.Filename,
					},
				})
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return slices.Concat(perSource...), nil
}

func (manager *Manager) embed(ctx context.Context, documents []chromem.Document) error {
	texts := make([]string, len(documents))
	for i, document := range documents {
		texts[i] = document.Content
	}

	vectors, err := manager.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("index_rebuild_embed_failed: %w", err)
	}
	if len(vectors) != len(documents) {
		return fmt.Errorf("index_rebuild_embed_failed: got %d vectors for %d chunks", len(vectors), len(documents))
	}

	for i := range documents {
		documents[i].Embedding = vectors[i]
	}
	return nil
}

// swap replaces ownerID's directory with staging. The previous index stays
// in place if the final rename fails.
func (manager *Manager) swap(ownerID int64, staging string) error {
	final := manager.ownerDir(ownerID)

	retired := ""
	if _, err := os.Stat(final); err == nil {
		retired = filepath.Join(manager.root, fmt.Sprintf(".retired-%d-%s", ownerID, uuid.New()))
		if err := os.Rename(final, retired); err != nil {
			return fmt.Errorf("index_swap_retire_failed: %w", err)
		}
	}

	if err := os.Rename(staging, final); err != nil {
		if retired != "" {
			_ = os.Rename(retired, final)
		}
		return fmt.Errorf("index_swap_install_failed: %w", err)
	}

	if retired != "" {
		_ = os.RemoveAll(retired)
	}
	return nil
}

func (manager *Manager) ownerDir(ownerID int64) string {
	return filepath.Join(manager.root, strconv.FormatInt(ownerID, 10))
}

func writeManifest(dir string, content manifest) error {
	raw, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("index_manifest_encode_failed: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestName), raw, 0o640); err != nil {
		return fmt.Errorf("index_manifest_write_failed: %w", err)
	}
	return nil
}

func documentIDs(sources []Source) []int64 {
	ids := slice.Map(sources, func(source Source) int64 { return source.DocumentID })
	slices.Sort(ids)
	return ids
}
