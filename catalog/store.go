package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/minsketch/blobstore"
)

const (
	// CatalogPrefix starts the name of every catalog blob.
	CatalogPrefix = "CATALOG-"
	// CurrentFileName names the blob that points at the active catalog.
	CurrentFileName = "CURRENT"
)

// Store manages catalog blobs and atomic updates of CURRENT.
type Store struct {
	store blobstore.BlobStore
	mu    sync.Mutex
}

// NewStore creates a new catalog store.
func NewStore(store blobstore.BlobStore) *Store {
	return &Store{store: store}
}

// Load loads the catalog CURRENT points at.
func (s *Store) Load(ctx context.Context) (*Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return s.read(ctx, name)
}

// LoadGeneration loads a specific generation.
func (s *Store) LoadGeneration(ctx context.Context, generation uint64) (*Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.store.List(ctx, generationPrefix(generation))
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: generation %d", ErrNotFound, generation)
	}
	// Several blobs exist only when a committer lost a race; prefer the one
	// CURRENT references.
	if cur, err := s.current(ctx); err == nil {
		for _, n := range names {
			if n == cur {
				return s.read(ctx, n)
			}
		}
	}
	return s.read(ctx, names[len(names)-1])
}

// Commit writes c as the next generation and points CURRENT at it. It
// returns the name of the new catalog blob.
func (s *Store) Commit(ctx context.Context, c *Catalog) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var generation uint64 = 1
	if name, err := s.current(ctx); err == nil {
		prev, err := s.read(ctx, name)
		if err != nil {
			return "", err
		}
		generation = prev.Generation + 1
	} else if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	c.Version = CurrentVersion
	c.Generation = generation
	c.CreatedAt = time.Now()

	name := fmt.Sprintf("%s%x.bin", generationPrefix(generation), c.CreatedAt.UnixNano())

	var buf bytes.Buffer
	if err := c.WriteBinary(&buf); err != nil {
		return "", err
	}

	if err := s.store.Put(ctx, name, buf.Bytes()); err != nil {
		return "", err
	}

	if err := s.store.Put(ctx, CurrentFileName, []byte(name)); err != nil {
		// Best effort; an orphaned blob is never referenced.
		_ = s.store.Delete(ctx, name)
		return "", err
	}
	return name, nil
}

// List returns all readable catalogs ordered by generation.
// Corrupted or unreadable blobs are skipped.
func (s *Store) List(ctx context.Context) ([]*Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.store.List(ctx, CatalogPrefix)
	if err != nil {
		return nil, err
	}

	var catalogs []*Catalog
	for _, n := range names {
		if !strings.HasSuffix(n, ".bin") {
			continue
		}
		c, err := s.read(ctx, n)
		if err != nil {
			continue
		}
		catalogs = append(catalogs, c)
	}
	sort.SliceStable(catalogs, func(i, j int) bool {
		return catalogs[i].Generation < catalogs[j].Generation
	})
	return catalogs, nil
}

// DeleteGeneration deletes every catalog blob of the given generation.
func (s *Store) DeleteGeneration(ctx context.Context, generation uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.store.List(ctx, generationPrefix(generation))
	if err != nil {
		return err
	}
	for _, n := range names {
		if err := s.store.Delete(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) current(ctx context.Context) (string, error) {
	content, err := blobstore.ReadAll(ctx, s.store, CurrentFileName)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return strings.TrimSpace(string(content)), nil
}

func (s *Store) read(ctx context.Context, name string) (*Catalog, error) {
	content, err := blobstore.ReadAll(ctx, s.store, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", name, err)
	}
	c, err := ReadBinary(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", name, err)
	}
	return c, nil
}

func generationPrefix(generation uint64) string {
	return fmt.Sprintf("%s%06d-", CatalogPrefix, generation)
}
