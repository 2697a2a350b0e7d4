package storage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"menu-spinner/internal/food"
)

// DefaultKeep is how many snapshots Checkpoint leaves on disk.
const DefaultKeep = 10

const (
	snapshotPrefix = "catalog_"
	snapshotExt    = ".yaml"
	// Lexically sortable, sub-second so quick successive saves don't collide.
	snapshotLayout = "20060102-150405.000000"
)

// SnapshotStore keeps timestamped YAML snapshots of the food catalog so
// edits made at runtime survive a restart.
type SnapshotStore struct {
	basePath string
	now      func() time.Time
}

// NewSnapshotStore creates a new SnapshotStore and ensures the base directory exists.
func NewSnapshotStore(basePath string) (*SnapshotStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &SnapshotStore{basePath: basePath, now: time.Now}, nil
}

func (s *SnapshotStore) path(ts time.Time) string {
	name := snapshotPrefix + ts.UTC().Format(snapshotLayout) + snapshotExt
	return filepath.Join(s.basePath, name)
}

// Save writes items as a new snapshot and returns its path.
func (s *SnapshotStore) Save(items []food.FoodItem) (string, error) {
	data, err := food.MarshalItems(items)
	if err != nil {
		return "", err
	}

	filePath := s.path(s.now())
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize snapshot file: %w", err)
	}
	return filePath, nil
}

// list returns snapshot paths, oldest first.
func (s *SnapshotStore) list() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.basePath, snapshotPrefix+"*"+snapshotExt))
	if err != nil {
		return nil, fmt.Errorf("failed to glob snapshot files: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Latest loads the newest snapshot. It returns nil items and an empty path
// when there is none.
func (s *SnapshotStore) Latest() ([]food.FoodItem, string, error) {
	paths, err := s.list()
	if err != nil || len(paths) == 0 {
		return nil, "", err
	}
	latest := paths[len(paths)-1]
	items, err := food.LoadItems(latest)
	if err != nil {
		return nil, "", err
	}
	return items, latest, nil
}

// Prune removes all but the newest keep snapshots.
func (s *SnapshotStore) Prune(keep int) error {
	paths, err := s.list()
	if err != nil {
		return err
	}
	if keep < 0 {
		keep = 0
	}
	for len(paths) > keep {
		if err := os.Remove(paths[0]); err != nil {
			return fmt.Errorf("failed to remove stale snapshot %s: %w", paths[0], err)
		}
		paths = paths[1:]
	}
	return nil
}

// Checkpoint saves items as a new snapshot and drops all but the newest
// keep. A prune failure is logged; the new snapshot is still returned.
func (s *SnapshotStore) Checkpoint(items []food.FoodItem, keep int) (string, error) {
	path, err := s.Save(items)
	if err != nil {
		return "", err
	}
	if err := s.Prune(keep); err != nil {
		log.Printf("Warning: failed to prune snapshots: %v", err)
	}
	return path, nil
}
