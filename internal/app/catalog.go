package app

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"menu-spinner/internal/config"
	"menu-spinner/internal/food"
	"menu-spinner/internal/storage"

	"github.com/fsnotify/fsnotify"
)

// LoadCatalog picks the startup catalog: CATALOG_PATH when set, else the
// newest snapshot, else the built-in seed. It also reports where the
// items came from.
func LoadCatalog(cfg *config.Config, snapshots *storage.SnapshotStore) ([]food.FoodItem, string, error) {
	if cfg.CatalogPath != "" {
		items, err := food.LoadItems(cfg.CatalogPath)
		if err != nil {
			return nil, "", err
		}
		return items, cfg.CatalogPath, nil
	}

	if snapshots != nil {
		items, path, err := snapshots.Latest()
		if err != nil {
			return nil, "", fmt.Errorf("failed to load catalog snapshot: %w", err)
		}
		if path != "" {
			return items, path, nil
		}
	}

	return food.DefaultItems(), "built-in seed", nil
}

// CatalogWatcher reloads a YAML catalog file whenever it changes.
type CatalogWatcher struct {
	path    string
	reload  func([]food.FoodItem)
	watcher *fsnotify.Watcher
}

// NewCatalogWatcher watches the directory holding path, since editors
// often replace files rather than write them in place.
func NewCatalogWatcher(path string, reload func([]food.FoodItem)) (*CatalogWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	return &CatalogWatcher{path: abs, reload: reload, watcher: w}, nil
}

// Watch blocks until ctx is done or the watcher is closed.
func (cw *CatalogWatcher) Watch(ctx context.Context) {
	defer cw.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != cw.path {
				continue
			}
			log.Printf("Catalog file changed: %s", event.Name)
			cw.handleChange()
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Catalog watcher error: %v", err)
		}
	}
}

func (cw *CatalogWatcher) handleChange() {
	items, err := food.LoadItems(cw.path)
	if err != nil {
		// Half-written files parse badly; the next write event retries.
		log.Printf("Error reloading catalog: %v", err)
		return
	}
	if len(items) == 0 {
		// A truncate fires its own write event before the new content lands.
		return
	}
	cw.reload(items)
}
