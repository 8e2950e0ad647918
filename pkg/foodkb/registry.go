package foodkb

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Registry loads all catalogs under one directory and holds the current
// Index. The index itself is immutable; the registry exists so that a SIGHUP
// can rebuild it and swap the pointer while requests keep the snapshot they
// started with.
type Registry struct {
	mu          sync.RWMutex
	idx         *Index
	infos       []CatalogInfo
	catalogsDir string
}

// CatalogInfo is the public metadata for a loaded catalog.
type CatalogInfo struct {
	ID        string `json:"id"`
	Version   string `json:"version"`
	Lang      string `json:"lang"`
	Region    string `json:"region,omitempty"`
	Source    string `json:"source"`
	SourceURL string `json:"source_url,omitempty"`
	License   string `json:"license"`
	Entities  int    `json:"entities"`
}

// NewRegistry creates an empty registry for the given catalogs directory.
func NewRegistry(catalogsDir string) *Registry {
	return &Registry{catalogsDir: catalogsDir}
}

// Load scans the catalogs directory, loads every catalog, and builds a fresh
// index. The previous index stays valid for callers already holding it.
func (r *Registry) Load() error {
	entries, err := os.ReadDir(r.catalogsDir)
	if err != nil {
		return fmt.Errorf("read catalogs dir %s: %w", r.catalogsDir, err)
	}

	var catalogs []*Catalog
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(r.catalogsDir, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, "manifest.yaml")); err != nil {
			continue
		}
		c, err := LoadCatalog(dir)
		if err != nil {
			return fmt.Errorf("load catalog %s: %w", entry.Name(), err)
		}
		catalogs = append(catalogs, c)
	}

	idx, err := BuildIndex(catalogs...)
	if err != nil {
		return err
	}

	infos := make([]CatalogInfo, 0, len(catalogs))
	for _, c := range catalogs {
		m := c.Manifest
		infos = append(infos, CatalogInfo{
			ID:        m.ID,
			Version:   m.Version,
			Lang:      m.Lang,
			Region:    m.Region,
			Source:    m.Source,
			SourceURL: m.SourceURL,
			License:   m.License,
			Entities:  len(c.Entities),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })

	r.mu.Lock()
	r.idx = idx
	r.infos = infos
	r.mu.Unlock()
	return nil
}

// Reload rebuilds the index from disk (hot reload).
func (r *Registry) Reload() error {
	return r.Load()
}

// Index returns the current index snapshot.
func (r *Registry) Index() *Index {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idx
}

// Catalogs returns metadata for all loaded catalogs, sorted by ID.
func (r *Registry) Catalogs() []CatalogInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]CatalogInfo, len(r.infos))
	copy(out, r.infos)
	return out
}

// CatalogCount returns the number of loaded catalogs.
func (r *Registry) CatalogCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.infos)
}
