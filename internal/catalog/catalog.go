// Package catalog provides the preset glacier list, optionally extended from a YAML file.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/glacierwatch/internal/models"
)

// Builtin returns the glaciers that are always available.
func Builtin() []models.GlacierPreset {
	return []models.GlacierPreset{
		{Name: "Pindari Glacier", Lat: 30.32, Lon: 79.96, Zoom: 12},
		{Name: "Gangotri Glacier", Lat: 30.93, Lon: 79.08, Zoom: 12},
		{Name: "Siachen Glacier", Lat: 35.42, Lon: 77.10, Zoom: 11},
		{Name: "Baltoro Glacier", Lat: 35.71, Lon: 76.43, Zoom: 11},
	}
}

// File is the on-disk catalog format.
type File struct {
	Glaciers []models.GlacierPreset `yaml:"glaciers"`
}

// Catalog is a concurrency-safe set of glacier presets.
type Catalog struct {
	mu      sync.RWMutex
	presets []models.GlacierPreset
}

// New returns a catalog holding the built-in presets.
func New() *Catalog {
	return &Catalog{presets: Builtin()}
}

// List returns the presets in display order.
func (c *Catalog) List() []models.GlacierPreset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.GlacierPreset, len(c.presets))
	copy(out, c.presets)
	return out
}

// Lookup finds a preset by name, case-insensitively. "gangotri" matches "Gangotri Glacier".
func (c *Catalog) Lookup(name string) (models.GlacierPreset, bool) {
	key := normalize(name)
	if key == "" {
		return models.GlacierPreset{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.presets {
		if n := normalize(p.Name); n == key || strings.TrimSuffix(n, " glacier") == key {
			return p, true
		}
	}
	return models.GlacierPreset{}, false
}

// LoadFile merges the presets in path over the built-ins and replaces the catalog.
// On error the current presets are kept.
func (c *Catalog) LoadFile(path string) error {
	presets, err := ReadFile(path)
	if err != nil {
		return err
	}
	merged := Merge(Builtin(), presets)
	c.mu.Lock()
	c.presets = merged
	c.mu.Unlock()
	return nil
}

// ReadFile parses and validates a catalog file.
func ReadFile(path string) ([]models.GlacierPreset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	for i, p := range f.Glaciers {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("glacier %d: name is required", i)
		}
		if err := (models.LatLon{Lat: p.Lat, Lon: p.Lon}).Validate(); err != nil {
			return nil, fmt.Errorf("glacier %q: %w", p.Name, err)
		}
		if p.Zoom < 0 || p.Zoom > 20 {
			return nil, fmt.Errorf("glacier %q: zoom %d outside [0, 20]", p.Name, p.Zoom)
		}
	}
	return f.Glaciers, nil
}

// WriteFile saves presets as a catalog file.
func WriteFile(path string, presets []models.GlacierPreset) error {
	data, err := yaml.Marshal(File{Glaciers: presets})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Merge overlays extra onto base: entries with a matching name replace the base entry,
// the rest are appended sorted by name.
func Merge(base, extra []models.GlacierPreset) []models.GlacierPreset {
	out := make([]models.GlacierPreset, len(base))
	copy(out, base)
	index := make(map[string]int, len(out))
	for i, p := range out {
		index[normalize(p.Name)] = i
	}
	var added []models.GlacierPreset
	addedIndex := make(map[string]int)
	for _, p := range extra {
		if p.Zoom == 0 {
			p.Zoom = 12
		}
		key := normalize(p.Name)
		if i, ok := index[key]; ok {
			out[i] = p
			continue
		}
		if i, ok := addedIndex[key]; ok {
			added[i] = p
			continue
		}
		addedIndex[key] = len(added)
		added = append(added, p)
	}
	sort.SliceStable(added, func(i, j int) bool { return added[i].Name < added[j].Name })
	return append(out, added...)
}

// IsNotExist reports whether err came from a missing catalog file.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
