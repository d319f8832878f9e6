// Package assets provides the file sources the webnav server serves the
// single-page application from, plus the fingerprint manifest that decides
// which of those files may be cached forever.
//
// A source is any fs.FS. Two are provided: a local directory (Dir) and an
// S3 bucket prefix (S3FS). The build emits manifest.json mapping source
// asset names to their fingerprinted versions:
//
//	{
//	  "app.js": "app.a1b2c3d4.js",
//	  "styles.css": "styles.e5f6g7h8.css"
//	}
//
//	fsys, _ := assets.Dir("dist")
//	manifest, _ := assets.LoadManifest(fsys, assets.ManifestName)
//	manifest.IsFingerprinted("app.a1b2c3d4.js") // true
package assets

import (
	"encoding/json"
	"errors"
	"io/fs"
	"maps"
	"sync"
)

// ManifestName is the conventional manifest file name.
const ManifestName = "manifest.json"

// Manifest holds the mapping from source asset paths to fingerprinted paths.
// It is safe for concurrent use.
type Manifest struct {
	mu       sync.RWMutex
	entries  map[string]string
	resolved map[string]struct{}
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		entries:  make(map[string]string),
		resolved: make(map[string]struct{}),
	}
}

// LoadManifest reads a manifest from fsys. A missing manifest yields an
// empty one: unfingerprinted builds are valid.
func LoadManifest(fsys fs.FS, name string) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return NewManifest(), nil
	}
	if err != nil {
		return nil, err
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	m := NewManifest()
	for source, resolved := range entries {
		m.Set(source, resolved)
	}
	return m, nil
}

// Resolve returns the fingerprinted path for the given source path.
// If not found, returns the original path unchanged.
func (m *Manifest) Resolve(source string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if resolved, ok := m.entries[source]; ok {
		return resolved
	}
	return source
}

// Has returns true if the manifest contains the given source path.
func (m *Manifest) Has(source string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[source]
	return ok
}

// IsFingerprinted reports whether name is the fingerprinted output of
// some manifest entry. Such files never change content under one name.
func (m *Manifest) IsFingerprinted(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.resolved[name]
	return ok
}

// Set adds or updates an entry in the manifest.
func (m *Manifest) Set(source, resolved string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.entries[source]; ok {
		delete(m.resolved, old)
	}
	m.entries[source] = resolved
	if resolved != source {
		m.resolved[resolved] = struct{}{}
	}
}

// Len returns the number of entries in the manifest.
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// All returns a copy of all manifest entries.
func (m *Manifest) All() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return maps.Clone(m.entries)
}
