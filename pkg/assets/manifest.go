// Package assets resolves the script and stylesheet URLs injected into
// rendered pages.
//
// The browser bundler writes two files to the dist directory:
//
//	manifest.json        {"browser.js": "/assets/js/browser.3f2a.js", ...}
//	chunk-manifest.json  {"0": "0.9c1b.js", "1": "1.77ad.js"}
//
// In production they are loaded once at startup:
//
//	bundle, err := assets.LoadBundle("dist")
//	doc.StyleSheets = bundle.StyleSheets()
//	doc.Scripts = bundle.Scripts()
//
// In development a Dev bundle points at the fixed dev-server paths.
package assets

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Manifest holds the mapping from logical asset names to hashed paths.
// It is safe for concurrent use.
type Manifest struct {
	entries map[string]string
	mu      sync.RWMutex
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		entries: make(map[string]string),
	}
}

// Load reads a JSON object of string values, such as manifest.json or
// chunk-manifest.json.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("assets: parse %s: %w", path, err)
	}
	if entries == nil {
		entries = make(map[string]string)
	}

	return &Manifest{entries: entries}, nil
}

// Resolve returns the hashed path for name, or name unchanged when the
// manifest has no entry for it.
func (m *Manifest) Resolve(name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if resolved, ok := m.entries[name]; ok {
		return resolved
	}
	return name
}

// Lookup returns the hashed path for name and whether it exists.
func (m *Manifest) Lookup(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	resolved, ok := m.entries[name]
	return resolved, ok
}

// Set adds or updates an entry.
func (m *Manifest) Set(name, resolved string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[name] = resolved
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

	result := make(map[string]string, len(m.entries))
	for k, v := range m.entries {
		result[k] = v
	}
	return result
}

// MarshalJSON encodes the entries as a JSON object.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.All())
}
