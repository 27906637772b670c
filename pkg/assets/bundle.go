package assets

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Manifest file names inside the dist directory.
const (
	ManifestFile      = "manifest.json"
	ChunkManifestFile = "chunk-manifest.json"
)

// Logical names of the browser bundle entries, in load order.
var (
	StyleEntry    = "browser.css"
	ScriptEntries = []string{"manifest.js", "vendor.js", "browser.js"}
)

// Bundle lists the assets every rendered page references.
type Bundle struct {
	styleSheets []string
	scripts     []string
	chunks      *Manifest
}

// LoadBundle reads the manifests from dist. Missing entries are an error
// since the page would reference files that do not exist.
func LoadBundle(dist string) (*Bundle, error) {
	manifest, err := Load(filepath.Join(dist, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("assets: load manifest: %w", err)
	}
	chunks, err := Load(filepath.Join(dist, ChunkManifestFile))
	if err != nil {
		return nil, fmt.Errorf("assets: load chunk manifest: %w", err)
	}
	return NewBundle(manifest, chunks)
}

// NewBundle resolves the bundle entries against manifest.
func NewBundle(manifest, chunks *Manifest) (*Bundle, error) {
	var missing []string

	css, ok := manifest.Lookup(StyleEntry)
	if !ok {
		missing = append(missing, StyleEntry)
	}

	scripts := make([]string, 0, len(ScriptEntries))
	for _, name := range ScriptEntries {
		src, ok := manifest.Lookup(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		scripts = append(scripts, src)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("assets: manifest has no entry for %s", strings.Join(missing, ", "))
	}
	if chunks == nil {
		chunks = NewManifest()
	}

	return &Bundle{styleSheets: []string{css}, scripts: scripts, chunks: chunks}, nil
}

// Dev returns the bundle served by the browser dev server.
func Dev() *Bundle {
	return &Bundle{
		styleSheets: []string{"/assets/css/style.css"},
		scripts:     []string{"/vendor.js", "/browser.js"},
	}
}

// StyleSheets returns the stylesheet URLs.
func (b *Bundle) StyleSheets() []string {
	return append([]string(nil), b.styleSheets...)
}

// Scripts returns the script URLs in load order.
func (b *Bundle) Scripts() []string {
	return append([]string(nil), b.scripts...)
}

// Chunks returns the chunk manifest embedded as window.webpackManifest,
// or nil in development.
func (b *Bundle) Chunks() *Manifest {
	return b.chunks
}
