// Package opencvjs ships the binding whitelist used to generate the OpenCV.js
// JavaScript bindings.
package opencvjs

import (
	_ "embed"
	"sync"

	"github.com/chazu/bindlist/manifest"
)

//go:embed whitelist.toml
var source []byte

var (
	loadOnce sync.Once
	loaded   *manifest.Whitelist
	loadErr  error
)

// Source returns the embedded manifest document.
func Source() []byte {
	return append([]byte(nil), source...)
}

// Load parses the embedded manifest. The result is parsed once and shared;
// a Whitelist is immutable so callers may use it concurrently.
func Load() (*manifest.Whitelist, error) {
	loadOnce.Do(func() {
		loaded, loadErr = manifest.Parse(source, manifest.FormatTOML)
	})
	return loaded, loadErr
}
