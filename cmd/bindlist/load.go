package main

import (
	"fmt"
	"os"

	"github.com/chazu/bindlist/manifest"
	"github.com/chazu/bindlist/opencvjs"
)

const embeddedSource = "<embedded OpenCV.js whitelist>"

// resolvePath returns the manifest to use: the explicit path, else the
// nearest bindlist.toml, else "" for the embedded whitelist.
func resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return manifest.Find(".")
}

// loadWhitelist loads the manifest chosen by resolvePath and names its source.
func loadWhitelist(path string) (*manifest.Whitelist, string, error) {
	path, err := resolvePath(path)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		wl, err := opencvjs.Load()
		return wl, embeddedSource, err
	}
	wl, err := manifest.Load(path)
	return wl, path, err
}

// readSource returns the raw document and its format.
func readSource(path string) ([]byte, manifest.Format, string, error) {
	path, err := resolvePath(path)
	if err != nil {
		return nil, "", "", err
	}
	if path == "" {
		return opencvjs.Source(), manifest.FormatTOML, embeddedSource, nil
	}
	format, err := manifest.FormatFromPath(path)
	if err != nil {
		return nil, "", "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	return data, format, path, nil
}

// optionalArg returns the single optional positional argument.
func optionalArg(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", nil
	case 1:
		return args[0], nil
	}
	return "", fmt.Errorf("expected at most one file, got %d arguments", len(args))
}
