package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file FindAndLoad looks for.
const FileName = "bindlist.toml"

// Top-level keys of a manifest document.
const (
	keyWhitelist = "whitelist"
	keyOverrides = "namespace_prefix_override"
	keyModules   = "modules"
)

// Format names a persisted representation of a whitelist.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
)

// ParseFormat converts a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "cbor":
		return FormatCBOR, nil
	}
	return "", fmt.Errorf("unknown manifest format %q", s)
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot tell manifest format of %s: no extension", path)
	}
	return ParseFormat(ext)
}

// Load reads and validates the manifest at path.
func Load(path string) (*Whitelist, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	wl, err := Parse(data, format)
	if err != nil {
		return nil, withSource(err, path)
	}
	logger.Infof("loaded %s: %d modules, %d classes, %d methods", path, len(wl.modules), len(wl.classes), wl.Len())
	return wl, nil
}

// Parse decodes and validates a manifest document.
func Parse(data []byte, format Format) (*Whitelist, error) {
	switch format {
	case FormatTOML:
		return parseTOML(data)
	case FormatYAML:
		return parseYAML(data)
	case FormatCBOR:
		return UnmarshalSnapshot(data)
	}
	return nil, fmt.Errorf("unknown manifest format %q", format)
}

// Encode writes wl to w in the given format.
func Encode(w io.Writer, wl *Whitelist, format Format) error {
	switch format {
	case FormatTOML:
		return encodeTOML(w, wl)
	case FormatYAML:
		return encodeYAML(w, wl)
	case FormatCBOR:
		data, err := MarshalSnapshot(wl)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("unknown manifest format %q", format)
}

// Find walks up from startDir looking for a bindlist.toml and returns its
// path, or "" if none exists.
func Find(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// FindAndLoad walks up from startDir to find a bindlist.toml, then loads it.
// Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Whitelist, error) {
	path, err := Find(startDir)
	if err != nil || path == "" {
		return nil, err
	}
	return Load(path)
}

// document is the codec-neutral shape of a decoded manifest.
type document struct {
	order     []string
	modules   map[string]Module
	overrides map[string]string
}

func newDocument() *document {
	return &document{
		modules:   make(map[string]Module),
		overrides: make(map[string]string),
	}
}

// build checks that registration order and module definitions agree, then
// registers modules in order.
func (d *document) build() (*Whitelist, error) {
	listed := make(map[string]bool, len(d.order))
	for _, name := range d.order {
		if listed[name] {
			return nil, schemaErrorf(name, "duplicate module in %s", keyWhitelist)
		}
		listed[name] = true
		if _, ok := d.modules[name]; !ok {
			return nil, schemaErrorf(name, "registered in %s but not defined under %s", keyWhitelist, keyModules)
		}
	}
	defined := make([]string, 0, len(d.modules))
	for name := range d.modules {
		defined = append(defined, name)
	}
	sort.Strings(defined)
	for _, name := range defined {
		if !listed[name] {
			return nil, schemaErrorf(name, "defined under %s but not registered in %s", keyModules, keyWhitelist)
		}
	}

	b := NewBuilder()
	for _, name := range d.order {
		if err := b.Register(d.modules[name]); err != nil {
			return nil, err
		}
	}
	for _, ns := range sortedKeys(d.overrides) {
		if err := b.SetNamespacePrefixOverride(ns, d.overrides[ns]); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

func parseTOML(data []byte) (*Whitelist, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, &ConfigError{Msg: "malformed TOML", Err: err}
	}

	doc := newDocument()
	for _, key := range ordered(raw, nil) {
		switch key {
		case keyWhitelist, keyOverrides, keyModules:
		default:
			return nil, keyErrorf("", key, "unknown top-level key")
		}
	}

	list, ok := raw[keyWhitelist]
	if !ok {
		return nil, schemaErrorf("", "missing %q list", keyWhitelist)
	}
	if doc.order, err = stringList(list); err != nil {
		return nil, keyErrorf("", keyWhitelist, "%v", err)
	}

	if v, ok := raw[keyOverrides]; ok {
		tbl, ok := v.(map[string]any)
		if !ok {
			return nil, keyErrorf("", keyOverrides, "must be a table, got %s", tomlTypeName(v))
		}
		for ns, p := range tbl {
			prefix, ok := p.(string)
			if !ok {
				return nil, keyErrorf("", ns, "namespace prefix override must be a string, got %s", tomlTypeName(p))
			}
			doc.overrides[ns] = prefix
		}
	}

	if v, ok := raw[keyModules]; ok {
		tbl, ok := v.(map[string]any)
		if !ok {
			return nil, keyErrorf("", keyModules, "must be a table, got %s", tomlTypeName(v))
		}
		for _, name := range ordered(tbl, tomlOrder(md, keyModules)) {
			selectors, ok := tbl[name].(map[string]any)
			if !ok {
				return nil, schemaErrorf(name, "module must be a table, got %s", tomlTypeName(tbl[name]))
			}
			m := Module{Name: name}
			for _, class := range ordered(selectors, tomlOrder(md, keyModules, name)) {
				methods, err := stringList(selectors[class])
				if err != nil {
					return nil, keyErrorf(name, class, "%v", err)
				}
				m.Entries = append(m.Entries, Entry{Class: class, Methods: methods})
			}
			doc.modules[name] = m
		}
	}

	return doc.build()
}

// tomlOrder recovers document order for the direct children of prefix.
func tomlOrder(md toml.MetaData, prefix ...string) []string {
	var out []string
	for _, k := range md.Keys() {
		if len(k) == len(prefix)+1 && slices.Equal([]string(k[:len(prefix)]), prefix) {
			out = append(out, k[len(prefix)])
		}
	}
	return out
}

// ordered returns the keys of m following order first, then any remaining
// keys sorted.
func ordered(m map[string]any, order []string) []string {
	out := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, k := range order {
		if _, ok := m[k]; ok && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	var rest []string
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func stringList(v any) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("must be an array of strings, got %s", tomlTypeName(v))
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("element %d must be a string, got %s", i, tomlTypeName(item))
		}
		out[i] = s
	}
	return out, nil
}

func tomlTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "nothing"
	case string:
		return "string"
	case int64:
		return "integer"
	case float64:
		return "float"
	case bool:
		return "boolean"
	case map[string]any:
		return "table"
	case []map[string]any:
		return "array of tables"
	case []any:
		return "array"
	}
	return fmt.Sprintf("%T", v)
}

func encodeTOML(w io.Writer, wl *Whitelist) error {
	bw := bufio.NewWriter(w)
	enc := toml.NewEncoder(bw)
	enc.Indent = ""

	names := make([]string, len(wl.modules))
	for i, m := range wl.modules {
		names[i] = m.Name
	}
	head := struct {
		Whitelist []string `toml:"whitelist"`
	}{names}
	if err := enc.Encode(head); err != nil {
		return fmt.Errorf("encoding %s: %w", keyWhitelist, err)
	}

	if len(wl.overrides) > 0 {
		fmt.Fprintf(bw, "\n[%s]\n", toml.Key{keyOverrides})
		if err := enc.Encode(wl.overrides); err != nil {
			return fmt.Errorf("encoding %s: %w", keyOverrides, err)
		}
	}

	for _, m := range wl.modules {
		fmt.Fprintf(bw, "\n[%s]\n", toml.Key{keyModules, m.Name})
		for _, e := range m.Entries {
			if err := enc.Encode(map[string][]string{e.Class: e.Methods}); err != nil {
				return fmt.Errorf("encoding module %q: %w", m.Name, err)
			}
		}
	}
	return bw.Flush()
}
