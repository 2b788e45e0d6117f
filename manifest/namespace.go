package manifest

import (
	"maps"
	"slices"
	"strings"
)

// Namespace prefixes decide how a generator names the symbols of a
// namespace. Resolution order:
//  1. explicit override from [namespace_prefix_override] (may be empty)
//  2. the namespace name itself
//
// Overrides name namespaces rather than modules: "aruco" lives inside the
// objdetect module but can still be overridden on its own.

// Prefix returns the effective prefix for namespace.
func (w *Whitelist) Prefix(namespace string) string {
	if p, ok := w.overrides[namespace]; ok {
		return p
	}
	return namespace
}

// PrefixOverride returns the explicit override for namespace, if any.
func (w *Whitelist) PrefixOverride(namespace string) (string, bool) {
	p, ok := w.overrides[namespace]
	return p, ok
}

// Overrides returns a copy of all namespace prefix overrides.
func (w *Whitelist) Overrides() map[string]string {
	return maps.Clone(w.overrides)
}

// QualifiedName returns the name a generator emits for symbol in namespace:
// "prefix_symbol", or the bare symbol when the effective prefix is empty.
// "dnn", "Net" -> "dnn_Net"; with dnn overridden to "" -> "Net".
func (w *Whitelist) QualifiedName(namespace, symbol string) string {
	p := w.Prefix(namespace)
	if p == "" {
		return symbol
	}
	return p + "_" + symbol
}

func validateOverride(namespace, prefix string) error {
	if namespace == "" {
		return schemaErrorf("", "namespace prefix override: namespace must not be empty")
	}
	if !isPrefixWord(namespace) {
		return schemaErrorf("", "namespace prefix override: invalid namespace %q", namespace)
	}
	if prefix != "" && !isPrefixWord(prefix) {
		return schemaErrorf("", "namespace prefix override for %q: invalid prefix %q", namespace, prefix)
	}
	return nil
}

// isPrefixWord reports whether s only uses characters that survive in an
// emitted identifier.
func isPrefixWord(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}) < 0
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
