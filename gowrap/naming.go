package gowrap

import (
	"strings"
	"unicode"
)

// NamespaceOf returns the binding namespace for a Go import path: its last
// segment. e.g., "encoding/json" → "json", "strings" → "strings"
func NamespaceOf(importPath string) string {
	parts := strings.Split(importPath, "/")
	return parts[len(parts)-1]
}

// GoName returns the exported Go identifier a whitelisted name binds to.
// e.g., "cvtColor" → "CvtColor", "bitwise_and" → "BitwiseAnd", "LUT" → "LUT"
func GoName(name string) string {
	return toPascal(name)
}

// ExportName converts a Go function/method name to the name exposed to the
// binding's callers. Go uses PascalCase; exported bindings use camelCase.
// e.g., "ReadAll" → "readAll", "NewDecoder" → "newDecoder"
func ExportName(name string) string {
	if len(name) == 0 {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

// GlueName joins the parts of a glue symbol with underscores, skipping empty
// parts. e.g., ("strings", "Builder", "len") → "strings_Builder_len"
func GlueName(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "_")
}

// toPascal converts a string to PascalCase.
// Handles hyphenated and underscore-separated names.
func toPascal(s string) string {
	if len(s) == 0 {
		return s
	}

	var b strings.Builder
	nextUpper := true
	for _, r := range s {
		if r == '-' || r == '_' {
			nextUpper = true
			continue
		}
		if nextUpper {
			b.WriteRune(unicode.ToUpper(r))
			nextUpper = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
