package gowrap

import (
	"fmt"
	"slices"

	"github.com/chazu/bindlist/manifest"
)

// DiagnosticKind classifies an audit finding.
type DiagnosticKind int

const (
	// UnknownClass: a class selector names no type of the package.
	UnknownClass DiagnosticKind = iota
	// UnknownSymbol: a whitelisted method or function does not exist.
	UnknownSymbol
)

func (k DiagnosticKind) String() string {
	switch k {
	case UnknownClass:
		return "unknown class"
	case UnknownSymbol:
		return "unknown symbol"
	}
	return fmt.Sprintf("DiagnosticKind(%d)", int(k))
}

// Diagnostic is one whitelist entry with no counterpart in the wrapped
// package.
type Diagnostic struct {
	Kind   DiagnosticKind
	Module string
	Class  string
	Member string
}

func (d Diagnostic) String() string {
	switch d.Kind {
	case UnknownClass:
		return fmt.Sprintf("%s: %s %q", d.Module, d.Kind, d.Class)
	default:
		if d.Class == "" {
			return fmt.Sprintf("%s: %s %q", d.Module, d.Kind, d.Member)
		}
		return fmt.Sprintf("%s: %s %q.%q", d.Module, d.Kind, d.Class, d.Member)
	}
}

// Audit checks every entry of wl against the package surface s and returns
// the entries s does not expose, in manifest order. If modules is non-empty
// only those modules are checked. Methods of an unknown class are not
// reported separately.
func Audit(wl *manifest.Whitelist, s *Surface, modules ...string) []Diagnostic {
	var diags []Diagnostic
	for _, m := range wl.Modules() {
		if len(modules) > 0 && !slices.Contains(modules, m.Name) {
			continue
		}
		for _, e := range m.Entries {
			class := e.Class
			if class != "" {
				class = GoName(class)
				if !s.HasClass(class) {
					diags = append(diags, Diagnostic{Kind: UnknownClass, Module: m.Name, Class: e.Class})
					continue
				}
			}
			for _, name := range e.Methods {
				if !s.Has(class, GoName(name)) {
					diags = append(diags, Diagnostic{Kind: UnknownSymbol, Module: m.Name, Class: e.Class, Member: name})
				}
			}
		}
	}
	logger.Debugf("audit: %d findings", len(diags))
	return diags
}
