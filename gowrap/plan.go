package gowrap

import (
	"fmt"

	"github.com/chazu/bindlist/manifest"
)

// BindingKind says what a generator emits for a Binding.
type BindingKind int

const (
	KindFunction BindingKind = iota
	KindConstant
	KindClass
	KindConstructor
	KindMethod
)

func (k BindingKind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindConstant:
		return "constant"
	case KindClass:
		return "class"
	case KindConstructor:
		return "constructor"
	case KindMethod:
		return "method"
	}
	return fmt.Sprintf("BindingKind(%d)", int(k))
}

// Binding is one symbol a generator would emit.
type Binding struct {
	Kind   BindingKind
	Class  string // Go type; empty for package-level symbols
	Name   string // Go identifier
	Export string // name exposed to binding callers
	Glue   string // prefixed glue symbol
}

// Plan lists the bindings for a filtered model under namespace. Package
// functions and constants come first, then each type with its constructor
// and methods. Symbols are prefixed using wl's namespace prefix rules.
//
// A type whose whitelist entry has an empty method list is bound as a type
// only; it gets no constructor even if the package defines one.
func Plan(wl *manifest.Whitelist, model *PackageModel, namespace string) []Binding {
	var out []Binding
	for _, fn := range model.Functions {
		out = append(out, Binding{
			Kind:   KindFunction,
			Name:   fn.Name,
			Export: fn.Listed,
			Glue:   wl.QualifiedName(namespace, fn.Listed),
		})
	}
	for _, c := range model.Constants {
		out = append(out, Binding{
			Kind:   KindConstant,
			Name:   c.Name,
			Export: c.Listed,
			Glue:   wl.QualifiedName(namespace, c.Listed),
		})
	}
	for _, tm := range model.Types {
		glue := wl.QualifiedName(namespace, tm.Name)
		out = append(out, Binding{
			Kind:   KindClass,
			Class:  tm.Name,
			Name:   tm.Name,
			Export: tm.Listed,
			Glue:   glue,
		})
		if tm.Constructor != nil && len(wl.Methods(tm.Listed)) > 0 {
			out = append(out, Binding{
				Kind:   KindConstructor,
				Class:  tm.Name,
				Name:   tm.Constructor.Name,
				Export: tm.Listed,
				Glue:   GlueName(glue, "new"),
			})
		}
		for _, m := range tm.Methods {
			out = append(out, Binding{
				Kind:   KindMethod,
				Class:  tm.Name,
				Name:   m.Name,
				Export: m.Listed,
				Glue:   GlueName(glue, m.Listed),
			})
		}
	}
	return out
}
