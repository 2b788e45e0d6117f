// Package manifest handles binding whitelist manifests: which classes, free
// functions and methods of a wrapped library a binding generator may expose.
package manifest

import (
	"slices"
)

// Entry is one class selector of a module and the methods exposed on it.
// Class is empty for free functions and constants. An empty Methods list
// whitelists the type itself without any operations.
type Entry struct {
	Class   string
	Methods []string
}

// Module is a named group of entries, usually mirroring one subsystem of the
// wrapped library. Entries keep their authoring order.
type Module struct {
	Name    string
	Entries []Entry
}

// Lookup returns the entry for class within the module.
func (m Module) Lookup(class string) (Entry, bool) {
	for _, e := range m.Entries {
		if e.Class == class {
			return e, true
		}
	}
	return Entry{}, false
}

func (m Module) validate() error {
	if m.Name == "" {
		return schemaErrorf("", "module name must not be empty")
	}
	if !isPrefixWord(m.Name) {
		return schemaErrorf(m.Name, "module name must only use letters, digits and underscores")
	}
	seen := make(map[string]bool, len(m.Entries))
	for _, e := range m.Entries {
		if seen[e.Class] {
			return keyErrorf(m.Name, e.Class, "duplicate class selector")
		}
		seen[e.Class] = true
		for _, name := range e.Methods {
			if name == "" {
				return keyErrorf(m.Name, e.Class, "method name must not be empty")
			}
		}
	}
	return nil
}

// clone returns a deep copy with non-nil slices, so that every codec sees
// the same shape for empty lists.
func (m Module) clone() Module {
	out := Module{Name: m.Name, Entries: make([]Entry, len(m.Entries))}
	for i, e := range m.Entries {
		out.Entries[i] = Entry{Class: e.Class, Methods: append([]string{}, e.Methods...)}
	}
	return out
}

// Pair is a single (class, method) fact of a whitelist.
type Pair struct {
	Class  string
	Method string
}

// Whitelist is the immutable union of registered modules. The zero value is
// not usable; construct one with New or a Builder. A Whitelist is safe for
// concurrent use.
type Whitelist struct {
	modules   []Module
	byName    map[string]int
	classes   []string
	methods   map[string][]string
	index     map[string]map[string]struct{}
	owners    map[string][]string
	overrides map[string]string
}

// New builds a whitelist from modules in registration order. It is the
// one-shot form of Builder.
func New(modules ...Module) (*Whitelist, error) {
	b := NewBuilder()
	for _, m := range modules {
		if err := b.Register(m); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// IsWhitelisted reports whether some registered module maps class to a list
// containing method. The empty class queries free functions and constants.
func (w *Whitelist) IsWhitelisted(class, method string) bool {
	_, ok := w.index[class][method]
	return ok
}

// IsClassWhitelisted reports whether class appears as a selector in any
// module, including with an empty method list.
func (w *Whitelist) IsClassWhitelisted(class string) bool {
	_, ok := w.index[class]
	return ok
}

// Modules returns a copy of the registered modules in registration order.
func (w *Whitelist) Modules() []Module {
	out := make([]Module, len(w.modules))
	for i, m := range w.modules {
		out[i] = m.clone()
	}
	return out
}

// Module returns a copy of the named module.
func (w *Whitelist) Module(name string) (Module, bool) {
	i, ok := w.byName[name]
	if !ok {
		return Module{}, false
	}
	return w.modules[i].clone(), true
}

// Classes returns every class selector in first-seen order.
func (w *Whitelist) Classes() []string {
	return slices.Clone(w.classes)
}

// Methods returns the union of methods whitelisted for class across all
// modules, in first-seen order without duplicates.
func (w *Whitelist) Methods(class string) []string {
	return slices.Clone(w.methods[class])
}

// ModulesFor returns the names of the modules declaring class.
func (w *Whitelist) ModulesFor(class string) []string {
	return slices.Clone(w.owners[class])
}

// Len returns the number of distinct (class, method) pairs.
func (w *Whitelist) Len() int {
	n := 0
	for _, set := range w.index {
		n += len(set)
	}
	return n
}

// Pairs returns every distinct (class, method) pair, ordered by class
// first-seen order then method first-seen order.
func (w *Whitelist) Pairs() []Pair {
	out := make([]Pair, 0, w.Len())
	for _, class := range w.classes {
		for _, method := range w.methods[class] {
			out = append(out, Pair{Class: class, Method: method})
		}
	}
	return out
}

// Builder collects module registrations and namespace prefix overrides,
// then produces an immutable Whitelist.
type Builder struct {
	modules   []Module
	names     map[string]bool
	overrides map[string]string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		names:     make(map[string]bool),
		overrides: make(map[string]string),
	}
}

// Register adds one module. Module names must be unique; class selectors
// may repeat across modules and are unioned.
func (b *Builder) Register(m Module) error {
	if err := m.validate(); err != nil {
		return err
	}
	if b.names[m.Name] {
		return schemaErrorf(m.Name, "duplicate module")
	}
	b.names[m.Name] = true
	b.modules = append(b.modules, m.clone())
	return nil
}

// SetNamespacePrefixOverride makes the generator emit symbols of namespace
// with prefix instead of the default prefix. An empty prefix emits bare
// names.
func (b *Builder) SetNamespacePrefixOverride(namespace, prefix string) error {
	if err := validateOverride(namespace, prefix); err != nil {
		return err
	}
	b.overrides[namespace] = prefix
	return nil
}

// Build returns the aggregate of everything registered so far. The Builder
// may keep registering; earlier Whitelists are unaffected.
func (b *Builder) Build() *Whitelist {
	w := &Whitelist{
		modules:   make([]Module, len(b.modules)),
		byName:    make(map[string]int, len(b.modules)),
		methods:   make(map[string][]string),
		index:     make(map[string]map[string]struct{}),
		owners:    make(map[string][]string),
		overrides: make(map[string]string, len(b.overrides)),
	}
	for ns, prefix := range b.overrides {
		w.overrides[ns] = prefix
	}
	for i, m := range b.modules {
		w.modules[i] = m.clone()
		w.byName[m.Name] = i
		for _, e := range m.Entries {
			set, ok := w.index[e.Class]
			if !ok {
				set = make(map[string]struct{})
				w.index[e.Class] = set
				w.classes = append(w.classes, e.Class)
			} else {
				logger.Debugf("class %q also declared by module %q", e.Class, m.Name)
			}
			w.owners[e.Class] = append(w.owners[e.Class], m.Name)
			for _, method := range e.Methods {
				if _, dup := set[method]; dup {
					logger.Debugf("module %q: %q.%q already whitelisted", m.Name, e.Class, method)
					continue
				}
				set[method] = struct{}{}
				w.methods[e.Class] = append(w.methods[e.Class], method)
			}
		}
	}
	return w
}
