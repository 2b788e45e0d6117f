// Package gowrap introspects Go packages and checks them against binding
// whitelists: which whitelisted names exist, and what a generator would bind.
package gowrap

import "go/types"

// PackageModel is the in-memory representation of a Go package's exported API.
type PackageModel struct {
	ImportPath string
	Name       string // short package name (e.g., "json")
	Functions  []FunctionModel
	Types      []TypeModel
	Constants  []ConstantModel
}

// TypeModel represents an exported Go type (struct or named type).
type TypeModel struct {
	Name        string
	Listed      string // whitelist class selector this type matched
	GoType      types.Type
	IsStruct    bool
	Fields      []FieldModel
	Methods     []FunctionModel // pointer-receiver methods
	Constructor *FunctionModel  // package-level New<Name>, if any
}

// FunctionModel represents an exported function or method.
type FunctionModel struct {
	Name       string
	Listed     string // whitelist name this function matched
	IsMethod   bool
	RecvType   string // non-empty for methods (e.g., "*Server")
	Params     []ParamModel
	Results    []ParamModel
	ReturnsErr bool // true if last result is error
}

// ParamModel represents a function parameter or result.
type ParamModel struct {
	Name    string
	GoType  types.Type
	TypeStr string // human-readable type string (e.g., "string", "*http.Server")
}

// FieldModel represents a struct field.
type FieldModel struct {
	Name    string
	GoType  types.Type
	TypeStr string
}

// ConstantModel represents an exported constant.
type ConstantModel struct {
	Name    string
	Listed  string
	TypeStr string
	Value   string // literal value
}

// Surface is the set of symbols a wrapped package actually exposes, keyed by
// Go name. The "" class holds package-level functions and constants.
type Surface struct {
	members map[string]map[string]bool
}

// NewSurface returns a Surface holding only the package-level class.
func NewSurface() *Surface {
	return &Surface{members: map[string]map[string]bool{"": {}}}
}

// AddClass records a type with no members yet.
func (s *Surface) AddClass(class string) {
	if s.members[class] == nil {
		s.members[class] = make(map[string]bool)
	}
}

// Add records member on class, creating the class if needed.
func (s *Surface) Add(class, member string) {
	s.AddClass(class)
	s.members[class][member] = true
}

// HasClass reports whether class exists.
func (s *Surface) HasClass(class string) bool {
	_, ok := s.members[class]
	return ok
}

// Has reports whether class exposes member.
func (s *Surface) Has(class, member string) bool {
	return s.members[class][member]
}

// SurfaceOf collects every symbol of model. Pass an unfiltered model to get
// the full surface of a package.
func SurfaceOf(model *PackageModel) *Surface {
	s := NewSurface()
	for _, fn := range model.Functions {
		s.Add("", fn.Name)
	}
	for _, c := range model.Constants {
		s.Add("", c.Name)
	}
	for _, tm := range model.Types {
		s.AddClass(tm.Name)
		for _, m := range tm.Methods {
			s.Add(tm.Name, m.Name)
		}
	}
	return s
}
