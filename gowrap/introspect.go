package gowrap

import (
	"fmt"
	"go/constant"
	"go/types"

	"golang.org/x/tools/go/packages"
)

// Filter is the view of a whitelist introspection needs. *manifest.Whitelist
// satisfies it.
type Filter interface {
	Classes() []string
	Methods(class string) []string
}

// index maps Go names back to the whitelisted names they match.
type index struct {
	classes map[string]string            // Go type name -> selector
	members map[string]map[string]string // selector -> Go name -> listed name
}

func newIndex(f Filter) *index {
	idx := &index{
		classes: make(map[string]string),
		members: make(map[string]map[string]string),
	}
	for _, class := range f.Classes() {
		if class != "" {
			idx.classes[GoName(class)] = class
		}
		names := make(map[string]string)
		for _, m := range f.Methods(class) {
			names[GoName(m)] = m
		}
		idx.members[class] = names
	}
	return idx
}

// class returns the selector matching a Go type name.
func (idx *index) class(goName string) (string, bool) {
	if idx == nil {
		return goName, true
	}
	c, ok := idx.classes[goName]
	return c, ok
}

// member returns the listed name matching a Go member of class.
func (idx *index) member(class, goName string) (string, bool) {
	if idx == nil {
		return ExportName(goName), true
	}
	m, ok := idx.members[class][goName]
	return m, ok
}

// IntrospectPackage loads a Go package by import path and returns its API model.
// The filter, if non-nil, restricts the model to whitelisted names: package
// functions and constants under the "" selector, types by class selector and
// their methods by that selector's method list. Whitelisted names match Go
// names through GoName.
func IntrospectPackage(importPath string, filter Filter) (*PackageModel, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedSyntax,
	}

	pkgs, err := packages.Load(cfg, importPath)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", importPath, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found for %s", importPath)
	}
	if len(pkgs[0].Errors) > 0 {
		return nil, fmt.Errorf("package errors: %v", pkgs[0].Errors)
	}

	pkg := pkgs[0]
	if pkg.Types == nil {
		return nil, fmt.Errorf("type information not available for %s", importPath)
	}

	var idx *index
	if filter != nil {
		idx = newIndex(filter)
	}

	model := &PackageModel{
		ImportPath: importPath,
		Name:       pkg.Name,
	}

	scope := pkg.Types.Scope()

	for _, name := range scope.Names() {
		obj := scope.Lookup(name)
		if !obj.Exported() {
			continue
		}

		switch o := obj.(type) {
		case *types.Func:
			listed, ok := idx.member("", name)
			if !ok {
				continue
			}
			fm := extractFunction(o)
			fm.Listed = listed
			model.Functions = append(model.Functions, fm)

		case *types.TypeName:
			class, ok := idx.class(name)
			if !ok {
				continue
			}
			tm := extractType(o, pkg.Types, idx, class)
			if tm != nil {
				model.Types = append(model.Types, *tm)
			}

		case *types.Const:
			listed, ok := idx.member("", name)
			if !ok {
				continue
			}
			cm := extractConstant(o)
			cm.Listed = listed
			model.Constants = append(model.Constants, cm)
		}
	}

	logger.Debugf("introspected %s: %d functions, %d types, %d constants",
		importPath, len(model.Functions), len(model.Types), len(model.Constants))
	return model, nil
}

func extractFunction(fn *types.Func) FunctionModel {
	sig := fn.Type().(*types.Signature)
	return functionModelFromSig(fn.Name(), sig, false, "")
}

func extractType(tn *types.TypeName, pkg *types.Package, idx *index, class string) *TypeModel {
	named, ok := tn.Type().(*types.Named)
	if !ok {
		return nil
	}

	tm := &TypeModel{
		Name:   tn.Name(),
		Listed: class,
		GoType: tn.Type(),
	}

	// Check if underlying type is a struct
	if st, ok := named.Underlying().(*types.Struct); ok {
		tm.IsStruct = true
		for i := 0; i < st.NumFields(); i++ {
			f := st.Field(i)
			if f.Exported() {
				tm.Fields = append(tm.Fields, FieldModel{
					Name:    f.Name(),
					GoType:  f.Type(),
					TypeStr: types.TypeString(f.Type(), qualifier(pkg)),
				})
			}
		}
	}

	// Collect pointer-receiver methods
	ptrType := types.NewPointer(named)
	mset := types.NewMethodSet(ptrType)
	for i := 0; i < mset.Len(); i++ {
		sel := mset.At(i)
		fn, ok := sel.Obj().(*types.Func)
		if !ok || !fn.Exported() {
			continue
		}
		// Only include methods directly defined on this type (not inherited)
		if sel.Index() != nil && len(sel.Index()) > 1 {
			continue
		}
		listed, ok := idx.member(class, fn.Name())
		if !ok {
			continue
		}
		sig := fn.Type().(*types.Signature)
		fm := functionModelFromSig(fn.Name(), sig, true, "*"+tn.Name())
		fm.Listed = listed
		tm.Methods = append(tm.Methods, fm)
	}

	if ctor, ok := pkg.Scope().Lookup("New" + tn.Name()).(*types.Func); ok && returnsType(ctor, named) {
		fm := extractFunction(ctor)
		tm.Constructor = &fm
	}

	return tm
}

// returnsType reports whether fn's first result is named or a pointer to it.
func returnsType(fn *types.Func, named *types.Named) bool {
	results := fn.Type().(*types.Signature).Results()
	if results.Len() == 0 {
		return false
	}
	t := results.At(0).Type()
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	return types.Identical(t, named)
}

func extractConstant(c *types.Const) ConstantModel {
	val := c.Val()
	valStr := ""
	if val.Kind() == constant.String {
		valStr = constant.StringVal(val)
	} else {
		valStr = val.ExactString()
	}
	return ConstantModel{
		Name:    c.Name(),
		TypeStr: c.Type().String(),
		Value:   valStr,
	}
}

func functionModelFromSig(name string, sig *types.Signature, isMethod bool, recvType string) FunctionModel {
	fm := FunctionModel{
		Name:     name,
		IsMethod: isMethod,
		RecvType: recvType,
	}

	params := sig.Params()
	for i := 0; i < params.Len(); i++ {
		p := params.At(i)
		fm.Params = append(fm.Params, ParamModel{
			Name:    p.Name(),
			GoType:  p.Type(),
			TypeStr: p.Type().String(),
		})
	}

	results := sig.Results()
	for i := 0; i < results.Len(); i++ {
		r := results.At(i)
		fm.Results = append(fm.Results, ParamModel{
			Name:    r.Name(),
			GoType:  r.Type(),
			TypeStr: r.Type().String(),
		})
	}

	// Check if last result is error
	if results.Len() > 0 {
		lastResult := results.At(results.Len() - 1)
		if isErrorType(lastResult.Type()) {
			fm.ReturnsErr = true
		}
	}

	return fm
}

func isErrorType(t types.Type) bool {
	// Check if the type implements the error interface
	iface, ok := t.Underlying().(*types.Interface)
	if !ok {
		// Check if it's the named "error" type
		if named, ok := t.(*types.Named); ok {
			return named.Obj().Name() == "error" && named.Obj().Pkg() == nil
		}
		return false
	}
	// error interface has a single method Error() string
	if iface.NumMethods() == 1 {
		m := iface.Method(0)
		return m.Name() == "Error"
	}
	return false
}

func qualifier(pkg *types.Package) types.Qualifier {
	return func(other *types.Package) string {
		if other == pkg {
			return ""
		}
		return other.Name()
	}
}
