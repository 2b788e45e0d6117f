package gowrap

import (
	"reflect"
	"testing"

	"github.com/chazu/bindlist/manifest"
)

func auditFixture(t *testing.T) (*manifest.Whitelist, *Surface) {
	t.Helper()
	wl, err := manifest.New(
		manifest.Module{Name: "core", Entries: []manifest.Entry{
			{Class: "", Methods: []string{"add", "nope"}},
			{Class: "Mat", Methods: []string{"clone", "bogus"}},
		}},
		manifest.Module{Name: "video", Entries: []manifest.Entry{
			{Class: "Ghost", Methods: []string{"haunt"}},
			{Class: "Params", Methods: []string{}},
		}},
	)
	if err != nil {
		t.Fatal(err)
	}
	s := NewSurface()
	s.Add("", "Add")
	s.Add("Mat", "Clone")
	s.AddClass("Params")
	return wl, s
}

func TestAudit(t *testing.T) {
	wl, s := auditFixture(t)
	got := Audit(wl, s)
	want := []Diagnostic{
		{Kind: UnknownSymbol, Module: "core", Member: "nope"},
		{Kind: UnknownSymbol, Module: "core", Class: "Mat", Member: "bogus"},
		{Kind: UnknownClass, Module: "video", Class: "Ghost"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Audit = %v\nwant %v", got, want)
	}
}

func TestAuditRestrictedToModules(t *testing.T) {
	wl, s := auditFixture(t)
	got := Audit(wl, s, "video")
	if len(got) != 1 || got[0].Class != "Ghost" {
		t.Errorf("Audit(video) = %v, want only Ghost", got)
	}
}

func TestDiagnosticString(t *testing.T) {
	tests := []struct {
		d    Diagnostic
		want string
	}{
		{Diagnostic{Kind: UnknownClass, Module: "video", Class: "Ghost"}, `video: unknown class "Ghost"`},
		{Diagnostic{Kind: UnknownSymbol, Module: "core", Member: "nope"}, `core: unknown symbol "nope"`},
		{Diagnostic{Kind: UnknownSymbol, Module: "core", Class: "Mat", Member: "bogus"}, `core: unknown symbol "Mat"."bogus"`},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestAuditAgainstRealPackage(t *testing.T) {
	model, err := IntrospectPackage("strings", nil)
	if err != nil {
		t.Fatalf("IntrospectPackage(strings): %v", err)
	}
	wl := stringsWhitelist(t)
	if diags := Audit(wl, SurfaceOf(model)); len(diags) != 0 {
		t.Errorf("Audit = %v, want none", diags)
	}
}
