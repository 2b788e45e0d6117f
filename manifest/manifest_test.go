package manifest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const sampleTOML = `
# sample
whitelist = ["core", "imgproc"]

[namespace_prefix_override]
dnn = ""

[modules.core]
"" = ["add", "subtract"]
Mat = []

[modules.imgproc]
Feature2D = ["detect", "compute"]
CLAHE = ["apply"]
`

const sampleYAML = `
whitelist: [core, imgproc]
namespace_prefix_override:
  dnn: ""
modules:
  core:
    "": [add, subtract]
    Mat: []
  imgproc:
    Feature2D: [detect, compute]
    CLAHE: [apply]
`

func sampleModules() []Module {
	return []Module{
		{Name: "core", Entries: []Entry{
			{Class: "", Methods: []string{"add", "subtract"}},
			{Class: "Mat", Methods: []string{}},
		}},
		{Name: "imgproc", Entries: []Entry{
			{Class: "Feature2D", Methods: []string{"detect", "compute"}},
			{Class: "CLAHE", Methods: []string{"apply"}},
		}},
	}
}

func TestParseTOML(t *testing.T) {
	wl, err := Parse([]byte(sampleTOML), FormatTOML)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := wl.Modules(); !reflect.DeepEqual(got, sampleModules()) {
		t.Errorf("modules = %#v\nwant %#v", got, sampleModules())
	}
	if p, ok := wl.PrefixOverride("dnn"); !ok || p != "" {
		t.Errorf("dnn override = %q, %v", p, ok)
	}
	if !wl.IsWhitelisted("", "add") || !wl.IsClassWhitelisted("Mat") || wl.IsWhitelisted("Mat", "clone") {
		t.Error("unexpected query results")
	}
}

func TestParseYAML(t *testing.T) {
	wl, err := Parse([]byte(sampleYAML), FormatYAML)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := wl.Modules(); !reflect.DeepEqual(got, sampleModules()) {
		t.Errorf("modules = %#v\nwant %#v", got, sampleModules())
	}
	if wl.Prefix("dnn") != "" {
		t.Errorf("Prefix(dnn) = %q, want empty", wl.Prefix("dnn"))
	}
}

func TestRoundTrip(t *testing.T) {
	orig, err := Parse([]byte(sampleTOML), FormatTOML)
	if err != nil {
		t.Fatal(err)
	}
	origDigest, err := Digest(orig)
	if err != nil {
		t.Fatal(err)
	}

	for _, format := range []Format{FormatTOML, FormatYAML, FormatCBOR} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, orig, format); err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			got, err := Parse(buf.Bytes(), format)
			if err != nil {
				t.Fatalf("Parse of encoded %s failed: %v\n%s", format, err, buf.String())
			}
			if !reflect.DeepEqual(got.Modules(), orig.Modules()) {
				t.Errorf("modules differ after round trip:\n%s", buf.String())
			}
			if !reflect.DeepEqual(got.Overrides(), orig.Overrides()) {
				t.Errorf("overrides = %v, want %v", got.Overrides(), orig.Overrides())
			}
			for _, p := range orig.Pairs() {
				if !got.IsWhitelisted(p.Class, p.Method) {
					t.Errorf("lost %q.%q", p.Class, p.Method)
				}
			}
			d, err := Digest(got)
			if err != nil {
				t.Fatal(err)
			}
			if d != origDigest {
				t.Errorf("digest changed: %s != %s", d, origDigest)
			}
		})
	}
}

func TestEncodeTOMLLayout(t *testing.T) {
	wl := mustNew(t, sampleModules()...)
	var buf bytes.Buffer
	if err := Encode(&buf, wl, FormatTOML); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		`whitelist = ["core", "imgproc"]`,
		"[modules.core]",
		`"" = ["add", "subtract"]`,
		"Mat = []",
		"[modules.imgproc]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("encoded TOML missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, keyOverrides) {
		t.Errorf("no overrides expected:\n%s", out)
	}
}

func TestParseTOMLErrors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		module string
		key    string
	}{
		{"malformed", "whitelist = [", "", ""},
		{"unknown top-level key", "whitelist = []\nextra = 1", "", "extra"},
		{"missing whitelist", "[modules.core]\n\"\" = []", "", ""},
		{"whitelist not array", `whitelist = "core"`, "", "whitelist"},
		{"whitelist element not string", `whitelist = [1]`, "", "whitelist"},
		{"method list not array", "whitelist = [\"core\"]\n[modules.core]\n\"\" = \"add\"", "core", ""},
		{"method not string", "whitelist = [\"core\"]\n[modules.core]\nMat = [\"clone\", 2]", "core", "Mat"},
		{"module not table", "whitelist = [\"core\"]\nmodules = { core = 1 }", "core", ""},
		{"duplicate registration", "whitelist = [\"core\", \"core\"]\n[modules.core]", "core", ""},
		{"registered but undefined", "whitelist = [\"core\", \"dnn\"]\n[modules.core]", "dnn", ""},
		{"defined but unregistered", "whitelist = [\"core\"]\n[modules.core]\n[modules.dnn]", "dnn", ""},
		{"override not string", "whitelist = []\n[namespace_prefix_override]\ndnn = 1", "", "dnn"},
		{"override bad prefix", "whitelist = []\n[namespace_prefix_override]\ndnn = \"cv::dnn\"", "", ""},
		{"empty method name", "whitelist = [\"core\"]\n[modules.core]\nMat = [\"\"]", "core", "Mat"},
		{"module name not an identifier", "whitelist = [\"my-mod\"]\n[modules.my-mod]", "my-mod", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc), FormatTOML)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrSchema) {
				t.Errorf("error %v is not ErrSchema", err)
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("error %v is not a ConfigError", err)
			}
			if ce.Module != tc.module {
				t.Errorf("Module = %q, want %q (%v)", ce.Module, tc.module, err)
			}
			if tc.key != "" && ce.Key != tc.key {
				t.Errorf("Key = %q, want %q (%v)", ce.Key, tc.key, err)
			}
		})
	}
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		module string
		line   int
	}{
		{"not a mapping", "- core\n", "", 1},
		{"integer class key", "whitelist: [core]\nmodules:\n  core:\n    1: [add]\n", "core", 4},
		{"method list not sequence", "whitelist: [core]\nmodules:\n  core:\n    \"\": add\n", "core", 4},
		{"integer method", "whitelist: [core]\nmodules:\n  core:\n    Mat: [clone, 3]\n", "core", 4},
		{"unknown key", "whitelist: []\nextras: {}\n", "", 2},
		{"module not mapping", "whitelist: [core]\nmodules:\n  core: [a]\n", "core", 3},
		{"repeated whitelist", "whitelist: [core]\nwhitelist: [core, imgproc]\n", "", 2},
		{"repeated override", "whitelist: []\nnamespace_prefix_override:\n  dnn: \"\"\n  dnn: cv\n", "", 4},
		{"repeated selector", "whitelist: [core]\nmodules:\n  core:\n    Mat: [clone]\n    Mat: [t]\n", "core", 5},
		{"repeated module", "whitelist: [core]\nmodules:\n  core: {}\n  core: {}\n", "core", 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc), FormatYAML)
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("error %v is not a ConfigError", err)
			}
			if ce.Module != tc.module {
				t.Errorf("Module = %q, want %q (%v)", ce.Module, tc.module, err)
			}
			if ce.Line != tc.line {
				t.Errorf("Line = %d, want %d (%v)", ce.Line, tc.line, err)
			}
		})
	}
}

func TestUnmarshalSnapshotRejectsGarbage(t *testing.T) {
	if _, err := UnmarshalSnapshot([]byte{0xff, 0x00}); !errors.Is(err, ErrSchema) {
		t.Errorf("UnmarshalSnapshot(garbage) = %v, want schema error", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(sampleTOML), 0644); err != nil {
		t.Fatal(err)
	}
	wl, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(wl.Modules()) != 2 {
		t.Errorf("modules = %d, want 2", len(wl.Modules()))
	}
}

func TestLoadErrorNamesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(path, []byte("whitelist = [\"core\"]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), path+": ") {
		t.Errorf("error %q does not start with the file name", err)
	}
}

func TestLoadUnknownExtension(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "whitelist.json")); err == nil {
		t.Error("expected error for .json")
	}
}

func TestFindAndLoadWalksUp(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(sampleTOML), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	wl, err := FindAndLoad(sub)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if wl == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if !wl.IsWhitelisted("CLAHE", "apply") {
		t.Error("loaded manifest missing CLAHE.apply")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"toml", FormatTOML},
		{"YAML", FormatYAML},
		{"yml", FormatYAML},
		{"cbor", FormatCBOR},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
	if _, err := ParseFormat("json"); err == nil {
		t.Error("ParseFormat(json) should fail")
	}
}
