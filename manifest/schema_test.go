package manifest

import (
	"errors"
	"strings"
	"testing"
)

func TestVetAcceptsSample(t *testing.T) {
	if err := Vet([]byte(sampleTOML), FormatTOML); err != nil {
		t.Errorf("Vet(TOML) = %v", err)
	}
	if err := Vet([]byte(sampleYAML), FormatYAML); err != nil {
		t.Errorf("Vet(YAML) = %v", err)
	}
}

func TestVetRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "whitelist = []\nextra = 1"},
		{"methods not a list", "whitelist = [\"core\"]\n[modules.core]\nMat = \"clone\""},
		{"method not a string", "whitelist = [\"core\"]\n[modules.core]\nMat = [1]"},
		{"bad prefix", "whitelist = []\n[namespace_prefix_override]\ndnn = \"cv::dnn\""},
		{"bad module name", "whitelist = [\"core.x\"]"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Vet([]byte(tc.doc), FormatTOML)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrSchema) {
				t.Errorf("error %v is not ErrSchema", err)
			}
		})
	}
}

func TestVetRejectsSnapshots(t *testing.T) {
	if err := Vet(nil, FormatCBOR); err == nil {
		t.Error("Vet(cbor) should fail")
	}
}

func TestSchemaDefinesManifest(t *testing.T) {
	if !strings.Contains(Schema(), "#Manifest") {
		t.Error("schema source missing #Manifest")
	}
}

func TestVetAndParseAgreeOnModuleNames(t *testing.T) {
	for _, name := range []string{"my-mod", "core.x", "2d"} {
		doc := "whitelist = [\"" + name + "\"]\n[modules.\"" + name + "\"]\n"
		vetErr := Vet([]byte(doc), FormatTOML)
		_, parseErr := Parse([]byte(doc), FormatTOML)
		if (vetErr == nil) != (parseErr == nil) {
			t.Errorf("%s: Vet = %v, Parse = %v", name, vetErr, parseErr)
		}
	}
}
