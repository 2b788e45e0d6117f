package manifest

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Schema returns the CUE source Vet checks documents against.
func Schema() string { return schemaSource }

// Vet checks a raw manifest document against the CUE schema. It catches
// structural problems (unknown keys, wrong value types, malformed names)
// without building a whitelist; cross-references between the whitelist list
// and the modules table are left to Parse.
func Vet(data []byte, format Format) error {
	var raw map[string]any
	switch format {
	case FormatTOML:
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return &ConfigError{Msg: "malformed TOML", Err: err}
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return &ConfigError{Msg: "malformed YAML", Err: err}
		}
	default:
		return fmt.Errorf("cannot vet %s documents", format)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling manifest schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Manifest"))

	doc := ctx.Encode(raw)
	if err := doc.Err(); err != nil {
		return &ConfigError{Msg: "cannot represent document", Err: err}
	}
	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return &ConfigError{
			Msg: "schema violation",
			Err: fmt.Errorf("%s", strings.TrimSpace(cueerrors.Details(err, nil))),
		}
	}
	return nil
}
