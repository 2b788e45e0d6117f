package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chazu/bindlist/manifest"
)

// runExport processes the `bindlist export` subcommand, converting a
// manifest between TOML, YAML and the CBOR snapshot.
// Usage:
//
//	bindlist export -format yaml                 # built-in whitelist as YAML
//	bindlist export -format cbor -o wl.cbor bindlist.toml
func runExport(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	formatName := fs.String("format", "toml", "Output format: toml, yaml or cbor")
	out := fs.String("o", "", "Output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := optionalArg(fs.Args())
	if err != nil {
		return err
	}
	format, err := manifest.ParseFormat(*formatName)
	if err != nil {
		return err
	}

	wl, _, err := loadWhitelist(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := manifest.Encode(&buf, wl, format); err != nil {
		return err
	}
	if *out == "" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(*out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	return nil
}
