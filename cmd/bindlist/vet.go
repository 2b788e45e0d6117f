package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chazu/bindlist/manifest"
)

// runVet processes the `bindlist vet` subcommand: the CUE schema check
// followed by the full load, so both structural and cross-reference errors
// are reported.
func runVet(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("vet", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := optionalArg(fs.Args())
	if err != nil {
		return err
	}

	data, format, source, err := readSource(path)
	if err != nil {
		return err
	}
	if format != manifest.FormatCBOR {
		if err := manifest.Vet(data, format); err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}
	}
	if _, err := manifest.Parse(data, format); err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	fmt.Fprintf(stdout, "%s: ok\n", source)
	return nil
}
