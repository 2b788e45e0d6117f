package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chazu/bindlist/gowrap"
)

// runAudit processes the `bindlist audit` subcommand: every whitelisted name
// is looked up in a Go package and the missing ones are reported.
// Usage:
//
//	bindlist audit -f strings.toml strings
//	bindlist audit -f wl.toml -module core,imgproc -strict example.com/cv
func runAudit(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	file := fs.String("f", "", "Manifest file")
	modules := fs.String("module", "", "Comma-separated modules to audit (default all)")
	strict := fs.Bool("strict", false, "Fail when anything is reported")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: bindlist audit [-f file] [-module m,...] [-strict] <importpath>")
	}

	wl, _, err := loadWhitelist(*file)
	if err != nil {
		return err
	}
	var only []string
	if *modules != "" {
		only = strings.Split(*modules, ",")
		for _, name := range only {
			if _, ok := wl.Module(name); !ok {
				return fmt.Errorf("unknown module %q", name)
			}
		}
	}

	model, err := gowrap.IntrospectPackage(fs.Arg(0), nil)
	if err != nil {
		return err
	}
	diags := gowrap.Audit(wl, gowrap.SurfaceOf(model), only...)
	for _, d := range diags {
		fmt.Fprintln(stdout, d)
	}
	if len(diags) == 0 {
		fmt.Fprintf(stdout, "%s: all whitelisted names found\n", fs.Arg(0))
		return nil
	}
	if *strict {
		return fmt.Errorf("%d whitelist entries missing from %s", len(diags), fs.Arg(0))
	}
	return nil
}
