package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/chazu/bindlist/gowrap"
)

// runPlan processes the `bindlist plan` subcommand, listing the bindings a
// generator would emit for a Go package.
// Usage:
//
//	bindlist plan -f strings.toml strings
//	bindlist plan -f strings.toml -ns str strings
func runPlan(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	file := fs.String("f", "", "Manifest file")
	ns := fs.String("ns", "", "Namespace (default: last import path segment)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: bindlist plan [-f file] [-ns namespace] <importpath>")
	}
	importPath := fs.Arg(0)
	if *ns == "" {
		*ns = gowrap.NamespaceOf(importPath)
	}

	wl, _, err := loadWhitelist(*file)
	if err != nil {
		return err
	}
	model, err := gowrap.IntrospectPackage(importPath, wl)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, b := range gowrap.Plan(wl, model, *ns) {
		goName := b.Name
		if b.Class != "" && b.Kind == gowrap.KindMethod {
			goName = b.Class + "." + b.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Kind, b.Glue, goName)
	}
	return tw.Flush()
}
