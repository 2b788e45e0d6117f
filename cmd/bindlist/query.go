package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// runQuery processes the `bindlist query` subcommand. With a method it
// answers IsWhitelisted, otherwise IsClassWhitelisted. Use "" for the free
// function selector.
// Usage:
//
//	bindlist query CLAHE apply
//	bindlist query "" cvtColor
//	bindlist query -f bindlist.toml TrackerMIL_Params
func runQuery(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	file := fs.String("f", "", "Manifest file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	wl, _, err := loadWhitelist(*file)
	if err != nil {
		return err
	}

	switch fs.NArg() {
	case 1:
		class := fs.Arg(0)
		fmt.Fprintln(stdout, wl.IsClassWhitelisted(class))
		if mods := wl.ModulesFor(class); len(mods) > 0 {
			fmt.Fprintf(stdout, "modules: %s\n", strings.Join(mods, ", "))
			fmt.Fprintf(stdout, "methods: %s\n", strings.Join(wl.Methods(class), ", "))
		}
	case 2:
		fmt.Fprintln(stdout, wl.IsWhitelisted(fs.Arg(0), fs.Arg(1)))
	default:
		return errors.New("usage: bindlist query [-f file] <class> [method]")
	}
	return nil
}

func sortedNamespaces(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for ns := range m {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}
