package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chazu/bindlist/manifest"
)

// runCheck processes the `bindlist check` subcommand.
// Usage:
//
//	bindlist check                 # nearest bindlist.toml or built-in
//	bindlist check whitelist.yaml
func runCheck(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := optionalArg(fs.Args())
	if err != nil {
		return err
	}

	wl, source, err := loadWhitelist(path)
	if err != nil {
		return err
	}
	digest, err := manifest.Digest(wl)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s: %d modules, %d classes, %d pairs\n",
		source, len(wl.Modules()), len(wl.Classes()), wl.Len())
	for _, ns := range sortedNamespaces(wl.Overrides()) {
		fmt.Fprintf(stdout, "prefix override %s = %q\n", ns, wl.Prefix(ns))
	}
	fmt.Fprintf(stdout, "digest %s\n", digest)
	return nil
}
