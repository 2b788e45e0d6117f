package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chazu/bindlist/manifest"
)

// runLock processes the `bindlist lock` subcommand. It compares the whitelist
// with bindlist.lock next to the manifest (or in the working directory for
// the built-in whitelist) and rewrites the lock unless -check is given.
func runLock(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("lock", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	check := fs.Bool("check", false, "Fail if the lock is stale instead of rewriting it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	arg, err := optionalArg(fs.Args())
	if err != nil {
		return err
	}
	path, err := resolvePath(arg)
	if err != nil {
		return err
	}

	wl, _, err := loadWhitelist(path)
	if err != nil {
		return err
	}
	lockPath := manifest.LockFileName
	if path != "" {
		lockPath = manifest.LockPath(path)
	}

	old, err := manifest.ReadLock(lockPath)
	if err != nil {
		return err
	}
	var stale []string
	if old != nil {
		if stale, err = old.Stale(wl); err != nil {
			return err
		}
		if len(stale) == 0 {
			fmt.Fprintf(stdout, "%s: up to date\n", lockPath)
			return nil
		}
		fmt.Fprintf(stdout, "%s: stale modules: %s\n", lockPath, strings.Join(stale, ", "))
	} else {
		fmt.Fprintf(stdout, "%s: missing\n", lockPath)
	}

	if *check {
		return fmt.Errorf("%s is out of date", lockPath)
	}
	lf, err := manifest.NewLockFile(wl)
	if err != nil {
		return err
	}
	if err := manifest.WriteLock(lockPath, lf); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", lockPath)
	return nil
}
