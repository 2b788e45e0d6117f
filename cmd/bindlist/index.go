package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chazu/bindlist/store"
)

// runIndex processes the `bindlist index` subcommand, writing the whitelist
// into a SQLite index.
func runIndex(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("index", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	dbPath := fs.String("db", "", "SQLite index path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dbPath == "" {
		return errors.New("index requires -db")
	}
	path, err := optionalArg(fs.Args())
	if err != nil {
		return err
	}

	wl, source, err := loadWhitelist(path)
	if err != nil {
		return err
	}

	s, err := store.Open(*dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Save(ctx, wl); err != nil {
		return err
	}
	digest, err := s.Digest(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "indexed %s into %s (digest %s)\n", source, *dbPath, digest)
	return nil
}
