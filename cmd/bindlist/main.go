// bindlist - inspect, convert and check binding whitelist manifests
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

type command struct {
	usage string
	run   func(args []string, stdout io.Writer) error
}

var commands = map[string]command{
	"check":  {"check [file]", runCheck},
	"query":  {"query [-f file] <class> [method]", runQuery},
	"export": {"export [-format toml|yaml|cbor] [-o out] [file]", runExport},
	"vet":    {"vet [file]", runVet},
	"audit":  {"audit [-f file] [-module m,...] [-strict] <importpath>", runAudit},
	"plan":   {"plan [-f file] [-ns namespace] <importpath>", runPlan},
	"index":  {"index -db path [file]", runIndex},
	"lock":   {"lock [-check] [file]", runLock},
	"watch":  {"watch [-debounce d] [file]", runWatch},
}

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	quiet := flag.Bool("q", false, "Only log warnings and errors")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: bindlist [options] <command> [args...]\n\n")
		fmt.Fprintf(os.Stderr, "Inspects binding whitelist manifests. Without a file argument the nearest\n")
		fmt.Fprintf(os.Stderr, "bindlist.toml is used, falling back to the built-in OpenCV.js whitelist.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nCommands:\n")
		names := make([]string, 0, len(commands))
		for name := range commands {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(os.Stderr, "  bindlist %s\n", commands[name].usage)
		}
	}
	flag.Parse()

	switch {
	case *verbose:
		commonlog.Configure(2, nil)
	case *quiet:
		commonlog.Configure(-1, nil)
	default:
		commonlog.Configure(0, nil)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", args[0])
		flag.Usage()
		os.Exit(2)
	}
	if err := cmd.run(args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
