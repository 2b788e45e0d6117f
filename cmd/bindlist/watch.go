package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chazu/bindlist/manifest"
)

// runWatch processes the `bindlist watch` subcommand: the manifest is
// re-validated after every change until interrupted.
func runWatch(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	debounce := fs.Duration("debounce", 300*time.Millisecond, "Quiet period before reloading")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *debounce <= 0 {
		return fmt.Errorf("-debounce must be positive, got %v", *debounce)
	}
	arg, err := optionalArg(fs.Args())
	if err != nil {
		return err
	}
	path, err := resolvePath(arg)
	if err != nil {
		return err
	}
	if path == "" {
		return errors.New("no manifest to watch: pass a file or create bindlist.toml")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	return watchManifest(path, *debounce, stdout, sig)
}

func watchManifest(path string, debounce time.Duration, stdout io.Writer, stop <-chan os.Signal) error {
	w := manifest.NewWatcher(path, func(ev manifest.WatchEvent) {
		stamp := ev.Time.Format("15:04:05")
		if ev.Err != nil {
			fmt.Fprintf(stdout, "%s invalid: %v\n", stamp, ev.Err)
			return
		}
		fmt.Fprintf(stdout, "%s ok: %d modules, %d pairs, digest %s\n",
			stamp, len(ev.Whitelist.Modules()), ev.Whitelist.Len(), ev.Digest[:12])
	}, manifest.WithDebounce(debounce))
	if err := w.Start(); err != nil {
		return err
	}
	<-stop
	return w.Stop()
}
