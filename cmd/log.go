package cmd

import (
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// newLogger writes key/value log lines to w. Verbose enables V(1) output,
// which carries per-viewport packing decisions and bandwidth events.
func newLogger(w io.Writer, verbose bool) logr.Logger {
	opts := funcr.Options{LogTimestamp: true}
	if verbose {
		opts.Verbosity = 1
	}
	return funcr.New(func(prefix, args string) {
		if prefix == "" {
			fmt.Fprintln(w, args)
			return
		}
		fmt.Fprintf(w, "%s: %s\n", prefix, args)
	}, opts)
}
