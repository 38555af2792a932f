package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kobzarvs/htext/internal/app"
)

func main() {
	var opts app.Options
	flag.StringVar(&opts.Replay, "replay", "", "replay a key recording headlessly")
	flag.StringVar(&opts.Dump, "dump", "", "write the buffer here after a headless run (default stdout)")
	flag.StringVar(&opts.Record, "record", "", "record key events to this file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: htext [flags] [file]\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(2)
	}
	opts.Path = flag.Arg(0)

	if err := app.New(opts).Run(); err != nil {
		fmt.Fprintln(os.Stderr, "htext:", err)
		os.Exit(1)
	}
}
