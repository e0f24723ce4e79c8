// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command arraysim runs transducer array scenarios and writes the recorded
// probes as CSV files.
//
// Usage:
//
//	arraysim [-o dir] [-j jobs] [-v] scenario.yaml|scenario.lua...
//
// Each scenario writes <dir>/<name>.csv.
//
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	"github.com/db47h/arraysim/scenario"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] scenario...\n", os.Args[0])
	flag.PrintDefaults()
}

func writeResult(dir string, res *scenario.Result) (err error) {
	fn := filepath.Join(dir, res.Name+".csv")
	f, err := os.Create(fn)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, fn)
		}
	}()
	return errors.Wrap(res.WriteCSV(f), fn)
}

// loadAll loads the scenario files. Scenario names must be unique since each
// one names an output file.
//
func loadAll(files []string) ([]*scenario.Scenario, error) {
	scs := make([]*scenario.Scenario, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, fn := range files {
		sc, err := scenario.Load(fn)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[sc.Name]; ok {
			return nil, errors.Errorf("%s: scenario name %q already used by %s", fn, sc.Name, prev)
		}
		seen[sc.Name] = fn
		scs = append(scs, sc)
	}
	return scs, nil
}

func main() {
	var (
		out     = flag.String("o", ".", "output `directory`")
		jobs    = flag.Int("j", runtime.GOMAXPROCS(0), "number of scenarios run in parallel")
		verbose = flag.Bool("v", false, "report progress even when stderr is not a terminal")
	)
	flag.Usage = usage
	flag.Parse()

	log.SetFlags(0)
	log.SetPrefix("arraysim: ")

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	if *jobs < 1 {
		*jobs = 1
	}
	progress := *verbose || term.IsTerminal(int(os.Stderr.Fd()))

	scs, err := loadAll(flag.Args())
	if err != nil {
		log.Fatal(err)
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(*jobs)
	for _, sc := range scs {
		sc := sc
		g.Go(func() error {
			start := time.Now()
			res, err := sc.Run(ctx)
			if err != nil {
				return err
			}
			if err = writeResult(*out, res); err != nil {
				return err
			}
			if progress {
				log.Printf("%s: %d steps, %d series in %v", res.Name, res.Steps, len(res.Probes), time.Since(start).Round(time.Millisecond))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		stop()
		log.Fatal(err)
	}
}
