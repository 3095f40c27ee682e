// Package main is the entry point for the line counter.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/fidde/tagstats/internal/linecount"
)

// cliOptions are the parsed command line arguments.
type cliOptions struct {
	path           string
	opts           linecount.Options
	printLastLine  bool
	printLastLines int
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("countlines: ")

	cli, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := linecount.Count(ctx, cli.path, cli.opts)
	if err != nil {
		log.Fatalf("%v", err)
	}

	report(os.Stdout, cli, res)
}

// parseArgs accepts flags anywhere in args, with one or two leading dashes.
func parseArgs(args []string, stderr io.Writer) (*cliOptions, error) {
	fs := pflag.NewFlagSet("countlines", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(true)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: countlines [-bz2 | -gz] [options] FILE")
		fs.PrintDefaults()
	}

	bz2 := fs.Bool("bz2", false, "read the file as a bz2 stream")
	gz := fs.Bool("gz", false, "read the file as a gzip stream")
	search := fs.String("search", "", "print every line containing this motif")
	gotoLine := fs.Int64("gotoline", 0, "stop after this many lines")
	lastLine := fs.Bool("printlastline", false, "print the last line read")
	lastLines := fs.Int("printlastlines", 0, "print the last n lines read")
	distinct := fs.Bool("distinct", false, "estimate the number of distinct lines")

	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		return nil, err
	}

	if *bz2 && *gz {
		return nil, errors.New("-bz2 and -gz are mutually exclusive")
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, errors.New("exactly one FILE argument is required")
	}
	if *gotoLine < 0 || *lastLines < 0 {
		return nil, errors.New("-gotoline and -printlastlines must not be negative")
	}

	cli := &cliOptions{
		path:           fs.Arg(0),
		printLastLine:  *lastLine,
		printLastLines: *lastLines,
		opts: linecount.Options{
			Search:    *search,
			StopAfter: *gotoLine,
			Distinct:  *distinct,
		},
	}

	switch {
	case *bz2:
		cli.opts.Mode = linecount.Bzip2
	case *gz:
		cli.opts.Mode = linecount.Gzip
	}

	cli.opts.LastRecords = cli.printLastLines
	if cli.printLastLine && cli.opts.LastRecords == 0 {
		cli.opts.LastRecords = 1
	}

	if cli.opts.Search != "" {
		motif := cli.opts.Search
		cli.opts.OnMatch = func(m linecount.Match) {
			fmt.Printf("line nb: %d\t %s found in %s\n", m.Line, motif, m.Record)
		}
	}

	return cli, nil
}

// normalizeArgs rewrites single-dash long flags ("-bz2") to pflag's "--bz2".
// Only names defined in fs are rewritten, and the value following a
// value-taking flag is passed through untouched. Other dash-prefixed
// tokens are file names and are moved behind "--".
func normalizeArgs(fs *pflag.FlagSet, args []string) []string {
	out := make([]string, 0, len(args)+1)
	var operands []string

	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			operands = append(operands, args[i+1:]...)
			break
		}
		if len(a) < 2 || a[0] != '-' {
			out = append(out, a)
			continue
		}

		name := strings.TrimLeft(a, "-")
		if j := strings.IndexByte(name, '='); j >= 0 {
			name = name[:j]
		}
		f := fs.Lookup(name)
		if f == nil {
			if a == "-h" || a == "--help" {
				out = append(out, a)
			} else {
				operands = append(operands, a)
			}
			continue
		}

		if a[1] != '-' {
			a = "-" + a
		}
		out = append(out, a)

		if f.NoOptDefVal == "" && !strings.Contains(a, "=") && i+1 < len(args) {
			i++
			out = append(out, args[i])
		}
	}

	if len(operands) > 0 {
		out = append(out, "--")
		out = append(out, operands...)
	}
	return out
}

func report(w io.Writer, cli *cliOptions, res *linecount.Result) {
	if cli.printLastLines > 0 {
		for _, rec := range res.LastRecords {
			fmt.Fprintf(w, "last lines: %s\n", rec)
		}
	}
	if cli.printLastLine && len(res.LastRecords) > 0 {
		fmt.Fprintf(w, "last line: %s\n", res.LastRecords[len(res.LastRecords)-1])
	}
	if cli.opts.Distinct {
		fmt.Fprintf(w, "estimated distinct lines: %d\n", res.DistinctEstimate)
	}

	fmt.Fprintf(w, "time: %f s\n", res.Duration.Seconds())
	fmt.Fprintf(w, "number of lines: %d\n", res.Lines)
}
