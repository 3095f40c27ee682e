// Package linecount counts newline-delimited records in plain or compressed files.
package linecount

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"

	"github.com/fidde/tagstats/pkg/hyperloglog"
)

// Mode selects how the input file is decoded.
type Mode int

const (
	Plain Mode = iota
	Bzip2
	Gzip
)

func (m Mode) String() string {
	switch m {
	case Plain:
		return "plain"
	case Bzip2:
		return "bz2"
	case Gzip:
		return "gz"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ErrUnknownMode is returned for a Mode outside Plain, Bzip2 and Gzip.
var ErrUnknownMode = errors.New("unknown read mode")

// maxRecordSize bounds the scanner buffer; longer records fail the scan.
const maxRecordSize = 256 << 20

// ctxCheckEvery is how many records are read between context checks.
const ctxCheckEvery = 1 << 16

// Match is a record containing the searched motif.
type Match struct {
	Line   int64
	Record string
}

// Options configures a count. The zero value counts a plain file.
type Options struct {
	Mode Mode

	// Search reports every record containing this motif.
	Search string
	// OnMatch is called for each match as it is found. If nil, matches
	// are collected into Result.Matches.
	OnMatch func(Match)

	// StopAfter ends the scan once this many records were read (0 = no limit).
	StopAfter int64
	// LastRecords keeps the final n records read.
	LastRecords int
	// Distinct estimates the number of distinct records.
	Distinct bool
}

func (o Options) inspectsContent() bool {
	return o.Search != "" || o.LastRecords > 0 || o.Distinct
}

// Result is the outcome of a count.
type Result struct {
	Path     string
	Mode     Mode
	Lines    int64
	Duration time.Duration

	Matches          []Match
	LastRecords      []string
	DistinctEstimate uint64
}

// Count scans the file at path and counts its records.
// A final record without a trailing newline is counted.
func Count(ctx context.Context, path string, opts Options) (*Result, error) {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r, err := NewReader(f, opts.Mode)
	if err != nil {
		return nil, fmt.Errorf("opening %s as %s: %w", path, opts.Mode, err)
	}
	if c, ok := r.(io.Closer); ok {
		defer c.Close()
	}

	res, err := CountReader(ctx, r, opts)
	if err != nil {
		return nil, fmt.Errorf("counting %s: %w", path, err)
	}

	res.Path = path
	res.Mode = opts.Mode
	res.Duration = time.Since(start)
	return res, nil
}

// NewReader wraps r with the decoder matching mode.
func NewReader(r io.Reader, mode Mode) (io.Reader, error) {
	switch mode {
	case Plain:
		return r, nil
	case Bzip2:
		return bzip2.NewReader(bufio.NewReader(r), new(bzip2.ReaderConfig))
	case Gzip:
		return gzip.NewReader(bufio.NewReader(r))
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownMode, mode)
	}
}

// CountReader counts the records of an already decoded stream.
func CountReader(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

	res := &Result{}

	var sketch *hyperloglog.Sketch
	if opts.Distinct {
		sketch = hyperloglog.New(hyperloglog.DefaultPrecision)
	}

	var tail *ring
	if opts.LastRecords > 0 {
		tail = newRing(opts.LastRecords)
	}

	motif := []byte(opts.Search)
	inspect := opts.inspectsContent()

	for scanner.Scan() {
		res.Lines++

		if res.Lines%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if inspect {
			record := scanner.Bytes()

			if len(motif) > 0 && bytes.Contains(record, motif) {
				m := Match{Line: res.Lines, Record: string(record)}
				if opts.OnMatch != nil {
					opts.OnMatch(m)
				} else {
					res.Matches = append(res.Matches, m)
				}
			}
			if tail != nil {
				tail.push(string(record))
			}
			if sketch != nil {
				sketch.AddBytes(record)
			}
		}

		if opts.StopAfter > 0 && res.Lines >= opts.StopAfter {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if tail != nil {
		res.LastRecords = tail.items()
	}
	if sketch != nil {
		res.DistinctEstimate = sketch.Estimate()
	}

	return res, nil
}

// ring keeps the n most recent records.
type ring struct {
	buf  []string
	next int
	full bool
}

func newRing(n int) *ring {
	return &ring{buf: make([]string, n)}
}

func (r *ring) push(s string) {
	r.buf[r.next] = s
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

func (r *ring) items() []string {
	if !r.full {
		return append([]string(nil), r.buf[:r.next]...)
	}
	out := make([]string, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}
