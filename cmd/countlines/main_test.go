package main

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/fidde/tagstats/internal/linecount"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantPath string
		wantMode linecount.Mode
		wantErr  bool
	}{
		{name: "plain", args: []string{"reads.txt"}, wantPath: "reads.txt", wantMode: linecount.Plain},
		{name: "bz2 after path", args: []string{"reads.bz2", "-bz2"}, wantPath: "reads.bz2", wantMode: linecount.Bzip2},
		{name: "bz2 before path", args: []string{"-bz2", "reads.bz2"}, wantPath: "reads.bz2", wantMode: linecount.Bzip2},
		{name: "double dash form", args: []string{"--gz", "reads.gz"}, wantPath: "reads.gz", wantMode: linecount.Gzip},
		{name: "missing path", args: []string{"-bz2"}, wantErr: true},
		{name: "two paths", args: []string{"a", "b"}, wantErr: true},
		{name: "both compressions", args: []string{"a", "-bz2", "-gz"}, wantErr: true},
		{name: "unknown flag read as second file", args: []string{"a", "-zstd"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, err := parseArgs(tt.args, io.Discard)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseArgs(%v) expected error", tt.args)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseArgs(%v) error = %v", tt.args, err)
			}
			if cli.path != tt.wantPath {
				t.Errorf("path = %q, want %q", cli.path, tt.wantPath)
			}
			if cli.opts.Mode != tt.wantMode {
				t.Errorf("mode = %v, want %v", cli.opts.Mode, tt.wantMode)
			}
		})
	}
}

func TestParseArgsContentOptions(t *testing.T) {
	cli, err := parseArgs([]string{"f.txt", "-gotoline", "10", "-printlastline", "-search", "ACGT", "-distinct"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if cli.opts.StopAfter != 10 {
		t.Errorf("StopAfter = %d, want 10", cli.opts.StopAfter)
	}
	if cli.opts.LastRecords != 1 {
		t.Errorf("LastRecords = %d, want 1", cli.opts.LastRecords)
	}
	if cli.opts.OnMatch == nil || cli.opts.Search != "ACGT" {
		t.Error("search not configured")
	}
	if !cli.opts.Distinct {
		t.Error("distinct not set")
	}
}

func TestNormalizeArgs(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Bool("bz2", false, "")
	fs.String("search", "", "")

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "single dash flag", args: []string{"-bz2", "file"}, want: []string{"--bz2", "file"}},
		{name: "double dash kept", args: []string{"--bz2", "file"}, want: []string{"--bz2", "file"}},
		{name: "help kept", args: []string{"-h"}, want: []string{"-h"}},
		{name: "value not rewritten", args: []string{"-search", "-ACGT", "file"}, want: []string{"--search", "-ACGT", "file"}},
		{name: "inline value", args: []string{"-search=-AC", "file"}, want: []string{"--search=-AC", "file"}},
		{name: "dash file name", args: []string{"-reads.txt", "-bz2"}, want: []string{"--bz2", "--", "-reads.txt"}},
		{name: "terminator", args: []string{"file", "--", "-bz2"}, want: []string{"file", "--", "-bz2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeArgs(fs, tt.args)
			if strings.Join(got, " ") != strings.Join(tt.want, " ") {
				t.Errorf("normalizeArgs(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestParseArgsDashValues(t *testing.T) {
	cli, err := parseArgs([]string{"-search", "-ACGT", "reads.txt"}, io.Discard)
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}
	if cli.opts.Search != "-ACGT" {
		t.Errorf("search = %q, want %q", cli.opts.Search, "-ACGT")
	}
	if cli.path != "reads.txt" {
		t.Errorf("path = %q, want reads.txt", cli.path)
	}

	cli, err = parseArgs([]string{"-reads.txt", "-bz2"}, io.Discard)
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}
	if cli.path != "-reads.txt" || cli.opts.Mode != linecount.Bzip2 {
		t.Errorf("path = %q mode = %v, want -reads.txt bz2", cli.path, cli.opts.Mode)
	}
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	report(&buf, &cliOptions{}, &linecount.Result{Lines: 42, Duration: 1500 * time.Millisecond})

	want := "time: 1.500000 s\nnumber of lines: 42\n"
	if buf.String() != want {
		t.Errorf("report() = %q, want %q", buf.String(), want)
	}
}
