// Package tags parses tag-count log files into tables and derives the
// statistics the analyzer reports on.
package tags

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ErrMalformedRecord is returned when a log line is not a "<tag>: <count>" pair.
var ErrMalformedRecord = errors.New("malformed tag record")

// DuplicatePolicy controls what happens when a tag appears twice in one file.
type DuplicatePolicy string

const (
	// Overwrite keeps the last count seen for a tag.
	Overwrite DuplicatePolicy = "overwrite"
	// Sum adds the counts of repeated tags.
	Sum DuplicatePolicy = "sum"
)

// Valid reports whether p is a known policy.
func (p DuplicatePolicy) Valid() bool {
	return p == Overwrite || p == Sum
}

// ParseError describes the line that made parsing fail.
type ParseError struct {
	Path string
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	src := e.Path
	if src == "" {
		src = "<input>"
	}
	return fmt.Sprintf("%s:%d: %q: %v", src, e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TagCount is one entry of a Table.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Table maps tag identifiers to occurrence counts.
// The order in which tags were first inserted is kept so that listings are
// deterministic.
type Table struct {
	counts map[string]int
	order  []string
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{counts: make(map[string]int)}
}

// Set assigns count to tag, replacing any previous value.
func (t *Table) Set(tag string, count int) {
	if _, ok := t.counts[tag]; !ok {
		t.order = append(t.order, tag)
	}
	t.counts[tag] = count
}

// Add increments the count of tag by delta.
func (t *Table) Add(tag string, delta int) {
	t.Set(tag, t.counts[tag]+delta)
}

// Get returns the count of tag and whether it is present.
func (t *Table) Get(tag string) (int, bool) {
	c, ok := t.counts[tag]
	return c, ok
}

// Len returns the number of distinct tags.
func (t *Table) Len() int {
	return len(t.order)
}

// Entries returns the table content in insertion order.
func (t *Table) Entries() []TagCount {
	out := make([]TagCount, 0, len(t.order))
	for _, tag := range t.order {
		out = append(out, TagCount{Tag: tag, Count: t.counts[tag]})
	}
	return out
}

// Values returns the counts without their tags, in insertion order.
func (t *Table) Values() []int {
	out := make([]int, 0, len(t.order))
	for _, tag := range t.order {
		out = append(out, t.counts[tag])
	}
	return out
}

// Map returns a copy of the table as a plain map.
func (t *Table) Map() map[string]int {
	out := make(map[string]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}

// Top returns the n entries with the highest counts in descending order.
// Equal counts keep their insertion order.
func (t *Table) Top(n int) []TagCount {
	entries := t.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if n >= 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

// Parse reads "<tag>[:] <count>" records from r.
// Any malformed line aborts parsing; no partial table is returned.
func Parse(r io.Reader, policy DuplicatePolicy) (*Table, error) {
	return parse(r, "", policy)
}

// LoadFile opens path and parses it with Parse.
func LoadFile(path string, policy DuplicatePolicy) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening tag log: %w", err)
	}
	defer f.Close()

	return parse(f, path, policy)
}

func parse(r io.Reader, path string, policy DuplicatePolicy) (*Table, error) {
	if policy == "" {
		policy = Overwrite
	}
	if !policy.Valid() {
		return nil, fmt.Errorf("unknown duplicate policy %q", policy)
	}

	table := NewTable()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := scanner.Text()

		tag, count, err := parseRecord(text)
		if err != nil {
			return nil, &ParseError{Path: path, Line: lineNo, Text: text, Err: err}
		}

		if policy == Sum {
			table.Add(tag, count)
		} else {
			table.Set(tag, count)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading tag log %s: %w", path, err)
	}

	return table, nil
}

func parseRecord(line string) (string, int, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return "", 0, fmt.Errorf("%w: expected 2 fields, got %d", ErrMalformedRecord, len(fields))
	}

	count, err := strconv.Atoi(fields[1])
	if err != nil {
		return "", 0, fmt.Errorf("%w: count %q is not an integer", ErrMalformedRecord, fields[1])
	}
	if count < 0 {
		return "", 0, fmt.Errorf("%w: negative count %d", ErrMalformedRecord, count)
	}

	return strings.TrimRight(fields[0], ":"), count, nil
}
