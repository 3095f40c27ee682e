package tags

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		policy DuplicatePolicy
		want   map[string]int
	}{
		{
			name:  "colon suffixed tags",
			input: "a: 5\nb: 3\n",
			want:  map[string]int{"a": 5, "b": 3},
		},
		{
			name:  "repeated tag overwrites",
			input: "a: 5\na: 9\n",
			want:  map[string]int{"a": 9},
		},
		{
			name:   "repeated tag sums",
			input:  "a: 5\na: 9\n",
			policy: Sum,
			want:   map[string]int{"a": 14},
		},
		{
			name:  "tab separated without colon",
			input: "AAGT\t12\nCCTA\t0",
			want:  map[string]int{"AAGT": 12, "CCTA": 0},
		},
		{
			name:  "only trailing colons stripped",
			input: "AC:: 4\n:GT: 2\n",
			want:  map[string]int{"AC": 4, ":GT": 2},
		},
		{
			name:  "empty input",
			input: "",
			want:  map[string]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Parse(strings.NewReader(tt.input), tt.policy)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			got := table.Map()
			if len(got) != len(tt.want) {
				t.Fatalf("Parse() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("count[%q] = %d, want %d", k, got[k], v)
				}
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{name: "single token", input: "onlyonetoken\n", line: 1},
		{name: "non integer count", input: "a: 5\nb: x\n", line: 2},
		{name: "three tokens", input: "a: 5 6\n", line: 1},
		{name: "blank line", input: "a: 5\n\nb: 3\n", line: 2},
		{name: "negative count", input: "a: -1\n", line: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Parse(strings.NewReader(tt.input), Overwrite)
			if table != nil {
				t.Fatalf("expected no table, got %v", table.Map())
			}
			if !errors.Is(err, ErrMalformedRecord) {
				t.Fatalf("expected ErrMalformedRecord, got %v", err)
			}

			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if perr.Line != tt.line {
				t.Errorf("line = %d, want %d", perr.Line, tt.line)
			}
		})
	}
}

func TestParseUnknownPolicy(t *testing.T) {
	if _, err := Parse(strings.NewReader("a: 1\n"), DuplicatePolicy("max")); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestTopTwenty(t *testing.T) {
	table := NewTable()
	for c := 25; c >= 1; c-- {
		table.Set(fmt.Sprintf("tag%02d", c), c)
	}

	top := table.Top(20)
	if len(top) != 20 {
		t.Fatalf("len(Top(20)) = %d, want 20", len(top))
	}
	for i, tc := range top {
		want := 25 - i
		if tc.Count != want {
			t.Errorf("top[%d].Count = %d, want %d", i, tc.Count, want)
		}
		if tc.Tag != fmt.Sprintf("tag%02d", want) {
			t.Errorf("top[%d].Tag = %s", i, tc.Tag)
		}
	}
}

func TestTopTiesKeepInsertionOrder(t *testing.T) {
	table := NewTable()
	table.Set("first", 2)
	table.Set("big", 10)
	table.Set("second", 2)
	table.Set("third", 2)

	top := table.Top(3)
	want := []string{"big", "first", "second"}
	for i, tag := range want {
		if top[i].Tag != tag {
			t.Errorf("top[%d] = %s, want %s", i, top[i].Tag, tag)
		}
	}

	if got := len(table.Top(100)); got != 4 {
		t.Errorf("Top(100) returned %d entries, want 4", got)
	}
}

func TestOverwriteKeepsFirstPosition(t *testing.T) {
	table, err := Parse(strings.NewReader("a: 1\nb: 2\na: 3\n"), Overwrite)
	if err != nil {
		t.Fatal(err)
	}

	values := table.Values()
	if len(values) != 2 || values[0] != 3 || values[1] != 2 {
		t.Errorf("Values() = %v, want [3 2]", values)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.success.log")
	if err := os.WriteFile(path, []byte("a: 5\nb: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadFile(path, Overwrite)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if table.Len() != 2 {
		t.Errorf("Len() = %d, want 2", table.Len())
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.log"), Overwrite); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}
