package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/fidde/tagstats/internal/storage"
	"github.com/fidde/tagstats/pkg/models"
)

var runIDPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out, &flagValues{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunsListAndShow(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a_10p7reads.success.log":     "s1: 4\ns2: 9\n",
		"a_10p7reads.fail.log":        "f1: 2\nf2: 8\nf3: 5\n",
		"a_NOCORRECTIONs.success.log": "r1: 1\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	db := filepath.Join(dir, "runs.db")

	if _, err := execute(t, "--data-path", dir, "--no-viewer", "--export", "sqlite", "--sqlite-path", db); err != nil {
		t.Fatalf("analysis error = %v", err)
	}

	list, err := execute(t, "runs", "list", "--export", "sqlite", "--sqlite-path", db)
	if err != nil {
		t.Fatalf("runs list error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(list), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "ID") {
		t.Fatalf("runs list output = %q", list)
	}
	if !strings.Contains(lines[1], "2/13") || !strings.Contains(lines[1], "3/15") {
		t.Errorf("run row = %q, want success 2/13 and fail 3/15", lines[1])
	}

	id := runIDPattern.FindString(lines[1])
	if id == "" {
		t.Fatalf("no run id in %q", lines[1])
	}

	show, err := execute(t, "runs", "show", id, "--export", "sqlite", "--sqlite-path", db)
	if err != nil {
		t.Fatalf("runs show error = %v", err)
	}
	var run models.Run
	if err := json.Unmarshal([]byte(show), &run); err != nil {
		t.Fatalf("decoding run: %v\n%s", err, show)
	}
	fail := run.Category("fail")
	if run.ID != id || fail == nil || len(fail.Tags) != 3 || fail.Tags[1].Tag != "f2" {
		t.Errorf("shown run = %+v", run)
	}
}

func TestRunsErrors(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	if _, err := execute(t, "runs", "list"); !errors.Is(err, storage.ErrNoBackend) {
		t.Errorf("list without store: expected ErrNoBackend, got %v", err)
	}
	if _, err := execute(t, "runs", "show", "run-1", "--export", "sqlite", "--sqlite-path", db); !errors.Is(err, models.ErrInvalidRunID) {
		t.Errorf("bad id: expected ErrInvalidRunID, got %v", err)
	}
	if _, err := execute(t, "runs", "show", models.NewRunID(), "--export", "sqlite", "--sqlite-path", db); !errors.Is(err, models.ErrRunNotFound) {
		t.Errorf("unknown id: expected ErrRunNotFound, got %v", err)
	}
}
