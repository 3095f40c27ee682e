package tags

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ErrAmbiguousDiscovery is returned when a pattern does not match exactly one file.
var ErrAmbiguousDiscovery = errors.New("ambiguous discovery")

// DiscoveryError carries the pattern and what it matched.
type DiscoveryError struct {
	Pattern string
	Matches []string
}

func (e *DiscoveryError) Error() string {
	if len(e.Matches) == 0 {
		return fmt.Sprintf("%v: no file matches %s", ErrAmbiguousDiscovery, e.Pattern)
	}
	return fmt.Sprintf("%v: %d files match %s: %s",
		ErrAmbiguousDiscovery, len(e.Matches), e.Pattern, strings.Join(e.Matches, ", "))
}

func (e *DiscoveryError) Unwrap() error { return ErrAmbiguousDiscovery }

// Pattern builds the glob for log files of the given marker and suffix:
// <dir>/*<marker>.<suffix>.log
func Pattern(dir, marker, suffix string) string {
	return filepath.Join(dir, fmt.Sprintf("*%s.%s.log", marker, suffix))
}

// Discover returns the single file matching pattern.
func Discover(pattern string) (string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("globbing %s: %w", pattern, err)
	}
	if len(matches) != 1 {
		sort.Strings(matches)
		return "", &DiscoveryError{Pattern: pattern, Matches: matches}
	}
	return matches[0], nil
}
