// Package config loads the tag frequency analyzer configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/fidde/tagstats/internal/tags"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Defaults used when neither the file nor the environment set a value.
const (
	DefaultProjectName    = "10p7reads"
	DefaultNoFilterMarker = "NOCORRECTIONs"
	DefaultDataPath       = "."
	DefaultTopN           = 20
	DefaultViewerAddr     = "localhost:8765"
)

// Config holds the analyzer inputs.
type Config struct {
	// ProjectName selects the success/fail file pair.
	ProjectName string `yaml:"project_name"`
	// NoFilterMarker selects the reference file.
	NoFilterMarker string `yaml:"no_filter_marker"`
	// DataPath is the directory searched for log files.
	DataPath string `yaml:"data_path"`

	TopN             int                  `yaml:"top_n"`
	IncludeReference bool                 `yaml:"include_reference"`
	Duplicates       tags.DuplicatePolicy `yaml:"duplicates"`

	Figure FigureConfig `yaml:"figure"`
	Viewer ViewerConfig `yaml:"viewer"`
	Export ExportConfig `yaml:"export"`
}

// FigureConfig controls the optional figure file.
type FigureConfig struct {
	// Output is written when non-empty; the extension picks the format.
	Output string `yaml:"output"`
	// Size is the figure width and height in inches.
	Size float64 `yaml:"size"`
}

// ViewerConfig controls the interactive viewer.
type ViewerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// ExportConfig selects where analysis runs are recorded.
type ExportConfig struct {
	// Backend is "none", "sqlite" or "clickhouse".
	Backend        string `yaml:"backend"`
	SQLitePath     string `yaml:"sqlite_path"`
	ClickHouseAddr string `yaml:"clickhouse_addr"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		ProjectName:    DefaultProjectName,
		NoFilterMarker: DefaultNoFilterMarker,
		DataPath:       DefaultDataPath,
		TopN:           DefaultTopN,
		Duplicates:     tags.Overwrite,
		Figure: FigureConfig{
			Size: 12,
		},
		Viewer: ViewerConfig{
			Enabled: true,
			Addr:    DefaultViewerAddr,
		},
		Export: ExportConfig{
			Backend:        "none",
			SQLitePath:     "tagstats.db",
			ClickHouseAddr: "localhost:9000",
		},
	}
}

// Load reads a YAML file on top of DefaultConfig.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config YAML: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from TAGSTATS_* environment variables.
func (c *Config) ApplyEnv() {
	c.ProjectName = getEnv("TAGSTATS_PROJECT_NAME", c.ProjectName)
	c.NoFilterMarker = getEnv("TAGSTATS_NO_FILTER", c.NoFilterMarker)
	c.DataPath = getEnv("TAGSTATS_DATA_PATH", c.DataPath)
	c.TopN = getEnvInt("TAGSTATS_TOP_N", c.TopN)
	c.IncludeReference = getEnvBool("TAGSTATS_INCLUDE_REFERENCE", c.IncludeReference)
	c.Duplicates = tags.DuplicatePolicy(getEnv("TAGSTATS_DUPLICATES", string(c.Duplicates)))
	c.Figure.Output = getEnv("TAGSTATS_FIGURE_OUTPUT", c.Figure.Output)
	c.Viewer.Enabled = getEnvBool("TAGSTATS_VIEWER", c.Viewer.Enabled)
	c.Viewer.Addr = getEnv("TAGSTATS_VIEWER_ADDR", c.Viewer.Addr)
	c.Export.Backend = getEnv("TAGSTATS_EXPORT", c.Export.Backend)
	c.Export.SQLitePath = getEnv("TAGSTATS_SQLITE_PATH", c.Export.SQLitePath)
	c.Export.ClickHouseAddr = getEnv("TAGSTATS_CLICKHOUSE_ADDR", c.Export.ClickHouseAddr)
}

// Validate checks that the configuration can drive an analysis.
func (c Config) Validate() error {
	switch {
	case c.ProjectName == "":
		return fmt.Errorf("%w: project_name is empty", ErrInvalidConfig)
	case c.NoFilterMarker == "":
		return fmt.Errorf("%w: no_filter_marker is empty", ErrInvalidConfig)
	case c.DataPath == "":
		return fmt.Errorf("%w: data_path is empty", ErrInvalidConfig)
	case c.TopN < 0:
		return fmt.Errorf("%w: top_n must not be negative", ErrInvalidConfig)
	case !c.Duplicates.Valid():
		return fmt.Errorf("%w: duplicates must be %q or %q, got %q",
			ErrInvalidConfig, tags.Overwrite, tags.Sum, c.Duplicates)
	case c.Figure.Size <= 0:
		return fmt.Errorf("%w: figure.size must be positive", ErrInvalidConfig)
	case c.Viewer.Enabled && c.Viewer.Addr == "":
		return fmt.Errorf("%w: viewer.addr is empty", ErrInvalidConfig)
	}

	switch c.Export.Backend {
	case "", "none", "sqlite", "clickhouse":
	default:
		return fmt.Errorf("%w: unknown export backend %q (supported: none, sqlite, clickhouse)",
			ErrInvalidConfig, c.Export.Backend)
	}

	return nil
}

// Sources returns the discovery pattern of every category.
func (c Config) Sources() []tags.Source {
	return []tags.Source{
		{Category: tags.Success, Pattern: tags.Pattern(c.DataPath, c.ProjectName, "success")},
		{Category: tags.Fail, Pattern: tags.Pattern(c.DataPath, c.ProjectName, "fail")},
		{Category: tags.Reference, Pattern: tags.Pattern(c.DataPath, c.NoFilterMarker, "success")},
	}
}

// getEnv gets an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default fallback.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
