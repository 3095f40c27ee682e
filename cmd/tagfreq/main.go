// Package main is the entry point for the tag frequency analyzer.
package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fidde/tagstats/internal/analysis"
	"github.com/fidde/tagstats/internal/config"
	"github.com/fidde/tagstats/internal/storage"
	"github.com/fidde/tagstats/internal/tags"
	"github.com/fidde/tagstats/internal/viewer"
)

// flagValues mirror the config fields that can be set on the command line.
type flagValues struct {
	configPath       string
	dataPath         string
	project          string
	noFilter         string
	top              int
	includeReference bool
	duplicates       string
	output           string
	viewerAddr       string
	noViewer         bool
	export           string
	sqlitePath       string
	clickhouseAddr   string
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("tagfreq: ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, &flagValues{}).ExecuteContext(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}

func newRootCmd(stdout io.Writer, fv *flagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tagfreq",
		Short: "Compare tag count distributions of successful and failed reads",
		Long: `tagfreq loads the success, fail and reference tag count logs found in the
data directory, prints the most frequent failing tags and shows the density
of the log-scaled counts of each category.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, fv)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, stdout)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&fv.configPath, "config", "c", "", "YAML configuration file")
	pf.StringVar(&fv.export, "export", "none", "run store: none, sqlite or clickhouse")
	pf.StringVar(&fv.sqlitePath, "sqlite-path", "tagstats.db", "SQLite database for --export sqlite")
	pf.StringVar(&fv.clickhouseAddr, "clickhouse-addr", "localhost:9000", "ClickHouse address for --export clickhouse")

	f := cmd.Flags()
	f.StringVar(&fv.dataPath, "data-path", config.DefaultDataPath, "directory holding the log files")
	f.StringVar(&fv.project, "project", config.DefaultProjectName, "project name selecting the success/fail logs")
	f.StringVar(&fv.noFilter, "no-filter", config.DefaultNoFilterMarker, "marker selecting the reference log")
	f.IntVar(&fv.top, "top", config.DefaultTopN, "number of failing tags to print")
	f.BoolVar(&fv.includeReference, "include-reference", false, "draw the reference distribution")
	f.StringVar(&fv.duplicates, "duplicates", string(tags.Overwrite), "duplicate tag policy: overwrite or sum")
	f.StringVarP(&fv.output, "output", "o", "", "also write the figure to this file (.svg, .png, .pdf)")
	f.StringVar(&fv.viewerAddr, "viewer-addr", config.DefaultViewerAddr, "address of the figure viewer")
	f.BoolVar(&fv.noViewer, "no-viewer", false, "do not start the figure viewer")

	cmd.AddCommand(newRunsCmd(stdout, fv))

	return cmd
}

// loadConfig layers defaults, the config file, the environment and the
// flags that were set explicitly, in that order.
func loadConfig(cmd *cobra.Command, fv *flagValues) (config.Config, error) {
	cfg, err := config.Load(fv.configPath)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()

	f := cmd.Flags()
	if f.Changed("data-path") {
		cfg.DataPath = fv.dataPath
	}
	if f.Changed("project") {
		cfg.ProjectName = fv.project
	}
	if f.Changed("no-filter") {
		cfg.NoFilterMarker = fv.noFilter
	}
	if f.Changed("top") {
		cfg.TopN = fv.top
	}
	if f.Changed("include-reference") {
		cfg.IncludeReference = fv.includeReference
	}
	if f.Changed("duplicates") {
		cfg.Duplicates = tags.DuplicatePolicy(fv.duplicates)
	}
	if f.Changed("output") {
		cfg.Figure.Output = fv.output
	}
	if f.Changed("viewer-addr") {
		cfg.Viewer.Addr = fv.viewerAddr
	}
	if f.Changed("no-viewer") {
		cfg.Viewer.Enabled = !fv.noViewer
	}
	if f.Changed("export") {
		cfg.Export.Backend = fv.export
	}
	if f.Changed("sqlite-path") {
		cfg.Export.SQLitePath = fv.sqlitePath
	}
	if f.Changed("clickhouse-addr") {
		cfg.Export.ClickHouseAddr = fv.clickhouseAddr
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func storageConfig(cfg config.Config) storage.Config {
	return storage.Config{
		Backend:        cfg.Export.Backend,
		SQLitePath:     cfg.Export.SQLitePath,
		ClickHouseAddr: cfg.Export.ClickHouseAddr,
	}
}

func run(ctx context.Context, cfg config.Config, stdout io.Writer) error {
	logger := newLogger()

	exporter, err := storage.NewExporter(ctx, storageConfig(cfg), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := exporter.Close(); err != nil {
			log.Printf("Error closing exporter: %v", err)
		}
	}()

	var renderers []analysis.Renderer
	if cfg.Figure.Output != "" {
		renderers = append(renderers, analysis.FileRenderer{Path: cfg.Figure.Output, Size: cfg.Figure.Size})
	}
	if cfg.Viewer.Enabled {
		renderers = append(renderers, viewer.NewServer(cfg.Viewer.Addr, cfg.Figure.Size, logger))
	}

	res, err := analysis.Run(ctx, cfg, stdout, exporter, renderers...)
	if err != nil {
		return err
	}

	for _, c := range tags.Categories {
		log.Printf("Loaded %s log %s (%d tags)", c, res.Dataset.Paths[c], len(res.Distributions[c]))
	}
	if cfg.Figure.Output != "" {
		log.Printf("Figure written to %s", cfg.Figure.Output)
	}
	return nil
}

