package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fidde/tagstats/internal/storage"
	"github.com/fidde/tagstats/internal/tags"
	"github.com/fidde/tagstats/pkg/models"
)

func newRunsCmd(stdout io.Writer, fv *flagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect runs recorded with --export",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReader(cmd, fv, func(r storage.Reader) error {
				runs, err := r.ListRuns(cmd.Context())
				if err != nil {
					return err
				}
				return printRuns(stdout, runs)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print a recorded run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := models.ValidateRunID(args[0]); err != nil {
				return err
			}
			return withReader(cmd, fv, func(r storage.Reader) error {
				run, err := r.LoadRun(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("loading run %s: %w", args[0], err)
				}
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(run)
			})
		},
	})

	return cmd
}

// withReader opens the configured run store for the duration of fn.
func withReader(cmd *cobra.Command, fv *flagValues, fn func(storage.Reader) error) error {
	cfg, err := loadConfig(cmd, fv)
	if err != nil {
		return err
	}

	reader, err := storage.NewReader(cmd.Context(), storageConfig(cfg), newLogger())
	if err != nil {
		return err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			log.Printf("Error closing run store: %v", err)
		}
	}()

	return fn(reader)
}

func printRuns(w io.Writer, runs []models.RunSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tPROJECT\tSUCCESS\tFAIL\tREFERENCE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s", r.ID, r.Created.Format(time.RFC3339), r.ProjectName)
		for _, c := range tags.Categories {
			fmt.Fprintf(tw, "\t%d/%d", r.Distinct[string(c)], r.Totals[string(c)])
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
