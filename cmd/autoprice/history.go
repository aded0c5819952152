package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/alnah/go-autoprice/internal/fileutil"
	"github.com/alnah/go-autoprice/internal/history"
)

func newHistoryCommand(env *Environment, common *commonFlags) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("%w: --limit must be positive", ErrUsage)
			}
			s, err := loadSettings(*common, env.Stderr)
			if err != nil {
				return err
			}
			path, err := s.cfg.HistoryPath()
			if err != nil {
				return err
			}

			var entries []history.Entry
			// Opening would create the database; a missing one just means no runs.
			if fileutil.FileExists(path) {
				store, err := history.Open(cmd.Context(), path)
				if err != nil {
					return err
				}
				defer func() { _ = store.Close() }()
				if entries, err = store.Recent(cmd.Context(), limit); err != nil {
					return err
				}
			}

			if jsonOut {
				if entries == nil {
					entries = []history.Entry{}
				}
				return writeJSON(env.Stdout, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(env.Stdout, "No runs recorded yet.")
				return nil
			}
			fmt.Fprintln(env.Stdout, renderHistoryTable(entries, env.Now()))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func renderHistoryTable(entries []history.Entry, now time.Time) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		status := e.Status
		if e.FailedStage != "" {
			status += " (" + e.FailedStage + ")"
		}
		id := e.ID
		if len(id) > 8 {
			id = id[:8]
		}
		rows = append(rows, []string{
			id,
			humanize.RelTime(e.StartedAt, now, "ago", "from now"),
			e.Format,
			e.Tool,
			status,
			strconv.Itoa(e.Documents),
			strconv.Itoa(e.Pages),
			strconv.Itoa(e.ItemErrors),
		})
	}
	return renderTable(
		[]string{"Run", "Started", "Format", "Tool", "Status", "Docs", "Pages", "Errors"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	)
}
