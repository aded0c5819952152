package main

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alnah/go-autoprice"
	"github.com/alnah/go-autoprice/internal/hints"
)

// toolsReport is the JSON shape of the tools command.
type toolsReport struct {
	Tools     []autoprice.ToolDescriptor `json:"tools"`
	Selected  autoprice.ToolID           `json:"selected,omitempty"`
	Container bool                       `json:"container"`
}

func newToolsCommand(env *Environment, common *commonFlags) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List conversion tools and which one a run would use",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(*common, env.Stderr)
			if err != nil {
				return err
			}
			reg, err := s.registry()
			if err != nil {
				return err
			}
			report, err := detectTools(reg, s.cfg.Tools.Preferred)
			if jsonOut {
				if werr := writeJSON(env.Stdout, report); werr != nil {
					return werr
				}
				return err
			}
			fmt.Fprintln(env.Stdout, renderToolsTable(report))
			if report.Selected != "" {
				fmt.Fprintf(env.Stdout, "Selected: %s\n", report.Selected)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

// detectTools detects every tool and reports which one a run would start
// with. The report is complete even when no tool is available.
func detectTools(reg *autoprice.Registry, preferred string) (toolsReport, error) {
	detected := reg.Detect()
	report := toolsReport{Container: hints.IsInContainer()}
	for _, id := range autoprice.KnownTools {
		if d, ok := detected[id]; ok {
			report.Tools = append(report.Tools, d)
		}
	}
	slices.SortStableFunc(report.Tools, func(a, b autoprice.ToolDescriptor) int {
		return a.Priority - b.Priority
	})

	if id, err := autoprice.ParseToolID(preferred); err == nil && id != "" && detected[id].Available {
		report.Selected = id
		return report, nil
	}
	best, err := autoprice.SelectBest(detected)
	if err != nil {
		if errors.Is(err, autoprice.ErrNoToolAvailable) {
			return report, err
		}
		return report, fmt.Errorf("selecting tool: %w", err)
	}
	report.Selected = best
	return report, nil
}

func renderToolsTable(r toolsReport) string {
	rows := make([][]string, 0, len(r.Tools))
	for _, d := range r.Tools {
		status := "available"
		if !d.Available {
			status = "missing"
		}
		where := d.Path
		if !d.Available && d.Detail != "" {
			where = d.Detail
		}
		rows = append(rows, []string{strconv.Itoa(d.Priority), string(d.ID), status, where})
	}
	return renderTable(
		[]string{"Priority", "Tool", "Status", "Path / detail"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	)
}
