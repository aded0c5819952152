package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-autoprice"
	"github.com/alnah/go-autoprice/internal/docx"
	"github.com/alnah/go-autoprice/internal/sheet"
)

// checkResult is what check found for one format mode.
type checkResult struct {
	Format    string   `json:"format"`
	Template  string   `json:"template"`
	Source    string   `json:"source"`
	Rows      int      `json:"rows"`
	Documents int      `json:"documents"`
	Unknown   []string `json:"unknown_placeholders,omitempty"` // placeholders no row value fills
	Unused    []string `json:"unused_keys,omitempty"`          // row values the template never shows
}

func newCheckCommand(env *Environment, common *commonFlags) *cobra.Command {
	var (
		f       runFlags
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the template and data file without converting anything",
		Long: `Read the data file and the template configured for the selected format and
report the rows found and placeholders that no column can fill.

Unknown placeholders are rendered empty by a run; check exits with code 2
when it finds any so scripts can catch template typos early.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(*common, env.Stderr)
			if err != nil {
				return err
			}
			applyRunFlags(cmd.Flags(), &f, s)
			if err := s.cfg.Validate(); err != nil {
				return err
			}
			res, err := checkInputs(s)
			if err != nil {
				return err
			}
			if jsonOut {
				if err := writeJSON(env.Stdout, res); err != nil {
					return err
				}
			} else {
				printCheck(env, res)
			}
			if len(res.Unknown) > 0 {
				return fmt.Errorf("%w: template uses unknown placeholders: %s",
					ErrUsage, strings.Join(res.Unknown, ", "))
			}
			return nil
		},
	}
	addInputFlags(cmd.Flags(), &f.input)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

// checkInputs loads the data file and compares the template placeholders
// against the keys the formatter fills for the format mode.
func checkInputs(s *settings) (*checkResult, error) {
	mode, err := autoprice.ParseFormatMode(s.cfg.Format)
	if err != nil {
		return nil, err
	}
	res := &checkResult{
		Format:   string(mode),
		Template: s.cfg.TemplateFor(s.cfg.Format),
		Source:   s.cfg.SourceFor(s.cfg.Format),
	}

	rows, err := sheet.Load(res.Source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", autoprice.ErrSourceUnreadable, res.Source, err)
	}
	res.Rows = len(rows)
	res.Documents = autoprice.BatchJob{Format: mode}.Documents(len(rows))

	names, err := docx.Placeholders(res.Template)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", autoprice.ErrMissingInput, res.Template, err)
	}
	keys := contextKeys(mode)
	for _, n := range names {
		if !slices.Contains(keys, n) {
			res.Unknown = append(res.Unknown, n)
		}
	}
	for _, k := range keys {
		if !slices.Contains(names, k) {
			res.Unused = append(res.Unused, k)
		}
	}
	return res, nil
}

// contextKeys lists the keys a render context carries in mode.
func contextKeys(mode autoprice.FormatMode) []string {
	f := autoprice.NewFormatter(mode)
	var ctx map[string]string
	if mode == autoprice.FormatPaired {
		ctx = f.PairedContext(autoprice.Row{}, nil)
	} else {
		ctx = f.SingleContext(autoprice.Row{})
	}
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func printCheck(env *Environment, r *checkResult) {
	fmt.Fprintf(env.Stdout, "Format:   %s\n", r.Format)
	fmt.Fprintf(env.Stdout, "Source:   %s (%d rows, %d documents)\n", r.Source, r.Rows, r.Documents)
	fmt.Fprintf(env.Stdout, "Template: %s\n", r.Template)
	if len(r.Unused) > 0 {
		fmt.Fprintf(env.Stdout, "Not shown by the template: %s\n", strings.Join(r.Unused, ", "))
	}
	for _, n := range r.Unknown {
		fmt.Fprintf(env.Stderr, "warning: placeholder {{ %s }} matches no column and will be empty\n", n)
	}
}
