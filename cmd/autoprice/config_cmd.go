package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alnah/go-autoprice"
	"github.com/alnah/go-autoprice/internal/config"
	"github.com/alnah/go-autoprice/internal/docx"
	"github.com/alnah/go-autoprice/internal/fileutil"
)

func newConfigCommand(env *Environment, common *commonFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newConfigInitCommand(env))
	cmd.AddCommand(newConfigShowCommand(env, common))
	return cmd
}

func newConfigInitCommand(env *Environment) *cobra.Command {
	var (
		overwrite bool
		templates string
	)

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a configuration file with the default values",
		Long: `Write a configuration file with the default values. The file goes to
<user config dir>/autoprice/autoprice.yaml unless a path is given; paths
ending in .toml are written as TOML.

With --templates, sample A4 and A5 templates using every placeholder are
written to the given directory and the config points at them.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				var err error
				if path, err = defaultConfigPath(); err != nil {
					return err
				}
			}

			cfg := config.DefaultConfig()
			if templates != "" {
				a4, a5, err := writeSampleTemplates(templates, overwrite)
				if err != nil {
					return err
				}
				cfg.Template.A4, cfg.Template.A5 = a4, a5
				fmt.Fprintf(env.Stdout, "Wrote %s\nWrote %s\n", a4, a5)
			}
			if err := config.Save(cfg, path, overwrite); err != nil {
				return err
			}
			fmt.Fprintf(env.Stdout, "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing files")
	cmd.Flags().StringVar(&templates, "templates", "", "Also write sample DOCX templates to this directory")
	return cmd
}

func newConfigShowCommand(env *Environment, common *commonFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration a run would use: defaults, then the config file,
then AUTOPRICE_* environment variables.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(*common, env.Stderr)
			if err != nil {
				return err
			}
			data, err := config.Marshal(s.cfg)
			if err != nil {
				return err
			}
			source := s.source
			if source == "" {
				source = "defaults"
			}
			fmt.Fprintf(env.Stdout, "# source: %s\n%s", source, data)
			return nil
		},
	}
}

func defaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}
	return filepath.Join(dir, config.AppDir, defaultConfigName+".yaml"), nil
}

// writeSampleTemplates writes one A4 template (one product) and one A5
// template (two products) into dir.
func writeSampleTemplates(dir string, overwrite bool) (a4, a5 string, err error) {
	if err := fileutil.EnsureDir(dir); err != nil {
		return "", "", err
	}
	a4 = filepath.Join(dir, "A4-Auto.docx")
	a5 = filepath.Join(dir, "A5-AUTO.docx")
	for _, p := range []string{a4, a5} {
		if !overwrite && fileutil.FileExists(p) {
			return "", "", fmt.Errorf("%w: %s", os.ErrExist, p)
		}
	}

	if err := docx.Create(a4, &docx.Document{
		Paragraphs: sampleParagraphs(""),
		PageWidth:  docx.A4Width,
		PageHeight: docx.A4Height,
	}); err != nil {
		return "", "", err
	}
	// Landscape A5 with the two products one after the other.
	paired := append(sampleParagraphs(""), "")
	paired = append(paired, sampleParagraphs("1")...)
	if err := docx.Create(a5, &docx.Document{
		Paragraphs: paired,
		PageWidth:  docx.A5Height,
		PageHeight: docx.A5Width,
	}); err != nil {
		return "", "", err
	}
	return a4, a5, nil
}

func sampleParagraphs(suffix string) []string {
	p := func(label, key string) string {
		return label + "{{ " + key + suffix + " }}"
	}
	return []string{
		p("", autoprice.KeyCategory),
		p("", autoprice.KeyBrand) + " " + p("", autoprice.KeyModel),
		p("Mã: ", autoprice.KeyCode),
		p("Giá niêm yết: ", autoprice.KeyListPrice),
		p("Giá khuyến mãi: ", autoprice.KeyPromoPrice),
		p("Giảm: ", autoprice.KeyDiscount),
		p("Quà tặng: ", autoprice.KeyGift),
		p("Thời gian: ", autoprice.KeyValidity),
	}
}
