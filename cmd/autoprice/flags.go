package main

import (
	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	quiet     bool
	verbose   bool
	logFormat string
}

// inputFlags holds data file and template overrides.
type inputFlags struct {
	format   string
	source   string
	template string
}

// outputFlags holds where the merged PDF goes.
type outputFlags struct {
	dir  string
	name string
}

// toolFlags holds conversion tool overrides.
type toolFlags struct {
	tool    string
	soffice string
	browser string
	timeout string
	font    string
}

// runFlags holds all flags for the run command.
type runFlags struct {
	input     inputFlags
	output    outputFlags
	tools     toolFlags
	noHistory bool
}

// addCommonFlags registers the persistent flags of the root command.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "Config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "Only print errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Debug logging")
	fs.StringVar(&f.logFormat, "log-format", "", "Log format: console, json")
}

// addRunFlags registers the run command flags, grouped like the config file.
func addRunFlags(fs *flag.FlagSet, f *runFlags) {
	addInputFlags(fs, &f.input)
	addOutputFlags(fs, &f.output)
	addToolFlags(fs, &f.tools)
	fs.BoolVar(&f.noHistory, "no-history", false, "Do not record the run in the history database")
}

func addInputFlags(fs *flag.FlagSet, f *inputFlags) {
	fs.StringVarP(&f.format, "format", "f", "", "Layout: a4 (one product per page) or a5 (two per page)")
	fs.StringVarP(&f.source, "source", "s", "", "Data file (.xlsx or .csv)")
	fs.StringVarP(&f.template, "template", "t", "", "DOCX template with {{ Key }} placeholders")
}

func addOutputFlags(fs *flag.FlagSet, f *outputFlags) {
	fs.StringVarP(&f.dir, "output", "o", "", "Output directory")
	fs.StringVar(&f.name, "name", "", "Merged PDF file name")
}

func addToolFlags(fs *flag.FlagSet, f *toolFlags) {
	fs.StringVar(&f.tool, "tool", "", "Conversion tool: native, chrome, libreoffice (fails if unavailable)")
	fs.StringVar(&f.soffice, "soffice", "", "Path to the LibreOffice soffice binary")
	fs.StringVar(&f.browser, "browser", "", "Path to the Chrome/Chromium binary")
	fs.StringVar(&f.timeout, "timeout", "", "Per-document conversion timeout (e.g. 90s, 2m)")
	fs.StringVar(&f.font, "font", "", "TTF font for the native converter")
}

// applyRunFlags merges explicitly set flags into the config values they
// override. --tool is not merged: unlike tools.preferred, the requested
// tool must be available, so it goes on the job instead.
func applyRunFlags(fs *flag.FlagSet, f *runFlags, s *settings) {
	cfg := s.cfg
	if fs.Changed("format") {
		cfg.Format = normalizeFormat(f.input.format)
	}
	format := cfg.Format
	if fs.Changed("source") {
		if format == "a4" {
			cfg.Source.A4 = f.input.source
		} else {
			cfg.Source.A5 = f.input.source
		}
	}
	if fs.Changed("template") {
		if format == "a4" {
			cfg.Template.A4 = f.input.template
		} else {
			cfg.Template.A5 = f.input.template
		}
	}
	if fs.Changed("output") {
		cfg.Output.Dir = f.output.dir
	}
	if fs.Changed("name") {
		if format == "a4" {
			cfg.Output.A4Name = f.output.name
		} else {
			cfg.Output.A5Name = f.output.name
		}
	}
	if fs.Changed("soffice") {
		cfg.Tools.LibreOfficePath = f.tools.soffice
	}
	if fs.Changed("browser") {
		cfg.Tools.BrowserPath = f.tools.browser
	}
	if fs.Changed("timeout") {
		cfg.Tools.Timeout = f.tools.timeout
	}
	if fs.Changed("font") {
		cfg.Tools.FontPath = f.tools.font
	}
	if f.noHistory {
		cfg.History.Enabled = false
	}
}
