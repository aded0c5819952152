package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-autoprice/internal/config"
)

// envPrefix starts every environment variable the CLI reads.
const envPrefix = "AUTOPRICE_"

// envConfig holds configuration from environment variables.
// Provides CI-friendly overrides without requiring a config file.
type envConfig struct {
	ConfigPath string        // AUTOPRICE_CONFIG: config name or path
	Format     string        // AUTOPRICE_FORMAT: a4 or a5
	OutputDir  string        // AUTOPRICE_OUTPUT_DIR: merged PDF directory
	Tool       string        // AUTOPRICE_TOOL: preferred conversion tool
	Timeout    time.Duration // AUTOPRICE_TIMEOUT: per-document conversion timeout
	LogLevel   string        // AUTOPRICE_LOG_LEVEL: debug, info, warn, error
	History    *bool         // AUTOPRICE_HISTORY: record runs (true/false)
}

// knownEnvVars lists valid AUTOPRICE_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"AUTOPRICE_CONFIG":     true,
	"AUTOPRICE_FORMAT":     true,
	"AUTOPRICE_OUTPUT_DIR": true,
	"AUTOPRICE_TOOL":       true,
	"AUTOPRICE_TIMEOUT":    true,
	"AUTOPRICE_LOG_LEVEL":  true,
	"AUTOPRICE_HISTORY":    true,
}

// loadEnvConfig reads configuration from environment variables.
// Unparseable durations and booleans are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("AUTOPRICE_CONFIG"),
		Format:     strings.ToLower(strings.TrimSpace(os.Getenv("AUTOPRICE_FORMAT"))),
		OutputDir:  os.Getenv("AUTOPRICE_OUTPUT_DIR"),
		Tool:       strings.ToLower(strings.TrimSpace(os.Getenv("AUTOPRICE_TOOL"))),
		LogLevel:   os.Getenv("AUTOPRICE_LOG_LEVEL"),
	}

	if timeout := os.Getenv("AUTOPRICE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if history := os.Getenv("AUTOPRICE_HISTORY"); history != "" {
		if b, err := strconv.ParseBool(history); err == nil {
			cfg.History = &b
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized AUTOPRICE_* variables.
// Helps catch typos like AUTOPRICE_OUTPUTDIR instead of AUTOPRICE_OUTPUT_DIR.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, envPrefix) {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// The config already carries file values on top of defaults, so a set
// variable always wins; CLI flags are applied afterwards by applyRunFlags.
// This ensures: CLI flags > env vars > config file > defaults
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Format != "" {
		cfg.Format = normalizeFormat(env.Format)
	}
	if env.OutputDir != "" {
		cfg.Output.Dir = env.OutputDir
	}
	if env.Tool != "" {
		cfg.Tools.Preferred = env.Tool
	}
	if env.Timeout > 0 {
		cfg.Tools.Timeout = env.Timeout.String()
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.History != nil {
		cfg.History.Enabled = *env.History
	}
}
