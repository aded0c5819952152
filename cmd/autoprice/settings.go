package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/alnah/go-autoprice"
	"github.com/alnah/go-autoprice/internal/config"
	"github.com/alnah/go-autoprice/internal/fileutil"
	"github.com/alnah/go-autoprice/internal/logging"

	"go.uber.org/zap"
)

// defaultConfigName is looked up when neither --config nor AUTOPRICE_CONFIG is set.
const defaultConfigName = "autoprice"

// settings is the effective configuration of one command invocation.
// It is resolved once and not modified while a run is in progress.
type settings struct {
	cfg    *config.Config
	source string // file the config came from; empty = defaults
	common commonFlags
}

// loadSettings resolves defaults, the config file, environment variables
// and common flags, in increasing precedence.
func loadSettings(common commonFlags, stderr io.Writer) (*settings, error) {
	warnUnknownEnvVars(stderr)
	env := loadEnvConfig()

	name := common.config
	if name == "" {
		name = env.ConfigPath
	}
	cfg, source, err := loadConfig(name)
	if err != nil {
		return nil, err
	}
	applyEnvConfig(env, cfg)

	switch {
	case common.verbose:
		cfg.Log.Level = "debug"
	case common.quiet:
		cfg.Log.Level = "error"
	}
	if common.logFormat != "" {
		cfg.Log.Format = common.logFormat
	}
	return &settings{cfg: cfg, source: source, common: common}, nil
}

// loadConfig loads the named config. With no name, the default name is
// tried and a missing file means defaults.
func loadConfig(name string) (*config.Config, string, error) {
	explicit := name != ""
	if !explicit {
		name = defaultConfigName
	}
	cfg, err := config.LoadConfig(name)
	switch {
	case err == nil:
		return cfg, name, nil
	case !explicit && errors.Is(err, config.ErrConfigNotFound):
		return config.DefaultConfig(), "", nil
	case errors.Is(err, config.ErrConfigNotFound) && !fileutil.IsFilePath(name):
		return nil, "", &configNotFoundError{name: name, searched: config.SearchPaths(name), err: err}
	default:
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
}

// logger builds the zap logger for this invocation. Logs go to stderr.
func (s *settings) logger() (*zap.Logger, error) {
	l, err := logging.New(logging.Options{
		Level:       s.cfg.Log.Level,
		Format:      s.cfg.Log.Format,
		Development: s.common.verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidValue, err)
	}
	return l, nil
}

// normalizeFormat maps format aliases ("A4", "single", "paired") to the
// config values. Unknown values are returned as is for Validate to reject.
func normalizeFormat(s string) string {
	if m, err := autoprice.ParseFormatMode(s); err == nil {
		return string(m)
	}
	return s
}

// registry builds the tool registry from the tools section.
func (s *settings) registry() (*autoprice.Registry, error) {
	var disabled []autoprice.ToolID
	for _, name := range s.cfg.Tools.Disabled {
		id, err := autoprice.ParseToolID(name)
		if err != nil {
			return nil, fmt.Errorf("%w: tools.disabled: %v", config.ErrInvalidValue, err)
		}
		if id != "" {
			disabled = append(disabled, id)
		}
	}
	return autoprice.NewRegistry(autoprice.DetectOptions{
		LibreOfficePath: s.cfg.Tools.LibreOfficePath,
		BrowserPath:     s.cfg.Tools.BrowserPath,
		Disabled:        disabled,
	}), nil
}

// service builds the conversion service: registry, preferred tool and
// converter settings.
func (s *settings) service(logger *zap.Logger) (*autoprice.ConversionService, error) {
	reg, err := s.registry()
	if err != nil {
		return nil, err
	}
	preferred, err := autoprice.ParseToolID(s.cfg.Tools.Preferred)
	if err != nil {
		return nil, fmt.Errorf("%w: tools.preferred: %v", config.ErrInvalidValue, err)
	}
	timeout, err := s.cfg.Timeout()
	if err != nil {
		return nil, err
	}
	return autoprice.NewConversionService(reg,
		autoprice.WithLogger(logger),
		autoprice.WithPreferredTool(preferred),
		autoprice.WithToolSettings(autoprice.ToolSettings{
			Timeout:  timeout,
			FontPath: s.cfg.Tools.FontPath,
		}),
	)
}
