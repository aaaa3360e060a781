// Package config loads the runner configuration from devtask.toml and the
// DEVTASK_* environment variables.
package config

import (
	"path/filepath"
	"strings"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Config describes all configuration options
type Config struct {
	Log struct {
		Level string `default:"info" usage:"Log verbosity (debug, info, warn, error)"`
		File  string `usage:"Also write all log messages to this file"`
		JSON  bool   `default:"false" usage:"Output newline-delimited JSON instead of pretty console messages"`
	}
	Tools struct {
		Python  string `default:"python3" usage:"Python interpreter"`
		Isort   string `default:"isort" usage:"Import sorter"`
		Black   string `default:"black" usage:"Code formatter"`
		Vulture string `default:"vulture" usage:"Dead code detector"`
		Pytest  string `default:"pytest" usage:"Test runner"`
	}
	Manifest  string   `default:"requirements-dev.in" usage:"Requirements file passed to pip install -r"`
	Whitelist string   `default:"vulture_whitelist.py" usage:"Dead code whitelist written by the test target"`
	CacheDirs []string `default:".mypy_cache,.pytest_cache" usage:"Cache directories removed by the clean target"`
}

var logLevels = map[string]zerolog.Level{
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
}

// Loader initializes an empty config object and returns a new Loader for
// this object. The config file is looked up at the given project root.
func Loader(root string) (*Config, *aconfig.Loader) {
	cfg := Config{}
	return &cfg, aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "DEVTASK",
		SkipFlags: true,
		Files:     []string{filepath.Join(root, "devtask.toml")},
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	})
}

// Validate verifies that all config fields have valid values
func (cfg *Config) Validate() error {
	_, ok := logLevels[cfg.Log.Level]
	if !ok {
		return eris.Errorf(`Invalid value for log.level: %s`, cfg.Log.Level)
	}

	for name, value := range map[string]string{
		"tools.python":  cfg.Tools.Python,
		"tools.isort":   cfg.Tools.Isort,
		"tools.black":   cfg.Tools.Black,
		"tools.vulture": cfg.Tools.Vulture,
		"tools.pytest":  cfg.Tools.Pytest,
		"manifest":      cfg.Manifest,
		"whitelist":     cfg.Whitelist,
	} {
		if value == "" {
			return eris.Errorf(`Invalid value for %s: must not be empty`, name)
		}
	}

	if len(cfg.CacheDirs) == 0 {
		return eris.New(`Invalid value for cachedirs: must list at least one directory`)
	}

	// Cache directories are passed to rm -rf. They have to stay inside
	// the project.
	for _, dir := range cfg.CacheDirs {
		if dir == "" || dir == "." || filepath.IsAbs(dir) || strings.Contains(dir, "..") {
			return eris.Errorf(`Invalid value for cachedirs: %q must be a relative path inside the project`, dir)
		}
	}

	return nil
}

// LogLevel converts the .Log.Level field to a zerolog.Level
func (cfg *Config) LogLevel() zerolog.Level {
	return logLevels[cfg.Log.Level]
}
