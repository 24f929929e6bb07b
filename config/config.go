// Package config reads and writes hive.yml, the settings file shared by the
// hive command's subcommands.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xiam/hive/codegen"
	"github.com/xiam/hive/macro"
)

// FileName is the name the hive command looks for in the working directory.
const FileName = "hive.yml"

// Config holds the settings of a project.
type Config struct {
	// Path is the absolute path the configuration was loaded from. It is
	// empty for defaults.
	Path string `yaml:"-"`

	SearchPaths []string `yaml:"search_paths,omitempty"`
	MacroDepth  int      `yaml:"macro_depth"`
	Target      string   `yaml:"target"`
	History     string   `yaml:"history,omitempty"`
	Verbose     bool     `yaml:"verbose"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		MacroDepth: macro.DefaultMaxDepth,
		Target:     codegen.Python.String(),
		History:    "~/.hive_history",
	}
}

// Load parses the file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: open %s: %w", abs, err)
	}
	defer file.Close()

	conf := Default()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(conf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", abs, err)
	}
	conf.Path = abs

	if err := conf.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", abs, err)
	}
	conf.resolve()
	return conf, nil
}

func (c *Config) validate() error {
	if c.MacroDepth <= 0 {
		return fmt.Errorf("macro_depth must be positive, got %d", c.MacroDepth)
	}
	if _, err := codegen.ParseTarget(c.Target); err != nil {
		return fmt.Errorf("target: %w", err)
	}
	for i, p := range c.SearchPaths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("search_paths[%d] must not be empty", i)
		}
	}
	return nil
}

// resolve makes search paths relative to the configuration's directory and
// expands a leading ~ in the history path.
func (c *Config) resolve() {
	dir := filepath.Dir(c.Path)
	for i, p := range c.SearchPaths {
		p = expandHome(p)
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		c.SearchPaths[i] = filepath.Clean(p)
	}
	c.History = expandHome(c.History)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}

// HistoryFile returns the REPL history path with a leading ~ expanded.
func (c *Config) HistoryFile() string {
	return expandHome(c.History)
}

// CodegenTarget returns the configured default target.
func (c *Config) CodegenTarget() codegen.Target {
	target, err := codegen.ParseTarget(c.Target)
	if err != nil {
		return codegen.Python
	}
	return target
}

// Write stores c at path.
func Write(c *Config, path string) error {
	if c == nil {
		return fmt.Errorf("config: nil config")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: resolve %s: %w", path, err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: marshal %s: %w", abs, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("config: encoder close: %w", err)
	}
	if err := os.WriteFile(abs, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", abs, err)
	}
	return nil
}
