package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultFile is the optional config file read from the working directory.
const DefaultFile = "diagrams.toml"

// Config holds all configuration for the application
type Config struct {
	OutputDir     string        `koanf:"output-dir"`
	Format        string        `koanf:"format"`
	Engine        string        `koanf:"engine"`
	IconDir       string        `koanf:"icon-dir"`
	RefreshIcons  bool          `koanf:"refresh-icons"`
	FetchTimeout  time.Duration `koanf:"fetch-timeout"`
	RenderTimeout time.Duration `koanf:"render-timeout"`
	Watch         bool          `koanf:"watch"`
	Port          int           `koanf:"port"`
	Publish       string        `koanf:"publish"`
	S3Region      string        `koanf:"s3-region"`
	S3Endpoint    string        `koanf:"s3-endpoint"`
	LogJSON       bool          `koanf:"log-json"`
	Verbosity     string        `koanf:"verbosity"`
	VerboseCnt    int           `koanf:"verbose"`
}

// Defaults returns the built-in values, the lowest layer.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"output-dir":     ".",
		"format":         "png",
		"engine":         "dot",
		"icon-dir":       "logos",
		"refresh-icons":  false,
		"fetch-timeout":  "10s",
		"render-timeout": "60s",
		"watch":          false,
		"port":           8080,
		"publish":        "",
		"s3-region":      "",
		"s3-endpoint":    "",
		"log-json":       false,
		"verbosity":      "",
		"verbose":        0,
	}
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
//
// path names the config file; empty means DefaultFile, which may be absent.
func Load(f *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil && explicit {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	// DIAGRAMS_OUTPUT_DIR=out sets output-dir
	if err := k.Load(env.Provider("DIAGRAMS_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "DIAGRAMS_")), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no command can work with.
func (c *Config) Validate() error {
	switch c.Format {
	case "png", "svg", "jpg", "pdf", "dot":
	default:
		return fmt.Errorf("unsupported format %q", c.Format)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch-timeout must be positive, got %s", c.FetchTimeout)
	}
	if c.RenderTimeout <= 0 {
		return fmt.Errorf("render-timeout must be positive, got %s", c.RenderTimeout)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
