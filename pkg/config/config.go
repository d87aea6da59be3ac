package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	kjson "github.com/knadh/koanf/parsers/json"
	ktoml "github.com/knadh/koanf/parsers/toml"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pelletier/go-toml"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/panbanda/shed/pkg/models"
)

// Config holds all configuration options for shed.
type Config struct {
	// Analysis cache
	EnableCache  bool   `koanf:"enableCache" json:"enableCache" toml:"enableCache" yaml:"enableCache"`
	MaxCacheSize int    `koanf:"maxCacheSize" json:"maxCacheSize" toml:"maxCacheSize" yaml:"maxCacheSize"`
	CacheDir     string `koanf:"cacheDir" json:"cacheDir" toml:"cacheDir" yaml:"cacheDir"`

	// Batch scheduling
	ChunkSize    int  `koanf:"chunkSize" json:"chunkSize" toml:"chunkSize" yaml:"chunkSize"`
	Workers      int  `koanf:"workers" json:"workers" toml:"workers" yaml:"workers"`
	ShowProgress bool `koanf:"showProgress" json:"showProgress" toml:"showProgress" yaml:"showProgress"`

	// File discovery
	MaxFileSizeMB  float64  `koanf:"maxFileSizeMB" json:"maxFileSizeMB" toml:"maxFileSizeMB" yaml:"maxFileSizeMB"`
	IgnorePatterns []string `koanf:"ignorePatterns" json:"ignorePatterns" toml:"ignorePatterns" yaml:"ignorePatterns"`
	Extensions     []string `koanf:"extensions" json:"extensions" toml:"extensions" yaml:"extensions"`
	Gitignore      bool     `koanf:"gitignore" json:"gitignore" toml:"gitignore" yaml:"gitignore"`

	// Output
	Format string `koanf:"format" json:"format" toml:"format" yaml:"format"` // text, json, markdown, toon
	Color  bool   `koanf:"color" json:"color" toml:"color" yaml:"color"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		EnableCache:   true,
		MaxCacheSize:  1000,
		ChunkSize:     50,
		Workers:       0,
		ShowProgress:  true,
		MaxFileSizeMB: 1,
		IgnorePatterns: []string{
			"**/node_modules/**",
			"**/dist/**",
			"**/build/**",
			"**/coverage/**",
			"**/*.d.ts",
			"**/*.min.js",
		},
		Extensions: []string{".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs"},
		Gitignore:  true,
		Format:     "text",
		Color:      true,
	}
}

// MaxFileSizeBytes converts MaxFileSizeMB to bytes (0 = no limit).
func (c *Config) MaxFileSizeBytes() int64 {
	if c.MaxFileSizeMB <= 0 {
		return 0
	}
	return int64(c.MaxFileSizeMB * 1024 * 1024)
}

// Validate checks values that may have been changed after loading,
// e.g. by command-line flags.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxCacheSize < 1 {
		errs = append(errs, fmt.Errorf("maxCacheSize must be >= 1, got %d", c.MaxCacheSize))
	}
	if c.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("chunkSize must be >= 1, got %d", c.ChunkSize))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if c.MaxFileSizeMB <= 0 {
		errs = append(errs, fmt.Errorf("maxFileSizeMB must be > 0, got %g", c.MaxFileSizeMB))
	}
	switch c.Format {
	case "text", "json", "markdown", "toon":
	default:
		errs = append(errs, fmt.Errorf("format must be one of text, json, markdown, toon, got %q", c.Format))
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Errorf("extension %q must start with a dot", ext))
		}
	}
	if len(errs) > 0 {
		return &models.ConfigError{Err: errors.Join(errs...)}
	}
	return nil
}

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = err
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema.json", doc); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile("schema.json")
	})
	return schema, schemaErr
}

// validateRaw checks the parsed file against the embedded JSON schema.
func validateRaw(raw map[string]any) error {
	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return sch.Validate(inst)
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return kyaml.Parser()
	case ".json":
		return kjson.Parser()
	default:
		return ktoml.Parser()
	}
}

// Load loads configuration from a file, overlaying the defaults.
// All failures are returned as *models.ConfigError.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, &models.ConfigError{Path: path, Err: err}
	}

	if err := validateRaw(k.Raw()); err != nil {
		return nil, &models.ConfigError{Path: path, Err: err}
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, &models.ConfigError{Path: path, Err: err}
	}

	if err := cfg.Validate(); err != nil {
		var cerr *models.ConfigError
		if errors.As(err, &cerr) {
			cerr.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// Standard config file names to search for.
var configNames = []string{
	"shed.toml",
	"shed.yaml",
	"shed.yml",
	"shed.json",
	".shed.toml",
	".shed.yaml",
	".shed.yml",
	".shed.json",
}

// Find returns the first config file found in dir or dir/.shed.
func Find(dir string) (string, bool) {
	for _, sub := range []string{".", ".shed"} {
		for _, name := range configNames {
			path := filepath.Join(dir, sub, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, true
			}
		}
	}
	return "", false
}

// LoadResult is a loaded configuration and where it came from.
type LoadResult struct {
	Config *Config
	// Source is the file the config was read from, empty for defaults.
	Source string
}

type loadOptions struct {
	path string
	dir  string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads an explicit config file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithSearchDir searches dir instead of the working directory.
func WithSearchDir(dir string) LoadOption {
	return func(o *loadOptions) {
		o.dir = dir
	}
}

// LoadConfig loads an explicit config file, or the first one found in the
// search directory, or the defaults. A found but invalid file is an error.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := loadOptions{dir: "."}
	for _, opt := range opts {
		opt(&o)
	}

	path := o.path
	if path == "" {
		found, ok := Find(o.dir)
		if !ok {
			return &LoadResult{Config: DefaultConfig()}, nil
		}
		path = found
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Config: cfg, Source: path}, nil
}

// Marshal renders the config as toml, yaml or json.
func (c *Config) Marshal(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "toml", "":
		return toml.Marshal(*c)
	case "yaml", "yml":
		return yaml.Marshal(c)
	case "json":
		return json.MarshalIndent(c, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported config format: %s", format)
	}
}
