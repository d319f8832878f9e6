package config

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/espfs/webnav/internal/errors"
	"github.com/espfs/webnav/pkg/assets"
	"github.com/espfs/webnav/pkg/history"
	"github.com/espfs/webnav/pkg/routepath"
	"github.com/espfs/webnav/pkg/router"
)

const (
	// TOMLFileName is the preferred configuration file name.
	TOMLFileName = "webnav.toml"

	// JSONFileName is the alternative configuration file name.
	JSONFileName = "webnav.json"

	// DefaultAddress is the default listen address.
	DefaultAddress = ":8080"

	// DefaultStaticDir is the default asset directory.
	DefaultStaticDir = "dist"

	// DefaultIndex is the default index document.
	DefaultIndex = "index.html"

	// DefaultMetricsPath is the default metrics endpoint.
	DefaultMetricsPath = "/metrics"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"
)

// Environment variables read by ApplyEnv.
const (
	EnvBase    = "BASE_URL"
	EnvAddress = "WEBNAV_ADDR"
)

// Config represents the complete webnav configuration.
type Config struct {
	// Base is the path prefix the application is deployed under.
	Base string `json:"base,omitempty" toml:"base,omitempty"`

	// Address is the listen address.
	Address string `json:"address,omitempty" toml:"address,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"logLevel,omitempty" toml:"logLevel,omitempty"`

	// Static configures serving from a local directory.
	Static StaticConfig `json:"static" toml:"static"`

	// S3 configures serving from a bucket. When set it replaces Static.Dir.
	S3 *S3Config `json:"s3,omitempty" toml:"s3,omitempty"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `json:"metrics" toml:"metrics"`

	// Bridge configures the history bridge.
	Bridge BridgeConfig `json:"bridge" toml:"bridge"`

	// Routes overrides the application route table.
	Routes []router.RouteDefinition `json:"routes,omitempty" toml:"routes,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// StaticConfig contains static file serving configuration.
type StaticConfig struct {
	// Dir is the directory containing the built application.
	Dir string `json:"dir,omitempty" toml:"dir,omitempty"`

	// Index is the index document served for history fallback.
	Index string `json:"index,omitempty" toml:"index,omitempty"`

	// Manifest is the fingerprint manifest name (default: manifest.json).
	Manifest string `json:"manifest,omitempty" toml:"manifest,omitempty"`
}

// S3Config contains bucket asset source configuration.
type S3Config struct {
	Bucket       string `json:"bucket" toml:"bucket"`
	Prefix       string `json:"prefix,omitempty" toml:"prefix,omitempty"`
	Region       string `json:"region,omitempty" toml:"region,omitempty"`
	Endpoint     string `json:"endpoint,omitempty" toml:"endpoint,omitempty"`
	UsePathStyle bool   `json:"usePathStyle,omitempty" toml:"usePathStyle,omitempty"`
}

// MetricsConfig contains metrics endpoint configuration.
type MetricsConfig struct {
	// Disabled turns the endpoint off.
	Disabled bool `json:"disabled,omitempty" toml:"disabled,omitempty"`

	// Path is where metrics are served.
	Path string `json:"path,omitempty" toml:"path,omitempty"`
}

// BridgeConfig contains history bridge timeouts as duration strings
// (e.g., "5s").
type BridgeConfig struct {
	HandshakeTimeout string `json:"handshakeTimeout,omitempty" toml:"handshakeTimeout,omitempty"`
	WriteTimeout     string `json:"writeTimeout,omitempty" toml:"writeTimeout,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the configuration file in dir. A directory without one
// yields the defaults.
func Load(dir string) (*Config, error) {
	for _, name := range []string{TOMLFileName, JSONFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		} else if !stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.New(errors.CodeConfigFile).WithDetailf("%s", path).Wrap(err)
		}
	}
	return New(), nil
}

// LoadFile reads a configuration file. The format is chosen by extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigFile).
				WithDetail("no configuration file at " + path).
				WithSuggestion("Create " + TOMLFileName + " or omit --config to use the defaults")
		}
		return nil, errors.New(errors.CodeConfigFile).Wrap(err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, errors.New(errors.CodeConfigFile).
				WithDetail("failed to parse " + path + ": " + err.Error()).
				WithSuggestion("Check that " + filepath.Base(path) + " is valid TOML")
		}
		for _, key := range md.Undecoded() {
			slog.Default().Warn("unknown configuration key", "file", path, "key", key.String())
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.New(errors.CodeConfigFile).
				WithDetail("failed to parse " + path + ": " + err.Error()).
				WithSuggestion("Check that " + filepath.Base(path) + " is valid JSON")
		}
	default:
		return nil, errors.New(errors.CodeConfigFile).
			WithDetailf("unsupported configuration format %q", filepath.Ext(path)).
			WithSuggestion("Use a .toml or .json file")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration back to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.KindConfiguration, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path, as TOML or JSON by extension.
func (c *Config) SaveTo(path string) error {
	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return errors.New(errors.CodeConfigFile).Wrap(err)
		}
	default:
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return errors.New(errors.CodeConfigFile).Wrap(err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.New(errors.CodeConfigFile).Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path the configuration was loaded from, if any.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the configuration file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// ApplyEnv applies environment overrides. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v, ok := lookup(getenv, EnvBase); ok {
		c.Base = v
	}
	if v, ok := lookup(getenv, EnvAddress); ok {
		c.Address = v
	}
}

func lookup(getenv func(string) string, key string) (string, bool) {
	v := strings.TrimSpace(getenv(key))
	return v, v != ""
}

func (c *Config) applyDefaults() {
	if c.Address == "" {
		c.Address = DefaultAddress
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Static.Dir == "" {
		c.Static.Dir = DefaultStaticDir
	}
	if c.Static.Index == "" {
		c.Static.Index = DefaultIndex
	}
	if c.Static.Manifest == "" {
		c.Static.Manifest = assets.ManifestName
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Bridge.HandshakeTimeout == "" {
		c.Bridge.HandshakeTimeout = "5s"
	}
	if c.Bridge.WriteTimeout == "" {
		c.Bridge.WriteTimeout = "10s"
	}
}

// Validate checks the base path, route table, asset source, and timeouts.
func (c *Config) Validate() error {
	if _, err := routepath.NormalizeBase(c.Base); err != nil {
		return errors.New(errors.CodeInvalidBase).WithDetailf("%q", c.Base).Wrap(err)
	}
	if len(c.Routes) > 0 {
		if err := router.RegistryFrom(c.Routes).Validate(); err != nil {
			return err
		}
	}
	if c.S3 != nil && strings.TrimSpace(c.S3.Bucket) == "" {
		return errors.New(errors.CodeInvalidAssets).WithDetail("s3.bucket is empty")
	}
	if c.S3 == nil && c.Static.Dir == "" {
		return errors.New(errors.CodeInvalidAssets).WithDetail("static.dir is empty")
	}
	if strings.ContainsAny(c.Static.Index, `/\`) || c.Static.Index == "" {
		return errors.New(errors.CodeInvalidAssets).WithDetailf("static.index %q must be a file name", c.Static.Index)
	}
	if _, err := c.SocketConfig(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// StaticPath returns the asset directory, resolved against the config
// file's directory when relative.
func (c *Config) StaticPath() string {
	if filepath.IsAbs(c.Static.Dir) || c.configPath == "" {
		return c.Static.Dir
	}
	return filepath.Join(c.Dir(), c.Static.Dir)
}

// SocketConfig returns the parsed bridge timeouts.
func (c *Config) SocketConfig() (history.SocketConfig, error) {
	sc := history.DefaultSocketConfig()
	for _, d := range []struct {
		field string
		raw   string
		dst   *time.Duration
	}{
		{"bridge.handshakeTimeout", c.Bridge.HandshakeTimeout, &sc.HandshakeTimeout},
		{"bridge.writeTimeout", c.Bridge.WriteTimeout, &sc.WriteTimeout},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil || v <= 0 {
			return sc, errors.New(errors.CodeConfigFile).
				WithDetailf("%s %q is not a positive duration", d.field, d.raw).
				WithSuggestion(`Use a Go duration such as "5s" or "250ms"`)
		}
		*d.dst = v
	}
	return sc, nil
}

// Level returns the configured log level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, errors.New(errors.CodeConfigFile).
			WithDetailf("logLevel %q", c.LogLevel).
			WithSuggestion("Use debug, info, warn, or error")
	}
	return level, nil
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return Load(wd)
}
