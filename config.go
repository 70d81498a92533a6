package civit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds the configuration surface consumed by the download
// pipeline. Zero values mean "unspecified"; Preference() and New apply
// defaults.
type Config struct {
	// APIKey is the catalog API key. Carried for completeness; the
	// transfer path itself does not use it.
	APIKey string `json:"api_key" yaml:"api_key" toml:"api_key"`

	// Token is the optional session token, attached as a cookie at
	// client construction.
	Token string `json:"token" yaml:"token" toml:"token"`

	// BaseDirectory is the root of the destination directory tree.
	BaseDirectory string `json:"stable_diffusion_base_directory" yaml:"stable_diffusion_base_directory" toml:"stable_diffusion_base_directory"`

	// FallbackDirectory is reserved for external fallback policy when
	// BaseDirectory resolution fails. The core never reads it.
	FallbackDirectory string `json:"stable_diffusion_fallback_directory" yaml:"stable_diffusion_fallback_directory" toml:"stable_diffusion_fallback_directory"`

	// PreferredFormat is the free-text desired file format, e.g. "SafeTensor".
	PreferredFormat string `json:"model_format" yaml:"model_format" toml:"model_format"`

	// PreferredResourceType is the free-text desired file role, e.g. "PrunedModel".
	PreferredResourceType string `json:"resource_type" yaml:"resource_type" toml:"resource_type"`

	// Concurrency bounds the number of in-flight fetches and transfers.
	// Clamped to [1, MaxConcurrency]; 0 means DefaultConcurrency.
	Concurrency int `json:"concurrency" yaml:"concurrency" toml:"concurrency"`
}

// applyEnv overlays environment variables onto the config. The variable
// names match the tool's historical dotenv surface.
func (c *Config) applyEnv() {
	set := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set("api_key", &c.APIKey)
	set("token", &c.Token)
	set("stable_diffusion_base_directory", &c.BaseDirectory)
	set("stable_diffusion_fallback_directory", &c.FallbackDirectory)
	set("model_format", &c.PreferredFormat)
	set("resource_type", &c.PreferredResourceType)
	if v := os.Getenv("civitdl_concurrency"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Concurrency = n
		}
	}
}

// LoadConfig reads a configuration file based on its extension, then
// applies environment variable overrides. Supports .toml, .yaml/.yml and
// .json. A missing file is not an error: the environment and defaults
// stand alone.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env only
		case err != nil:
			return cfg, err
		default:
			switch ext := strings.ToLower(filepath.Ext(path)); ext {
			case ".toml":
				if err := toml.Unmarshal(b, &cfg); err != nil {
					return cfg, fmt.Errorf("parsing %s: %w", path, err)
				}
			case ".yaml", ".yml":
				if err := yaml.Unmarshal(b, &cfg); err != nil {
					return cfg, fmt.Errorf("parsing %s: %w", path, err)
				}
			case ".json":
				if err := json.Unmarshal(b, &cfg); err != nil {
					return cfg, fmt.Errorf("parsing %s: %w", path, err)
				}
			default:
				return cfg, fmt.Errorf("unsupported config extension: %s", ext)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// DefaultConfigPath returns the conventional config file location,
// <user config dir>/civitdl/civitdl.toml. Returns "" when the platform
// has no user config directory.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "civitdl", "civitdl.toml")
}

// Preference resolves the configured format and resource type into a
// concrete Preference. Unset or unrecognized text falls back to the
// engine-wide defaults (SafeTensor / PrunedModel).
func (c Config) Preference() Preference {
	pref := DefaultPreference
	if f := ParseModelFormat(c.PreferredFormat); f != FormatUnknown {
		pref.Format = f
	}
	if t := ParseResourceType(c.PreferredResourceType); t != TypeUnknown {
		pref.ResourceType = t
	}
	return pref
}

// concurrency returns the effective fan-out bound.
func (c Config) concurrency() int {
	n := c.Concurrency
	if n == 0 {
		n = DefaultConcurrency
	}
	if n < 1 {
		n = 1
	}
	if n > MaxConcurrency {
		n = MaxConcurrency
	}
	return n
}
