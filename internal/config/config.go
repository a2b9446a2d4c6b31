package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every configuration key read from the environment
const EnvPrefix = "CANDID_GEN"

// Config holds the settings for a candid-gen run
type Config struct {
	// Target is the rust target canisters are compiled for.
	Target string `mapstructure:"target"`

	// TargetDir is cargo's build directory, relative to the project root
	// unless absolute.
	TargetDir string `mapstructure:"target_dir"`

	// Cargo, Rustup and Extractor are command prefixes for the external tools.
	Cargo     string `mapstructure:"cargo"`
	Rustup    string `mapstructure:"rustup"`
	Extractor string `mapstructure:"extractor"`

	// MinExtractorVersion, when set, rejects older candid-extractor releases.
	MinExtractorVersion string `mapstructure:"min_extractor_version"`

	// Timeout bounds every external command; zero disables it.
	Timeout time.Duration `mapstructure:"timeout"`

	// Home stops the project root search.
	Home string `mapstructure:"home"`

	Verbose bool `mapstructure:"verbose"`
}

// DefaultConfig returns the built-in settings
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Target:    "wasm32-unknown-unknown",
		TargetDir: "target",
		Cargo:     "cargo",
		Rustup:    "rustup",
		Extractor: "candid-extractor",
		Home:      home,
	}
}

// LoadOptions controls where configuration is read from
type LoadOptions struct {
	// ConfigFile is an optional TOML file. A missing file is an error.
	ConfigFile string

	// Flags are bound by key name; flags the user did not set fall through
	// to the environment, the file and the defaults.
	Flags *pflag.FlagSet
}

// flagKeys maps command-line flag names to configuration keys
var flagKeys = map[string]string{
	"target":  "target",
	"verbose": "verbose",
}

// Load resolves the configuration from flags, environment, file and defaults,
// in that order of precedence
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("target", defaults.Target)
	v.SetDefault("target_dir", defaults.TargetDir)
	v.SetDefault("cargo", defaults.Cargo)
	v.SetDefault("rustup", defaults.Rustup)
	v.SetDefault("extractor", defaults.Extractor)
	v.SetDefault("min_extractor_version", defaults.MinExtractorVersion)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("home", defaults.Home)
	v.SetDefault("verbose", defaults.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("target_dir", EnvPrefix+"_TARGET_DIR", "CARGO_TARGET_DIR"); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}
	if err := v.BindEnv("home", EnvPrefix+"_HOME", "HOME"); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			flag := opts.Flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration for values no run could succeed with
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Target) == "" {
		errs = append(errs, errors.New("target must not be empty"))
	}
	if strings.TrimSpace(c.Cargo) == "" {
		errs = append(errs, errors.New("cargo command must not be empty"))
	}
	if strings.TrimSpace(c.Rustup) == "" {
		errs = append(errs, errors.New("rustup command must not be empty"))
	}
	if strings.TrimSpace(c.Extractor) == "" {
		errs = append(errs, errors.New("extractor command must not be empty"))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
