// Package config resolves packraft configuration into one immutable value.
//
// Precedence follows viper merge semantics: defaults, then the global
// config (~/.config/packraft/config.toml), then the project-local
// .packraft.toml, then PACKRAFT_* environment variables. Flags override on
// top of the loaded value in the CLI. Nothing here is re-read after load.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/packraft/packraft/pkg/errors"
)

// AppName names the config and data directories.
const AppName = "packraft"

// LocalConfigFile is the project-local config filename.
const LocalConfigFile = ".packraft.toml"

// Cache backend names accepted by the `cache.backend` key.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendNone  = "none"
)

// Config is the resolved configuration. Construct through Load and treat
// as read-only.
type Config struct {
	// Destination is the install root for `<id>.<version>` directories.
	Destination string `mapstructure:"destination"`
	// SaveMode is handed to the install executor verbatim.
	SaveMode string `mapstructure:"save_mode"`
	// ExecutablePath locates the external installer binary.
	ExecutablePath string `mapstructure:"executable_path"`
	// ArgsTemplate overrides the executor argument template.
	ArgsTemplate string `mapstructure:"args_template"`
	// Force skips the untrusted-source gate.
	Force bool `mapstructure:"force"`
	// SkipDependencies installs the requested package alone.
	SkipDependencies bool `mapstructure:"skip_dependencies"`

	// RegistryPath is the sources.toml location.
	RegistryPath string `mapstructure:"registry_path"`
	// SkipValidate disables reachability probes when resolving sources.
	SkipValidate bool `mapstructure:"skip_validate"`

	// Prerelease and Unlisted widen search results by default.
	Prerelease bool `mapstructure:"prerelease"`
	Unlisted   bool `mapstructure:"unlisted"`

	Cache CacheConfig `mapstructure:"cache"`
}

// CacheConfig selects and tunes the feed response cache.
type CacheConfig struct {
	Backend   string        `mapstructure:"backend"`
	Dir       string        `mapstructure:"dir"`
	TTL       time.Duration `mapstructure:"ttl"`
	RedisAddr string        `mapstructure:"redis_addr"`
}

// ConfigDir returns the global packraft configuration directory,
// honoring XDG_CONFIG_HOME.
func ConfigDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeConfig, err, "determining home directory")
	}
	return filepath.Join(home, ".config", AppName), nil
}

// Load resolves configuration from the standard locations and the
// PACKRAFT_* environment.
func Load() (Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return Config{}, err
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeConfig, err, "determining home directory")
	}
	return load(filepath.Join(dir, "config.toml"), LocalConfigFile, defaults(home, dir))
}

// defaults computes the built-in configuration rooted at the user's home.
func defaults(home, configDir string) Config {
	return Config{
		Destination:  filepath.Join(home, "."+AppName, "packages"),
		SaveMode:     "full",
		RegistryPath: filepath.Join(configDir, "sources.toml"),
		Cache: CacheConfig{
			Backend:   CacheBackendFile,
			Dir:       filepath.Join(home, "."+AppName, "cache"),
			TTL:       15 * time.Minute,
			RedisAddr: "localhost:6379",
		},
	}
}

// load is the explicit-path implementation, testable without touching the
// real home directory.
func load(globalPath, localPath string, def Config) (Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	v.SetDefault("destination", def.Destination)
	v.SetDefault("save_mode", def.SaveMode)
	v.SetDefault("executable_path", def.ExecutablePath)
	v.SetDefault("args_template", def.ArgsTemplate)
	v.SetDefault("registry_path", def.RegistryPath)
	v.SetDefault("cache.backend", def.Cache.Backend)
	v.SetDefault("cache.dir", def.Cache.Dir)
	v.SetDefault("cache.ttl", def.Cache.TTL)
	v.SetDefault("cache.redis_addr", def.Cache.RedisAddr)

	// Lowest file priority: the global config. A missing file is fine, a
	// malformed one is not.
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeConfig, err, "reading %s", globalPath)
		}
	}

	// Project-local overrides.
	if fileExists(localPath) {
		v.SetConfigFile(localPath)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeConfig, err, "reading %s", localPath)
		}
	}

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeConfig, err, "unmarshaling configuration")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case CacheBackendFile, CacheBackendRedis, CacheBackendNone:
		return nil
	}
	return errors.New(errors.ErrCodeConfig, "unknown cache backend %q", c.Cache.Backend)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
