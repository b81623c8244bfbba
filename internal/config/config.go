// SPDX-License-Identifier: Apache-2.0

package config

import (
	"go/token"
	"path/filepath"
	"strings"
	"time"

	"github.com/automa-saga/logx"
	"github.com/hashgraph/regsync/internal/registry"
	"github.com/joomcode/errorx"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const EnvPrefix = "REGSYNC"

// Config holds the global configuration for the application.
type Config struct {
	Log     logx.LoggingConfig `yaml:"log" json:"log" toml:"log"`
	Migrate MigrateConfig      `yaml:"migrate" json:"migrate" toml:"migrate"`
	Runner  RunnerConfig       `yaml:"runner" json:"runner" toml:"runner"`
}

// MigrateConfig represents the `migrate` configuration block: where the migrations live and how the registry is
// edited.
type MigrateConfig struct {
	Dir           string        `yaml:"dir" json:"dir" toml:"dir"`
	Receiver      string        `yaml:"receiver" json:"receiver" toml:"receiver"` // empty matches any receiver
	Method        string        `yaml:"method" json:"method" toml:"method"`
	HandleType    string        `yaml:"handleType" json:"handleType" toml:"handleType"`
	RegistryFiles []string      `yaml:"registryFiles" json:"registryFiles" toml:"registryFiles"`
	BackupSuffix  string        `yaml:"backupSuffix" json:"backupSuffix" toml:"backupSuffix"`
	UTC           bool          `yaml:"utc" json:"utc" toml:"utc"`
	Dedupe        bool          `yaml:"dedupe" json:"dedupe" toml:"dedupe"`
	LockTimeout   time.Duration `yaml:"lockTimeout" json:"lockTimeout" toml:"lockTimeout"`
	WatchDebounce time.Duration `yaml:"watchDebounce" json:"watchDebounce" toml:"watchDebounce"`
}

// RunnerConfig represents the `runner` block: the program that applies migrations for the passthrough commands.
type RunnerConfig struct {
	Command string        `yaml:"command" json:"command" toml:"command"`
	Package string        `yaml:"package" json:"package" toml:"package"`
	Timeout time.Duration `yaml:"timeout" json:"timeout" toml:"timeout"`
}

// Validate validates all configuration fields.
func (c Config) Validate() error {
	if err := c.Migrate.Validate(); err != nil {
		return err
	}
	if err := c.Runner.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate checks that the names used to locate the enumeration are Go identifiers and that the registry and backup
// file names stay inside the migration directory.
func (c MigrateConfig) Validate() error {
	if strings.TrimSpace(c.Dir) == "" {
		return errorx.IllegalArgument.New("migrate.dir cannot be empty")
	}

	if c.Receiver != "" && !token.IsIdentifier(c.Receiver) {
		return errorx.IllegalArgument.New("invalid migrate.receiver: %q", c.Receiver)
	}
	if !token.IsIdentifier(c.Method) {
		return errorx.IllegalArgument.New("invalid migrate.method: %q", c.Method)
	}
	if !token.IsIdentifier(c.HandleType) {
		return errorx.IllegalArgument.New("invalid migrate.handleType: %q", c.HandleType)
	}

	if len(c.RegistryFiles) == 0 {
		return errorx.IllegalArgument.New("migrate.registryFiles cannot be empty")
	}
	for i, name := range c.RegistryFiles {
		if name != filepath.Base(name) || filepath.Ext(name) != ".go" {
			return errorx.IllegalArgument.New("migrate.registryFiles[%d]: %q must be a .go file name without directories", i, name)
		}
	}

	if c.BackupSuffix == "" || strings.ContainsAny(c.BackupSuffix, `/\`) {
		return errorx.IllegalArgument.New("invalid migrate.backupSuffix: %q", c.BackupSuffix)
	}

	if c.LockTimeout <= 0 {
		return errorx.IllegalArgument.New("migrate.lockTimeout must be positive, got %s", c.LockTimeout)
	}
	if c.WatchDebounce < 0 {
		return errorx.IllegalArgument.New("migrate.watchDebounce cannot be negative, got %s", c.WatchDebounce)
	}

	return nil
}

// Validate validates the runner block.
func (c RunnerConfig) Validate() error {
	if strings.TrimSpace(c.Command) == "" {
		return errorx.IllegalArgument.New("runner.command cannot be empty")
	}
	if c.Timeout < 0 {
		return errorx.IllegalArgument.New("runner.timeout cannot be negative, got %s", c.Timeout)
	}
	return nil
}

// RegistryOptions converts the block into the options of the registry operations.
func (c MigrateConfig) RegistryOptions(logger *zerolog.Logger) registry.Options {
	o := registry.NewOptions(
		registry.WithMethod(c.Method),
		registry.WithHandleType(c.HandleType),
		registry.WithRegistryFiles(c.RegistryFiles...),
		registry.WithBackupSuffix(c.BackupSuffix),
		registry.WithLockTimeout(c.LockTimeout),
		registry.WithLogger(logger),
	)
	o.Receiver = c.Receiver

	return o
}

func defaultConfig() Config {
	return Config{
		Log: logx.LoggingConfig{
			Level:          "Info",
			ConsoleLogging: true,
			FileLogging:    false,
		},
		Migrate: MigrateConfig{
			Dir:           "./migration",
			Receiver:      registry.DefaultReceiver,
			Method:        registry.DefaultMethod,
			HandleType:    registry.DefaultHandleType,
			RegistryFiles: append([]string(nil), registry.DefaultRegistryFiles...),
			BackupSuffix:  registry.DefaultBackupSuffix,
			UTC:           true,
			Dedupe:        true,
			LockTimeout:   registry.DefaultLockTimeout,
			WatchDebounce: 500 * time.Millisecond,
		},
		Runner: RunnerConfig{
			Command: "go",
			Package: "./cmd",
		},
	}
}

var globalConfig = defaultConfig()

// Initialize loads the configuration from the specified file. Values missing from the file keep their defaults and
// REGSYNC_* environment variables override both, e.g. REGSYNC_MIGRATE_DIR.
//
// Parameters:
//   - path: The path to the configuration file.
//
// Returns:
//   - An error if the configuration cannot be loaded.
func Initialize(path string) error {
	if path != "" {
		cfg := defaultConfig()
		viper.Reset()
		viper.SetConfigFile(path)
		viper.SetEnvPrefix(EnvPrefix)
		viper.AutomaticEnv()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

		err := viper.ReadInConfig()
		if err != nil {
			return NotFoundError.Wrap(err, "failed to read config file: %s", path).
				WithProperty(errorx.PropertyPayload(), path)
		}

		migrateOldConfigKeys()

		if err := viper.Unmarshal(&cfg); err != nil {
			return errorx.IllegalFormat.Wrap(err, "failed to parse configuration").
				WithProperty(errorx.PropertyPayload(), path)
		}

		if err := cfg.Validate(); err != nil {
			return errorx.Decorate(err, "invalid configuration in %s", path)
		}

		globalConfig = cfg
	}

	return nil
}

// Get returns the loaded configuration.
//
// Returns:
//   - The global configuration.
func Get() Config {
	return globalConfig
}

func Set(c *Config) error {
	if c == nil {
		return errorx.IllegalArgument.New("config cannot be nil")
	}
	if err := c.Validate(); err != nil {
		return err
	}

	globalConfig = *c
	return nil
}

// Reset restores the defaults.
func Reset() {
	globalConfig = defaultConfig()
}

// OverrideMigrateConfig updates the migrate configuration with flag overrides.
// Empty string values are ignored (not applied).
func OverrideMigrateConfig(overrides MigrateConfig) {
	if overrides.Dir != "" {
		globalConfig.Migrate.Dir = overrides.Dir
	}
	if overrides.Receiver != "" {
		globalConfig.Migrate.Receiver = overrides.Receiver
	}
	if overrides.Method != "" {
		globalConfig.Migrate.Method = overrides.Method
	}
	if overrides.HandleType != "" {
		globalConfig.Migrate.HandleType = overrides.HandleType
	}
	if overrides.LockTimeout > 0 {
		globalConfig.Migrate.LockTimeout = overrides.LockTimeout
	}
}
