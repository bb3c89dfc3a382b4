package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/adrg/xdg"
	"github.com/jamesainslie/tidy/pkg/tidy/hasher"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size" yaml:"max_size"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	Daily      bool   `mapstructure:"daily" yaml:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level" yaml:"level"`
	Path       string            `mapstructure:"path" yaml:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation" yaml:"rotation"`
	Components map[string]string `mapstructure:"components" yaml:"components,omitempty"`
}

// JournalConfig configures the per-run operation journal.
type JournalConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Path      string `mapstructure:"path" yaml:"path"`
	KeepDays  int    `mapstructure:"keep_days" yaml:"keep_days"`
	MaxFiles  int    `mapstructure:"max_files" yaml:"max_files"`
	ErrorDays int    `mapstructure:"error_days" yaml:"error_days"`
}

// ManifestConfig configures run history.
type ManifestConfig struct {
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled"`
	Path          string `mapstructure:"path" yaml:"path"`
	RetentionDays int    `mapstructure:"retention_days" yaml:"retention_days"`
}

// HashConfig selects the content digest.
type HashConfig struct {
	Algorithm string `mapstructure:"algorithm" yaml:"algorithm"`
}

// Config represents the application configuration.
type Config struct {
	DefaultDirectory   string           `mapstructure:"default_directory" yaml:"default_directory"`
	DryRun             bool             `mapstructure:"dry_run" yaml:"dry_run"`
	Confirm            bool             `mapstructure:"confirm" yaml:"confirm"`
	ScanSubdirectories bool             `mapstructure:"scan_subdirectories" yaml:"scan_subdirectories"`
	UseTrash           bool             `mapstructure:"use_trash" yaml:"use_trash"`
	Hash               HashConfig       `mapstructure:"hash" yaml:"hash"`
	Categories         []types.Category `mapstructure:"categories" yaml:"categories"`
	Logging            LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Journal            JournalConfig    `mapstructure:"journal" yaml:"journal"`
	Manifest           ManifestConfig   `mapstructure:"manifest" yaml:"manifest"`
}

// Configure prepares v to read tidy's configuration. When file is empty
// the standard locations are searched:
//   - $XDG_CONFIG_HOME/tidy/config.yaml
//   - $HOME/.config/tidy/config.yaml
//
// Environment variables are prefixed with TIDY_ (e.g., TIDY_DRY_RUN). A
// missing config file is not an error.
func Configure(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
		if !slices.Contains(viper.SupportedExts, strings.TrimPrefix(filepath.Ext(file), ".")) {
			v.SetConfigType("yaml")
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			v.AddConfigPath(filepath.Join(xdgConfigHome, "tidy"))
		}
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", "tidy"))
		}
	}

	v.SetEnvPrefix("TIDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		if file != "" && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("default_directory", DefaultDirectory())
	v.SetDefault("dry_run", false)
	v.SetDefault("confirm", true)
	v.SetDefault("scan_subdirectories", false)
	v.SetDefault("use_trash", false)
	v.SetDefault("hash.algorithm", DefaultHashAlgorithm)
	v.SetDefault("categories", DefaultCategories())

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means use logging.DefaultLogPath
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)

	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.path", "") // Empty means use DefaultJournalDir
	v.SetDefault("journal.keep_days", DefaultJournalKeepDays)
	v.SetDefault("journal.max_files", DefaultJournalMaxFiles)
	v.SetDefault("journal.error_days", DefaultJournalErrorDays)

	v.SetDefault("manifest.enabled", true)
	v.SetDefault("manifest.path", "") // Empty means use DefaultManifestDir
	v.SetDefault("manifest.retention_days", DefaultRetentionDays)
}

// Load loads configuration from the standard locations and environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from file, or the standard locations when
// file is empty.
func LoadFile(file string) (*Config, error) {
	v := viper.New()
	if err := Configure(v, file); err != nil {
		return nil, err
	}
	return Decode(v)
}

// Decode unmarshals, normalizes and validates the configuration held by v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.Categories = types.NormalizeCategories(c.Categories)
	c.Hash.Algorithm = strings.ToLower(strings.TrimSpace(c.Hash.Algorithm))

	for _, p := range []*string{&c.DefaultDirectory, &c.Logging.Path, &c.Journal.Path, &c.Manifest.Path} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}

	if c.DefaultDirectory == "" {
		c.DefaultDirectory = DefaultDirectory()
	}
	if c.Journal.Path == "" {
		c.Journal.Path = DefaultJournalDir()
	}
	if c.Manifest.Path == "" {
		c.Manifest.Path = DefaultManifestDir()
	}
	return nil
}

// Validate checks the configuration. Every error wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := types.ValidateCategories(c.Categories); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := hasher.ParseAlgorithm(c.Hash.Algorithm); err != nil {
		return fmt.Errorf("%w: hash.algorithm: %w", ErrInvalidConfig, err)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %w", ErrInvalidConfig, err)
	}
	if c.Logging.Rotation.MaxSize != "" {
		if _, err := types.ParseSize(c.Logging.Rotation.MaxSize); err != nil {
			return fmt.Errorf("%w: logging.rotation.max_size: %w", ErrInvalidConfig, err)
		}
	}
	if c.Journal.KeepDays < 0 || c.Journal.MaxFiles < 0 || c.Journal.ErrorDays < 0 {
		return fmt.Errorf("%w: journal retention values must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Algorithm returns the configured hash algorithm.
func (c *Config) Algorithm() hasher.Algorithm {
	algo, err := hasher.ParseAlgorithm(c.Hash.Algorithm)
	if err != nil {
		return hasher.MD5
	}
	return algo
}

// LoggingConfig converts the logging section for logging.Init.
func (c *Config) LoggingConfig() logging.Config {
	rotation := logging.DefaultRotationConfig()
	if size, err := types.ParseSize(c.Logging.Rotation.MaxSize); err == nil && size > 0 {
		rotation.MaxSize = size
	}
	rotation.MaxAge = c.Logging.Rotation.MaxAge
	rotation.MaxBackups = c.Logging.Rotation.MaxBackups
	rotation.Daily = c.Logging.Rotation.Daily

	return logging.Config{
		Level:      c.Logging.Level,
		Path:       c.Logging.Path,
		Rotation:   rotation,
		Components: c.Logging.Components,
	}
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "tidy"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "tidy"), nil
}

// ConfigPath returns the path of the default config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// DefaultDirectory returns the user's download directory.
func DefaultDirectory() string {
	if xdg.UserDirs.Download != "" {
		return xdg.UserDirs.Download
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, "Downloads")
	}
	return "."
}

// DataDir returns $XDG_DATA_HOME/tidy/ for run history.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "tidy")
}

// StateDir returns $XDG_STATE_HOME/tidy/ for logs, journals and locks.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "tidy")
}

// DefaultJournalDir returns the directory holding per-run journals.
func DefaultJournalDir() string {
	return filepath.Join(StateDir(), "journal")
}

// DefaultManifestDir returns the directory holding run history.
func DefaultManifestDir() string {
	return filepath.Join(DataDir(), "history")
}

// DefaultLockDir returns the directory holding per-directory run locks.
func DefaultLockDir() string {
	return filepath.Join(StateDir(), "locks")
}
