// Package config loads the settings of the terminology store, from a config file or the environment.
package config

import (
	"strings"

	"github.com/oneconcern/termstore/pkg/dlogger"
	"github.com/oneconcern/termstore/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes all environment variables read as settings
	EnvPrefix = "TERMSTORE"

	// FileName is the base name of the config file, without extension
	FileName = "termstore"

	// EnvConfigFile points to an explicit config file
	EnvConfigFile = "TERMSTORE_CONFIG"
)

// Setting keys
const (
	KeyRepository       = "repository"
	KeyStoreDir         = "store_dir"
	KeyLogLevel         = "log_level"
	KeyCommitThreshold  = "commit_threshold"
	KeyCommitOnClose    = "commit_on_close"
	KeyMetricsEnabled   = "metrics.enabled"
	KeyMetricsNamespace = "metrics.namespace"
	KeyCacheSize        = "cache_size"
)

// ErrInvalidSettings is returned when settings fail validation
var ErrInvalidSettings = errors.New("invalid settings")

// Settings of the terminology store
type Settings struct {
	Repository      string  `json:"repository" yaml:"repository" mapstructure:"repository"`
	StoreDir        string  `json:"store_dir" yaml:"store_dir" mapstructure:"store_dir"` // empty for an in-memory store
	LogLevel        string  `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	CommitThreshold int     `json:"commit_threshold" yaml:"commit_threshold" mapstructure:"commit_threshold"`
	CommitOnClose   bool    `json:"commit_on_close" yaml:"commit_on_close" mapstructure:"commit_on_close"`
	CacheSize       int     `json:"cache_size" yaml:"cache_size" mapstructure:"cache_size"`
	Metrics         Metrics `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
}

// Metrics settings
type Metrics struct {
	Enabled   bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Namespace string `json:"namespace" yaml:"namespace" mapstructure:"namespace"`
}

// Defaults yields the default settings
func Defaults() Settings {
	return Settings{
		Repository:      "terminology",
		LogLevel:        dlogger.LogLevelInfo,
		CommitThreshold: 1000,
		CacheSize:       1024,
		Metrics: Metrics{
			Namespace: "termstore",
		},
	}
}

// SetDefaults registers default settings on a viper instance
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault(KeyRepository, d.Repository)
	v.SetDefault(KeyStoreDir, d.StoreDir)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyCommitThreshold, d.CommitThreshold)
	v.SetDefault(KeyCommitOnClose, d.CommitOnClose)
	v.SetDefault(KeyCacheSize, d.CacheSize)
	v.SetDefault(KeyMetricsEnabled, d.Metrics.Enabled)
	v.SetDefault(KeyMetricsNamespace, d.Metrics.Namespace)
}

// New builds a viper instance with defaults, reading TERMSTORE_* environment variables.
//
// Nested keys are read from the environment with "_" in place of ".", e.g. TERMSTORE_METRICS_ENABLED.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadConfigFile locates and reads the config file, if any.
//
// An explicit file is used when set, otherwise "termstore.yaml" is searched in the current
// directory, then $HOME/.termstore and /etc/termstore. A missing config file is not an error.
// The path of the file used is returned.
func ReadConfigFile(v *viper.Viper, explicit string) (string, error) {
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.termstore")
		v.AddConfigPath("/etc/termstore")
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", err
	}
	return v.ConfigFileUsed(), nil
}

// Load settings from a viper instance
func Load(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, ErrInvalidSettings.Wrap(err)
	}
	return s, s.Validate()
}

// Validate settings
func (s Settings) Validate() error {
	if s.Repository == "" {
		return ErrInvalidSettings.WrapMessage("%s is required", KeyRepository)
	}
	if s.CacheSize < 0 {
		return ErrInvalidSettings.WrapMessage("%s must not be negative", KeyCacheSize)
	}
	switch s.LogLevel {
	case "", dlogger.LogLevelNone, dlogger.LogLevelDebug, dlogger.LogLevelInfo, dlogger.LogLevelWarn, dlogger.LogLevelError:
	default:
		return ErrInvalidSettings.WrapMessage("unknown %s %q", KeyLogLevel, s.LogLevel)
	}
	return nil
}

// InMemory tells if the store is not persisted
func (s Settings) InMemory() bool {
	return s.StoreDir == ""
}
