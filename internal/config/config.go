package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/emiliopalmerini/garminetl/internal/util"
)

const envPrefix = "GARMINETL"

// Config holds the runtime settings shared by every command.
type Config struct {
	DataDir  string `mapstructure:"data_dir"`
	DBDir    string `mapstructure:"db_dir"`
	Schema   string `mapstructure:"schema"`
	LogLevel string `mapstructure:"log_level"`
	OTEL     OTEL   `mapstructure:"otel"`
	Serve    Serve  `mapstructure:"serve"`
}

// OTEL configures the metrics exporter.
type OTEL struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

// Serve configures the dashboard.
type Serve struct {
	Port          int     `mapstructure:"port"`
	ReferenceYear int     `mapstructure:"reference_year"`
	Coefficient   float64 `mapstructure:"coefficient"`
}

// SetDefaults registers every key so that environment variables are picked up on Unmarshal.
func SetDefaults(v *viper.Viper) error {
	dataDir, err := util.GetXDGDataDir()
	if err != nil {
		return err
	}
	dbDir, err := util.GetHealthDataDir()
	if err != nil {
		return err
	}

	v.SetDefault("data_dir", dataDir)
	v.SetDefault("db_dir", dbDir)
	v.SetDefault("schema", "")
	v.SetDefault("log_level", "info")

	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.insecure", false)

	v.SetDefault("serve.port", 8080)
	v.SetDefault("serve.reference_year", 0)
	v.SetDefault("serve.coefficient", 0.0)
	return nil
}

// Load reads the optional config file and the GARMINETL_* environment on top of the
// defaults and any flags already bound to v.
func Load(v *viper.Viper) (*Config, error) {
	if err := SetDefaults(v); err != nil {
		return nil, fmt.Errorf("failed to set config defaults: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := util.GetXDGConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data_dir must not be empty")
	}
	return &cfg, nil
}
