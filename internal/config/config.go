// Package config loads client settings from an optional fne.yaml file, a
// .env file and FNE_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/prodestic/fne-sdk-go/internal/logger"
	"github.com/prodestic/fne-sdk-go/internal/model"
	"github.com/prodestic/fne-sdk-go/internal/transport"
)

const EnvPrefix = "FNE"

// Config holds the client configuration
type Config struct {
	APIKey         string           `mapstructure:"api_key"`
	BaseURL        string           `mapstructure:"base_url"`
	TestMode       bool             `mapstructure:"test_mode"`
	Timeout        time.Duration    `mapstructure:"timeout"`
	ConnectTimeout time.Duration    `mapstructure:"connect_timeout"`
	RetryAttempts  int              `mapstructure:"retry_attempts"`
	Log            logger.LogConfig `mapstructure:"log"`
}

// Default returns the test environment settings
func Default() Config {
	return Config{
		BaseURL:        model.TestBaseURL,
		TestMode:       true,
		Timeout:        transport.DefaultTimeout,
		ConnectTimeout: transport.DefaultConnectTimeout,
		RetryAttempts:  transport.DefaultRetryAttempts,
		Log:            logger.DefaultConfig(),
	}
}

// Load reads the configuration. configFile may be empty, in which case
// fne.yaml is looked up in the working directory and $HOME/.fne; a missing
// file is not an error.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("fne")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.fne")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.TestMode {
		cfg.BaseURL = model.TestBaseURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("api_key", d.APIKey)
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("test_mode", d.TestMode)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("connect_timeout", d.ConnectTimeout)
	v.SetDefault("retry_attempts", d.RetryAttempts)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.timeformat", d.Log.TimeFormat)
	v.SetDefault("log.output", d.Log.Output)
}

// Validate checks settings that cannot be defaulted. The API key is checked
// by the client itself.
func (c *Config) Validate() error {
	if !c.TestMode && strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("config: base_url is required in production mode")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("config: connect_timeout must be positive, got %s", c.ConnectTimeout)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("config: retry_attempts must be at least 1, got %d", c.RetryAttempts)
	}
	return nil
}
