// Package config loads service configuration from the environment and an
// optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Config holds configuration values for the pool service.
type Config struct {
	Addr            string
	LogLevel        string
	LogFormat       string
	QuoteAsset      common.Address
	EventsPath      string
	PostgresDSN     string
	ShutdownTimeout time.Duration
}

// Load merges an optional config file and TSWAP_* environment variables into
// a Config. The quote asset is the only required setting.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TSWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", ":1337")
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "text")
	v.SetDefault("events-path", "")
	v.SetDefault("pg-dsn", "")
	v.SetDefault("shutdown-timeout", 3*time.Second)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	quote := v.GetString("quote-asset")
	if quote == "" {
		return nil, ErrMissingQuoteAsset
	}
	if !common.IsHexAddress(quote) {
		return nil, ErrInvalidQuoteAsset
	}

	cfg := &Config{
		Addr:            v.GetString("addr"),
		LogLevel:        v.GetString("log-level"),
		LogFormat:       v.GetString("log-format"),
		QuoteAsset:      common.HexToAddress(quote),
		EventsPath:      v.GetString("events-path"),
		PostgresDSN:     v.GetString("pg-dsn"),
		ShutdownTimeout: v.GetDuration("shutdown-timeout"),
	}

	return cfg, nil
}
