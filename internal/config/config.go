package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Ledger LedgerConfig `mapstructure:"ledger"`
	Alerts AlertsConfig `mapstructure:"alerts"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LedgerConfig struct {
	DataDir        string `mapstructure:"data_dir"`
	VerifyInterval string `mapstructure:"verify_interval"`
}

type AlertsConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	SlackWebhook string `mapstructure:"slack_webhook"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if expanded := os.ExpandEnv(val); expanded != val {
			v.Set(key, expanded)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Ledger.DataDir == "" {
		return fmt.Errorf("ledger.data_dir is required")
	}

	if c.Ledger.VerifyInterval != "" {
		if _, err := time.ParseDuration(c.Ledger.VerifyInterval); err != nil {
			return fmt.Errorf("invalid ledger.verify_interval: %w", err)
		}
	}

	// Default the listen address if not specified
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}

	if c.Alerts.Enabled && c.Alerts.SlackWebhook == "" {
		return fmt.Errorf("alerts.slack_webhook is required when alerts are enabled")
	}

	return nil
}

// LedgerPath is the snapshot file holding the chain and document index.
func (l *LedgerConfig) LedgerPath() string {
	return filepath.Join(l.DataDir, "ledger.json")
}

// DocumentsPath is the bbolt database holding the document archive.
func (l *LedgerConfig) DocumentsPath() string {
	return filepath.Join(l.DataDir, "documents.db")
}

// VerifyIntervalDuration returns the parsed interval, or zero when the
// periodic monitor is disabled.
func (l *LedgerConfig) VerifyIntervalDuration() time.Duration {
	if l.VerifyInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(l.VerifyInterval)
	if err != nil {
		return 0
	}
	return d
}
