package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// YNABConfig holds the settings for the optional YNAB API upload.
type YNABConfig struct {
	BudgetID string            `mapstructure:"budget_id"`
	TokenEnv string            `mapstructure:"token_env"`
	Accounts map[string]string `mapstructure:"accounts"`
}

// Token resolves the API token from the configured environment variable.
func (y YNABConfig) Token() string {
	if y.TokenEnv == "" {
		return ""
	}
	return os.Getenv(y.TokenEnv)
}

// Config is the application configuration: run settings plus the immutable
// bank registry.
type Config struct {
	InputDir  string
	OutputDir string
	BanksFile string
	YNAB      YNABConfig

	store *Store
}

// Banks returns the loaded bank registry.
func (c *Config) Banks() *Store { return c.store }

// Build loads configuration from file, environment and flag overrides, then
// loads and validates the bank registry it points at.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("bank2ynab")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("BANK2YNAB")
	v.AutomaticEnv()

	v.SetDefault("input_dir", ".")
	v.SetDefault("banks_file", "banks.yml")

	if flags != nil {
		if f := flags.Lookup("input"); f != nil {
			if err := v.BindPFlag("input_dir", f); err != nil {
				return nil, err
			}
		}
		if f := flags.Lookup("output"); f != nil {
			if err := v.BindPFlag("output_dir", f); err != nil {
				return nil, err
			}
		}
		if f := flags.Lookup("banks"); f != nil {
			if err := v.BindPFlag("banks_file", f); err != nil {
				return nil, err
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// A missing default config file is fine, an explicit one is not.
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		InputDir:  v.GetString("input_dir"),
		OutputDir: v.GetString("output_dir"),
		BanksFile: v.GetString("banks_file"),
	}
	if err := v.UnmarshalKey("ynab", &cfg.YNAB); err != nil {
		return nil, fmt.Errorf("failed to parse ynab config: %w", err)
	}

	store, err := LoadBanks(cfg.BanksFile)
	if err != nil {
		return nil, err
	}
	cfg.store = store
	return cfg, nil
}
