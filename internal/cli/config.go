package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds settings shared by all commands.
type Config struct {
	Dialect string `mapstructure:"dialect"`
	Driver  string `mapstructure:"driver"`
	DSN     string `mapstructure:"dsn"`
	Format  string `mapstructure:"format"`
}

// LoadConfig resolves configuration with the precedence
// flags > env > config file > defaults.
//
// Environment variables use the UPSQL_ prefix (UPSQL_DIALECT,
// UPSQL_DRIVER, UPSQL_DSN, UPSQL_FORMAT). A .env file in the working
// directory is loaded first when present; variables already set in the
// environment win over it.
func LoadConfig(explicitConfigPath string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("UPSQL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if explicitConfigPath != "" {
		if _, err := os.Stat(explicitConfigPath); err != nil {
			return nil, fmt.Errorf("config file not found: %s", explicitConfigPath)
		}
		v.SetConfigFile(explicitConfigPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if flags != nil {
		for _, key := range []string{"dialect", "driver", "dsn", "format"} {
			if f := flags.Lookup(key); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", key, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dialect", "")
	v.SetDefault("driver", "sqlite3")
	v.SetDefault("dsn", "")
	v.SetDefault("format", "text")
}

// Provider is the provider name used to pick a generator: the dialect
// setting if present, otherwise the driver name.
func (c *Config) Provider() string {
	if c.Dialect != "" {
		return c.Dialect
	}
	return c.Driver
}
