package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "FORMFIELDS"

type config struct {
	Forms    string        `mapstructure:"forms"`
	LogFile  string        `mapstructure:"log-file"`
	LogLevel string        `mapstructure:"log-level"`
	Trace    bool          `mapstructure:"trace"`
	Width    int           `mapstructure:"width"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// loadConfig merges, lowest first: flag defaults, the optional config file,
// FORMFIELDS_* environment variables and explicitly set flags.
func loadConfig(cmd *cobra.Command) (config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return config{}, fmt.Errorf("config: bind flags: %w", err)
	}

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return config{}, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}
