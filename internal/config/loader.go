package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".autoimport"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for autoimport settings.
const envPrefix = "AUTOIMPORT"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	if used := viperCfg.ConfigFileUsed(); used != "" && readErr == nil {
		data, err := os.ReadFile(used)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		schemaErr := ValidateDocument(data)
		if schemaErr != nil {
			return nil, fmt.Errorf("validate %s: %w", used, schemaErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("imports", []map[string]any{})
	viperCfg.SetDefault("merge_existing", DefaultMergeExisting)
	viperCfg.SetDefault("inject_at_end", DefaultInjectAtEnd)
	viperCfg.SetDefault("collect_meta", DefaultCollectMeta)
	viperCfg.SetDefault("max_source_size", DefaultMaxSourceSize)
	viperCfg.SetDefault("extensions", DefaultExtensions())

	viperCfg.SetDefault("log.level", DefaultLogLevel)
	viperCfg.SetDefault("log.json", DefaultLogJSON)
}
