package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/biomarker-engine/pkg/types"
)

const envPrefix = "BIOMARKER_ENGINE"

// loadConfig reads cfgFile, or biomarker-engine.yaml from the working
// directory or ~/.config/biomarker-engine/, layers BIOMARKER_ENGINE_*
// environment variables over it, and fills in defaults. A missing config
// file is not an error. It returns the file used, if any.
func loadConfig(cfgFile string) (types.Config, string, error) {
	v := viper.New()
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return types.Config{}, "", fmt.Errorf("reading config: %w", err)
		}
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("biomarker-engine")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "biomarker-engine"))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, "", fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, "", fmt.Errorf("decoding config: %w", err)
	}
	return cfg, v.ConfigFileUsed(), nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8085)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.temp_dir", os.TempDir())
	v.SetDefault("server.max_upload_bytes", 32<<20)
	v.SetDefault("server.cache_size", 128)
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.api_key", "")

	// Extraction
	v.SetDefault("extraction.backend", string(types.BackendAuto))
	v.SetDefault("extraction.container_image", "markitdown:latest")
	v.SetDefault("extraction.table", "")

	// Acquisition
	v.SetDefault("acquisition.timeout", "60s")
	v.SetDefault("acquisition.user_agent", "biomarker-engine/"+version)
	v.SetDefault("acquisition.max_retries", 5)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
}
