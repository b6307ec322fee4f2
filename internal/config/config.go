// Package config loads converter settings from a config file, the
// environment and defaults, in that order of precedence below CLI flags.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/nerdneilsfield/go-docmark/pkg/docmark"
)

// Image handling values accepted in configuration.
const (
	ImageHandlingInline  = "inline"
	ImageHandlingExtract = "extract"
	ImageHandlingSkip    = "skip"
)

// Config holds the converter settings.
type Config struct {
	Language       string `mapstructure:"language"`
	ImageHandling  string `mapstructure:"image_handling"`
	ImageOutputDir string `mapstructure:"image_output_dir"`
	Debug          bool   `mapstructure:"debug"`
}

// Load reads configuration. With an explicit path the file must exist and
// parse; otherwise .docmark.yaml is searched in the working directory and
// the home directory, and a missing file falls back to defaults.
// DOCMARK_* environment variables override file values.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("language", "")
	v.SetDefault("image_handling", ImageHandlingInline)
	v.SetDefault("image_output_dir", "images")
	v.SetDefault("debug", false)

	v.SetEnvPrefix("DOCMARK")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	} else {
		v.SetConfigName(".docmark")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.Language == "default" {
		cfg.Language = ""
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enum fields.
func (c *Config) Validate() error {
	switch c.ImageHandling {
	case ImageHandlingInline, ImageHandlingExtract, ImageHandlingSkip:
	default:
		return fmt.Errorf("invalid image_handling %q (want inline, extract or skip)", c.ImageHandling)
	}
	return nil
}

// ImageMode maps the configured string to the converter's enum.
func (c *Config) ImageMode() docmark.ImageHandling {
	switch c.ImageHandling {
	case ImageHandlingExtract:
		return docmark.ImageExtract
	case ImageHandlingSkip:
		return docmark.ImageSkip
	default:
		return docmark.ImageInline
	}
}
