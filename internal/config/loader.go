package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/jmagar/rift-cli/internal/model"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "RIFT_"

// Load builds a Config by layering, low to high precedence:
//  1. Defaults()
//  2. the YAML file named by --config or RIFT_CONFIG
//  3. env (prefix RIFT_, e.g. RIFT_OUT_PATH -> out_path)
//  4. explicit command-line flags
//
// args may be nil.
func Load(args *model.Args) (*model.Config, error) {
	k := koanf.New(".")

	path := os.Getenv(envPrefix + "CONFIG")
	if args != nil && args.Config != "" {
		path = args.Config
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := Defaults()
	// Slices decode element-wise into existing values; start empty so a
	// shorter list from file or env replaces the default instead of merging.
	excluded := cfg.ExcludedIDs
	cfg.ExcludedIDs = nil
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if cfg.ExcludedIDs == nil {
		cfg.ExcludedIDs = excluded
	}

	if args != nil {
		if args.OutPath != "" {
			cfg.OutPath = args.OutPath
		}
		if args.LogLevel != "" {
			cfg.LogLevel = args.LogLevel
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func Validate(cfg *model.Config) error {
	switch {
	case strings.TrimSpace(cfg.OutPath) == "":
		return fmt.Errorf("%w: out_path must not be empty", ErrInvalidConfig)
	case cfg.NavigationURL == "" || cfg.DetailBaseURL == "":
		return fmt.Errorf("%w: navigation_url and detail_base_url are required", ErrInvalidConfig)
	case cfg.AudioDelayMS < 0:
		return fmt.Errorf("%w: audio_delay_ms must be >= 0, got %d", ErrInvalidConfig, cfg.AudioDelayMS)
	case cfg.HTTPTimeoutS <= 0:
		return fmt.Errorf("%w: http_timeout_s must be > 0, got %d", ErrInvalidConfig, cfg.HTTPTimeoutS)
	case cfg.RatePerSec <= 0 || cfg.RateBurst <= 0:
		return fmt.Errorf("%w: rate_per_sec and rate_burst must be > 0", ErrInvalidConfig)
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, cfg.LogLevel)
	}
	switch cfg.CatalogDefaultSuffix {
	case model.CatalogSuffixPlay, model.CatalogSuffixComic:
	default:
		return fmt.Errorf("%w: catalog_default_suffix must be %q or %q", ErrInvalidConfig, model.CatalogSuffixPlay, model.CatalogSuffixComic)
	}
	return nil
}
