// Package config resolves runtime configuration from defaults, an optional
// YAML file, RIFT_ environment variables and command-line flags.
package config

import (
	"errors"

	"github.com/alexflint/go-arg"
	"github.com/jmagar/rift-cli/internal/model"
)

// Sentinel error kinds for this package.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Defaults returns the built-in configuration.
func Defaults() *model.Config {
	return &model.Config{
		OutPath:              model.DefaultOutPath,
		LogLevel:             "info",
		NavigationURL:        model.NavigationURL,
		DetailBaseURL:        model.DetailBaseURL,
		ExcludedIDs:          append([]string(nil), model.DefaultExcludedIDs...),
		CatalogDefaultSuffix: model.CatalogSuffixComic,
		CatalogGuessUnknown:  true,
		ConverterPath:        "CatalogConverter",
		ExtractorPath:        "AssetStudioModCLI",
		AudioDelayMS:         100,
		HTTPTimeoutS:         60,
		RatePerSec:           8,
		RateBurst:            16,
		DefaultLocale:        model.DefaultLocale,
	}
}

// ParseArgs parses CLI arguments using go-arg.
func ParseArgs() *model.Args {
	var args model.Args
	arg.MustParse(&args)
	return &args
}
