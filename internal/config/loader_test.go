package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmagar/rift-cli/internal/config"
	"github.com/jmagar/rift-cli/internal/model"
	"github.com/smartystreets/goconvey/convey"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rift.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(nil)

			convey.Convey("Then the built-in values apply", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.OutPath, convey.ShouldEqual, model.DefaultOutPath)
				convey.So(cfg.NavigationURL, convey.ShouldEqual, model.NavigationURL)
				convey.So(cfg.ExcludedIDs, convey.ShouldResemble, []string{"info-hub", "lol-patch-notes"})
				convey.So(cfg.AudioDelayMS, convey.ShouldEqual, 100)
				convey.So(cfg.CatalogDefaultSuffix, convey.ShouldEqual, model.CatalogSuffixComic)
			})
		})

		convey.Convey("When a YAML file is given", func() {
			path := writeConfigFile(t, `
out_path: /tmp/rift-assets
audio_delay_ms: 250
excluded_ids: [only-this]
catalog_default_suffix: "WebGLBuild/StreamingAssets/aa/catalog.bin"
`)
			cfg, err := config.Load(&model.Args{Config: path})

			convey.Convey("Then it overrides the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.OutPath, convey.ShouldEqual, "/tmp/rift-assets")
				convey.So(cfg.AudioDelayMS, convey.ShouldEqual, 250)
				convey.So(cfg.ExcludedIDs, convey.ShouldResemble, []string{"only-this"})
				convey.So(cfg.CatalogDefaultSuffix, convey.ShouldEqual, model.CatalogSuffixPlay)
			})
		})

		convey.Convey("When env vars and flags are both set", func() {
			t.Setenv("RIFT_OUT_PATH", "from-env")
			t.Setenv("RIFT_HTTP_TIMEOUT_S", "5")
			t.Setenv("RIFT_LOG_LEVEL", "debug")
			t.Setenv("RIFT_GOTIFY_URL", "https://push.example")

			cfg, err := config.Load(&model.Args{LogLevel: "warn"})

			convey.Convey("Then env beats defaults and flags beat env", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.OutPath, convey.ShouldEqual, "from-env")
				convey.So(cfg.HTTPTimeoutS, convey.ShouldEqual, 5)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "warn")
				convey.So(cfg.GotifyURL, convey.ShouldEqual, "https://push.example")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_, err := config.Load(&model.Args{Config: filepath.Join(t.TempDir(), "missing.yaml")})

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a value is out of range", func() {
			path := writeConfigFile(t, "audio_delay_ms: -1\n")
			_, err := config.Load(&model.Args{Config: path})

			convey.Convey("Then validation rejects it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestValidateLogLevel(t *testing.T) {
	cfg := config.Defaults()
	cfg.LogLevel = "loud"
	if err := config.Validate(cfg); !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	cfg.LogLevel = "WARN"
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("uppercase level rejected: %v", err)
	}
}
