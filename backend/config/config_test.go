package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	t.Setenv("DB_DRIVER", "")
	os.Unsetenv("DB_DRIVER")

	Convey("Given no overrides", t, func() {
		cfg, err := LoadConfig()

		Convey("Then defaults are used", func() {
			So(err, ShouldBeNil)
			So(cfg.DBDriver, ShouldEqual, "postgres")
			So(cfg.ServerPort, ShouldEqual, "8080")
			So(cfg.TokenTTL, ShouldEqual, 720*time.Hour)
			So(cfg.StatsMode, ShouldEqual, "incremental")
			So(cfg.SeedDemoData, ShouldBeFalse)
		})
	})
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "/tmp/eroz-test.db")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("STATS_MODE", "rebuild")
	t.Setenv("SEED_DEMO_DATA", "true")
	t.Setenv("SEED_RANDOM", "7")

	Convey("Given environment overrides", t, func() {
		cfg, err := LoadConfig()

		Convey("Then they win over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.DBDriver, ShouldEqual, "sqlite")
			So(cfg.DBPath, ShouldEqual, "/tmp/eroz-test.db")
			So(cfg.TokenTTL, ShouldEqual, 2*time.Hour)
			So(cfg.StatsMode, ShouldEqual, "rebuild")
			So(cfg.SeedDemoData, ShouldBeTrue)
			So(cfg.SeedRandom, ShouldEqual, int64(7))
		})
	})
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eroz.yaml")
	yamlContent := `
server_port: "9090"
log_level: debug
jwt_secret: from-file
`
	if err := os.WriteFile(path, []byte(yamlContent), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigFileEnv, path)
	t.Setenv("JWT_SECRET", "from-env")

	Convey("Given a YAML file and an env override", t, func() {
		cfg, err := LoadConfig()

		Convey("Then the file applies and env takes precedence", func() {
			So(err, ShouldBeNil)
			So(cfg.ServerPort, ShouldEqual, "9090")
			So(cfg.LogLevel, ShouldEqual, "debug")
			So(cfg.JWTSecret, ShouldEqual, "from-env")
		})
	})
}

func TestLoadConfigInvalid(t *testing.T) {
	Convey("Given invalid settings", t, func() {
		Convey("An unknown driver is rejected", func() {
			cfg := Default()
			cfg.DBDriver = "mysql"
			So(errors.Is(cfg.Validate(), ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("An unknown stats mode is rejected", func() {
			cfg := Default()
			cfg.StatsMode = "lazy"
			So(errors.Is(cfg.Validate(), ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("A missing config file fails to load", func() {
			t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "missing.yaml"))
			_, err := LoadConfig()
			So(errors.Is(err, ErrLoadConfig), ShouldBeTrue)
		})
	})
}
