package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigFileEnv names the variable pointing at an optional YAML config file.
const ConfigFileEnv = "EROZ_CONFIG"

type Config struct {
	AppName string `koanf:"app_name"`

	DBDriver   string `koanf:"db_driver"` // postgres or sqlite
	DBHost     string `koanf:"db_host"`
	DBPort     string `koanf:"db_port"`
	DBUser     string `koanf:"db_user"`
	DBPassword string `koanf:"db_password"`
	DBName     string `koanf:"db_name"`
	DBPath     string `koanf:"db_path"` // sqlite only

	JWTSecret  string        `koanf:"jwt_secret"`
	TokenTTL   time.Duration `koanf:"token_ttl"`
	ServerPort string        `koanf:"server_port"`

	LogFormat string `koanf:"log_format"`
	LogLevel  string `koanf:"log_level"`

	StatsMode    string `koanf:"stats_mode"` // incremental or rebuild
	SeedDemoData bool   `koanf:"seed_demo_data"`
	SeedRandom   int64  `koanf:"seed_random"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		AppName:    "eroz",
		DBDriver:   "postgres",
		DBHost:     "localhost",
		DBPort:     "5432",
		DBUser:     "postgres",
		DBPassword: "postgres",
		DBName:     "eroz",
		DBPath:     "eroz.db",
		JWTSecret:  "secret",
		TokenTTL:   30 * 24 * time.Hour,
		ServerPort: "8080",
		LogFormat:  "json",
		LogLevel:   "info",
		StatsMode:  "incremental",
		SeedRandom: 42,
	}
}

// LoadConfig layers defaults, an optional YAML file and the environment
// (including a .env file when present), lowest precedence first.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	k := koanf.New(".")

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// DB_HOST -> db_host, matching the koanf tags.
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("%w: db_driver %q, want postgres or sqlite", ErrInvalidConfig, c.DBDriver)
	}
	if c.DBDriver == "sqlite" && c.DBPath == "" {
		return fmt.Errorf("%w: db_path must be set for sqlite", ErrInvalidConfig)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("%w: jwt_secret must not be empty", ErrInvalidConfig)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("%w: token_ttl must be positive", ErrInvalidConfig)
	}
	if c.ServerPort == "" {
		return fmt.Errorf("%w: server_port must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.StatsMode) {
	case "", "incremental", "rebuild":
	default:
		return fmt.Errorf("%w: stats_mode %q, want incremental or rebuild", ErrInvalidConfig, c.StatsMode)
	}
	return nil
}

// DSN is the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}
