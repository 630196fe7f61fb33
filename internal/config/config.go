// Package config loads settings from defaults, an optional YAML file and
// the environment (highest priority). .env.local and .env are read first.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const ConfigPathEnvVar = "CONFIG_PATH"

var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Store    StoreConfig    `koanf:"store"`
	Auth     AuthConfig     `koanf:"auth"`
	Auth0    Auth0Config    `koanf:"auth0"`
	Supabase SupabaseConfig `koanf:"supabase"`
	TMDB     TMDBConfig     `koanf:"tmdb"`
	RAWG     RAWGConfig     `koanf:"rawg"`
	Demo     DemoConfig     `koanf:"demo"`
	Log      LogConfig      `koanf:"log"`
	Search   SearchConfig   `koanf:"search"`
	Cache    CacheConfig    `koanf:"cache"`
}

type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	CORSOrigins  string        `koanf:"cors_origins"` // comma separated
	RateLimit    int           `koanf:"rate_limit"`   // requests per minute per IP, 0 disables
	StaticDir    string        `koanf:"static_dir"`   // built web client, empty disables
}

type DatabaseConfig struct {
	Driver string `koanf:"driver"` // "sqlite" or "postgres"
	DSN    string `koanf:"dsn"`
}

type StoreConfig struct {
	Backend string        `koanf:"backend"` // "sql" or "postgrest"
	URL     string        `koanf:"url"`
	Key     string        `koanf:"key"`
	Timeout time.Duration `koanf:"timeout"`
}

type AuthConfig struct {
	Mode string `koanf:"mode"` // "auth0" or "supabase"
}

type Auth0Config struct {
	Domain   string `koanf:"domain"`
	Audience string `koanf:"audience"`
}

type SupabaseConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
	Audience  string `koanf:"audience"`
}

type TMDBConfig struct {
	APIKey   string `koanf:"api_key"`
	BaseURL  string `koanf:"base_url"`
	ImageURL string `koanf:"image_url"`
	Language string `koanf:"language"`
}

type RAWGConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

type DemoConfig struct {
	Mode     bool   `koanf:"mode"`
	Email    string `koanf:"email"`
	Password string `koanf:"password"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type SearchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}

type CacheConfig struct {
	PruneInterval time.Duration `koanf:"prune_interval"`
	WarmInterval  time.Duration `koanf:"warm_interval"` // 0 disables the catalog warmer
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			CORSOrigins:  "http://localhost:5173",
			RateLimit:    300,
		},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "popstack.db"},
		Store:    StoreConfig{Backend: "sql", Timeout: 15 * time.Second},
		Auth:     AuthConfig{Mode: "auth0"},
		Supabase: SupabaseConfig{Audience: "authenticated"},
		TMDB: TMDBConfig{
			BaseURL:  "https://api.themoviedb.org/3",
			ImageURL: "https://image.tmdb.org/t/p/",
			Language: "pl-PL",
		},
		RAWG:   RAWGConfig{BaseURL: "https://api.rawg.io/api"},
		Demo:   DemoConfig{Email: "demo@popstack.app", Password: "demo123456"},
		Log:    LogConfig{Level: "info", Format: "json"},
		Search: SearchConfig{Debounce: 300 * time.Millisecond},
		Cache:  CacheConfig{PruneInterval: time.Minute, WarmInterval: 6 * time.Hour},
	}
}

// Load reads .env files, then layers defaults, the config file and the
// environment, and validates the result.
func Load() (*Config, error) {
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// TMDB_API_KEY -> tmdb.api_key, DEMO_MODE -> demo.mode
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

var sections = map[string]bool{
	"server": true, "database": true, "store": true, "auth": true, "auth0": true,
	"supabase": true, "tmdb": true, "rawg": true, "demo": true, "log": true,
	"search": true, "cache": true,
}

// envTransformFunc maps SECTION_KEY to section.key and drops variables
// that do not belong to a known section.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	section, rest, ok := strings.Cut(key, "_")
	if !ok || !sections[section] {
		return ""
	}
	return section + "." + rest
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Validate checks that the selected backends have what they need. Demo mode
// needs nothing beyond defaults.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	if c.Demo.Mode {
		return errors.Join(errs...)
	}

	switch c.Store.Backend {
	case "sql":
		if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
			errs = append(errs, fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver))
		}
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn is required"))
		}
	case "postgrest":
		if c.Store.URL == "" || c.Store.Key == "" {
			errs = append(errs, errors.New("store.url and store.key are required for the postgrest backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend must be sql or postgrest, got %q", c.Store.Backend))
	}

	switch c.Auth.Mode {
	case "auth0":
		if c.Auth0.Domain == "" || c.Auth0.Audience == "" {
			errs = append(errs, errors.New("auth0.domain and auth0.audience are required"))
		}
	case "supabase":
		if c.Supabase.JWTSecret == "" {
			errs = append(errs, errors.New("supabase.jwt_secret is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.mode must be auth0 or supabase, got %q", c.Auth.Mode))
	}

	return errors.Join(errs...)
}

// Origins splits the CORS origin list.
func (s ServerConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(s.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }
