package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultDatabaseURL = "sqlite:///./pets.db"

// DefaultCORSOrigins: front-ends locales conocidos más comodín.
var DefaultCORSOrigins = []string{
	"http://localhost:8081",
	"http://localhost:8082",
	"http://localhost:8083",
	"http://localhost:3000",
	"*",
}

// Config se arma en tres capas: defaults, archivo YAML opcional (CONFIG_FILE)
// y variables de entorno. Gana la última.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"env"`
	Port        string `yaml:"port"`
}

type DatabaseConfig struct {
	URL                string        `yaml:"url"`
	ConnectMaxAttempts int           `yaml:"connect_max_attempts"`
	ConnectRetryDelay  time.Duration `yaml:"connect_retry_delay"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

func Default() Config {
	return Config{
		App: AppConfig{
			Name:        "pet-service",
			Environment: "development",
			Port:        "8000",
		},
		Database: DatabaseConfig{
			URL:                DefaultDatabaseURL,
			ConnectMaxAttempts: 30,
			ConnectRetryDelay:  10 * time.Second,
			MaxOpenConns:       10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		CORS: CORSConfig{
			AllowedOrigins: append([]string(nil), DefaultCORSOrigins...),
		},
		RateLimit: RateLimitConfig{
			RPS:   0,
			Burst: 20,
		},
	}
}

// Load lee la configuración. Un valor de entorno mal formado es un error,
// no se ignora en silencio.
func Load() (*Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := readFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf(`failed to read config file "%s": %w`, path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf(`failed to unmarshal config file "%s": %w`, path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString("APP_NAME", &cfg.App.Name)
	setString("APP_ENV", &cfg.App.Environment)
	setString("PORT", &cfg.App.Port)

	setString("DATABASE_URL", &cfg.Database.URL)
	setString("LOG_LEVEL", &cfg.Log.Level)
	setString("LOG_FORMAT", &cfg.Log.Format)

	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok {
		cfg.CORS.AllowedOrigins = splitList(v)
	}

	var errs []error
	errs = append(errs,
		setInt("DB_CONNECT_MAX_ATTEMPTS", &cfg.Database.ConnectMaxAttempts),
		setDuration("DB_CONNECT_RETRY_DELAY", &cfg.Database.ConnectRetryDelay),
		setInt("DB_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns),
		setFloat("RATE_LIMIT_RPS", &cfg.RateLimit.RPS),
		setInt("RATE_LIMIT_BURST", &cfg.RateLimit.Burst),
	)
	return errors.Join(errs...)
}

// Validate rechaza combinaciones que impedirían arrancar.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.App.Port) == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	} else if p, err := strconv.Atoi(c.App.Port); err != nil || p <= 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("PORT %q is not a valid port", c.App.Port))
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		errs = append(errs, errors.New("DATABASE_URL must not be empty"))
	} else if strings.Contains(c.Database.URL, "://") && !knownScheme(c.Database.URL) {
		errs = append(errs, errors.New("DATABASE_URL has an unsupported scheme"))
	}
	if c.Database.ConnectMaxAttempts <= 0 {
		errs = append(errs, errors.New("DB_CONNECT_MAX_ATTEMPTS must be greater than 0"))
	}
	if c.Database.ConnectRetryDelay < 0 {
		errs = append(errs, errors.New("DB_CONNECT_RETRY_DELAY must not be negative"))
	}
	if c.Database.MaxOpenConns <= 0 {
		errs = append(errs, errors.New("DB_MAX_OPEN_CONNS must be greater than 0"))
	}
	if c.RateLimit.RPS < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must not be negative"))
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_BURST must be greater than 0 when rate limiting is enabled"))
	}

	return errors.Join(errs...)
}

// UsesMemoryStore: DATABASE_URL=memory:// levanta el repo en memoria.
func (c *Config) UsesMemoryStore() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(c.Database.URL)), "memory://")
}

func (c *Config) Addr() string {
	return ":" + c.App.Port
}

func knownScheme(u string) bool {
	lower := strings.ToLower(strings.TrimSpace(u))
	for _, prefix := range []string{"postgres://", "postgresql://", "sqlite://", "memory://"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func setString(key string, dst *string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setInt(key string, dst *int) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, v)
	}
	*dst = n
	return nil
}

func setFloat(key string, dst *float64) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: invalid number %q", key, v)
	}
	*dst = f
	return nil
}

// setDuration acepta "10s", "500ms" o segundos sin unidad ("10").
func setDuration(key string, dst *time.Duration) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(secs) * time.Second
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", key, v)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
