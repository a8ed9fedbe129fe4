// Package config loads runtime settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage and session backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "config.yaml"

// Config is the full runtime configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Storage  StorageConfig  `yaml:"storage"`
	Sessions SessionConfig  `yaml:"sessions"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	SendGrid SendGridConfig `yaml:"sendgrid"`
	OIDC     OIDCConfig     `yaml:"oidc"`
	Log      LogConfig      `yaml:"log"`
	Deploy   DeployConfig   `yaml:"deploy"`
}

// HTTPConfig configures the web server.
type HTTPConfig struct {
	Addr          string `yaml:"addr"`
	SecureCookies bool   `yaml:"secure_cookies"`
	// CSRFKey enables CSRF protection when set. It must be 32 bytes.
	CSRFKey string `yaml:"csrf_key"`
	// TrustedEmailHeader names a header set by an authenticating reverse
	// proxy (Authelia sends Remote-Email). Empty disables proxy login.
	TrustedEmailHeader string `yaml:"trusted_email_header"`
}

// StorageConfig selects the repository backend.
type StorageConfig struct {
	Backend     string `yaml:"backend"`
	DatabaseURL string `yaml:"database_url"`
}

// SessionConfig selects the session store and lifetimes. Durations are
// Go duration strings such as "720h".
type SessionConfig struct {
	Backend       string `yaml:"backend"`
	RememberTTL   string `yaml:"remember_ttl"`
	BrowserTTL    string `yaml:"browser_ttl"`
	PurgeInterval string `yaml:"purge_interval"`

	Remember time.Duration `yaml:"-"`
	Browser  time.Duration `yaml:"-"`
	Purge    time.Duration `yaml:"-"`
}

// RedisConfig locates the Redis server.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// KafkaConfig enables booking events when Brokers is non-empty.
type KafkaConfig struct {
	Brokers      []string `yaml:"brokers"`
	BookingTopic string   `yaml:"booking_topic"`
}

// SendGridConfig enables contact notifications when APIKey is set.
type SendGridConfig struct {
	APIKey   string `yaml:"api_key"`
	From     string `yaml:"from"`
	NotifyTo string `yaml:"notify_to"`
}

// OIDCConfig enables single sign-on when Issuer is set.
type OIDCConfig struct {
	Issuer       string `yaml:"issuer"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
	// RequireVerifiedEmail rejects ID tokens without email_verified=true.
	RequireVerifiedEmail bool `yaml:"require_verified_email"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DeployConfig drives the deployment checks.
type DeployConfig struct {
	MinGoVersion     string   `yaml:"min_go_version"`
	SettingsFile     string   `yaml:"settings_file"`
	RequiredSettings []string `yaml:"required_settings"`
	RequiredFiles    []string `yaml:"required_files"`
	StaticAssets     []string `yaml:"static_assets"`
}

// Enabled reports whether booking events should be published.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// Enabled reports whether contact notifications should be sent.
func (s SendGridConfig) Enabled() bool { return s.APIKey != "" }

// Enabled reports whether SSO is configured.
func (o OIDCConfig) Enabled() bool { return o.Issuer != "" }

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		HTTP:    HTTPConfig{Addr: ":8080"},
		Storage: StorageConfig{Backend: BackendPostgres},
		Sessions: SessionConfig{
			RememberTTL:   "720h",
			BrowserTTL:    "24h",
			PurgeInterval: "1h",
		},
		Kafka: KafkaConfig{BookingTopic: "bookings"},
		Log:   LogConfig{Level: "info"},
		Deploy: DeployConfig{
			MinGoVersion:     "1.22",
			SettingsFile:     DefaultPath,
			RequiredSettings: []string{"storage:", "sessions:"},
			RequiredFiles:    []string{DefaultPath},
			StaticAssets:     []string{"css/site.css"},
		},
	}
}

// Path returns the config file location from CONFIG_PATH.
func Path() string {
	return env("CONFIG_PATH", DefaultPath)
}

// Load reads .env outside production, then the YAML file at path (a missing
// file is fine), then applies environment overrides and validates.
func Load(path string) (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.HTTP.Addr = env("ADDR", c.HTTP.Addr)
	c.HTTP.SecureCookies = envBool("SECURE_COOKIES", c.HTTP.SecureCookies)
	c.HTTP.CSRFKey = env("CSRF_KEY", c.HTTP.CSRFKey)
	c.HTTP.TrustedEmailHeader = env("TRUSTED_EMAIL_HEADER", c.HTTP.TrustedEmailHeader)

	c.Storage.Backend = env("STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.DatabaseURL = env("DATABASE_URL", c.Storage.DatabaseURL)

	c.Sessions.Backend = env("SESSION_BACKEND", c.Sessions.Backend)
	c.Sessions.RememberTTL = env("SESSION_REMEMBER_TTL", c.Sessions.RememberTTL)
	c.Sessions.BrowserTTL = env("SESSION_BROWSER_TTL", c.Sessions.BrowserTTL)
	c.Sessions.PurgeInterval = env("SESSION_PURGE_INTERVAL", c.Sessions.PurgeInterval)

	c.Redis.URL = env("REDIS_URL", c.Redis.URL)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	c.Kafka.BookingTopic = env("KAFKA_BOOKING_TOPIC", c.Kafka.BookingTopic)

	c.SendGrid.APIKey = env("SENDGRID_API_KEY", c.SendGrid.APIKey)
	c.SendGrid.From = env("SENDGRID_FROM", c.SendGrid.From)
	c.SendGrid.NotifyTo = env("SENDGRID_NOTIFY_TO", c.SendGrid.NotifyTo)

	c.OIDC.Issuer = env("OIDC_ISSUER", c.OIDC.Issuer)
	c.OIDC.ClientID = env("OIDC_CLIENT_ID", c.OIDC.ClientID)
	c.OIDC.ClientSecret = env("OIDC_CLIENT_SECRET", c.OIDC.ClientSecret)
	c.OIDC.RedirectURL = env("OIDC_REDIRECT_URL", c.OIDC.RedirectURL)
	c.OIDC.RequireVerifiedEmail = envBool("OIDC_REQUIRE_VERIFIED_EMAIL", c.OIDC.RequireVerifiedEmail)

	c.Log.Level = env("LOG_LEVEL", c.Log.Level)
}

// Validate checks backends and required settings and parses durations.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Backend {
	case BackendPostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("storage.database_url (DATABASE_URL) is required for the postgres backend"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}

	if c.Sessions.Backend == "" {
		c.Sessions.Backend = c.Storage.Backend
	}
	switch c.Sessions.Backend {
	case BackendPostgres:
		if c.Storage.Backend != BackendPostgres {
			errs = append(errs, errors.New("postgres sessions require the postgres storage backend"))
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis.url (REDIS_URL) is required for redis sessions"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown session backend %q", c.Sessions.Backend))
	}

	var err error
	if c.Sessions.Remember, err = parseDuration("sessions.remember_ttl", c.Sessions.RememberTTL); err != nil {
		errs = append(errs, err)
	}
	if c.Sessions.Browser, err = parseDuration("sessions.browser_ttl", c.Sessions.BrowserTTL); err != nil {
		errs = append(errs, err)
	}
	if c.Sessions.Purge, err = parseDuration("sessions.purge_interval", c.Sessions.PurgeInterval); err != nil {
		errs = append(errs, err)
	}

	if c.HTTP.CSRFKey != "" && len(c.HTTP.CSRFKey) != 32 {
		errs = append(errs, errors.New("http.csrf_key must be 32 bytes"))
	}
	if c.SendGrid.Enabled() && (c.SendGrid.From == "" || c.SendGrid.NotifyTo == "") {
		errs = append(errs, errors.New("sendgrid.from and sendgrid.notify_to are required with an api key"))
	}
	if c.OIDC.Enabled() && (c.OIDC.ClientID == "" || c.OIDC.RedirectURL == "") {
		errs = append(errs, errors.New("oidc.client_id and oidc.redirect_url are required with an issuer"))
	}

	return errors.Join(errs...)
}

// LogLevel maps Log.Level to a slog level. Unknown values mean info.
func (c *Config) LogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func parseDuration(name, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", name)
	}
	return d, nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
