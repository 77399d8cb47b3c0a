package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/panyam/loginapp/mailer"
)

type Config struct {
	Env       string       `yaml:"env" env:"ENV" env-default:"local"`
	Log       LoggerConfig `yaml:"log"`
	HTTP      HTTP         `yaml:"http"`
	SecretKey string       `yaml:"secret_key" env:"SECRET_KEY"`
	Database  Database     `yaml:"database"`
	Datastore Datastore    `yaml:"datastore"`
	Session   Session      `yaml:"session"`
	Mail      Mail         `yaml:"mail"`
	Social    Social       `yaml:"social"`
	CSRFKey   string       `yaml:"csrf_key" env:"CSRF_KEY"`

	// TrustRecoveryForm lets the recover POST change the password of the
	// email in the form without re-checking it against the link's token
	TrustRecoveryForm bool `yaml:"trust_recovery_form" env:"TRUST_RECOVERY_FORM" env-default:"false"`
}

type HTTP struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR" env-default:":5000"`
	BaseURL         string        `yaml:"base_url" env:"BASE_URL" env-default:"http://localhost:5000"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

// Database selects the user store. Driver is "fs", "sqlite", "postgres" or "datastore".
type Database struct {
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite"`
	DSN    string `yaml:"dsn" env:"DATABASE_URL" env-default:"file:loginapp.db"`
}

type Datastore struct {
	ProjectID string `yaml:"project_id" env:"DATASTORE_PROJECT_ID"`
	Namespace string `yaml:"namespace" env:"DATASTORE_NAMESPACE"`
}

type Session struct {
	Lifetime     time.Duration `yaml:"lifetime" env:"SESSION_LIFETIME" env-default:"24h"`
	CookieSecure bool          `yaml:"cookie_secure" env:"SESSION_COOKIE_SECURE" env-default:"false"`
}

type Mail struct {
	mailer.Config           `yaml:",inline"`
	mailer.DispatcherConfig `yaml:",inline"`

	// Transport is "smtp" or "log"
	Transport string `yaml:"transport" env:"MAIL_TRANSPORT" env-default:"log"`
}

type Provider struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

func (p Provider) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

type Social struct {
	Google struct {
		ClientID     string `yaml:"client_id" env:"G_CONSUMER_KEY"`
		ClientSecret string `yaml:"client_secret" env:"G_CONSUMER_SECRET"`
	} `yaml:"google"`
	Facebook struct {
		ClientID     string `yaml:"client_id" env:"FB_CONSUMER_KEY"`
		ClientSecret string `yaml:"client_secret" env:"FB_CONSUMER_SECRET"`
	} `yaml:"fb"`
	Github struct {
		ClientID     string `yaml:"client_id" env:"GH_CONSUMER_KEY"`
		ClientSecret string `yaml:"client_secret" env:"GH_CONSUMER_SECRET"`
	} `yaml:"github"`
}

// Providers returns the configured providers keyed by the id used in /login/{provider}
func (s Social) Providers() map[string]Provider {
	return map[string]Provider{
		"google": {ClientID: s.Google.ClientID, ClientSecret: s.Google.ClientSecret},
		"fb":     {ClientID: s.Facebook.ClientID, ClientSecret: s.Facebook.ClientSecret},
		"github": {ClientID: s.Github.ClientID, ClientSecret: s.Github.ClientSecret},
	}
}

// Load reads .env (if present) into the environment, then the YAML file at
// path (if given and present), then environment variables on top
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file does not exist: %w", err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("error reading environment: %w", err)
	}

	cfg.Log.Env = cfg.Env
	cfg.HTTP.BaseURL = strings.TrimSuffix(cfg.HTTP.BaseURL, "/")
	cfg.Mail.BaseURL = cfg.HTTP.BaseURL
	return &cfg, cfg.Validate()
}

// Validate catches settings the server cannot start without
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY must be set")
	}
	switch c.Mail.Transport {
	case "smtp":
		if c.Mail.Host == "" {
			return errors.New("MAIL_SERVER must be set for the smtp mail transport")
		}
	case "log":
	default:
		return fmt.Errorf("unknown mail transport %q", c.Mail.Transport)
	}
	return nil
}
