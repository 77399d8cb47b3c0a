package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("BASE_URL", "https://login.example.com/")
	t.Setenv("G_CONSUMER_KEY", "gid")
	t.Setenv("G_CONSUMER_SECRET", "gsecret")
	t.Setenv("MAIL_PORT", "587")
	t.Setenv("SENDER", "noreply@example.com")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "s3cret", cfg.SecretKey)
	assert.Equal(t, ":5000", cfg.HTTP.Addr)
	assert.Equal(t, "https://login.example.com", cfg.HTTP.BaseURL)
	assert.Equal(t, "https://login.example.com", cfg.Mail.BaseURL)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, "noreply@example.com", cfg.Mail.Sender)
	assert.Equal(t, "log", cfg.Mail.Transport)
	assert.Equal(t, 24*time.Hour, cfg.Session.Lifetime)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.False(t, cfg.TrustRecoveryForm)

	providers := cfg.Social.Providers()
	assert.True(t, providers["google"].Enabled())
	assert.False(t, providers["fb"].Enabled())
	assert.False(t, providers["github"].Enabled())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: prod
secret_key: from-file
http:
  addr: ":8080"
database:
  driver: postgres
  dsn: postgres://localhost/loginapp
mail:
  transport: smtp
  host: smtp.example.com
  workers: 4
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "prod", cfg.Log.Env)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "smtp.example.com", cfg.Mail.Host)
	assert.Equal(t, 4, cfg.Mail.Workers)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Mail: Mail{Transport: "log"}}
	assert.Error(t, cfg.Validate())

	cfg.SecretKey = "x"
	assert.NoError(t, cfg.Validate())

	cfg.Mail.Transport = "smtp"
	assert.Error(t, cfg.Validate())

	cfg.Mail.Transport = "pigeon"
	assert.Error(t, cfg.Validate())
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LoggerConfig{Level: "debug", Env: "prod"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger(LoggerConfig{Level: "loud"})
	assert.Error(t, err)
}
