package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invoicing-api/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "groq", cfg.AI.Provider)
	assert.Equal(t, "llama3-8b-8192", cfg.AI.GroqModel)
	assert.Equal(t, 20*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "session", cfg.Session.CookieName)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "USD", cfg.Docs.Currency)
	assert.Equal(t, 10<<20, cfg.Docs.MaxUploadBytes)
	assert.Empty(t, cfg.HTTP.TrustedProxies)
}

func TestLoad_LeeVariablesDeEntorno(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("AI_PROVIDER", "Anthropic")
	t.Setenv("AI_TIMEOUT", "45")
	t.Setenv("TENANCY_BASE_DOMAIN", "ebilling.app")
	t.Setenv("INVOICE_CURRENCY", "cop")
	t.Setenv("MAX_UPLOAD_MB", "2")
	t.Setenv("TRUSTED_PROXIES", " 10.0.0.1, 172.16.0.0/12,,")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
	assert.Equal(t, "anthropic", cfg.AI.Provider)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "ebilling.app", cfg.Tenancy.BaseDomain)
	assert.Equal(t, "COP", cfg.Docs.Currency)
	assert.Equal(t, 2<<20, cfg.Docs.MaxUploadBytes)
	assert.Equal(t, []string{"10.0.0.1", "172.16.0.0/12"}, cfg.HTTP.TrustedProxies)
}

func TestLoad_ProductionSinSecretFalla(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	// JWT_SECRET definido pero vacío cuenta como ausente
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "ebilling", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/ebilling?sslmode=disable", c.DSN())
	assert.Equal(t, c.DSN(), c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
