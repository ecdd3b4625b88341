package config_test

import (
	"testing"
	"time"

	"internship-service/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("MissingDatabaseURL", func(t *testing.T) {
		t.Setenv("ENV", "test-none")
		t.Setenv("DATABASE_URL", "")
		t.Setenv("JWT_SECRET", "secret")

		_, err := config.Load()
		assert.ErrorIs(t, err, config.ErrMissingDatabaseURL)
	})

	t.Run("FromEnvironment", func(t *testing.T) {
		t.Setenv("ENV", "test-none")
		t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/interns?sslmode=disable")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("PORT", "8081")
		t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example ,")
		t.Setenv("SMTP_HOST", "smtp.example.com")

		cfg, err := config.Load()
		require.NoError(t, err)

		assert.Equal(t, "8081", cfg.Server.Port)
		assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.CORSOrigins)
		assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
		assert.Equal(t, "none", cfg.Events.Driver)
		assert.True(t, cfg.SMTPEnabled())
		assert.Empty(t, cfg.Server.TrustedProxies)
	})

	t.Run("TrustedProxies", func(t *testing.T) {
		t.Setenv("ENV", "test-none")
		t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/interns?sslmode=disable")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.1")

		cfg, err := config.Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.Server.TrustedProxies)
	})

	t.Run("MongoURIIsNotADatabaseURL", func(t *testing.T) {
		t.Setenv("ENV", "test-none")
		t.Setenv("DATABASE_URL", "")
		t.Setenv("MONGO_URI", "mongodb://localhost:27017")
		t.Setenv("JWT_SECRET", "secret")

		_, err := config.Load()
		assert.ErrorIs(t, err, config.ErrMissingDatabaseURL)
	})
}

func TestSplitOrigins(t *testing.T) {
	assert.Empty(t, config.SplitOrigins(" , "))
	assert.Equal(t, []string{"x"}, config.SplitOrigins("x"))
}
