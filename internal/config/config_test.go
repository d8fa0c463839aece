package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatbackend/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := config.Load()
	req.NoError(err)
	req.Equal("0.0.0.0:8000", cfg.HTTPAddr())
	req.Equal(config.DriverSQLite, cfg.DBDriver)
	req.Equal(24*time.Hour, cfg.AccessTokenTTL())
	req.Equal(64, cfg.WSSendBuffer)
	req.True(cfg.LegacyPasswords)
	req.False(cfg.BroadcastHTTPMutations)
	req.False(cfg.AuthRequiredFor(config.SurfaceChat))
	req.Equal([]string{"*"}, cfg.CORSOriginList())
	req.Equal("chat-events", cfg.AMQPQueue)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoad_AuthSurfaces(t *testing.T) {
	req := require.New(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("AUTH_REQUIRED", " chat, WS ,")

	cfg, err := config.Load()
	req.NoError(err)
	req.True(cfg.AuthRequiredFor(config.SurfaceChat))
	req.True(cfg.AuthRequiredFor(config.SurfaceWS))
	req.False(cfg.AuthRequiredFor(config.SurfaceUser))
}

func TestLoad_RejectsUnknownSurface(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("AUTH_REQUIRED", "chat,admin")

	_, err := config.Load()
	require.ErrorContains(t, err, "admin")
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "mongo")

	_, err := config.Load()
	require.ErrorContains(t, err, "DB_DRIVER")
}

func TestPostgresURL(t *testing.T) {
	cfg := &config.Config{
		PostgresHost:     "db",
		PostgresPort:     "5433",
		PostgresUser:     "chat",
		PostgresPassword: "p@ss",
		PostgresDB:       "chatdb",
	}
	require.Equal(t, "postgres://chat:p%40ss@db:5433/chatdb?sslmode=disable", cfg.PostgresURL())
}
