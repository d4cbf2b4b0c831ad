package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/medlabs/critalert/internal/directory"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(contents), 0o600))
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 5000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "critalert", cfg.Auth.JWT.Issuer)
	require.Equal(t, time.Hour, cfg.Auth.JWT.AccessTTL)
	require.Equal(t, 720*time.Hour, cfg.Auth.JWT.RefreshTTL)
	require.Equal(t, "memory", cfg.Devices.Backend)
	require.Equal(t, 90, cfg.Maintenance.SecurityLogRetentionDays)
	require.Equal(t, "@daily", cfg.Maintenance.Schedule)
	require.Equal(t, 10*time.Second, cfg.Notifications.FCM.Timeout)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := writeConfigFile(t, `
server:
  port: 8080
  log_level: debug
auth:
  jwt:
    secret: super-secret
    access_token_ttl: 30m
users:
  - id: lab1
    name: Front Lab
    role: sender
    password: lab-pass
  - id: dr.sara
    role: receiver
    password: sara-pass
notifications:
  fcm:
    api_key: server-key
  whatsapp:
    account_sid: AC123
    auth_token: tok
    from: "whatsapp:+14155238886"
    to: "whatsapp:+15551234567"
devices:
  backend: redis
  redis:
    address: redis.internal:6379
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "super-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.AccessTTL)

	require.Len(t, cfg.Users, 2)
	require.Equal(t, "lab1", cfg.Users[0].ID)
	require.Equal(t, "sender", cfg.Users[0].Role)
	require.Equal(t, "dr.sara", cfg.Users[1].ID)

	require.Equal(t, "server-key", cfg.Notifications.FCM.APIKey)
	require.Equal(t, "AC123", cfg.Notifications.WhatsApp.AccountSID)
	require.Equal(t, "redis", cfg.Devices.Backend)
	require.Equal(t, "redis.internal:6379", cfg.Devices.Redis.Address)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("CRITALERT_SERVER_PORT", "9001")
	t.Setenv("CRITALERT_DATABASE_DRIVER", "postgres")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 9001, cfg.Server.Port)
	require.Equal(t, "postgres", cfg.Database.Driver)
}

func TestConfigValidate(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	// No secret and no users.
	require.Error(t, cfg.Validate())

	cfg.Auth.JWT.Secret = "s"
	require.Error(t, cfg.Validate())

	cfg.Users = append(cfg.Users, directory.Seed{ID: "lab1", Role: "sender", Password: "x"})
	require.NoError(t, cfg.Validate())

	cfg.Devices.Backend = "etcd"
	require.Error(t, cfg.Validate())
}

func TestJWTServiceConfigConversion(t *testing.T) {
	cfg := AuthConfig{JWT: JWTSettings{
		Secret:     "  s  ",
		Issuer:     "critalert",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 48 * time.Hour,
	}}

	out := cfg.JWTServiceConfig()
	require.Equal(t, "s", out.Secret)
	require.Equal(t, "critalert", out.Issuer)
	require.Equal(t, 15*time.Minute, out.AccessTokenTTL)
	require.Equal(t, 48*time.Hour, out.RefreshTokenTTL)
}
