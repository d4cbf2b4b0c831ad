package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/medlabs/critalert/internal/auth"
	"github.com/medlabs/critalert/internal/devices"
	"github.com/medlabs/critalert/internal/directory"
	"github.com/medlabs/critalert/internal/notify"
)

// Config represents the runtime configuration for the critalert backend.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Users         []directory.Seed    `mapstructure:"users"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Devices       DevicesConfig       `mapstructure:"devices"`
	Maintenance   MaintenanceConfig   `mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	LogLevel    string `mapstructure:"log_level"`
	LogEncoding string `mapstructure:"log_encoding"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// AuthConfig captures JWT settings.
type AuthConfig struct {
	JWT JWTSettings `mapstructure:"jwt"`
}

// JWTSettings configures issued tokens.
type JWTSettings struct {
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	AccessTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// NotificationsConfig captures the delivery channel settings.
type NotificationsConfig struct {
	FCM      FCMSettings      `mapstructure:"fcm"`
	WhatsApp WhatsAppSettings `mapstructure:"whatsapp"`
}

// FCMSettings configures the push channel. An empty api_key disables it.
type FCMSettings struct {
	APIKey   string        `mapstructure:"api_key"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// WhatsAppSettings configures the Twilio WhatsApp channel. Missing
// credentials disable it.
type WhatsAppSettings struct {
	AccountSID string        `mapstructure:"account_sid"`
	AuthToken  string        `mapstructure:"auth_token"`
	From       string        `mapstructure:"from"`
	To         string        `mapstructure:"to"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// DevicesConfig selects the device registry backend.
type DevicesConfig struct {
	Backend string              `mapstructure:"backend"` // memory | redis
	Redis   RedisDeviceSettings `mapstructure:"redis"`
}

// RedisDeviceSettings holds Redis connection options for the device registry.
type RedisDeviceSettings struct {
	Address  string        `mapstructure:"address"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// MaintenanceConfig controls background housekeeping.
type MaintenanceConfig struct {
	SecurityLogRetentionDays int    `mapstructure:"security_log_retention_days"`
	Schedule                 string `mapstructure:"schedule"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("CRITALERT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

// Validate reports configuration problems that must stop startup.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWT.Secret) == "" {
		return errors.New("auth.jwt.secret must be configured")
	}
	if len(c.Users) == 0 {
		return errors.New("at least one user must be configured")
	}
	switch strings.ToLower(strings.TrimSpace(c.Devices.Backend)) {
	case "", "memory", "redis":
	default:
		return fmt.Errorf("devices.backend must be memory or redis, got %q", c.Devices.Backend)
	}
	return nil
}

// JWTServiceConfig converts the configured JWT settings into the auth package's config.
func (a AuthConfig) JWTServiceConfig() auth.JWTConfig {
	return auth.JWTConfig{
		Secret:          strings.TrimSpace(a.JWT.Secret),
		Issuer:          strings.TrimSpace(a.JWT.Issuer),
		AccessTokenTTL:  a.JWT.AccessTTL,
		RefreshTokenTTL: a.JWT.RefreshTTL,
	}
}

// FCMClientConfig converts the push settings into the notify package's config.
func (n NotificationsConfig) FCMClientConfig() notify.FCMConfig {
	return notify.FCMConfig{
		APIKey:   strings.TrimSpace(n.FCM.APIKey),
		Endpoint: strings.TrimSpace(n.FCM.Endpoint),
		Timeout:  n.FCM.Timeout,
	}
}

// TwilioClientConfig converts the WhatsApp settings into the notify package's config.
func (n NotificationsConfig) TwilioClientConfig() notify.TwilioConfig {
	return notify.TwilioConfig{
		AccountSID: strings.TrimSpace(n.WhatsApp.AccountSID),
		AuthToken:  strings.TrimSpace(n.WhatsApp.AuthToken),
		From:       strings.TrimSpace(n.WhatsApp.From),
		To:         strings.TrimSpace(n.WhatsApp.To),
		Timeout:    n.WhatsApp.Timeout,
	}
}

// RedisRegistryConfig converts the device registry settings into the devices package's config.
func (d DevicesConfig) RedisRegistryConfig() devices.RedisConfig {
	return devices.RedisConfig{
		Address:  strings.TrimSpace(d.Redis.Address),
		Username: d.Redis.Username,
		Password: d.Redis.Password,
		DB:       d.Redis.DB,
		Timeout:  d.Redis.Timeout,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_encoding", "json")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/alerts.db")

	v.SetDefault("auth.jwt.issuer", "critalert")
	v.SetDefault("auth.jwt.access_token_ttl", "1h")
	v.SetDefault("auth.jwt.refresh_token_ttl", "720h") // 30 days

	v.SetDefault("notifications.fcm.timeout", "10s")
	v.SetDefault("notifications.whatsapp.timeout", "10s")

	v.SetDefault("devices.backend", "memory")
	v.SetDefault("devices.redis.address", "127.0.0.1:6379")
	v.SetDefault("devices.redis.db", 0)
	v.SetDefault("devices.redis.timeout", "5s")

	v.SetDefault("maintenance.security_log_retention_days", 90)
	v.SetDefault("maintenance.schedule", "@daily")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
