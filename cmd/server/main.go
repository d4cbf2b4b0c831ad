package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/medlabs/critalert/internal/api"
	"github.com/medlabs/critalert/internal/app"
	iauth "github.com/medlabs/critalert/internal/auth"
	"github.com/medlabs/critalert/internal/database"
	"github.com/medlabs/critalert/internal/devices"
	"github.com/medlabs/critalert/internal/directory"
	"github.com/medlabs/critalert/internal/maintenance"
	"github.com/medlabs/critalert/internal/notify"
	"github.com/medlabs/critalert/internal/services"
	"github.com/medlabs/critalert/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("critalert-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel, cfg.Server.LogEncoding); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	dir, err := directory.NewStaticDirectory(cfg.Users)
	if err != nil {
		return fmt.Errorf("load user directory: %w", err)
	}

	seclog, err := services.NewSecurityLogService(db)
	if err != nil {
		return fmt.Errorf("initialise security log service: %w", err)
	}

	alerts, err := services.NewAlertService(db)
	if err != nil {
		return fmt.Errorf("initialise alert service: %w", err)
	}

	jwtService, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return fmt.Errorf("initialise jwt service: %w", err)
	}

	_, err = iauth.NewAuthenticator(dir, seclog)
	if err != nil {
		return fmt.Errorf("initialise authenticator: %w", err)
	}

	registry, closeRegistry, err := buildRegistry(cfg, log)
	if err != nil {
		return err
	}
	defer closeRegistry()

	fanout, err := notify.NewFanout(
		dir,
		registry,
		notify.NewFCMSender(cfg.Notifications.FCMClientConfig()),
		notify.NewTwilioSender(cfg.Notifications.TwilioClientConfig()),
	)
	if err != nil {
		return fmt.Errorf("initialise notification fan-out: %w", err)
	}

	cleaner := maintenance.NewCleaner(seclog,
		maintenance.WithRetentionDays(cfg.Maintenance.SecurityLogRetentionDays),
		maintenance.WithSchedule(cfg.Maintenance.Schedule),
	)
	if err := cleaner.Start(); err != nil {
		return fmt.Errorf("start maintenance jobs: %w", err)
	}
	defer func() {
		<-cleaner.Stop().Done()
	}()

	router, err := api.NewRouter(api.Dependencies{
		DB:        db,
		JWT:       jwtService,
		Directory: dir,
		Registry:  registry,
		Fanout:    fanout,
		Alerts:    alerts,
		Seclog:    seclog,
	})
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func buildRegistry(cfg *app.Config, log *zap.Logger) (devices.Registry, func(), error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Devices.Backend))
	if backend == "redis" {
		reg, err := devices.NewRedisRegistry(cfg.Devices.RedisRegistryConfig())
		if err != nil {
			return nil, nil, fmt.Errorf("connect device registry: %w", err)
		}
		log.Info("device registry connected", zap.String("backend", "redis"), zap.String("addr", cfg.Devices.Redis.Address))
		return reg, func() { _ = reg.Close() }, nil
	}

	log.Info("device registry initialised", zap.String("backend", "memory"))
	return devices.NewMemoryRegistry(), func() {}, nil
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		dbCfg.Host = strings.TrimSpace(cfg.Database.Postgres.Host)
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.Postgres.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.Postgres.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.Postgres.Password)
	case "mysql":
		dbCfg.Host = strings.TrimSpace(cfg.Database.MySQL.Host)
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.MySQL.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.MySQL.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.MySQL.Password)
	default:
		// Leave driver as-is to surface unsupported driver error during open.
	}

	return dbCfg
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
