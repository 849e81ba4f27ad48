package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/padelcana/courtbook/internal/httpapi"
	"github.com/padelcana/courtbook/internal/identity"
	"github.com/padelcana/courtbook/internal/lock/memlock"
	"github.com/padelcana/courtbook/internal/lock/redislock"
	"github.com/padelcana/courtbook/internal/store/gormstore"
	"github.com/padelcana/courtbook/internal/stripeprocessor"
	"github.com/padelcana/courtbook/internal/sweeper"
	"github.com/padelcana/courtbook/pkg/booking"
	"github.com/padelcana/courtbook/pkg/payment"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	limiter "github.com/ulule/limiter/v3"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	flagListenAddr          = "listen-addr"
	flagDatabaseURL         = "database-url"
	flagRedisAddr           = "redis-addr"
	flagAllowedOrigins      = "allowed-origins"
	flagJWTSigningKey       = "jwt-signing-key"
	flagJWTIssuer           = "jwt-issuer"
	flagTokenTTL            = "token-ttl"
	flagStripeSecretKey     = "stripe-secret-key"
	flagStripeWebhookSecret = "stripe-webhook-secret"

	envPrefix = "COURTBOOK"

	defaultListenAddr  = ":8080"
	defaultDatabaseURL = "sqlite:///tmp/courtbook.db"
	defaultJWTIssuer   = "courtbook"
	defaultTokenTTL    = 24 * time.Hour
)

type runtimeConfig struct {
	ListenAddr          string
	DatabaseURL         string
	RedisAddr           string
	AllowedOrigins      []string
	JWTSigningKey       string
	JWTIssuer           string
	TokenTTL            time.Duration
	StripeSecretKey     string
	StripeWebhookSecret string
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "courtbookd: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &runtimeConfig{}
	cmd := &cobra.Command{
		Use:           "courtbookd",
		Short:         "Padel court reservation HTTP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	cmd.Flags().String(flagListenAddr, defaultListenAddr, "HTTP listen address")
	cmd.Flags().String(flagDatabaseURL, defaultDatabaseURL, "PostgreSQL or SQLite connection string")
	cmd.Flags().String(flagRedisAddr, "", "Redis address for the reservation lock (empty falls back to a single-instance in-process lock)")
	cmd.Flags().String(flagAllowedOrigins, "", "comma-separated list of allowed CORS origins")
	cmd.Flags().String(flagJWTSigningKey, "", "JWT signing key (required)")
	cmd.Flags().String(flagJWTIssuer, defaultJWTIssuer, "JWT issuer")
	cmd.Flags().Duration(flagTokenTTL, defaultTokenTTL, "bearer token lifetime")
	cmd.Flags().String(flagStripeSecretKey, "", "Stripe API secret key (required)")
	cmd.Flags().String(flagStripeWebhookSecret, "", "Stripe webhook signing secret")

	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *runtimeConfig) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, flagName := range []string{
		flagListenAddr, flagDatabaseURL, flagRedisAddr, flagAllowedOrigins,
		flagJWTSigningKey, flagJWTIssuer, flagTokenTTL,
		flagStripeSecretKey, flagStripeWebhookSecret,
	} {
		if err := v.BindPFlag(flagName, cmd.Flags().Lookup(flagName)); err != nil {
			return err
		}
	}

	cfg.ListenAddr = strings.TrimSpace(v.GetString(flagListenAddr))
	cfg.DatabaseURL = strings.TrimSpace(v.GetString(flagDatabaseURL))
	cfg.RedisAddr = strings.TrimSpace(v.GetString(flagRedisAddr))
	cfg.AllowedOrigins = httpapi.ParseAllowedOrigins(v.GetString(flagAllowedOrigins))
	cfg.JWTSigningKey = v.GetString(flagJWTSigningKey)
	cfg.JWTIssuer = strings.TrimSpace(v.GetString(flagJWTIssuer))
	cfg.TokenTTL = v.GetDuration(flagTokenTTL)
	cfg.StripeSecretKey = v.GetString(flagStripeSecretKey)
	cfg.StripeWebhookSecret = v.GetString(flagStripeWebhookSecret)

	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database url is required")
	}
	if cfg.JWTSigningKey == "" {
		return fmt.Errorf("%s is required", flagJWTSigningKey)
	}
	if cfg.StripeSecretKey == "" {
		return fmt.Errorf("%s is required", flagStripeSecretKey)
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	return nil
}

func runServer(ctx context.Context, cfg *runtimeConfig) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	gormDB, cleanup, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database open: %w", err)
	}
	defer func() { _ = cleanup() }()

	if err := gormDB.AutoMigrate(gormstore.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	store := gormstore.New(gormDB)
	clock := func() time.Time { return time.Now().UTC() }

	locker, rateLimits, err := buildSharedInfra(ctx, cfg.RedisAddr, logger)
	if err != nil {
		return err
	}

	bookingService, err := booking.NewService(store, locker, clock,
		booking.WithOperationLogger(operationLogger{logger: logger}))
	if err != nil {
		return fmt.Errorf("booking service init: %w", err)
	}

	processor, err := stripeprocessor.New(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	if err != nil {
		return fmt.Errorf("stripe processor init: %w", err)
	}
	paymentService, err := payment.NewService(store, processor)
	if err != nil {
		return fmt.Errorf("payment service init: %w", err)
	}

	tokenIssuer, err := identity.NewTokenIssuer([]byte(cfg.JWTSigningKey), cfg.JWTIssuer, cfg.TokenTTL, clock)
	if err != nil {
		return fmt.Errorf("token issuer init: %w", err)
	}
	identityService, err := identity.NewService(store, tokenIssuer)
	if err != nil {
		return fmt.Errorf("identity service init: %w", err)
	}

	holdSweeper, err := sweeper.New(bookingService, logger)
	if err != nil {
		return fmt.Errorf("sweeper init: %w", err)
	}
	holdSweeper.Start()
	defer func() {
		if stopErr := holdSweeper.Stop(); stopErr != nil {
			logger.Warn("sweeper shutdown error", zap.Error(stopErr))
		}
	}()

	apiConfig := httpapi.Config{
		ListenAddr:     cfg.ListenAddr,
		AllowedOrigins: cfg.AllowedOrigins,
	}
	if err := apiConfig.Validate(); err != nil {
		return err
	}

	return httpapi.Run(ctx, apiConfig, logger, httpapi.Services{
		Bookings:   bookingService,
		Payments:   paymentService,
		Identity:   identityService,
		Tokens:     tokenIssuer,
		RateLimits: rateLimits,
	})
}

// buildSharedInfra prefers one shared Redis client for both the reservation
// lock and the request budgets; without an address it falls back to the
// in-process equivalents, which are only correct for a single instance.
func buildSharedInfra(ctx context.Context, redisAddr string, logger *zap.Logger) (booking.SlotLocker, httpapi.RateLimits, error) {
	if redisAddr == "" {
		logger.Warn("no redis address configured; using in-process reservation lock and rate counters (single-instance only)")
		return memlock.New(), httpapi.MemoryRateLimits(), nil
	}
	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, httpapi.RateLimits{}, fmt.Errorf("redis ping: %w", err)
	}
	rateLimits, err := httpapi.BuildRateLimits(func(prefix string) (limiter.Store, error) {
		return sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	})
	if err != nil {
		return nil, httpapi.RateLimits{}, fmt.Errorf("rate limit store: %w", err)
	}
	return redislock.New(client), rateLimits, nil
}

type operationLogger struct {
	logger *zap.Logger
}

func (operationLogger operationLogger) LogOperation(ctx context.Context, entry booking.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
	}
	if entry.UserID.String() != "" {
		fields = append(fields, zap.String("user_id", entry.UserID.String()))
	}
	if entry.CourtID.String() != "" {
		fields = append(fields, zap.String("court_id", entry.CourtID.String()))
	}
	if entry.BookingID.String() != "" {
		fields = append(fields, zap.String("booking_id", entry.BookingID.String()))
	}
	if entry.Error != nil {
		fields = append(fields, zap.Error(entry.Error))
		operationLogger.logger.Warn("booking operation failed", fields...)
		return
	}
	operationLogger.logger.Info("booking operation", fields...)
}

func openDatabase(ctx context.Context, dsn string) (*gorm.DB, func() error, error) {
	driver, sqlitePath, err := resolveDriver(dsn)
	if err != nil {
		return nil, nil, err
	}

	var db *gorm.DB
	gormConfig := &gorm.Config{}
	switch driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(dsn), gormConfig)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(sqlitePath), gormConfig)
	default:
		return nil, nil, fmt.Errorf("unsupported database scheme %q", driver)
	}
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() error { return sqlDB.Close() }
	return db.WithContext(ctx), cleanup, nil
}

func resolveDriver(dsn string) (string, string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres", "", nil
	}
	if strings.HasPrefix(dsn, "sqlite://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("parse sqlite url: %w", err)
		}
		path := u.Path
		if path == "" {
			path = u.Host
		}
		if path == "" || path == "/" {
			path = "courtbook.db"
		}
		sqlitePath, err := normalizeSQLitePath(path)
		return "sqlite", sqlitePath, err
	}
	// Treat everything else as a direct sqlite path.
	sqlitePath, err := normalizeSQLitePath(dsn)
	return "sqlite", sqlitePath, err
}

func normalizeSQLitePath(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}
	if strings.HasPrefix(path, "/") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", err
		}
		return path, nil
	}
	abs := filepath.Join(".", path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	return abs, nil
}
