package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sponsorhub-backend/internal/config"
	"sponsorhub-backend/internal/gateway"
	"sponsorhub-backend/internal/lock"
	"sponsorhub-backend/internal/logger"
	"sponsorhub-backend/internal/repository/postgres"
	"sponsorhub-backend/internal/security"
	"sponsorhub-backend/internal/service"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
)

// App holds the connections and services shared by the server, cronjob and sponsorctl binaries
type App struct {
	Config *config.Config
	DB     *sql.DB
	Store  *postgres.Store
	Tokens security.TokenManager

	Intents       service.IntentService
	Review        service.ReviewService
	Payments      service.PaymentService
	Sponsorships  service.SponsorshipService
	Maintenance   service.MaintenanceService
	Notifications service.NotificationService

	redis *redis.Client
}

// New connects to PostgreSQL and Redis and builds every service
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize Database
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("Database connection established", "host", cfg.Database.Host, "database", cfg.Database.Database)

	a := &App{
		Config: cfg,
		DB:     db,
		Store:  postgres.NewStore(db),
		Tokens: TokenManager(cfg),
	}

	// Payment verification locks
	var locker lock.Locker
	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		locker = lock.NewRedisLocker(a.redis, "sponsorhub:")
		logger.Info("Redis connection established", "addr", cfg.Redis.Addr)
	} else {
		logger.Warn("Redis not configured, using in-process payment locks")
		locker = lock.NewMemoryLocker()
	}

	// Notification channels
	emailSvc := service.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	pushSvc, err := service.NewPushService(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		a.Close()
		return nil, err
	}

	repos := a.Store.Repos
	authz := service.NewOrgAuthorizer(repos.Orgs, repos.Users)
	stats := service.NewStatsAggregator()
	recorder := service.NewRecorder()
	receipts := service.NewReceiptGenerator(cfg.Payment.ReceiptPrefix)
	engine := service.NewConversionEngine(stats)
	notifier := service.NewNotifier(repos.Users, repos.Orgs, repos.Notifications, emailSvc, pushSvc)
	gw := gateway.NewRazorpayClient(cfg.Gateway.BaseURL, cfg.Gateway.KeyID, cfg.Gateway.KeySecret, time.Duration(cfg.Gateway.TimeoutS)*time.Second)

	a.Intents = service.NewIntentService(repos, authz, stats, recorder, notifier, cfg.Payment.DefaultCurrency)
	a.Review = service.NewReviewService(repos, authz, engine, stats, recorder, receipts, locker, cfg.LockTTL(), notifier)
	a.Payments = service.NewPaymentService(a.Store, repos, authz, gw, engine, recorder, receipts, locker, cfg.LockTTL(), notifier)
	a.Sponsorships = service.NewSponsorshipService(repos, authz, stats)
	a.Maintenance = service.NewMaintenanceService(a.Store, repos, authz, stats, recorder)
	a.Notifications = service.NewNotificationService(repos.Notifications)

	return a, nil
}

// TokenManager validates and issues tokens with the shared JWT secret
func TokenManager(cfg *config.Config) security.TokenManager {
	return security.NewTokenManager(cfg.JWT.Secret)
}

// Close releases the database and Redis connections
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Warn("Failed to close redis client", "error", err)
		}
	}
	if err := a.DB.Close(); err != nil {
		logger.Warn("Failed to close database", "error", err)
	}
}
