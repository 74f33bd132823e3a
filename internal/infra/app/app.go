package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/arklim/smart-grocery-api/internal/core/port"
	"github.com/arklim/smart-grocery-api/internal/infra/captcha"
	"github.com/arklim/smart-grocery-api/internal/infra/config"
	"github.com/arklim/smart-grocery-api/internal/infra/database"
	"github.com/arklim/smart-grocery-api/internal/infra/email"
	kafkainfra "github.com/arklim/smart-grocery-api/internal/infra/kafka"
	"github.com/arklim/smart-grocery-api/internal/infra/logger"
	redisinfra "github.com/arklim/smart-grocery-api/internal/infra/redis"
	"github.com/arklim/smart-grocery-api/internal/infra/security"
	"github.com/arklim/smart-grocery-api/internal/repository/memory"
	postgresrepo "github.com/arklim/smart-grocery-api/internal/repository/postgres"
	redisrepo "github.com/arklim/smart-grocery-api/internal/repository/redis"
	"github.com/arklim/smart-grocery-api/internal/transport/http/middleware"
	"github.com/arklim/smart-grocery-api/internal/transport/http/routes"
	"github.com/arklim/smart-grocery-api/internal/usecase"
)

// Application wires configuration, storage, messaging, and the HTTP server.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
}

// New assembles the application from configuration. Postgres is mandatory;
// Redis and Kafka degrade to in-process fallbacks when unconfigured.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	argonCfg := security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}
	if err := security.ConfigureArgon2(argonCfg); err != nil {
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	tokens, err := security.NewTokenService(cfg.Auth.Secret, cfg.App.Name)
	if err != nil {
		return nil, fmt.Errorf("init token service: %w", err)
	}

	var (
		redisClient    *redisinfra.Client
		rateLimitStore port.RateLimitStore
		cacheChecker   routes.CacheChecker
	)
	if cfg.Redis.Enabled {
		redisClient, err = redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		rateLimitStore = redisrepo.NewRateLimitStore(redisClient.Client(), redisrepo.StoreConfig{
			KeyPrefix: "grocery:rate-limit",
			TTL:       rateLimitRetention(cfg.RateLimit),
		})
		cacheChecker = redisClient
	} else {
		log.Info("Redis disabled, using in-memory rate limit store")
		rateLimitStore = memory.NewRateLimitStore()
	}

	repos := postgresrepo.NewRepositories(pool)

	var (
		producer       *kafkainfra.Producer
		eventPublisher port.EventPublisher
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	mailer, err := newMailer(ctx, cfg.Email, log)
	if err != nil {
		return nil, fmt.Errorf("init mailer: %w", err)
	}

	var captchaVerifier port.CaptchaVerifier
	if cfg.Captcha.Secret != "" {
		captchaVerifier = captcha.NewTurnstileVerifier(cfg.Captcha.Secret, log)
	} else {
		log.Info("captcha secret not configured, verification disabled")
		captchaVerifier = captcha.NewNoopVerifier()
	}

	passwordValidator := security.DefaultPasswordValidator()

	permissions := usecase.NewPermissionService(repos.Lists, repos.Shares)
	services := routes.ServiceSet{
		Auth:          usecase.NewAuthService(cfg, repos.Users, tokens, eventPublisher, passwordValidator, log),
		Users:         usecase.NewUserService(repos.Users),
		Lists:         usecase.NewListService(repos.Lists, repos.Shares, permissions, log),
		Shares:        usecase.NewShareService(repos.Shares, repos.Users, permissions, eventPublisher, log),
		PasswordReset: usecase.NewPasswordResetService(cfg, repos.Users, tokens, rateLimitStore, eventPublisher, mailer, captchaVerifier, passwordValidator, log),
		Reminders:     usecase.NewReminderService(repos.Lists, mailer, log),
	}

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: middleware.NewRateLimiter(rateLimitStore, log),
		Metrics:     metrics,
		Services:    services,
		Database:    pool,
		Cache:       cacheChecker,
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
	}, nil
}

// Logger exposes the application logger.
func (a *Application) Logger() *zap.Logger {
	return a.logger
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		a.close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := server.Shutdown(shutdownCtx)
	a.close()
	if err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return <-errCh
}

func (a *Application) close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("failed to close kafka producer", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	_ = a.logger.Sync()
}

func newMailer(ctx context.Context, cfg config.EmailSettings, log *zap.Logger) (port.Mailer, error) {
	switch cfg.Provider {
	case "ses":
		return email.NewSESMailer(ctx, cfg, log)
	case "resend":
		return email.NewResendMailer(cfg, log), nil
	case "log", "":
		return email.NewLogMailer(log), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// rateLimitRetention picks a Redis key TTL comfortably past the widest window
// so stale sets expire on their own.
func rateLimitRetention(cfg config.RateLimitSettings) time.Duration {
	window := cfg.WindowDuration
	if cfg.ForgotWindow > window {
		window = cfg.ForgotWindow
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return 2 * window
}
