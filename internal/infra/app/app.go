package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/arklim/registration-gate/internal/core/port"
	"github.com/arklim/registration-gate/internal/infra/config"
	"github.com/arklim/registration-gate/internal/infra/database"
	kafkainfra "github.com/arklim/registration-gate/internal/infra/kafka"
	"github.com/arklim/registration-gate/internal/infra/logger"
	"github.com/arklim/registration-gate/internal/infra/mail"
	redisinfra "github.com/arklim/registration-gate/internal/infra/redis"
	"github.com/arklim/registration-gate/internal/infra/telegram"
	"github.com/arklim/registration-gate/internal/infra/telemetry"
	postgresrepo "github.com/arklim/registration-gate/internal/repository/postgres"
	redisrepo "github.com/arklim/registration-gate/internal/repository/redis"
	"github.com/arklim/registration-gate/internal/transport/http/middleware"
	"github.com/arklim/registration-gate/internal/transport/http/routes"
	"github.com/arklim/registration-gate/internal/usecase"
)

type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
	tracing  *telemetry.TracerProvider
	reaper   *usecase.PendingReaper
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	var tracing *telemetry.TracerProvider
	if cfg.Telemetry.OTLPEndpoint != "" {
		tracing, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
		if err != nil {
			return nil, fmt.Errorf("init telemetry: %w", err)
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	var (
		redisClient    *redisinfra.Client
		rateLimitStore middleware.RateLimitStore
	)
	if cfg.Redis.Host != "" {
		redisClient, err = redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}

		rateLimitStore = redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
			KeyPrefix: "gate:rate-limit",
		})
	} else {
		log.Info("redis not configured, submit rate limiting disabled")
	}

	var (
		eventPublisher port.EventPublisher
		producer       *kafkainfra.Producer
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

	var notifier port.OperatorNotifier
	if cfg.Telegram.Token != "" {
		botNotifier, err := telegram.NewNotifier(cfg.Telegram, log)
		if err != nil {
			closeAll(pool, redisClient, producer)
			return nil, fmt.Errorf("init telegram notifier: %w", err)
		}
		notifier = botNotifier
	} else {
		log.Info("telegram token not configured, using logging notifier")
		notifier = telegram.NewLoggingNotifier(log)
	}

	var mailer port.ConfirmationMailer
	if cfg.SMTP.Host != "" {
		mailer = mail.NewMailer(cfg.SMTP, log)
	} else {
		log.Info("smtp not configured, using logging mailer")
		mailer = mail.NewLoggingMailer(log)
	}

	pendingRepo := postgresrepo.NewPendingRepository(pool)
	userRepo := postgresrepo.NewUserRepository(pool)
	approvalStore := postgresrepo.NewApprovalStore(pool)

	registrationService := usecase.NewRegistrationService(
		pendingRepo,
		userRepo,
		approvalStore,
		notifier,
		mailer,
		eventPublisher,
	).WithLogger(log)

	reaper := usecase.NewPendingReaper(pendingRepo, cfg.Pending.TTL, cfg.Pending.SweepInterval, log)

	routeDeps := routes.Dependencies{
		Config:         cfg,
		Logger:         log,
		Workflow:       registrationService,
		DecisionEditor: notifier,
		Metrics:        telemetry.Attach(),
		RateLimitStore: rateLimitStore,
		Database:       pool,
	}
	if redisClient != nil {
		routeDeps.Cache = redisClient
	}

	engine := routes.Register(routeDeps)

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
		tracing:  tracing,
		reaper:   reaper,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()
	defer func() {
		if a.tracing != nil {
			_ = a.tracing.Shutdown(context.Background())
		}
	}()

	reaperCtx, stopReaper := context.WithCancel(ctx)
	defer stopReaper()
	go a.reaper.Run(reaperCtx)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting registration gate",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}

func closeAll(pool *pgxpool.Pool, redisClient *redisinfra.Client, producer *kafkainfra.Producer) {
	if pool != nil {
		pool.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if producer != nil {
		_ = producer.Close()
	}
}
