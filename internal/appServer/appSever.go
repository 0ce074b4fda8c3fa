package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/innonet-bff/config"
	"github.com/ds124wfegd/innonet-bff/internal/client"
	"github.com/ds124wfegd/innonet-bff/internal/database"
	repository "github.com/ds124wfegd/innonet-bff/internal/database/postgres"
	cache "github.com/ds124wfegd/innonet-bff/internal/database/redis"
	"github.com/ds124wfegd/innonet-bff/internal/notification"
	"github.com/ds124wfegd/innonet-bff/internal/service"
	"github.com/ds124wfegd/innonet-bff/internal/transport"
	"github.com/ds124wfegd/innonet-bff/internal/worker"

	"github.com/ds124wfegd/innonet-bff/pkg/kafka"
	"github.com/ds124wfegd/innonet-bff/pkg/postgres"
	"github.com/ds124wfegd/innonet-bff/pkg/queue"
	"github.com/ds124wfegd/innonet-bff/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	loc := cfg.Calendar.Location()

	// Upstream API
	api := client.New(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	backends := func(token string) service.Backend {
		return api.WithToken(token)
	}

	// Проверки для /health
	checks := map[string]transport.HealthCheck{}

	// Shared unread counter cache
	var countCache database.CountCache
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			logrus.Errorf("Failed to connect to Redis: %v. Continuing without count cache...", err)
		} else {
			defer redisClient.Close()
			countCache = cache.NewCountCacheRepository(redisClient, cfg.Notifications.CountCacheTTL)
			checks["redis"] = func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}
			logrus.Info("Redis count cache initialized")
		}
	}

	// Mutation journal
	var journal database.MutationJournal
	if cfg.Database.Enabled {
		db, err := postgres.NewPostgresDB(&cfg.Database)
		if err != nil {
			logrus.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()

		if err := postgres.RunMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		journal = repository.NewMutationRepository(db)
		checks["postgres"] = db.PingContext
		logrus.Info("Mutation journal initialized")
	}

	// Indicator events
	var publisher service.EventPublisher
	switch cfg.Events.Driver {
	case "kafka":
		producer := kafka.NewProducer(cfg.Events.Kafka.Brokers, cfg.Events.Kafka.Topic)
		defer producer.Close()
		publisher = service.NewKafkaAdapter(producer)
		logrus.Info("Kafka event publisher initialized")
	case "rabbitmq":
		rabbit, err := queue.NewRabbitMQ(queue.RabbitMQConfig{
			URL:        cfg.Events.RabbitMQ.URL,
			Exchange:   cfg.Events.RabbitMQ.Exchange,
			QueueName:  cfg.Events.RabbitMQ.QueueName,
			BindingKey: cfg.Events.RabbitMQ.BindingKey,
		})
		if err != nil {
			logrus.Errorf("Failed to initialize RabbitMQ: %v. Continuing without events...", err)
		} else {
			defer rabbit.Close()
			publisher = service.NewQueueAdapter(rabbit)
			checks["rabbitmq"] = func(context.Context) error {
				return rabbit.HealthCheck()
			}
			logrus.Info("RabbitMQ event publisher initialized")
		}
	case "", "none":
		logrus.Info("Indicator events disabled")
	default:
		logrus.Warnf("Unknown events driver %q, indicator events disabled", cfg.Events.Driver)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize services
	calendarService := service.NewCalendarService(backends, loc)
	sessionService := service.NewSessionService(ctx, backends, service.SessionOptions{
		Notifications: notification.Config{
			PollInterval:   cfg.Notifications.PollInterval,
			ListLimit:      cfg.Notifications.ListLimit,
			StrictOrdering: cfg.Notifications.StrictOrdering,
		},
		Location: loc,
	}, countCache, journal, publisher)

	// Initialize cleanup worker
	cleanupWorker := worker.NewSessionCleanupWorker(sessionService, cfg.Sessions.CleanupInterval, cfg.Sessions.IdleTimeout)
	go cleanupWorker.Start(ctx)
	logrus.Info("Cleanup worker started")

	// Initialize handlers
	calendarHandler := transport.NewCalendarHandler(calendarService)
	sessionHandler := transport.NewSessionHandler(sessionService)
	notificationHandler := transport.NewNotificationHandler(sessionService)
	healthHandler := transport.NewHealthHandler(sessionService, checks, cleanupWorker)

	if cfg.Server.Mode == "release" || cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(calendarHandler, sessionHandler, notificationHandler, healthHandler, cfg.Server.Timeout)); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}

	// Сначала сессии, потом фоновые циклы
	sessionService.Shutdown(shutdownCtx)
	cancel()
}
