package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/lifelog/apiserver/config"
	"github.com/lifelog/apiserver/internal/backup"
	"github.com/lifelog/apiserver/internal/events"
	"github.com/lifelog/apiserver/internal/handlers"
	"github.com/lifelog/apiserver/internal/logging"
	"github.com/lifelog/apiserver/internal/mq"
	"github.com/lifelog/apiserver/internal/services"
	"github.com/lifelog/apiserver/internal/storage"
	"github.com/lifelog/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	logger     zerolog.Logger

	snapshots      *backup.Service
	backupInterval time.Duration
	eventsCloser   io.Closer

	bgCancel context.CancelFunc
}

// New constructs a Server: repositories over the data directory, the
// service layer, optional backup and event backends, and the route tree.
// The admin account is ensured here so a misconfigured first boot fails
// before the listener starts.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	userRepo := store.NewUserRepository(cfg.DataDir)
	categoryRepo := store.NewCategoryRepository(cfg.DataDir)
	entryRepo := store.NewEntryRepository(cfg.DataDir)

	userService := services.NewUserService(userRepo)
	if err := userService.EnsureAdmin(ctx, cfg.AdminPassword); err != nil {
		return nil, err
	}

	publisher, eventsCloser, err := newEventsPublisher(ctx, cfg.Events, logger)
	if err != nil {
		return nil, err
	}

	taxonomyService := services.NewTaxonomyService(categoryRepo, publisher)
	entryService := services.NewEntryService(entryRepo, categoryRepo, publisher, cfg.EntriesScope)

	snapshots, err := newSnapshotService(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	authHandler := handlers.NewAuthHandler(userService, cfg.JWTSecret, cfg.TokenTTL)
	loginLimiter := httprate.LimitByIP(cfg.LoginRateLimit, cfg.LoginRateWindow)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		logging.RequestLogger(logger),
		middleware.Timeout(60*time.Second),
		cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		}),
	)

	router.Get("/health", handlers.Healthz)
	router.Get("/healthz", handlers.Healthz)

	router.Route("/api", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler, loginLimiter)

		r.Group(func(r chi.Router) {
			r.Use(authHandler.RequireAuth)
			r.Route("/categories", func(r chi.Router) {
				handlers.TaxonomyRouter(r, taxonomyService)
			})
			r.Route("/entries", func(r chi.Router) {
				handlers.EntryRouter(r, entryService)
			})
			r.Route("/backups", func(r chi.Router) {
				handlers.BackupRouter(r, snapshotRunner(snapshots))
			})
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer:     httpServer,
		router:         router,
		logger:         logger,
		snapshots:      snapshots,
		backupInterval: cfg.Backup.Interval,
		eventsCloser:   eventsCloser,
	}, nil
}

// Router exposes the chi router for route registration and tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server and, when configured, the snapshot scheduler.
func (s *Server) Start() error {
	if s.snapshots != nil && s.backupInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		s.bgCancel = cancel
		go s.snapshots.RunEvery(ctx, s.backupInterval)
	}

	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.bgCancel != nil {
		s.bgCancel()
	}
	if s.eventsCloser != nil {
		_ = s.eventsCloser.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// newEventsPublisher selects the event backend. An empty backend name
// disables events.
func newEventsPublisher(ctx context.Context, cfg config.EventsConfig, logger zerolog.Logger) (services.Events, io.Closer, error) {
	var backend mq.Backend

	switch cfg.Backend {
	case "":
		return services.NoopEvents{}, nil, nil
	case "rabbitmq":
		client, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, nil, fmt.Errorf("rabbitmq: %w", err)
		}
		backend = client
	case "pubsub":
		client, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, nil, fmt.Errorf("pubsub: %w", err)
		}
		backend = client
	default:
		return nil, nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}

	publisher := events.NewPublisher(mq.New(backend), cfg.Channel, logger)
	return publisher, publisher, nil
}

// newSnapshotService selects the backup backend. An empty backend name
// disables backups.
func newSnapshotService(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*backup.Service, error) {
	store, err := NewObjectStorage(ctx, cfg.Backup)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, nil
	}
	return backup.NewService(store, cfg.DataDir, logger), nil
}

// NewObjectStorage builds the configured object-storage backend, or nil
// when backups are disabled. Shared with the backup/restore CLI commands.
func NewObjectStorage(ctx context.Context, cfg config.BackupConfig) (storage.ObjectStorage, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "minio":
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, fmt.Errorf("minio: %w", err)
		}
		return client, nil
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, fmt.Errorf("gcs: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown backup backend %q", cfg.Backend)
	}
}

// snapshotRunner adapts a possibly-nil *backup.Service to the handler
// interface without handing it a typed nil.
func snapshotRunner(s *backup.Service) handlers.SnapshotRunner {
	if s == nil {
		return nil
	}
	return s
}
