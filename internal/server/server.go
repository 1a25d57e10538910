package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/qbank-io/apiserver/config"
	"github.com/qbank-io/apiserver/internal/audit"
	"github.com/qbank-io/apiserver/internal/db"
	"github.com/qbank-io/apiserver/internal/handlers"
	"github.com/qbank-io/apiserver/internal/mq"
	"github.com/qbank-io/apiserver/internal/services"
	"github.com/qbank-io/apiserver/internal/storage"
	"github.com/qbank-io/apiserver/internal/store"
)

// Server wraps the HTTP server and its owned resources.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	publisher  *mq.MQ
}

// New constructs a Server: it opens the database, wires repositories,
// services and handlers, and mounts the API routes.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.Auth.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	attachmentStorage, err := newStorage(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if err := attachmentStorage.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	publisher, err := newAuditPublisher(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	questionRepo := store.NewQuestionRepository(dbConn)
	auditRepo := store.NewAuditLogRepository(dbConn)

	userService := services.NewUserService(userRepo)
	questionService := services.NewQuestionService(questionRepo)

	trail := audit.NewTrail(cfg.AuditLogDir)

	var auditPublisher services.AuditPublisher
	if publisher != nil {
		auditPublisher = publisher
	}
	recorder := services.NewRecorder(trail, auditRepo, auditPublisher)

	attachments := storage.NewAttachments(attachmentStorage)

	tokenTTL := time.Duration(cfg.Auth.TokenExpireMinutes) * time.Minute
	authHandler := handlers.NewAuthHandler(userService, jwtSecret, tokenTTL)
	userHandler := handlers.NewUserHandler(userService)
	questionHandler := handlers.NewQuestionHandler(questionService, recorder)
	fileHandler := handlers.NewFileHandler(attachments)
	importExportHandler := handlers.NewImportExportHandler(questionService, recorder)
	auditHandler := handlers.NewAuditHandler(auditRepo, trail)

	requireAuth := authHandler.RequireAuth
	requireEditor := handlers.RequireEditor()

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, authHandler)
		})
		r.Route("/users", func(r chi.Router) {
			handlers.UserRouter(r, userHandler, requireAuth)
		})
		r.Route("/questions", func(r chi.Router) {
			r.With(requireAuth, requireEditor).Post("/import", importExportHandler.Import)
			r.With(requireAuth, requireEditor).Get("/export", importExportHandler.Export)
			r.With(requireAuth, requireEditor).Get("/{questionID}/audit", auditHandler.ListRows)
			r.With(requireAuth, requireEditor).Get("/{questionID}/audit/history", auditHandler.History)
			handlers.QuestionRouter(r, questionHandler, requireAuth)
		})
		r.With(requireAuth, requireEditor).Post("/upload", fileHandler.Upload)
		r.With(requireAuth).Get("/files/*", fileHandler.Serve)
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
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		publisher:  publisher,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
	return s.httpServer.Close()
}

// newStorage selects the attachment backend from config. Local disk is the
// default.
func newStorage(ctx context.Context, cfg config.StorageConfig) (*storage.Storage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "local":
		backend, err := storage.NewLocalClient(cfg.UploadDir)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	case "minio":
		backend, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	case "gcs":
		backend, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// newAuditPublisher selects the optional audit-event broker from config.
// Returns nil when publishing is disabled.
func newAuditPublisher(ctx context.Context, cfg config.Config) (*mq.MQ, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.AuditPublisher)) {
	case "":
		return nil, nil
	case "rabbitmq":
		backend, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	case "pubsub":
		backend, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	default:
		return nil, fmt.Errorf("unknown audit publisher %q", cfg.AuditPublisher)
	}
}
