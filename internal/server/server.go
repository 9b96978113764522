package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/chorsey/apiserver/config"
	"github.com/chorsey/apiserver/internal/caption"
	"github.com/chorsey/apiserver/internal/db"
	"github.com/chorsey/apiserver/internal/handlers"
	"github.com/chorsey/apiserver/internal/live"
	"github.com/chorsey/apiserver/internal/mq"
	"github.com/chorsey/apiserver/internal/services"
	"github.com/chorsey/apiserver/internal/storage"
	"github.com/chorsey/apiserver/internal/store"
	"github.com/chorsey/apiserver/internal/store/memory"
	"github.com/chorsey/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
	hub        *live.Hub
	log        hclog.Logger
}

// repositories is the persistence backend selected by configuration.
type repositories struct {
	users  services.UserRepository
	assets interface {
		services.AssetRepository
		Create(ctx context.Context, asset types.AssetInstance) (types.AssetInstance, error)
	}
	tasks services.TaskRepository
}

// New constructs a Server with its dependencies and routes.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := NewLogger(cfg.LogLevel)
	s := &Server{log: logger}

	repos, err := s.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithLatency(services.FixedLatency(cfg.SimulatedLatency)),
		services.WithPasswordVerification(cfg.Auth.VerifyPasswords),
	}

	s.hub = live.NewHub(logger, cfg.CORS.AllowedOrigins)
	notifiers := services.Notifiers{s.hub}

	s.queue, err = mq.Open(ctx, cfg.MQ)
	if err != nil {
		s.close()
		return nil, err
	}
	if s.queue != nil {
		notifiers = append(notifiers, mq.NewTaskPublisher(s.queue, cfg.MQ.Channel, logger))
	}
	opts = append(opts, services.WithNotifier(notifiers))

	photos, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		s.close()
		return nil, err
	}
	if photos != nil {
		opts = append(opts, services.WithPhotoStore(photos))
	}

	if cfg.Caption.APIKey != "" {
		captioner, err := caption.NewGemini(ctx, cfg.Caption.APIKey, cfg.Caption.Model)
		if err != nil {
			s.close()
			return nil, errors.Wrap(err, "create captioner")
		}
		opts = append(opts, services.WithCaptioner(captioner))
	} else {
		logger.Info("CAPTION_API_KEY not set, drafting tasks from photos is disabled")
	}

	userService := services.NewUserService(repos.users, opts...)
	taskService := services.NewTaskService(repos.tasks, repos.users, repos.assets, opts...)

	authHandler := handlers.NewAuthHandler(userService, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	userHandler := handlers.NewUserHandler(userService, taskService)
	taskHandler := handlers.NewTaskHandler(taskService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		accessLogger(newAccessLog(logger)),
		requestLogger(logger),
		cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}),
	)
	router.Get("/healthz", handlers.Healthz)
	router.With(authHandler.RequireAuthOrQuery).Get("/ws", handlers.LiveHandler(s.hub))
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, authHandler)
		})
		r.Route("/users", func(r chi.Router) {
			handlers.UserRouter(r, userHandler, authHandler.RequireAuth)
		})
		r.Route("/assets", func(r chi.Router) {
			handlers.AssetRouter(r, taskHandler, authHandler.RequireAuth)
		})
		r.Route("/tasks", func(r chi.Router) {
			handlers.TaskRouter(r, taskHandler, authHandler.RequireAuth)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	s.router = router
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) openStore(ctx context.Context, cfg config.Config) (repositories, error) {
	var repos repositories
	switch cfg.Store.Backend {
	case config.StorePostgres:
		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return repositories{}, errors.Wrap(err, "open database")
		}
		s.db = dbConn
		repos = repositories{
			users:  store.NewUserRepository(dbConn),
			assets: store.NewAssetRepository(dbConn),
			tasks:  store.NewTaskRepository(dbConn),
		}
	default:
		mem, err := memory.New()
		if err != nil {
			return repositories{}, err
		}
		repos = repositories{users: mem.Users(), assets: mem.Assets(), tasks: mem.Tasks()}
	}

	if cfg.Store.SeedDemo {
		if err := store.DemoDataset().Load(ctx, repos.users, repos.assets, repos.tasks); err != nil {
			s.close()
			return repositories{}, errors.Wrap(err, "load demo data")
		}
		s.log.Info("demo household loaded", "store", cfg.Store.Backend)
	}
	return repos, nil
}

// NewLogger builds the application logger at the given level.
func NewLogger(level string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  "chorsey",
		Level: hclog.LevelFromString(level),
	})
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.log.Info("listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx is
// done and releases every backend.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.close()
	return err
}

func (s *Server) close() {
	if s.hub != nil {
		s.hub.Close()
	}
	if s.queue != nil {
		if err := s.queue.Close(); err != nil {
			s.log.Warn("failed to close message queue", "error", err)
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}
