// Package server assembles the HTTP application from its dependencies.
package server

import (
	"context"
	"errors"
	"time"

	"gallery/internal/config"
	"gallery/internal/database"
	"gallery/internal/handlers"
	"gallery/internal/middleware"
	"gallery/internal/repositories"
	"gallery/internal/services"
	"gallery/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the resources a Server is built from. Publisher and Cache are
// optional.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Store     storage.ObjectStore
	Hasher    services.PasswordHasher
	Publisher services.EventPublisher
	Cache     services.ListCache
	Logger    *zap.Logger
	// Now overrides the clock used for tokens and storage keys.
	Now func() time.Time
}

// Server owns the Fiber application and the services behind it.
type Server struct {
	app    *fiber.App
	db     *gorm.DB
	auth   *services.AuthService
	logger *zap.Logger
}

// New wires repositories, services and handlers into a Fiber app.
func New(deps Deps) (*Server, error) {
	if deps.Config == nil || deps.DB == nil || deps.Store == nil || deps.Hasher == nil {
		return nil, errors.New("server: config, database, object store and hasher are required")
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg := deps.Config

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(deps.DB)
	imageRepo := repositories.NewGORMImageRepository(deps.DB)
	bookRepo := repositories.NewGORMBookRepository(deps.DB)
	productRepo := repositories.NewGORMProductRepository(deps.DB)

	// --- Services ---
	authService := services.NewAuthService(userRepo, deps.Hasher, services.AuthOptions{
		JWTSecret:           cfg.Auth.JWTSecret,
		TokenTTL:            cfg.Auth.TokenTTL,
		ConcealLoginFailure: cfg.Auth.ConcealLoginFailure,
		Logger:              log.Named("auth"),
		Now:                 deps.Now,
	})
	imageService := services.NewImageService(imageRepo, deps.Store, services.ImageOptions{
		PageSize:  cfg.Images.PageSize,
		MaxBytes:  cfg.Images.MaxBytes,
		Publisher: deps.Publisher,
		Cache:     deps.Cache,
		Logger:    log.Named("images"),
		Now:       deps.Now,
	})
	bookService := services.NewBookService(bookRepo, log.Named("books"))
	productService := services.NewProductService(productRepo)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService, log)
	homeHandler := handlers.NewHomeHandler()
	imageHandler := handlers.NewImageHandler(imageService, log)
	bookHandler := handlers.NewBookHandler(bookService, log)
	productHandler := handlers.NewProductHandler(productService, log)

	app := fiber.New(fiber.Config{
		AppName:      "gallery",
		BodyLimit:    int(cfg.Images.MaxBytes) + 1<<20,
		ErrorHandler: errorHandler(log),
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(logger.New())

	authRequired := middleware.AuthRequired(authService, log)
	adminOnly := middleware.AdminOnly()

	// --- API Routes ---
	api := app.Group("/api")
	authHandler.RegisterRoutes(api, authRequired)
	homeHandler.RegisterRoutes(api, authRequired, adminOnly)
	imageHandler.RegisterRoutes(api, authRequired, adminOnly)
	bookHandler.RegisterRoutes(api)
	productHandler.RegisterRoutes(api)

	s := &Server{
		app:    app,
		db:     deps.DB,
		auth:   authService,
		logger: log,
	}

	// --- Health Check Endpoint ---
	app.Get("/health", s.handleHealth)

	return s, nil
}

// App exposes the Fiber application, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Auth exposes the credential service for startup tasks such as seeding.
func (s *Server) Auth() *services.AuthService {
	return s.auth
}

// Listen serves HTTP on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status, dbState := fiber.StatusOK, "connected"
	if err := database.Ping(ctx, s.db); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		status, dbState = fiber.StatusServiceUnavailable, "unreachable"
	}
	return c.Status(status).JSON(fiber.Map{
		"success":  status == fiber.StatusOK,
		"time":     time.Now().Format(time.RFC3339),
		"database": dbState,
	})
}

// errorHandler renders errors that escape the handlers, such as unknown
// routes and oversized bodies, in the shared envelope.
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code, message := fiber.StatusInternalServerError, "Something went wrong! Please try again"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code, message = fe.Code, fe.Message
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"message": message,
		})
	}
}
