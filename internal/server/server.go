package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/barter-backend/internal/cache"
	"github.com/shinyyama/barter-backend/internal/config"
	"github.com/shinyyama/barter-backend/internal/events"
	"github.com/shinyyama/barter-backend/internal/handler"
	"github.com/shinyyama/barter-backend/internal/metrics"
	appmw "github.com/shinyyama/barter-backend/internal/middleware"
	"github.com/shinyyama/barter-backend/internal/repository"
	"github.com/shinyyama/barter-backend/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options carries the collaborators the server wires together. DB may be nil
// and attached later with SetDB. Verifier overrides the one built from
// Config.AuthMode.
type Options struct {
	Config    *config.Config
	DB        *gorm.DB
	Log       *zap.Logger
	Cache     cache.CategoryCache
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	Verifier  appmw.TokenVerifier
}

type Server struct {
	e     *echo.Echo
	log   *zap.Logger
	repos []interface{ SetDB(*gorm.DB) }
	ready atomic.Bool
}

func New(ctx context.Context, opts Options) (*Server, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New("barter")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(log))
	e.Use(m.Middleware())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc:  allowOrigin(cfg.CORSAllowedSuffixes),
	}))

	listingRepo := repository.NewListingRepository(opts.DB)
	userRepo := repository.NewUserRepository(opts.DB)
	categoryRepo := repository.NewCategoryRepository(opts.DB)
	messageRepo := repository.NewMessageRepository(opts.DB)

	categorySvc := service.NewCategoryService(categoryRepo, opts.Cache, log)
	listingSvc := service.NewListingService(listingRepo, categorySvc, opts.Publisher, m, log)
	messageSvc := service.NewMessageService(messageRepo, userRepo, listingRepo, opts.Publisher, m, log)
	userSvc := service.NewUserService(userRepo, listingRepo, log)

	verifier := opts.Verifier
	if verifier == nil {
		var err error
		verifier, err = newVerifier(ctx, cfg, userSvc, userRepo)
		if err != nil {
			return nil, err
		}
	}
	auth := appmw.NewAuthMiddleware(verifier, log)

	listingHandler := handler.NewListingHandler(listingSvc, categorySvc, log)
	messageHandler := handler.NewMessageHandler(messageSvc, log)
	categoryHandler := handler.NewCategoryHandler(categorySvc, log)
	userHandler := handler.NewUserHandler(userSvc, log)

	s := &Server{
		e:     e,
		log:   log,
		repos: []interface{ SetDB(*gorm.DB) }{listingRepo, userRepo, categoryRepo, messageRepo},
	}
	s.ready.Store(opts.DB != nil)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"db":         fmt.Sprint(s.ready.Load()),
			"git_sha":    cfg.GitSHA,
			"build_time": cfg.BuildAt,
		})
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	e.GET("/", listingHandler.List)
	e.GET("/listing", listingHandler.List)
	e.GET("/listing/create", listingHandler.CreateForm, auth.RequireAuth)
	e.POST("/listing", listingHandler.Create, auth.RequireAuth)
	e.GET("/listing/:id", listingHandler.Get, auth.OptionalAuth)
	e.GET("/listing/:id/edit", listingHandler.EditForm, auth.RequireAuth)
	e.PUT("/listing/:id", listingHandler.Update, auth.RequireAuth)
	e.DELETE("/listing/:id", listingHandler.Delete, auth.RequireAuth)
	e.PATCH("/listing/:id/status", listingHandler.UpdateStatus, auth.RequireAuth)

	msgs := e.Group("/messages", auth.RequireAuth)
	msgs.GET("", messageHandler.Inbox)
	msgs.GET("/create", messageHandler.Compose)
	msgs.POST("", messageHandler.Send)
	msgs.POST("/create", messageHandler.Send)
	msgs.GET("/unread-count", messageHandler.UnreadCount)
	msgs.GET("/:id", messageHandler.Show)
	msgs.GET("/:id/reply", messageHandler.Reply)

	e.GET("/categories", categoryHandler.List)
	e.POST("/register", userHandler.Register)
	e.GET("/profile/:id", userHandler.Profile)

	return s, nil
}

func newVerifier(ctx context.Context, cfg *config.Config, users service.UserService, userRepo repository.UserRepository) (appmw.TokenVerifier, error) {
	switch cfg.AuthMode {
	case "jwt":
		return appmw.NewJWTVerifier(cfg.JWTSecret, userRepo)
	case "firebase", "":
		return appmw.NewFirebaseVerifier(ctx, cfg.FirebaseProjectID, users)
	default:
		return nil, fmt.Errorf("unknown AUTH_MODE %q", cfg.AuthMode)
	}
}

// allowOrigin accepts localhost on any port plus hosts ending in one of
// suffixes.
func allowOrigin(suffixes []string) func(string) (bool, error) {
	return func(origin string) (bool, error) {
		low := strings.ToLower(origin)
		if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
			strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
			return true, nil
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false, nil
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false, nil
		}
		host := u.Hostname()
		for _, suffix := range suffixes {
			suffix = strings.TrimSpace(suffix)
			if suffix != "" && strings.HasSuffix(host, suffix) {
				return true, nil
			}
		}
		return false, nil
	}
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				log.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	})
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(addr string) error {
	s.log.Info("starting server", zap.String("addr", addr))
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// SetDB attaches the database once it is reachable. Requests served before
// that fail with an internal error.
func (s *Server) SetDB(db *gorm.DB) {
	for _, r := range s.repos {
		r.SetDB(db)
	}
	s.ready.Store(db != nil)
}
