package web

import (
	"context"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"wellness-planner/internal/metrics"
	"wellness-planner/internal/session"
)

// UsageReporter provides the token usage shown on the admin endpoint.
type UsageReporter interface {
	GetDailyUsage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
}

// Options configures the web server.
type Options struct {
	Registry      *session.Registry
	Hub           *Hub
	SessionSecret string
	SecureCookies bool
	// Usage and AdminSecret together enable /admin/metrics.
	Usage       UsageReporter
	AdminSecret string
	DataDir     string
	Logger      zerolog.Logger
}

// Server is the browser front-end.
type Server struct {
	echo     *echo.Echo
	registry *session.Registry
	hub      *Hub
	store    sessions.Store
	usage    UsageReporter
	admin    string
	dataDir  string
	log      zerolog.Logger
}

// NewServer builds the echo instance and registers every route.
func NewServer(opts Options) *Server {
	store := sessions.NewCookieStore([]byte(opts.SessionSecret))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = opts.SecureCookies
	store.Options.SameSite = http.SameSiteLaxMode
	store.MaxAge(0)

	s := &Server{
		echo:     echo.New(),
		registry: opts.Registry,
		hub:      opts.Hub,
		store:    store,
		usage:    opts.Usage,
		admin:    opts.AdminSecret,
		dataDir:  opts.DataDir,
		log:      opts.Logger,
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Renderer = newRenderer()
	s.echo.Use(loggerMiddleware(opts.Logger))
	s.echo.Use(middleware.Recover())

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	e := s.echo
	e.GET("/", s.indexHandler)
	e.POST("/profile", s.submitProfileHandler)
	e.POST("/regenerate", s.regenerateHandler)
	e.POST("/update", s.confirmUpdateHandler)
	e.POST("/update/cancel", s.cancelUpdateHandler)
	e.GET("/api/state", s.stateHandler)
	e.GET("/ws", s.websocketHandler)
	e.GET("/health", s.healthHandler)

	if s.usage != nil && s.admin != "" {
		admin := e.Group("/admin", adminAuth(s.admin))
		admin.GET("/metrics", s.adminMetricsHandler)
	}
}

// Mount serves h for POST requests on path. Used for the Telegram webhook.
func (s *Server) Mount(path string, h http.Handler) {
	s.echo.POST(path, echo.WrapHandler(h))
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.log.Info().Str("addr", addr).Msg("Web server listening")
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
