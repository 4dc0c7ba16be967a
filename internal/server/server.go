// Package server exposes the fact-check API over HTTP.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/benoitv-dev/climafact/config"
	"github.com/benoitv-dev/climafact/internal/ground"
	"github.com/benoitv-dev/climafact/internal/store"
)

// FactChecker is the query surface the HTTP layer depends on.
type FactChecker interface {
	Check(ctx context.Context, claim string) (ground.Result, error)
}

// Server wires the fact-check API, health and metrics endpoints.
type Server struct {
	echo    *echo.Echo
	checker FactChecker
	store   *store.Store
	cfg     *config.Config
	logger  *log.Logger
}

// New builds the HTTP server. The checker and store must already be
// connected; the server owns neither.
func New(cfg *config.Config, checker FactChecker, st *store.Store) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
	}))

	s := &Server{echo: e, checker: checker, store: st, cfg: cfg, logger: baseLogger}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealth)
	// With a dedicated metrics port the serve command runs its own
	// listener and /metrics stays off the API mux.
	if s.cfg.Telemetry.Enabled && s.cfg.Telemetry.MetricsPort == 0 {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	api := s.echo.Group("/api")
	if s.cfg.Server.JWTSecret != "" {
		api.Use(authMiddleware([]byte(s.cfg.Server.JWTSecret)))
	}
	api.POST("/check", s.handleCheck)
	api.GET("/stats", s.handleStats)
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Printf("listening on %s", addr)
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying mux, used by tests.
func (s *Server) Handler() http.Handler { return s.echo }

type checkRequest struct {
	Claim string `json:"claim"`
}

func (s *Server) handleCheck(c echo.Context) error {
	var req checkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Claim) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "claim is required")
	}
	res, err := s.checker.Check(c.Request().Context(), req.Claim)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, fmt.Sprintf("check failed: %v", err))
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleStats(c echo.Context) error {
	ctx := c.Request().Context()
	col, err := s.store.GetCollection(ctx, s.cfg.Storage.Collection)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("collection %s: %v", s.cfg.Storage.Collection, err))
	}
	n, err := s.store.Count(ctx, col)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"collection":      col.Name,
		"embedding_model": col.EmbeddingModel,
		"dimensions":      col.Dimensions,
		"chunks":          n,
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	if s.store != nil {
		if err := s.store.DB.PingContext(c.Request().Context()); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unreachable")
		}
	}
	return c.String(http.StatusOK, "ok")
}
