package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/config"
	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/espacios"
	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/metrics"
	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/session"
	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/viewstate"
)

// MetricsSource returns grouped building statistics for a set of sedes.
type MetricsSource interface {
	GroupedMetrics(ctx context.Context, token string, idsSedes []int) ([]metrics.MetricRecord, error)
}

// EspaciosBackend persists espacio edits.
type EspaciosBackend interface {
	ListEspacios(ctx context.Context, token string, edificioID int) ([]espacios.Espacio, error)
	UpdateEspacio(ctx context.Context, token string, e espacios.Espacio) (espacios.Espacio, error)
	DeleteEspacio(ctx context.Context, token string, id int) error
}

// Pinger reports database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server needs.
type Deps struct {
	Metrics  MetricsSource
	Espacios EspaciosBackend
	Guard    *session.Guard
	// DB is optional; when set /healthz includes a ping.
	DB Pinger
}

// Server bundles router and dependencies for the dashboard API.
type Server struct {
	cfg        config.Config
	deps       Deps
	engine     *gin.Engine
	dashboards *viewstate.Registry[*dashboardView]
	espacios   *viewstate.Registry[*espacios.Cache]
}

// New constructs a server with routes and middleware.
func New(cfg config.Config, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestIDMiddleware())
	engine.Use(zapLogger())
	engine.Use(corsMiddleware(cfg.AllowedOrigin))

	server := &Server{
		cfg:        cfg,
		deps:       deps,
		engine:     engine,
		dashboards: viewstate.New[*dashboardView](cfg.ViewTTL),
		espacios:   viewstate.New[*espacios.Cache](cfg.ViewTTL),
	}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api")
	api.Use(s.viewMiddleware())
	api.Use(s.sessionMiddleware())

	dashboard := api.Group("/dashboard")
	{
		dashboard.POST("/metricas", s.handleLoadMetrics)
		dashboard.GET("/metricas", s.handleGetMetrics)
		dashboard.POST("/filtros/categoricos", s.handleToggleCategorical)
		dashboard.PUT("/filtros/numericos", s.handleSetNumeric)
		dashboard.POST("/filtros/aplicar", s.handleApplyFilters)
		dashboard.POST("/filtros/reset", s.handleResetFilters)
		dashboard.GET("/seleccion", s.handleSelection)
		dashboard.GET("/grafico.png", s.handleChart)
		dashboard.GET("/export.xlsx", s.handleExport)
	}

	edificios := api.Group("/edificios/:id/espacios")
	{
		edificios.GET("", s.handleListEspacios)
		edificios.PUT("/:espacio", s.handleUpdateEspacio)
		edificios.DELETE("/:espacio", s.handleDeleteEspacio)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.deps.DB == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := s.deps.DB.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "ok"})
}

// requestContext bounds backend calls made on behalf of one request.
func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
}
