// Package server exposes the analytics engine over a JSON HTTP API.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/devpulse/internal/analytics"
	"github.com/rohankatakam/devpulse/internal/errors"
	"github.com/rohankatakam/devpulse/internal/period"
	"github.com/rohankatakam/devpulse/internal/timeseries"
)

const shutdownTimeout = 10 * time.Second

// Loader produces a fresh dataset, typically by reading the commit store
type Loader func(ctx context.Context) (*analytics.Dataset, error)

// Server answers summary and time-series queries against one dataset.
// Every request recomputes from the full dataset.
type Server struct {
	engine  *analytics.Engine
	loader  Loader
	logger  *logrus.Logger
	metrics *Metrics
	router  *gin.Engine

	mu       sync.RWMutex
	dataset  *analytics.Dataset
	loadedAt time.Time
}

// New builds a server. loader may be nil, in which case reloads are refused.
func New(engine *analytics.Engine, loader Loader, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		engine:  engine,
		loader:  loader,
		logger:  logger,
		metrics: NewMetrics(),
		dataset: &analytics.Dataset{},
	}
	s.router = s.setupRouter()
	return s
}

// SetDataset swaps the dataset served by every endpoint
func (s *Server) SetDataset(ds *analytics.Dataset) {
	s.mu.Lock()
	s.dataset = ds
	s.loadedAt = time.Now().UTC()
	s.mu.Unlock()
	s.metrics.ObserveDataset(ds.Report)
}

// Reload replaces the dataset with the loader's output
func (s *Server) Reload(ctx context.Context) error {
	if s.loader == nil {
		return errors.ConfigError("server has no dataset loader")
	}
	ds, err := s.loader(ctx)
	s.metrics.observeReload(err)
	if err != nil {
		return err
	}
	s.SetDataset(ds)
	s.logger.WithFields(logrus.Fields{
		"accepted":   ds.Report.Accepted,
		"rejected":   ds.Report.Rejected,
		"duplicates": ds.Report.Duplicates,
	}).Info("dataset loaded")
	return nil
}

func (s *Server) current() (*analytics.Dataset, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset, s.loadedAt
}

// Handler returns the HTTP handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.NetworkErrorf(err, "serve on %s", addr)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) setupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(s.recoveryMiddleware())
	router.Use(s.loggerMiddleware())
	router.Use(s.metrics.middleware())

	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/summary", s.summary)
		v1.GET("/timeseries", s.timeSeries)
		v1.GET("/overview", s.overview)
		v1.GET("/report", s.report)
		v1.GET("/periods", s.periods)
		v1.POST("/reload", s.reload)
	}
	return router
}

func (s *Server) health(c *gin.Context) {
	ds, loadedAt := s.current()
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"commits":   len(ds.Commits),
		"rejected":  ds.Report.Rejected,
		"loaded_at": loadedAt,
	})
}

func (s *Server) summary(c *gin.Context) {
	spec, ok := s.periodParam(c)
	if !ok {
		return
	}
	ds, _ := s.current()
	res, err := s.engine.Summaries(ds, spec)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) timeSeries(c *gin.Context) {
	spec, ok := s.periodParam(c)
	if !ok {
		return
	}
	g, err := timeseries.ParseGranularity(c.DefaultQuery("granularity", string(timeseries.Day)))
	if err != nil {
		s.fail(c, err)
		return
	}
	ds, _ := s.current()
	res, err := s.engine.TimeSeries(ds, spec, g)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) overview(c *gin.Context) {
	names := period.Names()
	if raw := c.Query("periods"); raw != "" {
		names = nil
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}
	ds, _ := s.current()
	res, err := s.engine.Overview(c.Request.Context(), ds, names)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) report(c *gin.Context) {
	ds, _ := s.current()
	c.JSON(http.StatusOK, ds.Report)
}

func (s *Server) periods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"periods": period.Names()})
}

func (s *Server) reload(c *gin.Context) {
	if err := s.Reload(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	ds, _ := s.current()
	c.JSON(http.StatusOK, ds.Report)
}

func (s *Server) periodParam(c *gin.Context) (period.Spec, bool) {
	spec, err := period.Parse(c.DefaultQuery("period", period.All), c.Query("from"), c.Query("to"), s.engine.Location())
	if err != nil {
		s.fail(c, err)
		return period.Spec{}, false
	}
	return spec, true
}

// fail maps configuration errors (bad periods, granularities) to 400 and
// everything else to 500
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.IsConfig(err) {
		status = http.StatusBadRequest
	} else {
		s.logger.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (s *Server) loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"client_ip": c.ClientIP(),
			"duration":  time.Since(start),
		}).Debug("HTTP request")
	}
}

func (s *Server) recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.WithFields(logrus.Fields{
					"error":  err,
					"stack":  string(debug.Stack()),
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				}).Error("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()
		c.Next()
	}
}
