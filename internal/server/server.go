// Package server exposes the analytics engine over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chrisdamba/foodlens/internal/cache"
	"github.com/chrisdamba/foodlens/internal/source"
)

const requestIDHeader = "X-Request-ID"

type Config struct {
	Source source.Source
	Cache  *cache.AnalyticsCache
	Logger *zap.Logger
	// Location is the zone used to read timestamps and bucket orders.
	Location *time.Location
	// UpstreamTimeout bounds each fetch from Source.
	UpstreamTimeout time.Duration
	// Now is overridable for tests.
	Now func() time.Time
}

type Server struct {
	source          source.Source
	cache           *cache.AnalyticsCache
	logger          *zap.Logger
	location        *time.Location
	upstreamTimeout time.Duration
	now             func() time.Time
}

func New(cfg Config) *Server {
	s := &Server{
		source:          cfg.Source,
		cache:           cfg.Cache,
		logger:          cfg.Logger,
		location:        cfg.Location,
		upstreamTimeout: cfg.UpstreamTimeout,
		now:             cfg.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.location == nil {
		s.location = time.Local
	}
	if s.upstreamTimeout <= 0 {
		s.upstreamTimeout = 10 * time.Second
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Router wires the routes onto a fresh gin engine.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(requestID(), requestLogger(s.logger), gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"source": s.source.Name(),
			"time":   s.now().UTC(),
		})
	})

	business := router.Group("/api/business")
	{
		business.GET("/analytics", s.handleAnalytics)
		business.GET("/analytics/location", s.handleLocation)
		business.GET("/heatmap", s.handleHeatmap)
	}
	return router
}

// requestID propagates an incoming X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request failed", fields...)
			return
		}
		logger.Info("request", fields...)
	}
}
