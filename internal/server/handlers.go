package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chrisdamba/foodlens/internal/analytics"
	"github.com/chrisdamba/foodlens/internal/models"
	"github.com/chrisdamba/foodlens/internal/synthetic"
)

// loadOrders fetches from the source under the upstream timeout and parses
// the records. Dropped records are only logged.
func (s *Server) loadOrders(ctx context.Context) ([]models.ParsedOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()

	raw, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	orders, stats := analytics.NewParser(s.location).ParseWithStats(raw)
	if stats.Dropped() > 0 {
		s.logger.Debug("dropped transaction records",
			zap.Int("total", stats.Total),
			zap.Int("parsed", stats.Parsed),
			zap.Int("not_completed", stats.NotCompleted),
			zap.Int("no_timestamp", stats.NoTimestamp),
			zap.Int("no_location", stats.NoLocation),
			zap.Int("no_total", stats.NoTotal),
			zap.Int("not_object", stats.NotObject),
		)
	}
	return orders, nil
}

func (s *Server) handleAnalytics(c *gin.Context) {
	req, err := s.parseAnalyticsRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if !req.refresh {
		if cached := s.cache.Get(ctx, req.cacheKey); cached != nil {
			c.Header("X-Cache", "HIT")
			c.JSON(http.StatusOK, gin.H{"analytics": cached})
			return
		}
	}

	orders, err := s.loadOrders(ctx)
	if err != nil {
		s.logger.Error("failed to load transactions",
			zap.String("source", s.source.Name()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load analytics data"})
		return
	}

	payload, err := analytics.ComputeAnalytics(orders, req.opts)
	if err != nil {
		status := http.StatusInternalServerError
		if isBadRequest(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	if err := s.cache.Set(ctx, req.cacheKey, payload); err != nil {
		s.logger.Warn("failed to cache analytics payload",
			zap.String("key", req.cacheKey),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
	}
	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, gin.H{"analytics": payload})
}

// handleLocation never fails on upstream errors: it answers with the
// synthetic selection for the point instead.
func (s *Server) handleLocation(c *gin.Context) {
	point, err := parsePoint(c.Query("lat"), c.Query("lng"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category := c.DefaultQuery("category", models.CategoryFilterAll)

	orders, err := s.loadOrders(c.Request.Context())
	if err != nil {
		s.logger.Warn("transaction source unavailable, serving fallback",
			zap.String("source", s.source.Name()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
		c.JSON(http.StatusOK, gin.H{"selection": analytics.FallbackSelection(point, category, "")})
		return
	}

	stores := analytics.AggregateStores(orders)
	selection := analytics.BuildAreaSelection(point, orders, stores, category)
	c.JSON(http.StatusOK, gin.H{"selection": selection})
}

// handleHeatmap serves live demand points and falls back to the seeded
// generator when the source fails or no order matches the category.
func (s *Server) handleHeatmap(c *gin.Context) {
	point, err := parsePoint(c.Query("lat"), c.Query("lng"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category := c.DefaultQuery("category", models.CategoryFilterAll)

	orders, err := s.loadOrders(c.Request.Context())
	if err != nil {
		s.logger.Warn("transaction source unavailable, serving synthetic heatmap",
			zap.String("source", s.source.Name()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
	} else if points := analytics.ComputeHeatPoints(orders, category); len(points) > 0 {
		c.JSON(http.StatusOK, gin.H{"points": points, "isFallback": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"points":     synthetic.GenerateHeatmapData(point, category),
		"isFallback": true,
	})
}
