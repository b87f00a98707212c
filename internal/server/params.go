package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chrisdamba/foodlens/internal/analytics"
	"github.com/chrisdamba/foodlens/internal/cache"
	"github.com/chrisdamba/foodlens/internal/geo"
	"github.com/chrisdamba/foodlens/internal/models"
)

func isBadRequest(err error) bool {
	return errors.Is(err, models.ErrInvalidCoordinates) ||
		errors.Is(err, models.ErrInvalidDateRange) ||
		errors.Is(err, models.ErrInvalidParameter)
}

// parsePoint requires both coordinates to be numeric and in range.
func parsePoint(latValue, lngValue string) (models.Location, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latValue), 64)
	if err != nil {
		return models.Location{}, models.ErrInvalidCoordinates
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngValue), 64)
	if err != nil {
		return models.Location{}, models.ErrInvalidCoordinates
	}
	if !(geo.Point{Lat: lat, Lng: lng}).Valid() {
		return models.Location{}, models.ErrInvalidCoordinates
	}
	return models.Location{Lat: lat, Lng: lng}, nil
}

type analyticsRequest struct {
	opts     analytics.Options
	cacheKey string
	refresh  bool
}

func (s *Server) parseAnalyticsRequest(c *gin.Context) (analyticsRequest, error) {
	var req analyticsRequest
	now := s.now()

	dateRange, err := models.ParseDateRange(c.Query("start"), c.Query("end"), now, s.location, analytics.DefaultRangeDays)
	if err != nil {
		return req, err
	}

	filters := analytics.Filters{Category: c.Query("category")}
	if err := analytics.ValidateCategoryFilter(filters.Category); err != nil {
		return req, err
	}

	if value := c.Query("fulfillment"); value != "" {
		ft, ok := models.ParseFulfillmentType(value)
		if !ok {
			return req, fmt.Errorf("%w: fulfillment must be delivery or pickup", models.ErrInvalidParameter)
		}
		filters.FulfillmentType = ft
	}

	lat, lng := c.Query("lat"), c.Query("lng")
	if lat != "" || lng != "" {
		point, err := parsePoint(lat, lng)
		if err != nil {
			return req, err
		}
		filters.Center = &point
		radius := c.Query("radiusKm")
		if radius == "" {
			return req, fmt.Errorf("%w: radiusKm is required with lat and lng", models.ErrInvalidParameter)
		}
		if filters.RadiusKm, err = strconv.ParseFloat(radius, 64); err != nil {
			return req, fmt.Errorf("%w: radiusKm must be numeric", models.ErrInvalidParameter)
		}
	}

	if err := filters.Validate(); err != nil {
		return req, err
	}

	sortBy, err := analytics.ParseSortKey(c.Query("sort"))
	if err != nil {
		return req, err
	}

	req.opts = analytics.Options{
		Now:      now,
		Range:    dateRange,
		Filters:  filters,
		SortBy:   sortBy,
		Location: s.location,
	}
	req.refresh, _ = strconv.ParseBool(c.Query("refresh"))
	req.cacheKey = cache.Key(
		c.Query("start"), c.Query("end"),
		strings.ToLower(filters.Category), string(filters.FulfillmentType),
		lat, lng, c.Query("radiusKm"), string(sortBy),
	)
	return req, nil
}
