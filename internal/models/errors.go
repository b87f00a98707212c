package models

import "errors"

// Request validation errors. The HTTP layer maps them to 400 responses.
var (
	ErrInvalidCoordinates = errors.New("lat and lng must be numeric and within range")
	ErrInvalidDateRange   = errors.New("start date must be before end date")
	ErrInvalidParameter   = errors.New("invalid request parameter")
	ErrUnknownSource      = errors.New("unknown transaction source")
)
