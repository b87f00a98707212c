package repositories

import (
	"context"

	"github.com/chrisdamba/foodlens/internal/models"
)

// TransactionRepository stores raw transaction payloads as received from the
// delivery platforms.
type TransactionRepository interface {
	EnsureSchema(ctx context.Context) error
	BulkCreate(ctx context.Context, rows []models.TransactionRow) error
	GetAll(ctx context.Context) ([]models.TransactionRow, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

// StoreRepository keeps the latest per-store rollup for map lookups.
type StoreRepository interface {
	EnsureSchema(ctx context.Context) error
	ReplaceAll(ctx context.Context, stores []models.StoreSummary) error
	FindNearby(ctx context.Context, point models.Location, radiusMeters float64) ([]models.StoreSummary, error)
	Count(ctx context.Context) (int, error)
}
