package source

import (
	"context"
	"fmt"

	"github.com/chrisdamba/foodlens/internal/analytics"
	"github.com/chrisdamba/foodlens/internal/repositories"
)

// PostgresSource reads the transaction_cache table.
type PostgresSource struct {
	repo repositories.TransactionRepository
}

func NewPostgresSource(repo repositories.TransactionRepository) *PostgresSource {
	return &PostgresSource{repo: repo}
}

func (s *PostgresSource) Name() string { return KindPostgres }

func (s *PostgresSource) Fetch(ctx context.Context) ([]any, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return analytics.RowRecords(rows), nil
}
