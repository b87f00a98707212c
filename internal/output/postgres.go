package output

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/chrisdamba/foodlens/internal/models"
	"github.com/chrisdamba/foodlens/internal/repositories"
)

// PostgresOutput collects store rows and replaces the store_summaries table
// with them on Close. Snapshots are not stored.
type PostgresOutput struct {
	ctx    context.Context
	repo   repositories.StoreRepository
	logger *zap.Logger

	mu     sync.Mutex
	stores []models.StoreSummary
}

func NewPostgresOutput(ctx context.Context, repo repositories.StoreRepository, logger *zap.Logger) *PostgresOutput {
	return &PostgresOutput{ctx: ctx, repo: repo, logger: logger}
}

func (p *PostgresOutput) WriteMessage(topic string, msg []byte) error {
	if topic != TopicStores {
		p.logger.Debug("postgres output ignores topic", zap.String("topic", topic))
		return nil
	}
	row, err := decodeRow(topic, msg)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.stores = append(p.stores, row.(StoreRow).Summary())
	p.mu.Unlock()
	return nil
}

func (p *PostgresOutput) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.repo.EnsureSchema(p.ctx); err != nil {
		return err
	}
	if err := p.repo.ReplaceAll(p.ctx, p.stores); err != nil {
		return fmt.Errorf("replace store summaries: %w", err)
	}
	persisted, err := p.repo.Count(p.ctx)
	if err != nil {
		p.logger.Warn("failed to count store summaries", zap.Error(err))
	}
	p.logger.Info("store summaries written",
		zap.Int("stores", len(p.stores)),
		zap.Int("persisted", persisted),
	)
	p.stores = nil
	return nil
}
