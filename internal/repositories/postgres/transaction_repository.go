package postgres

import (
	"context"
	"fmt"

	"github.com/chrisdamba/foodlens/internal/models"
)

const transactionSchema = `
    CREATE TABLE IF NOT EXISTS transaction_cache (
        id               TEXT PRIMARY KEY,
        user_id          TEXT NOT NULL DEFAULT '',
        merchant         TEXT NOT NULL DEFAULT '',
        transaction_data JSONB NOT NULL,
        created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
        updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
    )
`

type TransactionRepository struct {
	db DB
}

func NewTransactionRepository(db DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, transactionSchema); err != nil {
		return fmt.Errorf("create transaction_cache: %w", err)
	}
	return nil
}

// BulkCreate upserts rows in one transaction. A row that already exists has
// its payload replaced.
func (r *TransactionRepository) BulkCreate(ctx context.Context, rows []models.TransactionRow) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO transaction_cache (id, user_id, merchant, transaction_data, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $5)
        ON CONFLICT (id) DO UPDATE SET
            user_id = EXCLUDED.user_id,
            merchant = EXCLUDED.merchant,
            transaction_data = EXCLUDED.transaction_data,
            updated_at = now()
    `
	for _, row := range rows {
		createdAt := row.CreatedAt
		if createdAt.IsZero() {
			createdAt = row.UpdatedAt
		}
		_, err = tx.Exec(ctx, query,
			row.ID,
			row.UserID,
			row.Merchant,
			string(row.TransactionData),
			createdAt,
		)
		if err != nil {
			return fmt.Errorf("insert transaction %s: %w", row.ID, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *TransactionRepository) GetAll(ctx context.Context) ([]models.TransactionRow, error) {
	query := `
        SELECT id, user_id, merchant, transaction_data::text, created_at, updated_at
        FROM transaction_cache
        ORDER BY created_at, id
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.TransactionRow
	for rows.Next() {
		var row models.TransactionRow
		var data string
		if err := rows.Scan(&row.ID, &row.UserID, &row.Merchant, &data, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, err
		}
		row.TransactionData = []byte(data)
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *TransactionRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM transaction_cache").Scan(&count)
	return count, err
}

func (r *TransactionRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.Exec(ctx, "TRUNCATE TABLE transaction_cache")
	return err
}
