package postgres

import (
	"context"
	"fmt"

	"github.com/chrisdamba/foodlens/internal/models"
)

const storeSchema = `
    CREATE EXTENSION IF NOT EXISTS postgis;
    CREATE TABLE IF NOT EXISTS store_summaries (
        store_key       TEXT PRIMARY KEY,
        name            TEXT NOT NULL,
        category        TEXT NOT NULL,
        location        GEOGRAPHY(POINT, 4326) NOT NULL,
        order_count     INTEGER NOT NULL,
        total_revenue   DOUBLE PRECISION NOT NULL,
        avg_order_value DOUBLE PRECISION NOT NULL,
        rating          DOUBLE PRECISION
    );
    CREATE INDEX IF NOT EXISTS store_summaries_location_idx ON store_summaries USING GIST (location);
`

// StoreRepository persists store rollups with a PostGIS point so radius
// lookups run in the database.
type StoreRepository struct {
	db DB
}

func NewStoreRepository(db DB) *StoreRepository {
	return &StoreRepository{db: db}
}

func (r *StoreRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, storeSchema); err != nil {
		return fmt.Errorf("create store_summaries: %w", err)
	}
	return nil
}

// ReplaceAll swaps the table contents for stores atomically.
func (r *StoreRepository) ReplaceAll(ctx context.Context, stores []models.StoreSummary) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM store_summaries"); err != nil {
		return err
	}

	query := `
        INSERT INTO store_summaries (
            store_key, name, category, location, order_count, total_revenue, avg_order_value, rating
        ) VALUES (
            $1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography, $6, $7, $8, $9
        )
    `
	for _, store := range stores {
		_, err = tx.Exec(ctx, query,
			fmt.Sprintf("%s|%.5f|%.5f", store.Name, store.Lat, store.Lng),
			store.Name,
			string(store.Category),
			store.Lng,
			store.Lat,
			store.OrderCount,
			store.TotalRevenue,
			store.AvgOrderValue,
			store.Rating,
		)
		if err != nil {
			return fmt.Errorf("insert store %q: %w", store.Name, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *StoreRepository) FindNearby(ctx context.Context, point models.Location, radiusMeters float64) ([]models.StoreSummary, error) {
	query := `
        SELECT name, category, ST_AsText(location::geometry) AS location,
               order_count, total_revenue, avg_order_value, rating
        FROM store_summaries
        WHERE ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
        ORDER BY order_count DESC, name
    `
	rows, err := r.db.Query(ctx, query, point.Lng, point.Lat, radiusMeters)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stores []models.StoreSummary
	for rows.Next() {
		var store models.StoreSummary
		var category string
		var loc models.Location
		err := rows.Scan(
			&store.Name,
			&category,
			&loc,
			&store.OrderCount,
			&store.TotalRevenue,
			&store.AvgOrderValue,
			&store.Rating,
		)
		if err != nil {
			return nil, err
		}
		store.Category = models.Category(category)
		store.Lat, store.Lng = loc.Lat, loc.Lng
		stores = append(stores, store)
	}
	return stores, rows.Err()
}

func (r *StoreRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM store_summaries").Scan(&count)
	return count, err
}
