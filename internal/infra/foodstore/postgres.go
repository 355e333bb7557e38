package foodstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/yanqian/ai-fitcoach/internal/domain/nutrition"
)

// PostgresIndex persists foods in a pgvector table.
type PostgresIndex struct {
	pool       *pgxpool.Pool
	dimensions int
}

// NewPostgresIndex constructs the adapter.
func NewPostgresIndex(pool *pgxpool.Pool, dimensions int) *PostgresIndex {
	return &PostgresIndex{pool: pool, dimensions: dimensions}
}

// EnsureSchema creates the extension, table and index when missing.
func (s *PostgresIndex) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS foods (
			id TEXT PRIMARY KEY,
			fdc_id BIGINT NOT NULL UNIQUE,
			description TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			data_type TEXT NOT NULL DEFAULT '',
			brand_owner TEXT NOT NULL DEFAULT '',
			ingredients TEXT NOT NULL DEFAULT '',
			search_text TEXT NOT NULL DEFAULT '',
			serving_size DOUBLE PRECISION NOT NULL DEFAULT 100,
			serving_size_unit TEXT NOT NULL DEFAULT 'g',
			calories DOUBLE PRECISION NOT NULL DEFAULT 0,
			protein DOUBLE PRECISION NOT NULL DEFAULT 0,
			carbs DOUBLE PRECISION NOT NULL DEFAULT 0,
			fat DOUBLE PRECISION NOT NULL DEFAULT 0,
			fiber DOUBLE PRECISION NOT NULL DEFAULT 0,
			sugar DOUBLE PRECISION NOT NULL DEFAULT 0,
			embedding vector(%d) NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, s.dimensions),
		`CREATE INDEX IF NOT EXISTS foods_embedding_idx ON foods USING hnsw (embedding vector_l2_ops)`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure food schema: %w", err)
		}
	}
	return nil
}

// Upsert inserts or replaces records keyed by id in a single batch.
func (s *PostgresIndex) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		if len(rec.Embedding) != s.dimensions {
			return fmt.Errorf("food %s: embedding has %d dimensions, want %d", rec.Food.ID, len(rec.Embedding), s.dimensions)
		}
		f := rec.Food
		batch.Queue(`
			INSERT INTO foods (id, fdc_id, description, category, data_type, brand_owner, ingredients, search_text,
				serving_size, serving_size_unit, calories, protein, carbs, fat, fiber, sugar, embedding, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW())
			ON CONFLICT (id) DO UPDATE SET
				fdc_id = EXCLUDED.fdc_id, description = EXCLUDED.description, category = EXCLUDED.category,
				data_type = EXCLUDED.data_type, brand_owner = EXCLUDED.brand_owner, ingredients = EXCLUDED.ingredients,
				search_text = EXCLUDED.search_text, serving_size = EXCLUDED.serving_size,
				serving_size_unit = EXCLUDED.serving_size_unit, calories = EXCLUDED.calories,
				protein = EXCLUDED.protein, carbs = EXCLUDED.carbs, fat = EXCLUDED.fat, fiber = EXCLUDED.fiber,
				sugar = EXCLUDED.sugar, embedding = EXCLUDED.embedding, updated_at = NOW()
		`, f.ID, f.FDCID, f.Description, f.Category, f.DataType, f.BrandOwner, f.Ingredients, f.SearchText,
			f.ServingSize, f.ServingSizeUnit, f.Calories, f.Protein, f.Carbs, f.Fat, f.Fiber, f.Sugar,
			pgvector.NewVector(rec.Embedding))
	}
	return s.pool.SendBatch(ctx, batch).Close()
}

// Query returns the nearest foods by L2 distance, scored 1/(1+distance).
func (s *PostgresIndex) Query(ctx context.Context, embedding []float32, topK int, filter *nutrition.Filter) ([]nutrition.Match, error) {
	if len(embedding) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = nutrition.DefaultTopK
	}
	var ids []int64
	if filter != nil && len(filter.FDCIDs) > 0 {
		ids = make([]int64, len(filter.FDCIDs))
		for i, id := range filter.FDCIDs {
			ids[i] = int64(id)
		}
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, fdc_id, description, category, data_type, brand_owner, ingredients, search_text,
		       serving_size, serving_size_unit, calories, protein, carbs, fat, fiber, sugar,
		       (1.0 / (1.0 + (embedding <-> $1))) AS score
		FROM foods
		WHERE ($2::bigint[] IS NULL OR fdc_id = ANY($2::bigint[]))
		ORDER BY embedding <-> $1 ASC
		LIMIT $3
	`, pgvector.NewVector(embedding), ids, topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]nutrition.Match, 0, topK)
	for rows.Next() {
		var (
			f     nutrition.Food
			score float64
		)
		if err := rows.Scan(&f.ID, &f.FDCID, &f.Description, &f.Category, &f.DataType, &f.BrandOwner, &f.Ingredients,
			&f.SearchText, &f.ServingSize, &f.ServingSizeUnit, &f.Calories, &f.Protein, &f.Carbs, &f.Fat, &f.Fiber,
			&f.Sugar, &score); err != nil {
			return nil, err
		}
		results = append(results, nutrition.Match{Food: f, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Lookup fetches foods by exact FDC id.
func (s *PostgresIndex) Lookup(ctx context.Context, fdcIDs []int) ([]nutrition.Food, error) {
	if len(fdcIDs) == 0 {
		return nil, nil
	}
	ids := make([]int64, len(fdcIDs))
	for i, id := range fdcIDs {
		ids[i] = int64(id)
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, fdc_id, description, category, data_type, brand_owner, ingredients, search_text,
		       serving_size, serving_size_unit, calories, protein, carbs, fat, fiber, sugar
		FROM foods
		WHERE fdc_id = ANY($1::bigint[])
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var foods []nutrition.Food
	for rows.Next() {
		var f nutrition.Food
		if err := rows.Scan(&f.ID, &f.FDCID, &f.Description, &f.Category, &f.DataType, &f.BrandOwner, &f.Ingredients,
			&f.SearchText, &f.ServingSize, &f.ServingSizeUnit, &f.Calories, &f.Protein, &f.Carbs, &f.Fat, &f.Fiber,
			&f.Sugar); err != nil {
			return nil, err
		}
		foods = append(foods, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return foods, nil
}

var _ Index = (*PostgresIndex)(nil)
