package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/suar-net/foodscan-be/internal/database"
	"github.com/suar-net/foodscan-be/internal/model"
)

// analysisRepository is the implementation of IAnalysisRepository.
type analysisRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewAnalysisRepository is the constructor for analysisRepository.
func NewAnalysisRepository(db *sql.DB, dialect database.Dialect) IAnalysisRepository {
	return &analysisRepository{db: db, dialect: dialect}
}

// Create inserts a new analysis record into the database.
func (r *analysisRepository) Create(ctx context.Context, record *model.AnalysisRecord) error {
	query := r.rebind(`
		INSERT INTO analysis_history (id, created_at, goal, name, calories_min, calories_max, nutrition_score, confidence, source, duration_ms, image_size, image_type, subject)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		record.ID.String(),
		record.CreatedAt,
		record.Goal,
		record.Name,
		record.CaloriesMin,
		record.CaloriesMax,
		record.NutritionScore,
		record.Confidence,
		string(record.Source),
		record.DurationMs,
		record.ImageSize,
		record.ImageType,
		record.Subject,
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis record: %w", err)
	}
	return nil
}

// ListRecent retrieves the most recent analyses, newest first.
func (r *analysisRepository) ListRecent(ctx context.Context, limit int) ([]*model.AnalysisRecord, error) {
	query := r.rebind(`
		SELECT id, created_at, goal, name, calories_min, calories_max, nutrition_score, confidence, source, duration_ms, image_size, image_type, subject
		FROM analysis_history
		ORDER BY created_at DESC
		LIMIT ?`)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*model.AnalysisRecord{}
	for rows.Next() {
		var rec model.AnalysisRecord
		var id, source string
		if err := rows.Scan(
			&id,
			&rec.CreatedAt,
			&rec.Goal,
			&rec.Name,
			&rec.CaloriesMin,
			&rec.CaloriesMax,
			&rec.NutritionScore,
			&rec.Confidence,
			&source,
			&rec.DurationMs,
			&rec.ImageSize,
			&rec.ImageType,
			&rec.Subject,
		); err != nil {
			return nil, err
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("corrupt analysis id %q: %w", id, err)
		}
		rec.Source = model.AnalysisSource(source)
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// rebind rewrites ? placeholders to $n for postgres.
func (r *analysisRepository) rebind(query string) string {
	if r.dialect != database.Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}
