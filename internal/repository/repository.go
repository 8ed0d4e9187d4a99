package repository

import (
	"context"
	"database/sql"

	"github.com/suar-net/foodscan-be/internal/database"
	"github.com/suar-net/foodscan-be/internal/model"
)

type IAnalysisRepository interface {
	Create(ctx context.Context, record *model.AnalysisRecord) error
	ListRecent(ctx context.Context, limit int) ([]*model.AnalysisRecord, error)
}

type IRepository interface {
	Analysis() IAnalysisRepository
}

type Repository struct {
	analysis IAnalysisRepository
}

func NewRepository(db *sql.DB, dialect database.Dialect) *Repository {
	return &Repository{
		analysis: NewAnalysisRepository(db, dialect),
	}
}

func (r *Repository) Analysis() IAnalysisRepository {
	return r.analysis
}
