package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EvaluationRepository reads the externally maintained evaluation history.
// The average rating is stored on a 1-5 scale and scaled to 0-100 here.
type EvaluationRepository struct {
	db *gorm.DB
}

func NewEvaluationRepository(db *gorm.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// AggregateScore returns the provider's mean evaluation rating scaled to
// 0-100, or nil when no evaluations exist.
func (r *EvaluationRepository) AggregateScore(ctx context.Context, providerID uuid.UUID) (*float64, error) {
	var row struct {
		Count int64
		Avg   float64
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(1) AS count, COALESCE(AVG(rating), 0) AS avg
		FROM evaluations
		WHERE provider_id = ?
	`, providerID).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.Count == 0 {
		return nil, nil
	}
	scaled := row.Avg / 5 * 100
	return &scaled, nil
}
