package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReputationRepository reads the externally derived 0-100 reputation score.
// Absence of a row is not an error; the caller applies its neutral default.
type ReputationRepository struct {
	db *gorm.DB
}

func NewReputationRepository(db *gorm.DB) *ReputationRepository {
	return &ReputationRepository{db: db}
}

func (r *ReputationRepository) Score(ctx context.Context, userID uuid.UUID) (*float64, error) {
	var rows []struct {
		Score float64
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT score FROM reputation_scores WHERE user_id = ?
	`, userID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0].Score, nil
}
