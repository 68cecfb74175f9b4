package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bina-platform/marketplace-engine/internal/model"
)

// MatchRepository owns the matches table. Inserts are idempotent per
// (opportunity, provider) pair: the unique index plus ON CONFLICT DO NOTHING
// makes a concurrent duplicate a no-op rather than an error.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// CreateIfAbsent inserts the match unless one already exists for the pair.
// Returns the stored match and whether this call inserted it.
func (r *MatchRepository) CreateIfAbsent(ctx context.Context, match model.Match) (*model.Match, bool, error) {
	var row matchRow
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO matches (
			opportunity_id,
			provider_id,
			offering_id,
			score,
			sub_scores,
			weights,
			explain,
			notified
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (opportunity_id, provider_id) DO NOTHING
		RETURNING
			id,
			opportunity_id,
			provider_id,
			offering_id,
			score,
			sub_scores,
			weights,
			explain,
			notified,
			created_at
	`,
		match.OpportunityID,
		match.ProviderID,
		match.OfferingID,
		match.Score,
		jsonValue(match.SubScores),
		jsonValue(match.Weights),
		jsonValue(match.Explain),
		match.Notified,
	).Scan(&row).Error
	if err != nil {
		return nil, false, err
	}
	if row.ID == uuid.Nil {
		// Conflict path: someone else holds the pair; fetch theirs.
		existing, err := r.getByPair(ctx, match.OpportunityID, match.ProviderID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	saved, err := row.toModel()
	if err != nil {
		return nil, false, err
	}
	return saved, true, nil
}

// ExistingProviderIDs returns the providers already matched to the
// opportunity.
func (r *MatchRepository) ExistingProviderIDs(ctx context.Context, opportunityID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Raw(`
		SELECT provider_id FROM matches WHERE opportunity_id = ?
	`, opportunityID).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// Exists reports whether a match exists for the pair.
func (r *MatchRepository) Exists(ctx context.Context, opportunityID, providerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(1) FROM matches WHERE opportunity_id = ? AND provider_id = ?
	`, opportunityID, providerID).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MatchRepository) ListByOpportunity(ctx context.Context, opportunityID uuid.UUID) ([]model.Match, error) {
	return r.list(ctx, `WHERE opportunity_id = ? ORDER BY score DESC, created_at ASC`, opportunityID)
}

func (r *MatchRepository) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]model.Match, error) {
	return r.list(ctx, `WHERE provider_id = ? ORDER BY score DESC, created_at ASC`, providerID)
}

// MarkNotified flips the notified flag, the only mutation a match permits.
func (r *MatchRepository) MarkNotified(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE matches SET notified = TRUE WHERE id = ?
	`, id).Error
}

type matchRow struct {
	ID            uuid.UUID
	OpportunityID uuid.UUID
	ProviderID    uuid.UUID
	OfferingID    uuid.UUID
	Score         int
	SubScores     []byte
	Weights       []byte
	Explain       []byte
	Notified      bool
	CreatedAt     time.Time
}

func (row *matchRow) toModel() (*model.Match, error) {
	match := &model.Match{
		ID:            row.ID,
		OpportunityID: row.OpportunityID,
		ProviderID:    row.ProviderID,
		OfferingID:    row.OfferingID,
		Score:         row.Score,
		Notified:      row.Notified,
		CreatedAt:     row.CreatedAt,
	}
	if err := jsonScan(row.SubScores, &match.SubScores); err != nil {
		return nil, fmt.Errorf("decode sub_scores: %w", err)
	}
	if err := jsonScan(row.Weights, &match.Weights); err != nil {
		return nil, fmt.Errorf("decode weights: %w", err)
	}
	if err := jsonScan(row.Explain, &match.Explain); err != nil {
		return nil, fmt.Errorf("decode explain: %w", err)
	}
	return match, nil
}

const matchSelect = `
	SELECT
		id,
		opportunity_id,
		provider_id,
		offering_id,
		score,
		sub_scores,
		weights,
		explain,
		notified,
		created_at
	FROM matches
`

func (r *MatchRepository) list(ctx context.Context, where string, args ...interface{}) ([]model.Match, error) {
	var rows []matchRow
	if err := r.db.WithContext(ctx).Raw(matchSelect+" "+where, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	matches := make([]model.Match, 0, len(rows))
	for i := range rows {
		match, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		matches = append(matches, *match)
	}
	return matches, nil
}

func (r *MatchRepository) getByPair(ctx context.Context, opportunityID, providerID uuid.UUID) (*model.Match, error) {
	var row matchRow
	err := r.db.WithContext(ctx).
		Raw(matchSelect+` WHERE opportunity_id = ? AND provider_id = ?`, opportunityID, providerID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return row.toModel()
}
