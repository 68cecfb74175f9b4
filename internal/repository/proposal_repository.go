package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bina-platform/marketplace-engine/internal/model"
)

// ProposalRepository reads proposals and their negotiation history from the
// shared platform store. Legacy status spellings are normalized here so the
// services only ever see canonical values.
type ProposalRepository struct {
	db *gorm.DB
}

func NewProposalRepository(db *gorm.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

func (r *ProposalRepository) GetProposal(ctx context.Context, id uuid.UUID) (*model.Proposal, error) {
	var head struct {
		ID             uuid.UUID
		OpportunityID  uuid.UUID
		ProviderID     uuid.UUID
		Status         string
		CurrentVersion int
		Acceptance     []byte
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			p.id,
			p.opportunity_id,
			p.provider_id,
			p.status,
			COALESCE(p.current_version, 1) AS current_version,
			p.acceptance
		FROM proposals p
		WHERE p.id = ?
	`, id).Scan(&head).Error
	if err != nil {
		return nil, err
	}
	if head.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	proposal := &model.Proposal{
		ID:             head.ID,
		OpportunityID:  head.OpportunityID,
		ProviderID:     head.ProviderID,
		Status:         model.CanonicalProposalStatus(head.Status),
		CurrentVersion: head.CurrentVersion,
	}
	if err := jsonScan(head.Acceptance, &proposal.Acceptance); err != nil {
		return nil, fmt.Errorf("decode acceptance: %w", err)
	}

	versions, err := r.listVersions(ctx, id)
	if err != nil {
		return nil, err
	}
	proposal.Versions = versions
	return proposal, nil
}

func (r *ProposalRepository) listVersions(ctx context.Context, proposalID uuid.UUID) ([]model.ProposalVersion, error) {
	var rows []struct {
		Number       int
		LineItems    []byte
		PaymentTerms []byte
		Milestones   []byte
		Deliverables []byte
		CreatedAt    time.Time
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			v.number,
			v.line_items,
			v.payment_terms,
			v.milestones,
			v.deliverables,
			v.created_at
		FROM proposal_versions v
		WHERE v.proposal_id = ?
		ORDER BY v.number ASC
	`, proposalID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	versions := make([]model.ProposalVersion, 0, len(rows))
	for _, row := range rows {
		version := model.ProposalVersion{
			Number:    row.Number,
			CreatedAt: row.CreatedAt,
		}
		if err := jsonScan(row.LineItems, &version.LineItems); err != nil {
			return nil, fmt.Errorf("decode line_items for version %d: %w", row.Number, err)
		}
		if len(row.PaymentTerms) > 0 && string(row.PaymentTerms) != "null" {
			var terms model.PaymentTerms
			if err := jsonScan(row.PaymentTerms, &terms); err != nil {
				return nil, fmt.Errorf("decode payment_terms for version %d: %w", row.Number, err)
			}
			version.PaymentTerms = &terms
		}
		if err := jsonScan(row.Milestones, &version.Milestones); err != nil {
			return nil, fmt.Errorf("decode milestones for version %d: %w", row.Number, err)
		}
		if err := jsonScan(row.Deliverables, &version.Deliverables); err != nil {
			return nil, fmt.Errorf("decode deliverables for version %d: %w", row.Number, err)
		}
		versions = append(versions, version)
	}
	return versions, nil
}
