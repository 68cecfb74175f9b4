package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bina-platform/marketplace-engine/internal/model"
)

// ContractRepository owns the contracts_engine and contract_parties tables.
// Party consent is written as a single-row update keyed by (contract_id,
// party_id) so concurrent consents never clobber each other.
type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// Create persists the contract and its parties in one transaction.
func (r *ContractRepository) Create(ctx context.Context, contract model.Contract) (*model.Contract, error) {
	var savedID uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var governance interface{}
		if contract.Governance != nil {
			governance = jsonValue(contract.Governance)
		}

		err := tx.Raw(`
			INSERT INTO contracts_engine (
				contract_type,
				scope_type,
				scope_id,
				status,
				parent_contract_id,
				buyer_id,
				buyer_party_type,
				provider_id,
				provider_party_type,
				start_date,
				end_date,
				services_schedule,
				payment_terms,
				terms,
				source_proposal_id,
				source_version,
				is_multi_party,
				governance
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id
		`,
			contract.ContractType,
			contract.ScopeType,
			contract.ScopeID,
			contract.Status,
			contract.ParentContractID,
			contract.BuyerID,
			contract.BuyerPartyType,
			contract.ProviderID,
			contract.ProviderPartyType,
			contract.StartDate,
			contract.EndDate,
			jsonValue(contract.ServicesSchedule),
			jsonValue(contract.PaymentTerms),
			jsonValue(contract.Terms),
			contract.SourceProposalID,
			contract.SourceVersion,
			contract.IsMultiParty,
			governance,
		).Scan(&savedID).Error
		if err != nil {
			return err
		}

		for _, party := range contract.Parties {
			err := tx.Exec(`
				INSERT INTO contract_parties (
					contract_id,
					party_id,
					party_type,
					role,
					share_percent,
					consent_status
				) VALUES (?, ?, ?, ?, ?, ?)
			`,
				savedID,
				party.PartyID,
				party.PartyType,
				party.Role,
				party.SharePercent,
				party.ConsentStatus,
			).Error
			if err != nil {
				return fmt.Errorf("insert party %s: %w", party.PartyID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, savedID)
}

type contractRow struct {
	ID                uuid.UUID
	ContractType      string
	ScopeType         string
	ScopeID           uuid.UUID
	Status            string
	ParentContractID  *uuid.UUID
	BuyerID           uuid.UUID
	BuyerPartyType    string
	ProviderID        uuid.UUID
	ProviderPartyType string
	StartDate         *time.Time
	EndDate           *time.Time
	ServicesSchedule  []byte
	PaymentTerms      []byte
	Terms             []byte
	SourceProposalID  *uuid.UUID
	SourceVersion     *int
	IsMultiParty      bool
	Governance        []byte
	SignedBy          *uuid.UUID
	SignedAt          *time.Time
	TerminationReason *string
	TerminatedAt      *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (row *contractRow) toModel() (*model.Contract, error) {
	contract := &model.Contract{
		ID:                row.ID,
		ContractType:      model.ContractType(row.ContractType),
		ScopeType:         row.ScopeType,
		ScopeID:           row.ScopeID,
		Status:            model.ContractStatus(row.Status),
		ParentContractID:  row.ParentContractID,
		BuyerID:           row.BuyerID,
		BuyerPartyType:    model.PartyType(row.BuyerPartyType),
		ProviderID:        row.ProviderID,
		ProviderPartyType: model.PartyType(row.ProviderPartyType),
		StartDate:         row.StartDate,
		EndDate:           row.EndDate,
		SourceProposalID:  row.SourceProposalID,
		SourceVersion:     row.SourceVersion,
		IsMultiParty:      row.IsMultiParty,
		SignedAt:          row.SignedAt,
		TerminatedAt:      row.TerminatedAt,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
	if row.SignedBy != nil {
		contract.SignedBy = *row.SignedBy
	}
	if row.TerminationReason != nil {
		contract.TerminationReason = *row.TerminationReason
	}
	if err := jsonScan(row.ServicesSchedule, &contract.ServicesSchedule); err != nil {
		return nil, fmt.Errorf("decode services_schedule: %w", err)
	}
	if err := jsonScan(row.PaymentTerms, &contract.PaymentTerms); err != nil {
		return nil, fmt.Errorf("decode payment_terms: %w", err)
	}
	if err := jsonScan(row.Terms, &contract.Terms); err != nil {
		return nil, fmt.Errorf("decode terms: %w", err)
	}
	if len(row.Governance) > 0 && string(row.Governance) != "null" {
		var governance model.GovernanceStructure
		if err := jsonScan(row.Governance, &governance); err != nil {
			return nil, fmt.Errorf("decode governance: %w", err)
		}
		contract.Governance = &governance
	}
	return contract, nil
}

func (r *ContractRepository) Get(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var row contractRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			contract_type,
			scope_type,
			scope_id,
			status,
			parent_contract_id,
			buyer_id,
			buyer_party_type,
			provider_id,
			provider_party_type,
			start_date,
			end_date,
			services_schedule,
			payment_terms,
			terms,
			source_proposal_id,
			source_version,
			is_multi_party,
			governance,
			signed_by,
			signed_at,
			termination_reason,
			terminated_at,
			created_at,
			updated_at
		FROM contracts_engine
		WHERE id = ?
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	contract, err := row.toModel()
	if err != nil {
		return nil, err
	}

	parties, err := r.listParties(ctx, id)
	if err != nil {
		return nil, err
	}
	contract.Parties = parties
	return contract, nil
}

func (r *ContractRepository) listParties(ctx context.Context, contractID uuid.UUID) ([]model.ContractParty, error) {
	var rows []struct {
		PartyID       uuid.UUID
		PartyType     string
		Role          *string
		SharePercent  float64
		ConsentStatus string
		ConsentedAt   *time.Time
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT party_id, party_type, role, share_percent, consent_status, consented_at
		FROM contract_parties
		WHERE contract_id = ?
		ORDER BY share_percent DESC, party_id ASC
	`, contractID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	parties := make([]model.ContractParty, 0, len(rows))
	for _, row := range rows {
		party := model.ContractParty{
			PartyID:       row.PartyID,
			PartyType:     model.PartyType(row.PartyType),
			SharePercent:  row.SharePercent,
			ConsentStatus: model.ConsentStatus(row.ConsentStatus),
			ConsentedAt:   row.ConsentedAt,
		}
		if row.Role != nil {
			party.Role = *row.Role
		}
		parties = append(parties, party)
	}
	return parties, nil
}

// UpdateStatus advances the contract status.
func (r *ContractRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ContractStatus) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE contracts_engine SET status = ?, updated_at = NOW() WHERE id = ?
	`, status, id).Error
}

// SetSigned stamps the signer and moves the contract to SIGNED.
func (r *ContractRepository) SetSigned(ctx context.Context, id, signerID uuid.UUID, signedAt time.Time) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE contracts_engine
		SET status = ?, signed_by = ?, signed_at = ?, updated_at = NOW()
		WHERE id = ?
	`, model.ContractStatusSigned, signerID, signedAt, id).Error
}

// SetTerminated stamps the reason and moves the contract to TERMINATED.
func (r *ContractRepository) SetTerminated(ctx context.Context, id uuid.UUID, reason string, terminatedAt time.Time) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE contracts_engine
		SET status = ?, termination_reason = ?, terminated_at = ?, updated_at = NOW()
		WHERE id = ?
	`, model.ContractStatusTerminated, reason, terminatedAt, id).Error
}

// SetPartyConsent updates one party's consent row. The per-row update keeps
// concurrent consents from overwriting each other.
func (r *ContractRepository) SetPartyConsent(ctx context.Context, contractID, partyID uuid.UUID, status model.ConsentStatus, at time.Time) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE contract_parties
		SET consent_status = ?, consented_at = ?
		WHERE contract_id = ? AND party_id = ?
	`, status, at, contractID, partyID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
