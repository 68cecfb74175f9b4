package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bina-platform/marketplace-engine/internal/model"
)

// ServiceOfferRepository reads direct service offers from the shared store.
type ServiceOfferRepository struct {
	db *gorm.DB
}

func NewServiceOfferRepository(db *gorm.DB) *ServiceOfferRepository {
	return &ServiceOfferRepository{db: db}
}

func (r *ServiceOfferRepository) GetServiceOffer(ctx context.Context, id uuid.UUID) (*model.ServiceOffer, error) {
	var row struct {
		ID           uuid.UUID
		OfferingID   uuid.UUID
		BuyerID      uuid.UUID
		ProviderID   uuid.UUID
		Status       string
		LineItems    []byte
		PaymentTerms []byte
		StartDate    *time.Time
		EndDate      *time.Time
		Currency     string
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			s.id,
			s.offering_id,
			s.buyer_id,
			s.provider_id,
			s.status,
			s.line_items,
			s.payment_terms,
			s.start_date,
			s.end_date,
			COALESCE(s.currency, '') AS currency
		FROM service_offers s
		WHERE s.id = ?
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	offer := &model.ServiceOffer{
		ID:         row.ID,
		OfferingID: row.OfferingID,
		BuyerID:    row.BuyerID,
		ProviderID: row.ProviderID,
		Status:     model.ServiceOfferStatus(row.Status),
		StartDate:  row.StartDate,
		EndDate:    row.EndDate,
		Currency:   row.Currency,
	}
	if err := jsonScan(row.LineItems, &offer.LineItems); err != nil {
		return nil, fmt.Errorf("decode line_items: %w", err)
	}
	if len(row.PaymentTerms) > 0 && string(row.PaymentTerms) != "null" {
		var terms model.PaymentTerms
		if err := jsonScan(row.PaymentTerms, &terms); err != nil {
			return nil, fmt.Errorf("decode payment_terms: %w", err)
		}
		offer.PaymentTerms = &terms
	}
	return offer, nil
}
