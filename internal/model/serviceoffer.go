package model

import (
	"time"

	"github.com/google/uuid"
)

type ServiceOfferStatus string

const (
	ServiceOfferStatusPending  ServiceOfferStatus = "PENDING"
	ServiceOfferStatusAccepted ServiceOfferStatus = "ACCEPTED"
	ServiceOfferStatusDeclined ServiceOfferStatus = "DECLINED"
)

// ServiceOffer is a direct provider-to-buyer offer outside the proposal
// negotiation flow. Consumed read-only.
type ServiceOffer struct {
	ID           uuid.UUID          `json:"id"`
	OfferingID   uuid.UUID          `json:"offeringId"`
	BuyerID      uuid.UUID          `json:"buyerId"`
	ProviderID   uuid.UUID          `json:"providerId"`
	Status       ServiceOfferStatus `json:"status"`
	LineItems    []LineItem         `json:"lineItems"`
	PaymentTerms *PaymentTerms      `json:"paymentTerms,omitempty"`
	StartDate    *time.Time         `json:"startDate,omitempty"`
	EndDate      *time.Time         `json:"endDate,omitempty"`
	Currency     string             `json:"currency,omitempty"`
}
