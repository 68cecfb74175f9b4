package model

import (
	"time"

	"github.com/google/uuid"
)

type OfferingStatus string

const (
	OfferingStatusActive   OfferingStatus = "ACTIVE"
	OfferingStatusInactive OfferingStatus = "INACTIVE"
)

type PricingType string

const (
	PricingTypeFixed     PricingType = "FIXED"
	PricingTypeHourly    PricingType = "HOURLY"
	PricingTypeDaily     PricingType = "DAILY"
	PricingTypeMilestone PricingType = "MILESTONE"
)

type Availability struct {
	From         *time.Time `json:"from,omitempty"`
	To           *time.Time `json:"to,omitempty"`
	LeadTimeDays int        `json:"leadTimeDays,omitempty"`
}

type Offering struct {
	ID              uuid.UUID      `json:"id"`
	ProviderID      uuid.UUID      `json:"providerId"`
	Category        string         `json:"category"`
	SkillTags       []string       `json:"skillTags"`
	Price           BudgetRange    `json:"price"`
	PricingType     PricingType    `json:"pricingType"`
	DeliveryMode    string         `json:"deliveryMode,omitempty"`
	ExchangeType    PaymentMode    `json:"exchangeType,omitempty"`
	Location        Location       `json:"location"`
	ServiceRadiusKm int            `json:"serviceRadiusKm,omitempty"`
	Availability    Availability   `json:"availability"`
	Status          OfferingStatus `json:"status"`
}
