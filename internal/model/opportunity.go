package model

import (
	"time"

	"github.com/google/uuid"
)

type OpportunityStatus string

const (
	OpportunityStatusDraft     OpportunityStatus = "DRAFT"
	OpportunityStatusPublished OpportunityStatus = "PUBLISHED"
	OpportunityStatusClosed    OpportunityStatus = "CLOSED"
)

type OpportunityKind string

const (
	OpportunityKindProject        OpportunityKind = "PROJECT"
	OpportunityKindMegaProject    OpportunityKind = "MEGA_PROJECT"
	OpportunityKindServiceRequest OpportunityKind = "SERVICE_REQUEST"
	OpportunityKindAdvisory       OpportunityKind = "ADVISORY"
	OpportunityKindSubContract    OpportunityKind = "SUB_CONTRACT"
	OpportunityKindSPV            OpportunityKind = "SPV"
	OpportunityKindJointVenture   OpportunityKind = "JOINT_VENTURE"
	OpportunityKindConsortium     OpportunityKind = "CONSORTIUM"
	OpportunityKindBulkPurchase   OpportunityKind = "BULK_PURCHASE"
)

// IsMultiParty reports whether the kind requires a multi-party contract
// instead of a two-party one.
func (k OpportunityKind) IsMultiParty() bool {
	switch k {
	case OpportunityKindSPV, OpportunityKindJointVenture, OpportunityKindConsortium:
		return true
	default:
		return false
	}
}

type PaymentMode string

const (
	PaymentModeCash   PaymentMode = "CASH"
	PaymentModeBarter PaymentMode = "BARTER"
	PaymentModeHybrid PaymentMode = "HYBRID"
)

type PaymentTerms struct {
	Mode                   PaymentMode `json:"mode"`
	BarterRule             string      `json:"barterRule,omitempty"`
	CashSettlement         float64     `json:"cashSettlement,omitempty"`
	AcknowledgedDifference bool        `json:"acknowledgedDifference,omitempty"`
}

type BudgetRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

// IsZero reports whether no budget was specified at all.
func (b BudgetRange) IsZero() bool {
	return b.Min == 0 && b.Max == 0
}

type Location struct {
	Country       string `json:"country"`
	City          string `json:"city"`
	RemoteAllowed bool   `json:"remoteAllowed"`
}

// IsZero reports whether no location data was supplied.
func (l Location) IsZero() bool {
	return l.Country == "" && l.City == ""
}

type Timeline struct {
	StartDate    *time.Time `json:"startDate,omitempty"`
	DurationDays int        `json:"durationDays,omitempty"`
}

// EndDate returns the computed end of the desired timeline, or nil when no
// start date is known.
func (t Timeline) EndDate() *time.Time {
	if t.StartDate == nil || t.DurationDays <= 0 {
		return t.StartDate
	}
	end := t.StartDate.AddDate(0, 0, t.DurationDays)
	return &end
}

type Opportunity struct {
	ID           uuid.UUID         `json:"id"`
	Kind         OpportunityKind   `json:"kind"`
	Category     string            `json:"category"`
	SkillTags    []string          `json:"skillTags"`
	Budget       BudgetRange       `json:"budget"`
	Location     Location          `json:"location"`
	Timeline     Timeline          `json:"timeline"`
	PaymentTerms PaymentTerms      `json:"paymentTerms"`
	Status       OpportunityStatus `json:"status"`
	// RequiredExperience and MinExperienceYears gate providers during scoring;
	// both optional.
	RequiredExperience ExperienceLevel `json:"requiredExperience,omitempty"`
	MinExperienceYears int             `json:"minExperienceYears,omitempty"`
	// EquitySplit is a declared split string for JV kinds, e.g. "50-50".
	EquitySplit  string    `json:"equitySplit,omitempty"`
	WorkPackages []string  `json:"workPackages,omitempty"`
	CreatorID    uuid.UUID `json:"creatorId"`
	CreatedAt    time.Time `json:"createdAt"`
}
