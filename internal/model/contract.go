package model

import (
	"time"

	"github.com/google/uuid"
)

type ContractType string

const (
	ContractTypeProject     ContractType = "PROJECT_CONTRACT"
	ContractTypeMegaProject ContractType = "MEGA_PROJECT_CONTRACT"
	ContractTypeService     ContractType = "SERVICE_CONTRACT"
	ContractTypeAdvisory    ContractType = "ADVISORY_CONTRACT"
	ContractTypeSub         ContractType = "SUB_CONTRACT"
	ContractTypeSPV         ContractType = "SPV_CONTRACT"
	ContractTypeJV          ContractType = "JV_CONTRACT"
	ContractTypeConsortium  ContractType = "CONSORTIUM_CONTRACT"
)

type ContractStatus string

const (
	ContractStatusDraft      ContractStatus = "DRAFT"
	ContractStatusSent       ContractStatus = "SENT"
	ContractStatusSigned     ContractStatus = "SIGNED"
	ContractStatusActive     ContractStatus = "ACTIVE"
	ContractStatusTerminated ContractStatus = "TERMINATED"
)

type PartyType string

const (
	PartyTypeBeneficiary      PartyType = "BENEFICIARY"
	PartyTypeVendorCorporate  PartyType = "VENDOR_CORPORATE"
	PartyTypeVendorIndividual PartyType = "VENDOR_INDIVIDUAL"
	PartyTypeServiceProvider  PartyType = "SERVICE_PROVIDER"
	PartyTypeConsultant       PartyType = "CONSULTANT"
	PartyTypeSubContractor    PartyType = "SUB_CONTRACTOR"
)

type ConsentStatus string

const (
	ConsentPending   ConsentStatus = "PENDING"
	ConsentConsented ConsentStatus = "CONSENTED"
	ConsentRejected  ConsentStatus = "REJECTED"
)

// ContractParty is one participant of a multi-party contract.
type ContractParty struct {
	PartyID       uuid.UUID     `json:"partyId"`
	PartyType     PartyType     `json:"partyType"`
	Role          string        `json:"role,omitempty"`
	SharePercent  float64       `json:"sharePercent"`
	ConsentStatus ConsentStatus `json:"consentStatus"`
	ConsentedAt   *time.Time    `json:"consentedAt,omitempty"`
}

// ServiceScheduleItem is one line of a contract's services schedule.
type ServiceScheduleItem struct {
	Description  string     `json:"description"`
	Quantity     float64    `json:"quantity"`
	Unit         string     `json:"unit,omitempty"`
	UnitPrice    float64    `json:"unitPrice"`
	Total        float64    `json:"total"`
	DeliveryDate *time.Time `json:"deliveryDate,omitempty"`
}

// ContractTerms is the structured terms bag persisted as JSON.
type ContractTerms struct {
	PricingTotal float64  `json:"pricingTotal"`
	Currency     string   `json:"currency,omitempty"`
	Milestones   []string `json:"milestones,omitempty"`
	Deliverables []string `json:"deliverables,omitempty"`
}

type GovernanceEntityType string

const (
	GovernanceEntitySPV        GovernanceEntityType = "SPV"
	GovernanceEntityJV         GovernanceEntityType = "JOINT_VENTURE"
	GovernanceEntityConsortium GovernanceEntityType = "CONSORTIUM"
)

// BoardSeat is one seat of a synthesized SPV board.
type BoardSeat struct {
	PartyID uuid.UUID `json:"partyId"`
	Role    string    `json:"role"`
}

// WorkPackage is one consortium scope division.
type WorkPackage struct {
	Name    string    `json:"name"`
	PartyID uuid.UUID `json:"partyId"`
}

// GovernanceStructure is synthesized for multi-party contracts when the
// caller does not supply one.
type GovernanceStructure struct {
	EntityType            GovernanceEntityType `json:"entityType"`
	EquityDistribution    map[string]float64   `json:"equityDistribution,omitempty"`
	ProfitDistribution    map[string]float64   `json:"profitDistribution,omitempty"`
	LiabilityDistribution map[string]float64   `json:"liabilityDistribution,omitempty"`
	DecisionRule          string               `json:"decisionRule,omitempty"`
	ManagementModel       string               `json:"managementModel,omitempty"`
	LeadPartyID           *uuid.UUID           `json:"leadPartyId,omitempty"`
	Board                 []BoardSeat          `json:"board,omitempty"`
	WorkPackages          []WorkPackage        `json:"workPackages,omitempty"`
	ExitStrategy          string               `json:"exitStrategy,omitempty"`
	RegulatoryNotes       []string             `json:"regulatoryNotes,omitempty"`
}

type Contract struct {
	ID           uuid.UUID    `json:"id"`
	ContractType ContractType `json:"contractType"`
	// ScopeType/ScopeID name what the contract governs (e.g. OPPORTUNITY).
	ScopeType string         `json:"scopeType"`
	ScopeID   uuid.UUID      `json:"scopeId"`
	Status    ContractStatus `json:"status"`
	// ParentContractID is set only for SUB_CONTRACT.
	ParentContractID *uuid.UUID `json:"parentContractId,omitempty"`

	BuyerID           uuid.UUID `json:"buyerId"`
	BuyerPartyType    PartyType `json:"buyerPartyType"`
	ProviderID        uuid.UUID `json:"providerId"`
	ProviderPartyType PartyType `json:"providerPartyType"`

	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`

	ServicesSchedule []ServiceScheduleItem `json:"servicesSchedule"`
	PaymentTerms     PaymentTerms          `json:"paymentTerms"`
	Terms            ContractTerms         `json:"terms"`

	// Provenance: the proposal version this contract was generated from.
	SourceProposalID *uuid.UUID `json:"sourceProposalId,omitempty"`
	SourceVersion    *int       `json:"sourceVersion,omitempty"`

	IsMultiParty bool                 `json:"isMultiParty"`
	Parties      []ContractParty      `json:"parties,omitempty"`
	Governance   *GovernanceStructure `json:"governance,omitempty"`

	SignedBy uuid.UUID  `json:"signedBy,omitempty"`
	SignedAt *time.Time `json:"signedAt,omitempty"`

	TerminationReason string     `json:"terminationReason,omitempty"`
	TerminatedAt      *time.Time `json:"terminatedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Party returns the multi-party entry for the given id, or nil.
func (c *Contract) Party(partyID uuid.UUID) *ContractParty {
	for i := range c.Parties {
		if c.Parties[i].PartyID == partyID {
			return &c.Parties[i]
		}
	}
	return nil
}

// AllConsented reports whether every party has consented.
func (c *Contract) AllConsented() bool {
	if len(c.Parties) == 0 {
		return false
	}
	for i := range c.Parties {
		if c.Parties[i].ConsentStatus != ConsentConsented {
			return false
		}
	}
	return true
}

// HasRejection reports whether any party has rejected.
func (c *Contract) HasRejection() bool {
	for i := range c.Parties {
		if c.Parties[i].ConsentStatus == ConsentRejected {
			return true
		}
	}
	return false
}
