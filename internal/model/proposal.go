package model

import (
	"time"

	"github.com/google/uuid"
)

type ProposalStatus string

const (
	ProposalStatusDraft         ProposalStatus = "DRAFT"
	ProposalStatusSubmitted     ProposalStatus = "SUBMITTED"
	ProposalStatusNegotiating   ProposalStatus = "NEGOTIATING"
	ProposalStatusFinalAccepted ProposalStatus = "FINAL_ACCEPTED"
	ProposalStatusRejected      ProposalStatus = "REJECTED"
)

// proposalStatusAliases maps legacy status spellings onto the canonical set.
// Applied once at the ingestion boundary, never inline in business checks.
var proposalStatusAliases = map[string]ProposalStatus{
	"AWARDED": ProposalStatusFinalAccepted,
}

// CanonicalProposalStatus normalizes a raw stored status value.
func CanonicalProposalStatus(raw string) ProposalStatus {
	if canonical, ok := proposalStatusAliases[raw]; ok {
		return canonical
	}
	return ProposalStatus(raw)
}

// LineItem is one service line of a proposal version.
type LineItem struct {
	Description  string     `json:"description"`
	Quantity     float64    `json:"quantity"`
	Unit         string     `json:"unit,omitempty"`
	UnitPrice    float64    `json:"unitPrice"`
	DeliveryDate *time.Time `json:"deliveryDate,omitempty"`
}

func (li LineItem) Total() float64 {
	return li.Quantity * li.UnitPrice
}

type ProposalVersion struct {
	Number       int           `json:"number"`
	LineItems    []LineItem    `json:"lineItems"`
	PaymentTerms *PaymentTerms `json:"paymentTerms,omitempty"`
	Milestones   []string      `json:"milestones,omitempty"`
	Deliverables []string      `json:"deliverables,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// Acceptance records which negotiated version each side has agreed to.
type Acceptance struct {
	OwnerAcceptedVersion      *int `json:"ownerAcceptedVersion,omitempty"`
	OtherPartyAcceptedVersion *int `json:"otherPartyAcceptedVersion,omitempty"`
	MutuallyAcceptedVersion   *int `json:"mutuallyAcceptedVersion,omitempty"`
}

type Proposal struct {
	ID             uuid.UUID         `json:"id"`
	OpportunityID  uuid.UUID         `json:"opportunityId"`
	ProviderID     uuid.UUID         `json:"providerId"`
	Status         ProposalStatus    `json:"status"`
	CurrentVersion int               `json:"currentVersion"`
	Versions       []ProposalVersion `json:"versions"`
	Acceptance     Acceptance        `json:"acceptance"`
}

// Version returns the version with the given number, or nil.
func (p *Proposal) Version(number int) *ProposalVersion {
	for i := range p.Versions {
		if p.Versions[i].Number == number {
			return &p.Versions[i]
		}
	}
	return nil
}
