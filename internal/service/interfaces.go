package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bina-platform/marketplace-engine/internal/model"
	"github.com/bina-platform/marketplace-engine/internal/repository"
)

// OpportunityStore is the read-only view of the shared platform records.
type OpportunityStore interface {
	GetOpportunity(ctx context.Context, id uuid.UUID) (*model.Opportunity, error)
	ListPublishedOpportunities(ctx context.Context) ([]model.Opportunity, error)
	ListActiveOfferings(ctx context.Context, filter repository.OfferingFilter) ([]model.Offering, error)
	ListApprovedApplications(ctx context.Context, opportunityID uuid.UUID) ([]repository.ApprovedApplication, error)
	GetProvider(ctx context.Context, id uuid.UUID) (*model.Provider, error)
}

// ProposalStore is the read-only view of proposals and their versions.
type ProposalStore interface {
	GetProposal(ctx context.Context, id uuid.UUID) (*model.Proposal, error)
}

// ServiceOfferStore is the read-only view of direct service offers.
type ServiceOfferStore interface {
	GetServiceOffer(ctx context.Context, id uuid.UUID) (*model.ServiceOffer, error)
}

// MatchStore owns match persistence.
type MatchStore interface {
	CreateIfAbsent(ctx context.Context, match model.Match) (*model.Match, bool, error)
	ExistingProviderIDs(ctx context.Context, opportunityID uuid.UUID) (map[uuid.UUID]struct{}, error)
	Exists(ctx context.Context, opportunityID, providerID uuid.UUID) (bool, error)
	ListByOpportunity(ctx context.Context, opportunityID uuid.UUID) ([]model.Match, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]model.Match, error)
	MarkNotified(ctx context.Context, id uuid.UUID) error
}

// ContractStore owns contract persistence.
type ContractStore interface {
	Create(ctx context.Context, contract model.Contract) (*model.Contract, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ContractStatus) error
	SetSigned(ctx context.Context, id, signerID uuid.UUID, signedAt time.Time) error
	SetTerminated(ctx context.Context, id uuid.UUID, reason string, terminatedAt time.Time) error
	SetPartyConsent(ctx context.Context, contractID, partyID uuid.UUID, status model.ConsentStatus, at time.Time) error
}

// Notifier receives fire-and-forget events for the external sink.
type Notifier interface {
	Create(ctx context.Context, notification model.Notification) error
}

// ReputationProvider is an optional collaborator; a nil score means no data
// and resolves to the neutral default.
type ReputationProvider interface {
	Score(ctx context.Context, userID uuid.UUID) (*float64, error)
}

// EvaluationProvider is an optional collaborator supplying the historical
// evaluation aggregate on a 0-100 scale.
type EvaluationProvider interface {
	AggregateScore(ctx context.Context, providerID uuid.UUID) (*float64, error)
}
