package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/bina-platform/marketplace-engine/internal/model"
)

// ScopeTypeOpportunity marks contracts governing an opportunity.
const ScopeTypeOpportunity = "OPPORTUNITY"

// contractTransitions is the single source of truth for legal status moves.
var contractTransitions = map[model.ContractStatus][]model.ContractStatus{
	model.ContractStatusDraft:  {model.ContractStatusSent, model.ContractStatusTerminated},
	model.ContractStatusSent:   {model.ContractStatusSigned, model.ContractStatusTerminated},
	model.ContractStatusSigned: {model.ContractStatusActive, model.ContractStatusTerminated},
	model.ContractStatusActive: {model.ContractStatusTerminated},
}

func canTransition(from, to model.ContractStatus) bool {
	for _, allowed := range contractTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ContractService generates two-party contracts from accepted proposals and
// service offers, and drives the contract status machine.
type ContractService struct {
	proposals     ProposalStore
	serviceOffers ServiceOfferStore
	opportunities OpportunityStore
	contracts     ContractStore
	multiParty    *MultiPartyContractService
	log           zerolog.Logger
}

func NewContractService(
	proposals ProposalStore,
	serviceOffers ServiceOfferStore,
	opportunities OpportunityStore,
	contracts ContractStore,
	multiParty *MultiPartyContractService,
	log zerolog.Logger,
) *ContractService {
	return &ContractService{
		proposals:     proposals,
		serviceOffers: serviceOffers,
		opportunities: opportunities,
		contracts:     contracts,
		multiParty:    multiParty,
		log:           log,
	}
}

// CreateFromProposal turns an accepted proposal version into a DRAFT
// contract. Multi-party opportunity archetypes are delegated wholesale to the
// multi-party service.
func (s *ContractService) CreateFromProposal(ctx context.Context, proposalID uuid.UUID, requestedVersion *int) (*model.Contract, error) {
	proposal, err := s.loadProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	if !IsContractEligible(proposal) {
		return nil, fmt.Errorf("%w: proposal %s is not mutually accepted", ErrPreconditionFailed, proposalID)
	}

	versionNumber, fallback := ResolveVersion(proposal, requestedVersion)
	if fallback {
		s.log.Warn().
			Str("proposal_id", proposalID.String()).
			Int("version", versionNumber).
			Msg("contracting from current version without a mutual acceptance record")
	}
	version := proposal.Version(versionNumber)
	if version == nil {
		return nil, fmt.Errorf("%w: proposal %s has no version %d", ErrNotFound, proposalID, versionNumber)
	}

	opp, err := s.loadOpportunity(ctx, proposal.OpportunityID)
	if err != nil {
		return nil, err
	}

	if opp.Kind.IsMultiParty() {
		parties, err := s.multiParty.ExtractPartiesFromOpportunity(ctx, opp.ID)
		if err != nil {
			return nil, err
		}
		return s.multiParty.CreateMultiPartyContract(ctx, proposalID, parties, MultiPartyOptions{})
	}

	schedule, total := buildSchedule(version.LineItems)

	paymentTerms := opp.PaymentTerms
	if version.PaymentTerms != nil {
		paymentTerms = *version.PaymentTerms
	} else {
		// Degraded path: the accepted version should carry its own terms.
		s.log.Warn().
			Str("proposal_id", proposalID.String()).
			Int("version", versionNumber).
			Msg("proposal version has no payment terms, using opportunity defaults")
	}

	contract := model.Contract{
		ContractType:      contractTypeForKind(opp.Kind),
		ScopeType:         ScopeTypeOpportunity,
		ScopeID:           opp.ID,
		Status:            model.ContractStatusDraft,
		BuyerID:           opp.CreatorID,
		BuyerPartyType:    model.PartyTypeBeneficiary,
		ProviderID:        proposal.ProviderID,
		ProviderPartyType: providerPartyTypeForKind(opp.Kind),
		StartDate:         opp.Timeline.StartDate,
		EndDate:           opp.Timeline.EndDate(),
		ServicesSchedule:  schedule,
		PaymentTerms:      paymentTerms,
		Terms: model.ContractTerms{
			PricingTotal: total,
			Currency:     opp.Budget.Currency,
			Milestones:   version.Milestones,
			Deliverables: version.Deliverables,
		},
		SourceProposalID: &proposalID,
		SourceVersion:    &versionNumber,
	}

	saved, err := s.contracts.Create(ctx, contract)
	if err != nil {
		return nil, fmt.Errorf("%w: create contract: %v", ErrStoreUnavailable, err)
	}
	return saved, nil
}

// CreateFromServiceOffer builds a SERVICE_CONTRACT from an accepted direct
// offer, mapping buyer and provider roles without a negotiation history.
func (s *ContractService) CreateFromServiceOffer(ctx context.Context, offerID uuid.UUID) (*model.Contract, error) {
	offer, err := s.serviceOffers.GetServiceOffer(ctx, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: service offer %s", ErrNotFound, offerID)
		}
		return nil, fmt.Errorf("%w: load service offer: %v", ErrStoreUnavailable, err)
	}
	if offer.Status != model.ServiceOfferStatusAccepted {
		return nil, fmt.Errorf("%w: service offer %s is not accepted", ErrPreconditionFailed, offerID)
	}

	schedule, total := buildSchedule(offer.LineItems)

	paymentTerms := model.PaymentTerms{Mode: model.PaymentModeCash}
	if offer.PaymentTerms != nil {
		paymentTerms = *offer.PaymentTerms
	}

	contract := model.Contract{
		ContractType:      model.ContractTypeService,
		ScopeType:         "SERVICE_OFFER",
		ScopeID:           offer.ID,
		Status:            model.ContractStatusDraft,
		BuyerID:           offer.BuyerID,
		BuyerPartyType:    model.PartyTypeBeneficiary,
		ProviderID:        offer.ProviderID,
		ProviderPartyType: model.PartyTypeServiceProvider,
		StartDate:         offer.StartDate,
		EndDate:           offer.EndDate,
		ServicesSchedule:  schedule,
		PaymentTerms:      paymentTerms,
		Terms: model.ContractTerms{
			PricingTotal: total,
			Currency:     offer.Currency,
		},
	}

	saved, err := s.contracts.Create(ctx, contract)
	if err != nil {
		return nil, fmt.Errorf("%w: create contract: %v", ErrStoreUnavailable, err)
	}
	return saved, nil
}

// GetContract reads one contract.
func (s *ContractService) GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	return s.loadContract(ctx, id)
}

// SendContract moves a two-party DRAFT contract to SENT. Multi-party
// contracts reach SENT only through the consent loop.
func (s *ContractService) SendContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	contract, err := s.loadContract(ctx, id)
	if err != nil {
		return nil, err
	}
	if contract.IsMultiParty {
		return nil, fmt.Errorf("%w: multi-party contracts are sent by the consent loop", ErrPreconditionFailed)
	}
	if !canTransition(contract.Status, model.ContractStatusSent) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, contract.Status, model.ContractStatusSent)
	}
	if err := s.contracts.UpdateStatus(ctx, id, model.ContractStatusSent); err != nil {
		return nil, fmt.Errorf("%w: update status: %v", ErrStoreUnavailable, err)
	}
	return s.loadContract(ctx, id)
}

// SignContract records the signature, validating both the transition and
// that the signer is a party to the contract.
func (s *ContractService) SignContract(ctx context.Context, id, signerID uuid.UUID) (*model.Contract, error) {
	contract, err := s.loadContract(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(contract.Status, model.ContractStatusSigned) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, contract.Status, model.ContractStatusSigned)
	}
	if !isContractParty(contract, signerID) {
		return nil, fmt.Errorf("%w: signer %s is not a party to the contract", ErrPreconditionFailed, signerID)
	}
	if err := s.contracts.SetSigned(ctx, id, signerID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("%w: record signature: %v", ErrStoreUnavailable, err)
	}
	return s.loadContract(ctx, id)
}

// ActivateContract moves a SIGNED contract to ACTIVE.
func (s *ContractService) ActivateContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	contract, err := s.loadContract(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(contract.Status, model.ContractStatusActive) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, contract.Status, model.ContractStatusActive)
	}
	if err := s.contracts.UpdateStatus(ctx, id, model.ContractStatusActive); err != nil {
		return nil, fmt.Errorf("%w: update status: %v", ErrStoreUnavailable, err)
	}
	return s.loadContract(ctx, id)
}

// TerminateContract is reachable from any non-terminal status and requires a
// reason.
func (s *ContractService) TerminateContract(ctx context.Context, id uuid.UUID, reason string) (*model.Contract, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: termination reason is required", ErrInvalidInput)
	}
	contract, err := s.loadContract(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(contract.Status, model.ContractStatusTerminated) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, contract.Status, model.ContractStatusTerminated)
	}
	if err := s.contracts.SetTerminated(ctx, id, reason, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("%w: terminate: %v", ErrStoreUnavailable, err)
	}
	return s.loadContract(ctx, id)
}

func (s *ContractService) loadProposal(ctx context.Context, id uuid.UUID) (*model.Proposal, error) {
	proposal, err := s.proposals.GetProposal(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: proposal %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: load proposal: %v", ErrStoreUnavailable, err)
	}
	return proposal, nil
}

func (s *ContractService) loadOpportunity(ctx context.Context, id uuid.UUID) (*model.Opportunity, error) {
	opp, err := s.opportunities.GetOpportunity(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: opportunity %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: load opportunity: %v", ErrStoreUnavailable, err)
	}
	return opp, nil
}

func (s *ContractService) loadContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	contract, err := s.contracts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: load contract: %v", ErrStoreUnavailable, err)
	}
	return contract, nil
}

func isContractParty(contract *model.Contract, userID uuid.UUID) bool {
	if contract.BuyerID == userID || contract.ProviderID == userID {
		return true
	}
	return contract.Party(userID) != nil
}

// buildSchedule translates proposal line items into the services schedule and
// sums the pricing total.
func buildSchedule(items []model.LineItem) ([]model.ServiceScheduleItem, float64) {
	schedule := make([]model.ServiceScheduleItem, 0, len(items))
	var total float64
	for _, item := range items {
		lineTotal := item.Total()
		schedule = append(schedule, model.ServiceScheduleItem{
			Description:  item.Description,
			Quantity:     item.Quantity,
			Unit:         item.Unit,
			UnitPrice:    item.UnitPrice,
			Total:        lineTotal,
			DeliveryDate: item.DeliveryDate,
		})
		total += lineTotal
	}
	return schedule, total
}

func contractTypeForKind(kind model.OpportunityKind) model.ContractType {
	switch kind {
	case model.OpportunityKindMegaProject:
		return model.ContractTypeMegaProject
	case model.OpportunityKindServiceRequest, model.OpportunityKindBulkPurchase:
		return model.ContractTypeService
	case model.OpportunityKindAdvisory:
		return model.ContractTypeAdvisory
	case model.OpportunityKindSubContract:
		return model.ContractTypeSub
	case model.OpportunityKindSPV:
		return model.ContractTypeSPV
	case model.OpportunityKindJointVenture:
		return model.ContractTypeJV
	case model.OpportunityKindConsortium:
		return model.ContractTypeConsortium
	default:
		return model.ContractTypeProject
	}
}

func providerPartyTypeForKind(kind model.OpportunityKind) model.PartyType {
	switch kind {
	case model.OpportunityKindServiceRequest:
		return model.PartyTypeServiceProvider
	case model.OpportunityKindAdvisory:
		return model.PartyTypeConsultant
	case model.OpportunityKindSubContract:
		return model.PartyTypeSubContractor
	default:
		return model.PartyTypeVendorCorporate
	}
}
