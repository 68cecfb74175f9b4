package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/bina-platform/marketplace-engine/internal/config"
	"github.com/bina-platform/marketplace-engine/internal/model"
)

// MultiPartyContractService creates SPV, joint-venture and consortium
// contracts and drives the per-party consent state machine. A multi-party
// contract only leaves DRAFT once every party has consented.
type MultiPartyContractService struct {
	proposals     ProposalStore
	opportunities OpportunityStore
	contracts     ContractStore
	spvMinValue   float64
	log           zerolog.Logger
}

func NewMultiPartyContractService(
	proposals ProposalStore,
	opportunities OpportunityStore,
	contracts ContractStore,
	cfg *config.Config,
	log zerolog.Logger,
) *MultiPartyContractService {
	return &MultiPartyContractService{
		proposals:     proposals,
		opportunities: opportunities,
		contracts:     contracts,
		spvMinValue:   cfg.Contracts.SPVMinValue,
		log:           log,
	}
}

// MultiPartyOptions tune multi-party contract creation.
type MultiPartyOptions struct {
	// ContractTypeOverride wins over the opportunity's declared archetype.
	ContractTypeOverride model.ContractType
	// Governance, when supplied, suppresses synthesis.
	Governance *model.GovernanceStructure
}

// CreateMultiPartyContract validates the party list, synthesizes governance
// when none is supplied, and persists a DRAFT contract with every party
// PENDING. Share validation happens here, at creation, atomically with the
// insert; never at consent time.
func (s *MultiPartyContractService) CreateMultiPartyContract(ctx context.Context, proposalID uuid.UUID, parties []model.ContractParty, opts MultiPartyOptions) (*model.Contract, error) {
	if len(parties) < 2 {
		return nil, fmt.Errorf("%w: a multi-party contract needs at least 2 parties, got %d", ErrPreconditionFailed, len(parties))
	}

	shares := make([]float64, len(parties))
	for i, party := range parties {
		shares[i] = party.SharePercent
	}
	if sum := shareSum(shares); math.Abs(sum-100) > shareSumTolerance {
		return nil, fmt.Errorf("%w: party shares sum to %.2f, expected 100", ErrPreconditionFailed, sum)
	}

	proposal, err := s.proposals.GetProposal(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: proposal %s", ErrNotFound, proposalID)
		}
		return nil, fmt.Errorf("%w: load proposal: %v", ErrStoreUnavailable, err)
	}

	opp, err := s.opportunities.GetOpportunity(ctx, proposal.OpportunityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: opportunity %s", ErrNotFound, proposal.OpportunityID)
		}
		return nil, fmt.Errorf("%w: load opportunity: %v", ErrStoreUnavailable, err)
	}

	contractType := opts.ContractTypeOverride
	if contractType == "" {
		if !opp.Kind.IsMultiParty() {
			return nil, fmt.Errorf("%w: opportunity kind %s is not a multi-party archetype", ErrPreconditionFailed, opp.Kind)
		}
		contractType = contractTypeForKind(opp.Kind)
	}

	if contractType == model.ContractTypeSPV {
		value := opp.Budget.Max
		if value == 0 {
			value = opp.Budget.Min
		}
		if value > 0 && value < s.spvMinValue {
			return nil, fmt.Errorf("%w: SPV value %.2f is below the regulatory floor %.2f", ErrPreconditionFailed, value, s.spvMinValue)
		}
	}

	governance := opts.Governance
	if governance == nil {
		governance = s.synthesizeGovernance(contractType, *opp, parties)
	}

	// Every party starts PENDING regardless of what the caller sent.
	initialized := make([]model.ContractParty, len(parties))
	for i, party := range parties {
		party.ConsentStatus = model.ConsentPending
		party.ConsentedAt = nil
		initialized[i] = party
	}

	lead := largestShareParty(initialized)

	schedule, total, paymentTerms := s.resolveTerms(proposal, *opp)

	contract := model.Contract{
		ContractType:      contractType,
		ScopeType:         ScopeTypeOpportunity,
		ScopeID:           opp.ID,
		Status:            model.ContractStatusDraft,
		BuyerID:           opp.CreatorID,
		BuyerPartyType:    model.PartyTypeBeneficiary,
		ProviderID:        lead.PartyID,
		ProviderPartyType: lead.PartyType,
		StartDate:         opp.Timeline.StartDate,
		EndDate:           opp.Timeline.EndDate(),
		ServicesSchedule:  schedule,
		PaymentTerms:      paymentTerms,
		Terms: model.ContractTerms{
			PricingTotal: total,
			Currency:     opp.Budget.Currency,
		},
		SourceProposalID: &proposalID,
		IsMultiParty:     true,
		Parties:          initialized,
		Governance:       governance,
	}

	if IsContractEligible(proposal) {
		version, _ := ResolveVersion(proposal, nil)
		contract.SourceVersion = &version
	}

	saved, err := s.contracts.Create(ctx, contract)
	if err != nil {
		return nil, fmt.Errorf("%w: create multi-party contract: %v", ErrStoreUnavailable, err)
	}
	return saved, nil
}

// resolveTerms fills schedule and payment terms from the mutually accepted
// proposal version when one exists, otherwise from the opportunity defaults.
func (s *MultiPartyContractService) resolveTerms(proposal *model.Proposal, opp model.Opportunity) ([]model.ServiceScheduleItem, float64, model.PaymentTerms) {
	if IsContractEligible(proposal) {
		versionNumber, _ := ResolveVersion(proposal, nil)
		if version := proposal.Version(versionNumber); version != nil {
			schedule, total := buildSchedule(version.LineItems)
			if version.PaymentTerms != nil {
				return schedule, total, *version.PaymentTerms
			}
			return schedule, total, opp.PaymentTerms
		}
	}
	return []model.ServiceScheduleItem{}, 0, opp.PaymentTerms
}

// RecordPartyConsent flips one party to CONSENTED and, when that completes
// the set, advances the contract DRAFT -> SENT. The all-consented check runs
// against a fresh read after the write lands.
func (s *MultiPartyContractService) RecordPartyConsent(ctx context.Context, contractID, partyID uuid.UUID) (*model.Contract, error) {
	contract, err := s.loadMultiParty(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract.Status != model.ContractStatusDraft {
		return nil, fmt.Errorf("%w: consent is only recorded while the contract is DRAFT, current %s", ErrInvalidTransition, contract.Status)
	}

	party := contract.Party(partyID)
	if party == nil {
		return nil, fmt.Errorf("%w: party %s is not on contract %s", ErrNotFound, partyID, contractID)
	}
	switch party.ConsentStatus {
	case model.ConsentRejected:
		return nil, fmt.Errorf("%w: party %s has rejected the contract", ErrPreconditionFailed, partyID)
	case model.ConsentConsented:
		// Idempotent repeat.
		return contract, nil
	}
	if contract.HasRejection() {
		return nil, fmt.Errorf("%w: contract %s has a rejected party and cannot proceed", ErrPreconditionFailed, contractID)
	}

	if err := s.contracts.SetPartyConsent(ctx, contractID, partyID, model.ConsentConsented, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("%w: record consent: %v", ErrStoreUnavailable, err)
	}

	// Re-read the full party list so concurrent consents are all visible.
	contract, err = s.loadMultiParty(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract.Status == model.ContractStatusDraft && contract.AllConsented() && !contract.HasRejection() {
		if err := s.contracts.UpdateStatus(ctx, contractID, model.ContractStatusSent); err != nil {
			return nil, fmt.Errorf("%w: advance to SENT: %v", ErrStoreUnavailable, err)
		}
		contract, err = s.loadMultiParty(ctx, contractID)
		if err != nil {
			return nil, err
		}
	}
	return contract, nil
}

// RecordPartyRejection marks the party REJECTED. The contract stays in DRAFT;
// rejection is terminal for this contract instance.
func (s *MultiPartyContractService) RecordPartyRejection(ctx context.Context, contractID, partyID uuid.UUID) (*model.Contract, error) {
	contract, err := s.loadMultiParty(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract.Status != model.ContractStatusDraft {
		return nil, fmt.Errorf("%w: rejection is only recorded while the contract is DRAFT, current %s", ErrInvalidTransition, contract.Status)
	}
	if contract.Party(partyID) == nil {
		return nil, fmt.Errorf("%w: party %s is not on contract %s", ErrNotFound, partyID, contractID)
	}

	if err := s.contracts.SetPartyConsent(ctx, contractID, partyID, model.ConsentRejected, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("%w: record rejection: %v", ErrStoreUnavailable, err)
	}

	s.log.Info().
		Str("contract_id", contractID.String()).
		Str("party_id", partyID.String()).
		Msg("multi-party contract rejected by party")

	return s.loadMultiParty(ctx, contractID)
}

// ExtractPartiesFromOpportunity builds the party list from the opportunity
// creator and its approved applications. When no declared shares cover the
// whole list, everyone gets an equal share. That default is a simplification,
// not a negotiated outcome; callers needing explicit equity must pass
// parties directly.
func (s *MultiPartyContractService) ExtractPartiesFromOpportunity(ctx context.Context, opportunityID uuid.UUID) ([]model.ContractParty, error) {
	opp, err := s.opportunities.GetOpportunity(ctx, opportunityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: opportunity %s", ErrNotFound, opportunityID)
		}
		return nil, fmt.Errorf("%w: load opportunity: %v", ErrStoreUnavailable, err)
	}

	applications, err := s.opportunities.ListApprovedApplications(ctx, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("%w: list applications: %v", ErrStoreUnavailable, err)
	}

	parties := []model.ContractParty{{
		PartyID:   opp.CreatorID,
		PartyType: model.PartyTypeBeneficiary,
		Role:      "INITIATOR",
	}}
	declared := true
	for _, app := range applications {
		party := model.ContractParty{
			PartyID:   app.ApplicantID,
			PartyType: model.PartyTypeVendorCorporate,
			Role:      "MEMBER",
		}
		if app.PartyType != "" {
			party.PartyType = model.PartyType(app.PartyType)
		}
		if app.SharePercent != nil {
			party.SharePercent = *app.SharePercent
		} else {
			declared = false
		}
		parties = append(parties, party)
	}

	// When the applicants declare a full 100 split among themselves, the
	// creator stays on as a zero-share beneficiary. Anything else falls back
	// to equal shares.
	shares := make([]float64, 0, len(parties))
	for _, party := range parties[1:] {
		shares = append(shares, party.SharePercent)
	}
	if declared && len(shares) > 0 && math.Abs(shareSum(shares)-100) <= shareSumTolerance {
		return parties, nil
	}

	equal := equalShares(len(parties))
	for i := range parties {
		parties[i].SharePercent = equal[i]
	}
	return parties, nil
}

func (s *MultiPartyContractService) loadMultiParty(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	contract, err := s.contracts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: load contract: %v", ErrStoreUnavailable, err)
	}
	if !contract.IsMultiParty {
		return nil, fmt.Errorf("%w: contract %s is not multi-party", ErrPreconditionFailed, id)
	}
	return contract, nil
}

func largestShareParty(parties []model.ContractParty) model.ContractParty {
	lead := parties[0]
	for _, party := range parties[1:] {
		if party.SharePercent > lead.SharePercent {
			lead = party
		}
	}
	return lead
}

// synthesizeGovernance builds the default governance structure per archetype.
func (s *MultiPartyContractService) synthesizeGovernance(contractType model.ContractType, opp model.Opportunity, parties []model.ContractParty) *model.GovernanceStructure {
	switch contractType {
	case model.ContractTypeSPV:
		return synthesizeSPVGovernance(parties)
	case model.ContractTypeJV:
		return synthesizeJVGovernance(opp, parties)
	default:
		return synthesizeConsortiumGovernance(opp, parties)
	}
}

const maxBoardSeats = 7

func synthesizeSPVGovernance(parties []model.ContractParty) *model.GovernanceStructure {
	equity := shareMap(parties)

	// Board seats in share order, chair to the largest shareholder.
	ordered := orderedByShare(parties)
	board := make([]model.BoardSeat, 0, maxBoardSeats)
	for i, party := range ordered {
		if i >= maxBoardSeats {
			break
		}
		role := "DIRECTOR"
		if i == 0 {
			role = "CHAIR"
		}
		board = append(board, model.BoardSeat{PartyID: party.PartyID, Role: role})
	}

	return &model.GovernanceStructure{
		EntityType:         model.GovernanceEntitySPV,
		EquityDistribution: equity,
		ProfitDistribution: equity,
		DecisionRule:       "BOARD_MAJORITY",
		Board:              board,
		RegulatoryNotes: []string{
			"CAPITAL_ADEQUACY_REVIEW_PENDING",
			"ENTITY_LICENSING_REVIEW_PENDING",
		},
	}
}

func synthesizeJVGovernance(opp model.Opportunity, parties []model.ContractParty) *model.GovernanceStructure {
	equity := shareMap(parties)

	// A declared split string like "50-50" wins when it covers every party.
	if opp.EquitySplit != "" {
		if shares, err := ParseEquitySplit(opp.EquitySplit); err == nil && len(shares) == len(parties) {
			equity = make(map[string]float64, len(parties))
			for i, party := range parties {
				equity[party.PartyID.String()] = shares[i]
			}
		}
	}

	management := "LEAD"
	if sharesEqual(equity) {
		management = "SHARED"
	}

	lead := largestShareParty(parties)
	leadID := lead.PartyID

	return &model.GovernanceStructure{
		EntityType:         model.GovernanceEntityJV,
		EquityDistribution: equity,
		ProfitDistribution: equity,
		ManagementModel:    management,
		LeadPartyID:        &leadID,
		DecisionRule:       "UNANIMOUS_FOR_MAJOR_DECISIONS",
		ExitStrategy:       "BUYOUT_WITH_RIGHT_OF_FIRST_REFUSAL",
	}
}

func synthesizeConsortiumGovernance(opp model.Opportunity, parties []model.ContractParty) *model.GovernanceStructure {
	lead := largestShareParty(parties)
	leadID := lead.PartyID

	// Scope division from declared work packages, otherwise one package per
	// member.
	var packages []model.WorkPackage
	if len(opp.WorkPackages) > 0 {
		for i, name := range opp.WorkPackages {
			party := parties[i%len(parties)]
			packages = append(packages, model.WorkPackage{Name: name, PartyID: party.PartyID})
		}
	} else {
		for i, party := range parties {
			packages = append(packages, model.WorkPackage{
				Name:    fmt.Sprintf("Work package %d", i+1),
				PartyID: party.PartyID,
			})
		}
	}

	return &model.GovernanceStructure{
		EntityType:            model.GovernanceEntityConsortium,
		LiabilityDistribution: shareMap(parties),
		LeadPartyID:           &leadID,
		DecisionRule:          "LEAD_MEMBER_COORDINATION",
		WorkPackages:          packages,
		RegulatoryNotes:       []string{"JOINT_AND_SEVERAL_LIABILITY"},
	}
}

func shareMap(parties []model.ContractParty) map[string]float64 {
	shares := make(map[string]float64, len(parties))
	for _, party := range parties {
		shares[party.PartyID.String()] = party.SharePercent
	}
	return shares
}

func orderedByShare(parties []model.ContractParty) []model.ContractParty {
	ordered := make([]model.ContractParty, len(parties))
	copy(ordered, parties)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j].SharePercent > ordered[j-1].SharePercent; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	return ordered
}

func sharesEqual(shares map[string]float64) bool {
	var first float64
	set := false
	for _, share := range shares {
		if !set {
			first = share
			set = true
			continue
		}
		if math.Abs(share-first) > shareSumTolerance {
			return false
		}
	}
	return true
}
