package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/bina-platform/marketplace-engine/internal/config"
	"github.com/bina-platform/marketplace-engine/internal/model"
	"github.com/bina-platform/marketplace-engine/internal/repository"
)

func testConfig() *config.Config {
	return &config.Config{
		Matching:  config.MatchingConfig{ScoreThreshold: 80, EvalBlend: 0.10},
		Contracts: config.ContractsConfig{SPVMinValue: 1_000_000},
	}
}

func nopLogger() zerolog.Logger { return zerolog.Nop() }

func ptrInt(v int) *int              { return &v }
func ptrFloat64(v float64) *float64  { return &v }
func ptrTime(v time.Time) *time.Time { return &v }

type fakeOpportunityStore struct {
	opportunities map[uuid.UUID]model.Opportunity
	offerings     []model.Offering
	applications  map[uuid.UUID][]repository.ApprovedApplication
	providers     map[uuid.UUID]model.Provider
}

func newFakeOpportunityStore() *fakeOpportunityStore {
	return &fakeOpportunityStore{
		opportunities: map[uuid.UUID]model.Opportunity{},
		applications:  map[uuid.UUID][]repository.ApprovedApplication{},
		providers:     map[uuid.UUID]model.Provider{},
	}
}

func (f *fakeOpportunityStore) GetOpportunity(_ context.Context, id uuid.UUID) (*model.Opportunity, error) {
	opp, ok := f.opportunities[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &opp, nil
}

func (f *fakeOpportunityStore) ListPublishedOpportunities(_ context.Context) ([]model.Opportunity, error) {
	var out []model.Opportunity
	for _, opp := range f.opportunities {
		if opp.Status == model.OpportunityStatusPublished {
			out = append(out, opp)
		}
	}
	return out, nil
}

func (f *fakeOpportunityStore) ListActiveOfferings(_ context.Context, filter repository.OfferingFilter) ([]model.Offering, error) {
	var out []model.Offering
	for _, off := range f.offerings {
		if off.Status != model.OfferingStatusActive {
			continue
		}
		if filter.ProviderID != nil && off.ProviderID != *filter.ProviderID {
			continue
		}
		out = append(out, off)
	}
	return out, nil
}

func (f *fakeOpportunityStore) ListApprovedApplications(_ context.Context, opportunityID uuid.UUID) ([]repository.ApprovedApplication, error) {
	return f.applications[opportunityID], nil
}

func (f *fakeOpportunityStore) GetProvider(_ context.Context, id uuid.UUID) (*model.Provider, error) {
	provider, ok := f.providers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &provider, nil
}

type matchKey struct {
	opportunityID uuid.UUID
	providerID    uuid.UUID
}

type fakeMatchStore struct {
	matches   map[matchKey]model.Match
	notified  map[uuid.UUID]bool
	createErr error
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{
		matches:  map[matchKey]model.Match{},
		notified: map[uuid.UUID]bool{},
	}
}

func (f *fakeMatchStore) CreateIfAbsent(_ context.Context, match model.Match) (*model.Match, bool, error) {
	if f.createErr != nil {
		return nil, false, f.createErr
	}
	key := matchKey{match.OpportunityID, match.ProviderID}
	if existing, ok := f.matches[key]; ok {
		return &existing, false, nil
	}
	match.ID = uuid.New()
	match.CreatedAt = time.Now().UTC()
	f.matches[key] = match
	return &match, true, nil
}

func (f *fakeMatchStore) ExistingProviderIDs(_ context.Context, opportunityID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	out := map[uuid.UUID]struct{}{}
	for key := range f.matches {
		if key.opportunityID == opportunityID {
			out[key.providerID] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeMatchStore) Exists(_ context.Context, opportunityID, providerID uuid.UUID) (bool, error) {
	_, ok := f.matches[matchKey{opportunityID, providerID}]
	return ok, nil
}

func (f *fakeMatchStore) ListByOpportunity(_ context.Context, opportunityID uuid.UUID) ([]model.Match, error) {
	var out []model.Match
	for key, match := range f.matches {
		if key.opportunityID == opportunityID {
			out = append(out, match)
		}
	}
	return out, nil
}

func (f *fakeMatchStore) ListByProvider(_ context.Context, providerID uuid.UUID) ([]model.Match, error) {
	var out []model.Match
	for key, match := range f.matches {
		if key.providerID == providerID {
			out = append(out, match)
		}
	}
	return out, nil
}

func (f *fakeMatchStore) MarkNotified(_ context.Context, id uuid.UUID) error {
	f.notified[id] = true
	return nil
}

type fakeNotifier struct {
	sent []model.Notification
	err  error
}

func (f *fakeNotifier) Create(_ context.Context, notification model.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, notification)
	return nil
}

type fakeReputation struct {
	scores map[uuid.UUID]float64
	err    error
}

func (f *fakeReputation) Score(_ context.Context, userID uuid.UUID) (*float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	score, ok := f.scores[userID]
	if !ok {
		return nil, nil
	}
	return &score, nil
}

type fakeEvaluations struct {
	aggregates map[uuid.UUID]float64
	err        error
}

func (f *fakeEvaluations) AggregateScore(_ context.Context, providerID uuid.UUID) (*float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	agg, ok := f.aggregates[providerID]
	if !ok {
		return nil, nil
	}
	return &agg, nil
}

type fakeProposalStore struct {
	proposals map[uuid.UUID]model.Proposal
}

func newFakeProposalStore() *fakeProposalStore {
	return &fakeProposalStore{proposals: map[uuid.UUID]model.Proposal{}}
}

func (f *fakeProposalStore) GetProposal(_ context.Context, id uuid.UUID) (*model.Proposal, error) {
	proposal, ok := f.proposals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &proposal, nil
}

type fakeServiceOfferStore struct {
	offers map[uuid.UUID]model.ServiceOffer
}

func newFakeServiceOfferStore() *fakeServiceOfferStore {
	return &fakeServiceOfferStore{offers: map[uuid.UUID]model.ServiceOffer{}}
}

func (f *fakeServiceOfferStore) GetServiceOffer(_ context.Context, id uuid.UUID) (*model.ServiceOffer, error) {
	offer, ok := f.offers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &offer, nil
}

type fakeContractStore struct {
	contracts map[uuid.UUID]*model.Contract
	createErr error
}

func newFakeContractStore() *fakeContractStore {
	return &fakeContractStore{contracts: map[uuid.UUID]*model.Contract{}}
}

func (f *fakeContractStore) Create(_ context.Context, contract model.Contract) (*model.Contract, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	contract.ID = uuid.New()
	contract.CreatedAt = time.Now().UTC()
	stored := contract
	f.contracts[contract.ID] = &stored
	out := contract
	return &out, nil
}

func (f *fakeContractStore) Get(_ context.Context, id uuid.UUID) (*model.Contract, error) {
	contract, ok := f.contracts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *contract
	copied.Parties = append([]model.ContractParty(nil), contract.Parties...)
	return &copied, nil
}

func (f *fakeContractStore) UpdateStatus(_ context.Context, id uuid.UUID, status model.ContractStatus) error {
	contract, ok := f.contracts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	contract.Status = status
	return nil
}

func (f *fakeContractStore) SetSigned(_ context.Context, id, signerID uuid.UUID, signedAt time.Time) error {
	contract, ok := f.contracts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	contract.Status = model.ContractStatusSigned
	contract.SignedBy = signerID
	contract.SignedAt = &signedAt
	return nil
}

func (f *fakeContractStore) SetTerminated(_ context.Context, id uuid.UUID, reason string, terminatedAt time.Time) error {
	contract, ok := f.contracts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	contract.Status = model.ContractStatusTerminated
	contract.TerminationReason = reason
	contract.TerminatedAt = &terminatedAt
	return nil
}

func (f *fakeContractStore) SetPartyConsent(_ context.Context, contractID, partyID uuid.UUID, status model.ConsentStatus, at time.Time) error {
	contract, ok := f.contracts[contractID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range contract.Parties {
		if contract.Parties[i].PartyID == partyID {
			contract.Parties[i].ConsentStatus = status
			contract.Parties[i].ConsentedAt = &at
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}
