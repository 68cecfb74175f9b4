package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bina-platform/marketplace-engine/internal/model"
	"github.com/bina-platform/marketplace-engine/internal/repository"
)

func threeParties() []model.ContractParty {
	return []model.ContractParty{
		{PartyID: uuid.New(), PartyType: model.PartyTypeVendorCorporate, SharePercent: 50},
		{PartyID: uuid.New(), PartyType: model.PartyTypeVendorCorporate, SharePercent: 30},
		{PartyID: uuid.New(), PartyType: model.PartyTypeVendorCorporate, SharePercent: 20},
	}
}

func TestCreateMultiPartyContract(t *testing.T) {
	f := newContractFixture()
	opp := f.addOpportunity(model.OpportunityKindConsortium)
	proposal := f.addEligibleProposal(opp)
	parties := threeParties()

	contract, err := f.multiParty.CreateMultiPartyContract(context.Background(), proposal.ID, parties, MultiPartyOptions{})
	require.NoError(t, err)

	assert.True(t, contract.IsMultiParty)
	assert.Equal(t, model.ContractTypeConsortium, contract.ContractType)
	assert.Equal(t, model.ContractStatusDraft, contract.Status)
	// Lead party is the largest shareholder.
	assert.Equal(t, parties[0].PartyID, contract.ProviderID)

	require.Len(t, contract.Parties, 3)
	for _, party := range contract.Parties {
		assert.Equal(t, model.ConsentPending, party.ConsentStatus)
		assert.Nil(t, party.ConsentedAt)
	}

	// Terms come from the mutually accepted proposal version.
	require.NotNil(t, contract.SourceVersion)
	assert.Equal(t, 2, *contract.SourceVersion)
	assert.Len(t, contract.ServicesSchedule, 2)
	assert.InDelta(t, 500_000, contract.Terms.PricingTotal, 0.01)
}

func TestCreateMultiPartyContractShareValidation(t *testing.T) {
	f := newContractFixture()
	opp := f.addOpportunity(model.OpportunityKindConsortium)
	proposal := f.addEligibleProposal(opp)

	tests := []struct {
		name    string
		shares  []float64
		wantErr bool
	}{
		{"sums short", []float64{50, 49}, true},
		{"sums over", []float64{60, 50}, true},
		{"exact", []float64{50, 50}, false},
		{"within tolerance", []float64{33.33, 33.33, 33.34}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parties := make([]model.ContractParty, len(tt.shares))
			for i, share := range tt.shares {
				parties[i] = model.ContractParty{PartyID: uuid.New(), SharePercent: share}
			}
			_, err := f.multiParty.CreateMultiPartyContract(context.Background(), proposal.ID, parties, MultiPartyOptions{})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPreconditionFailed)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateMultiPartyContractNeedsTwoParties(t *testing.T) {
	f := newContractFixture()
	opp := f.addOpportunity(model.OpportunityKindConsortium)
	proposal := f.addEligibleProposal(opp)

	_, err := f.multiParty.CreateMultiPartyContract(context.Background(), proposal.ID, []model.ContractParty{
		{PartyID: uuid.New(), SharePercent: 100},
	}, MultiPartyOptions{})
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestCreateMultiPartyContractRejectsTwoPartyKind(t *testing.T) {
	f := newContractFixture()
	opp := f.addOpportunity(model.OpportunityKindProject)
	proposal := f.addEligibleProposal(opp)

	_, err := f.multiParty.CreateMultiPartyContract(context.Background(), proposal.ID, threeParties(), MultiPartyOptions{})
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	// An explicit override bypasses the kind check.
	contract, err := f.multiParty.CreateMultiPartyContract(context.Background(), proposal.ID, threeParties(), MultiPartyOptions{
		ContractTypeOverride: model.ContractTypeConsortium,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ContractTypeConsortium, contract.ContractType)
}

func TestCreateMultiPartyContractSPVFloor(t *testing.T) {
	f := newContractFixture()
	opp := f.addOpportunity(model.OpportunityKindSPV)
	opp.Budget = model.BudgetRange{Min: 200_000, Max: 500_000, Currency: "USD"}
	f.store.opportunities[opp.ID] = opp
	proposal := f.addEligibleProposal(opp)

	_, err := f.multiParty.CreateMultiPartyContract(context.Background(), proposal.ID, threeParties(), MultiPartyOptions{})
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	opp.Budget = model.BudgetRange{Min: 2_000_000, Max: 5_000_000, Currency: "USD"}
	f.store.opportunities[opp.ID] = opp

	contract, err := f.multiParty.CreateMultiPartyContract(context.Background(), proposal.ID, threeParties(), MultiPartyOptions{})
	require.NoError(t, err)
	assert.Equal(t, model.ContractTypeSPV, contract.ContractType)
}

func TestSPVGovernanceSynthesis(t *testing.T) {
	f := newContractFixture()
	opp := f.addOpportunity(model.OpportunityKindSPV)
	proposal := f.addEligibleProposal(opp)
	parties := threeParties()

	contract, err := f.multiParty.CreateMultiPartyContract(context.Background(), proposal.ID, parties, MultiPartyOptions{})
	require.NoError(t, err)

	gov := contract.Governance
	require.NotNil(t, gov)
	assert.Equal(t, model.GovernanceEntitySPV, gov.EntityType)
	assert.Equal(t, "BOARD_MAJORITY", gov.DecisionRule)
	assert.InDelta(t, 50, gov.EquityDistribution[parties[0].PartyID.String()], 0.01)
	assert.Equal(t, gov.EquityDistribution, gov.ProfitDistribution)

	require.Len(t, gov.Board, 3)
	assert.Equal(t, parties[0].PartyID, gov.Board[0].PartyID)
	assert.Equal(t, "CHAIR", gov.Board[0].Role)
	assert.Equal(t, "DIRECTOR", gov.Board[1].Role)
}

func TestSPVBoardCapped(t *testing.T) {
	f := newContractFixture()
	opp := f.addOpportunity(model.OpportunityKindSPV)
	proposal := f.addEligibleProposal(opp)

	parties := make([]model.ContractParty, 10)
	for i := range parties {
		parties[i] = model.ContractParty{PartyID: uuid.New(), SharePercent: 10}
	}

	contract, err := f.multiParty.CreateMultiPartyContract(context.Background(), proposal.ID, parties, MultiPartyOptions{})
	require.NoError(t, err)

	require.NotNil(t, contract.Governance)
	assert.Len(t, contract.Governance.Board, 7)
}

func TestJVGovernanceSynthesis(t *testing.T) {
	f := newContractFixture()
	opp := f.addOpportunity(model.OpportunityKindJointVenture)
	opp.EquitySplit = "60-40"
	f.store.opportunities[opp.ID] = opp
	proposal := f.addEligibleProposal(opp)

	parties := []model.ContractParty{
		{PartyID: uuid.New(), SharePercent: 50},
		{PartyID: uuid.New(), SharePercent: 50},
	}

	contract, err := f.multiParty.CreateMultiPartyContract(context.Background(), proposal.ID, parties, MultiPartyOptions{})
	require.NoError(t, err)

	gov := contract.Governance
	require.NotNil(t, gov)
	assert.Equal(t, model.GovernanceEntityJV, gov.EntityType)
	// The declared split overrides the party shares.
	assert.InDelta(t, 60, gov.EquityDistribution[parties[0].PartyID.String()], 0.01)
	assert.InDelta(t, 40, gov.EquityDistribution[parties[1].PartyID.String()], 0.01)
	assert.Equal(t, "LEAD", gov.ManagementModel)
	assert.Equal(t, "UNANIMOUS_FOR_MAJOR_DECISIONS", gov.DecisionRule)
	assert.Equal(t, "BUYOUT_WITH_RIGHT_OF_FIRST_REFUSAL", gov.ExitStrategy)
	require.NotNil(t, gov.LeadPartyID)
}

func TestJVGovernanceSharedManagement(t *testing.T) {
	f := newContractFixture()
	opp := f.addOpportunity(model.OpportunityKindJointVenture)
	proposal := f.addEligibleProposal(opp)

	parties := []model.ContractParty{
		{PartyID: uuid.New(), SharePercent: 50},
		{PartyID: uuid.New(), SharePercent: 50},
	}

	contract, err := f.multiParty.CreateMultiPartyContract(context.Background(), proposal.ID, parties, MultiPartyOptions{})
	require.NoError(t, err)

	require.NotNil(t, contract.Governance)
	assert.Equal(t, "SHARED", contract.Governance.ManagementModel)
}

func TestConsortiumGovernanceSynthesis(t *testing.T) {
	f := newContractFixture()
	opp := f.addOpportunity(model.OpportunityKindConsortium)
	opp.WorkPackages = []string{"Civil works", "MEP", "Finishing"}
	f.store.opportunities[opp.ID] = opp
	proposal := f.addEligibleProposal(opp)
	parties := threeParties()

	contract, err := f.multiParty.CreateMultiPartyContract(context.Background(), proposal.ID, parties, MultiPartyOptions{})
	require.NoError(t, err)

	gov := contract.Governance
	require.NotNil(t, gov)
	assert.Equal(t, model.GovernanceEntityConsortium, gov.EntityType)
	require.NotNil(t, gov.LeadPartyID)
	assert.Equal(t, parties[0].PartyID, *gov.LeadPartyID)
	assert.InDelta(t, 30, gov.LiabilityDistribution[parties[1].PartyID.String()], 0.01)
	assert.Contains(t, gov.RegulatoryNotes, "JOINT_AND_SEVERAL_LIABILITY")

	require.Len(t, gov.WorkPackages, 3)
	assert.Equal(t, "Civil works", gov.WorkPackages[0].Name)
}

func TestConsortiumDefaultWorkPackages(t *testing.T) {
	f := newContractFixture()
	opp := f.addOpportunity(model.OpportunityKindConsortium)
	proposal := f.addEligibleProposal(opp)
	parties := threeParties()

	contract, err := f.multiParty.CreateMultiPartyContract(context.Background(), proposal.ID, parties, MultiPartyOptions{})
	require.NoError(t, err)

	require.NotNil(t, contract.Governance)
	require.Len(t, contract.Governance.WorkPackages, 3)
	for i, pkg := range contract.Governance.WorkPackages {
		assert.Equal(t, parties[i].PartyID, pkg.PartyID)
	}
}

func TestSuppliedGovernanceSuppressesSynthesis(t *testing.T) {
	f := newContractFixture()
	opp := f.addOpportunity(model.OpportunityKindConsortium)
	proposal := f.addEligibleProposal(opp)

	supplied := &model.GovernanceStructure{
		EntityType:   model.GovernanceEntityConsortium,
		DecisionRule: "CUSTOM_RULE",
	}

	contract, err := f.multiParty.CreateMultiPartyContract(context.Background(), proposal.ID, threeParties(), MultiPartyOptions{
		Governance: supplied,
	})
	require.NoError(t, err)
	assert.Equal(t, "CUSTOM_RULE", contract.Governance.DecisionRule)
	assert.Empty(t, contract.Governance.WorkPackages)
}

func TestConsentAdvancesWhenAllConsented(t *testing.T) {
	f := newContractFixture()
	opp := f.addOpportunity(model.OpportunityKindConsortium)
	proposal := f.addEligibleProposal(opp)
	parties := threeParties()

	contract, err := f.multiParty.CreateMultiPartyContract(context.Background(), proposal.ID, parties, MultiPartyOptions{})
	require.NoError(t, err)

	after, err := f.multiParty.RecordPartyConsent(context.Background(), contract.ID, parties[0].PartyID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusDraft, after.Status)

	after, err = f.multiParty.RecordPartyConsent(context.Background(), contract.ID, parties[1].PartyID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusDraft, after.Status)

	after, err = f.multiParty.RecordPartyConsent(context.Background(), contract.ID, parties[2].PartyID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusSent, after.Status)

	for _, party := range after.Parties {
		assert.Equal(t, model.ConsentConsented, party.ConsentStatus)
		assert.NotNil(t, party.ConsentedAt)
	}
}

func TestConsentIdempotent(t *testing.T) {
	f := newContractFixture()
	opp := f.addOpportunity(model.OpportunityKindConsortium)
	proposal := f.addEligibleProposal(opp)
	parties := threeParties()

	contract, err := f.multiParty.CreateMultiPartyContract(context.Background(), proposal.ID, parties, MultiPartyOptions{})
	require.NoError(t, err)

	_, err = f.multiParty.RecordPartyConsent(context.Background(), contract.ID, parties[0].PartyID)
	require.NoError(t, err)

	after, err := f.multiParty.RecordPartyConsent(context.Background(), contract.ID, parties[0].PartyID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusDraft, after.Status)
}

func TestConsentUnknownParty(t *testing.T) {
	f := newContractFixture()
	opp := f.addOpportunity(model.OpportunityKindConsortium)
	proposal := f.addEligibleProposal(opp)

	contract, err := f.multiParty.CreateMultiPartyContract(context.Background(), proposal.ID, threeParties(), MultiPartyOptions{})
	require.NoError(t, err)

	_, err = f.multiParty.RecordPartyConsent(context.Background(), contract.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConsentOutsideDraft(t *testing.T) {
	f := newContractFixture()
	opp := f.addOpportunity(model.OpportunityKindConsortium)
	proposal := f.addEligibleProposal(opp)
	parties := threeParties()

	contract, err := f.multiParty.CreateMultiPartyContract(context.Background(), proposal.ID, parties, MultiPartyOptions{})
	require.NoError(t, err)

	for _, party := range parties {
		_, err = f.multiParty.RecordPartyConsent(context.Background(), contract.ID, party.PartyID)
		require.NoError(t, err)
	}

	_, err = f.multiParty.RecordPartyConsent(context.Background(), contract.ID, parties[0].PartyID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.multiParty.RecordPartyRejection(context.Background(), contract.ID, parties[0].PartyID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRejectionBlocksAdvance(t *testing.T) {
	f := newContractFixture()
	opp := f.addOpportunity(model.OpportunityKindConsortium)
	proposal := f.addEligibleProposal(opp)
	parties := threeParties()

	contract, err := f.multiParty.CreateMultiPartyContract(context.Background(), proposal.ID, parties, MultiPartyOptions{})
	require.NoError(t, err)

	_, err = f.multiParty.RecordPartyConsent(context.Background(), contract.ID, parties[0].PartyID)
	require.NoError(t, err)

	after, err := f.multiParty.RecordPartyRejection(context.Background(), contract.ID, parties[1].PartyID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusDraft, after.Status)
	assert.Equal(t, model.ConsentRejected, after.Party(parties[1].PartyID).ConsentStatus)

	// The remaining party can no longer complete the set.
	_, err = f.multiParty.RecordPartyConsent(context.Background(), contract.ID, parties[2].PartyID)
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	// The rejecting party cannot flip back to consent.
	_, err = f.multiParty.RecordPartyConsent(context.Background(), contract.ID, parties[1].PartyID)
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	fresh, err := f.contracts.Get(context.Background(), contract.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusDraft, fresh.Status)
}

func TestConsentRejectsTwoPartyContract(t *testing.T) {
	f := newContractFixture()
	opp := f.addOpportunity(model.OpportunityKindProject)
	proposal := f.addEligibleProposal(opp)

	contract, err := f.service.CreateFromProposal(context.Background(), proposal.ID, nil)
	require.NoError(t, err)

	_, err = f.multiParty.RecordPartyConsent(context.Background(), contract.ID, contract.BuyerID)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestExtractPartiesFromOpportunity(t *testing.T) {
	f := newContractFixture()
	opp := f.addOpportunity(model.OpportunityKindConsortium)

	memberA := uuid.New()
	memberB := uuid.New()

	t.Run("declared full split keeps creator at zero", func(t *testing.T) {
		f.store.applications[opp.ID] = []repository.ApprovedApplication{
			{ApplicantID: memberA, SharePercent: ptrFloat64(60)},
			{ApplicantID: memberB, PartyType: "SUB_CONTRACTOR", SharePercent: ptrFloat64(40)},
		}

		parties, err := f.multiParty.ExtractPartiesFromOpportunity(context.Background(), opp.ID)
		require.NoError(t, err)
		require.Len(t, parties, 3)
		assert.Equal(t, opp.CreatorID, parties[0].PartyID)
		assert.Equal(t, "INITIATOR", parties[0].Role)
		assert.InDelta(t, 0, parties[0].SharePercent, 0.001)
		assert.InDelta(t, 60, parties[1].SharePercent, 0.001)
		assert.Equal(t, model.PartyTypeSubContractor, parties[2].PartyType)
	})

	t.Run("undeclared shares fall back to equal split", func(t *testing.T) {
		f.store.applications[opp.ID] = []repository.ApprovedApplication{
			{ApplicantID: memberA},
			{ApplicantID: memberB},
		}

		parties, err := f.multiParty.ExtractPartiesFromOpportunity(context.Background(), opp.ID)
		require.NoError(t, err)
		require.Len(t, parties, 3)
		assert.InDelta(t, 33.33, parties[0].SharePercent, 0.001)
		assert.InDelta(t, 33.34, parties[2].SharePercent, 0.001)
		assert.InDelta(t, 100, shareSum([]float64{
			parties[0].SharePercent, parties[1].SharePercent, parties[2].SharePercent,
		}), shareSumTolerance)
	})
}
