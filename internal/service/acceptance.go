package service

import "github.com/bina-platform/marketplace-engine/internal/model"

// IsContractEligible reports whether both parties have agreed on the same
// negotiated version. Legacy AWARDED statuses arrive here already normalized
// to FINAL_ACCEPTED by the proposal store.
func IsContractEligible(proposal *model.Proposal) bool {
	if proposal.Status != model.ProposalStatusFinalAccepted {
		return false
	}
	acc := proposal.Acceptance
	if acc.MutuallyAcceptedVersion != nil {
		return true
	}
	return acc.OwnerAcceptedVersion != nil &&
		acc.OtherPartyAcceptedVersion != nil &&
		*acc.OwnerAcceptedVersion == *acc.OtherPartyAcceptedVersion
}

// ResolveVersion picks the proposal version to contract. An explicit request
// wins, then the mutually accepted version, then the matching per-party
// accepted version. Falling back to the current version is a known anomaly
// and is reported via the second return value so the caller can log it.
func ResolveVersion(proposal *model.Proposal, requested *int) (version int, fallback bool) {
	if requested != nil {
		return *requested, false
	}
	acc := proposal.Acceptance
	if acc.MutuallyAcceptedVersion != nil {
		return *acc.MutuallyAcceptedVersion, false
	}
	if acc.OwnerAcceptedVersion != nil &&
		acc.OtherPartyAcceptedVersion != nil &&
		*acc.OwnerAcceptedVersion == *acc.OtherPartyAcceptedVersion {
		return *acc.OwnerAcceptedVersion, false
	}
	return proposal.CurrentVersion, true
}
