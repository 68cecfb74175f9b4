package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/bina-platform/marketplace-engine/internal/config"
	"github.com/bina-platform/marketplace-engine/internal/model"
	"github.com/bina-platform/marketplace-engine/internal/repository"
	"github.com/bina-platform/marketplace-engine/internal/scoring"
)

// MatchingService orchestrates the scoring kernel over the candidate set and
// persists admitted matches. Both entry points are idempotent per
// (opportunity, provider) pair: an existing match is never overwritten.
type MatchingService struct {
	opportunities OpportunityStore
	matches       MatchStore
	notifier      Notifier
	reputation    ReputationProvider
	evaluations   EvaluationProvider
	threshold     int
	evalBlend     float64
	log           zerolog.Logger
}

func NewMatchingService(
	opportunities OpportunityStore,
	matches MatchStore,
	notifier Notifier,
	reputation ReputationProvider,
	evaluations EvaluationProvider,
	cfg *config.Config,
	log zerolog.Logger,
) *MatchingService {
	return &MatchingService{
		opportunities: opportunities,
		matches:       matches,
		notifier:      notifier,
		reputation:    reputation,
		evaluations:   evaluations,
		threshold:     cfg.Matching.ScoreThreshold,
		evalBlend:     cfg.Matching.EvalBlend,
		log:           log,
	}
}

// MatchOpportunity scores every eligible provider's offerings against the
// opportunity, keeping each provider's best offering. A missing or
// unpublished opportunity yields an empty result, not an error.
func (s *MatchingService) MatchOpportunity(ctx context.Context, opportunityID uuid.UUID) ([]model.Match, error) {
	opp, err := s.opportunities.GetOpportunity(ctx, opportunityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []model.Match{}, nil
		}
		return nil, fmt.Errorf("%w: load opportunity: %v", ErrStoreUnavailable, err)
	}
	if opp.Status != model.OpportunityStatusPublished {
		return []model.Match{}, nil
	}

	offerings, err := s.opportunities.ListActiveOfferings(ctx, repository.OfferingFilter{})
	if err != nil {
		return nil, fmt.Errorf("%w: list offerings: %v", ErrStoreUnavailable, err)
	}

	existing, err := s.matches.ExistingProviderIDs(ctx, opp.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: list existing matches: %v", ErrStoreUnavailable, err)
	}

	providers := make(map[uuid.UUID]*model.Provider)
	best := make(map[uuid.UUID]candidate)
	var order []uuid.UUID

	for i := range offerings {
		off := &offerings[i]
		if off.ProviderID == opp.CreatorID {
			continue
		}
		if _, matched := existing[off.ProviderID]; matched {
			continue
		}

		provider, ok := providers[off.ProviderID]
		if !ok {
			provider, err = s.loadProvider(ctx, off.ProviderID)
			if err != nil {
				return nil, err
			}
			providers[off.ProviderID] = provider
		}
		if provider == nil || !provider.Approved {
			continue
		}

		result := scoring.Score(*opp, *off, *provider)
		if result.Excluded {
			continue
		}

		current, seen := best[off.ProviderID]
		if !seen {
			order = append(order, off.ProviderID)
		}
		if !seen || result.Final > current.result.Final {
			best[off.ProviderID] = candidate{offering: *off, result: result}
		}
	}

	created := make([]model.Match, 0, len(order))
	for _, providerID := range order {
		cand := best[providerID]
		match, ok, err := s.admit(ctx, *opp, providerID, cand)
		if err != nil {
			return nil, err
		}
		if ok {
			created = append(created, *match)
		}
	}
	return created, nil
}

// MatchProvider scores the provider's active offerings against every
// published opportunity, keeping the best offering per opportunity.
func (s *MatchingService) MatchProvider(ctx context.Context, providerID uuid.UUID) ([]model.Match, error) {
	provider, err := s.loadProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if provider == nil || !provider.Approved {
		return []model.Match{}, nil
	}

	offerings, err := s.opportunities.ListActiveOfferings(ctx, repository.OfferingFilter{ProviderID: &providerID})
	if err != nil {
		return nil, fmt.Errorf("%w: list offerings: %v", ErrStoreUnavailable, err)
	}
	if len(offerings) == 0 {
		return []model.Match{}, nil
	}

	opportunities, err := s.opportunities.ListPublishedOpportunities(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list opportunities: %v", ErrStoreUnavailable, err)
	}

	created := make([]model.Match, 0, len(opportunities))
	for i := range opportunities {
		opp := &opportunities[i]
		if opp.CreatorID == providerID {
			continue
		}

		matched, err := s.matches.Exists(ctx, opp.ID, providerID)
		if err != nil {
			return nil, fmt.Errorf("%w: check existing match: %v", ErrStoreUnavailable, err)
		}
		if matched {
			continue
		}

		var bestCand candidate
		found := false
		for j := range offerings {
			result := scoring.Score(*opp, offerings[j], *provider)
			if result.Excluded {
				continue
			}
			if !found || result.Final > bestCand.result.Final {
				bestCand = candidate{offering: offerings[j], result: result}
				found = true
			}
		}
		if !found {
			continue
		}

		match, ok, err := s.admit(ctx, *opp, providerID, bestCand)
		if err != nil {
			return nil, err
		}
		if ok {
			created = append(created, *match)
		}
	}
	return created, nil
}

type candidate struct {
	offering model.Offering
	result   scoring.Result
}

// loadProvider resolves the provider snapshot, filling in the external
// reputation score when the collaborator is wired. A missing provider
// returns (nil, nil).
func (s *MatchingService) loadProvider(ctx context.Context, id uuid.UUID) (*model.Provider, error) {
	provider, err := s.opportunities.GetProvider(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: load provider: %v", ErrStoreUnavailable, err)
	}

	if s.reputation != nil {
		score, err := s.reputation.Score(ctx, id)
		if err != nil {
			// Optional collaborator: degrade to the neutral default.
			s.log.Warn().Err(err).Str("provider_id", id.String()).Msg("reputation lookup failed")
		} else {
			provider.ReputationScore = score
		}
	}
	return provider, nil
}

// admit applies the evaluation blend and the admission threshold, then
// persists the match and enqueues the notification.
func (s *MatchingService) admit(ctx context.Context, opp model.Opportunity, providerID uuid.UUID, cand candidate) (*model.Match, bool, error) {
	final := cand.result.Final

	if s.evaluations != nil {
		aggregate, err := s.evaluations.AggregateScore(ctx, providerID)
		if err != nil {
			s.log.Warn().Err(err).Str("provider_id", providerID.String()).Msg("evaluation lookup failed")
		} else if aggregate != nil {
			blended := float64(final)*(1-s.evalBlend) + *aggregate*s.evalBlend
			final = int(math.Round(blended))
		}
	}

	if final < s.threshold {
		return nil, false, nil
	}

	match := model.Match{
		OpportunityID: opp.ID,
		ProviderID:    providerID,
		OfferingID:    cand.offering.ID,
		Score:         final,
		SubScores:     cand.result.SubScores,
		Weights:       cand.result.Weights,
		Explain:       cand.result.Explain,
	}

	saved, inserted, err := s.matches.CreateIfAbsent(ctx, match)
	if err != nil {
		return nil, false, fmt.Errorf("%w: create match: %v", ErrStoreUnavailable, err)
	}
	if !inserted {
		// Lost the race or matched earlier; never overwrite.
		return nil, false, nil
	}

	s.notify(ctx, *saved)
	return saved, true, nil
}

// notify is fire-and-forget: delivery failures are logged, never propagated.
func (s *MatchingService) notify(ctx context.Context, match model.Match) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Create(ctx, model.Notification{
		RecipientID: match.ProviderID,
		Kind:        model.NotificationMatchFound,
		SubjectID:   match.OpportunityID,
		Message:     fmt.Sprintf("You matched an opportunity with score %d", match.Score),
	})
	if err != nil {
		s.log.Warn().Err(err).
			Str("match_id", match.ID.String()).
			Msg("match notification failed")
		return
	}
	if err := s.matches.MarkNotified(ctx, match.ID); err != nil {
		s.log.Warn().Err(err).Str("match_id", match.ID.String()).Msg("mark notified failed")
	}
}

// ListMatches reads existing matches for the export and listing surfaces.
func (s *MatchingService) ListMatches(ctx context.Context, opportunityID uuid.UUID) ([]model.Match, error) {
	matches, err := s.matches.ListByOpportunity(ctx, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("%w: list matches: %v", ErrStoreUnavailable, err)
	}
	return matches, nil
}
