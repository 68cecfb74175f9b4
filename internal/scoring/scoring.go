// Package scoring ranks a provider's offering against an opportunity.
//
// Everything here is pure: no clock reads, no randomness, no store access.
// Missing optional data always resolves to a documented neutral score, so
// scoring itself never fails.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/bina-platform/marketplace-engine/internal/model"
)

// Component weights, fixed and summing to 1.0.
const (
	WeightAttributes = 0.40
	WeightBudget     = 0.30
	WeightTimeline   = 0.15
	WeightLocation   = 0.10
	WeightReputation = 0.05
)

// DefaultThreshold is the admission score for a match.
const DefaultThreshold = 80

// NeutralScore is used whenever one side of a comparison supplied no data.
const NeutralScore = 50.0

// Weights returns the fixed component weights.
func Weights() model.ScoreWeights {
	return model.ScoreWeights{
		Attributes: WeightAttributes,
		Budget:     WeightBudget,
		Timeline:   WeightTimeline,
		Location:   WeightLocation,
		Reputation: WeightReputation,
	}
}

// Result is the outcome of scoring one (opportunity, offering, provider)
// triple.
type Result struct {
	Final          int
	SubScores      model.SubScores
	Weights        model.ScoreWeights
	Explain        model.MatchExplain
	MeetsThreshold bool
	// Excluded is set when the opportunity requires skill tags and the
	// offering matches none of them. An excluded candidate never becomes a
	// match regardless of the other components.
	Excluded bool
}

// Score computes the five sub-scores and their weighted sum. The provider
// snapshot carries the externally supplied reputation score; a missing one
// scores neutral.
func Score(opp model.Opportunity, off model.Offering, provider model.Provider) Result {
	matched, unmatched := matchSkillTags(opp.SkillTags, off.SkillTags)

	result := Result{
		Weights: Weights(),
		Explain: explainSkills(matched, unmatched),
	}

	if len(opp.SkillTags) > 0 && len(matched) == 0 {
		result.Excluded = true
		return result
	}

	result.SubScores = model.SubScores{
		Attributes: scoreAttributes(opp, off, provider, matched),
		Budget:     scoreBudget(opp.Budget, off.Price),
		Timeline:   scoreTimeline(opp.Timeline, off.Availability),
		Location:   scoreLocation(opp.Location, off.Location),
		Reputation: scoreReputation(provider.ReputationScore),
	}

	weighted := result.SubScores.Attributes*WeightAttributes +
		result.SubScores.Budget*WeightBudget +
		result.SubScores.Timeline*WeightTimeline +
		result.SubScores.Location*WeightLocation +
		result.SubScores.Reputation*WeightReputation

	result.Final = int(math.Round(weighted))
	result.MeetsThreshold = result.Final >= DefaultThreshold
	return result
}

// scoreAttributes combines skill overlap (60%), category match (25%) and
// experience fit (15%).
func scoreAttributes(opp model.Opportunity, off model.Offering, provider model.Provider, matched []string) float64 {
	denominator := len(opp.SkillTags)
	if denominator < 1 {
		denominator = 1
	}
	skillScore := float64(len(matched)) / float64(denominator) * 100

	categoryScore := 0.0
	if categoriesMatch(opp.Category, off.Category) {
		categoryScore = 100
	}

	experienceScore := scoreExperience(opp, provider)

	return skillScore*0.60 + categoryScore*0.25 + experienceScore*0.15
}

// matchSkillTags pairs required tags against offering tags case-insensitively,
// counting a hit when either tag contains the other as a substring.
func matchSkillTags(required, offered []string) (matched, unmatched []string) {
	for _, req := range required {
		reqLower := strings.ToLower(strings.TrimSpace(req))
		if reqLower == "" {
			continue
		}
		hit := false
		for _, off := range offered {
			offLower := strings.ToLower(strings.TrimSpace(off))
			if offLower == "" {
				continue
			}
			if strings.Contains(offLower, reqLower) || strings.Contains(reqLower, offLower) {
				hit = true
				break
			}
		}
		if hit {
			matched = append(matched, req)
		} else {
			unmatched = append(unmatched, req)
		}
	}
	return matched, unmatched
}

func explainSkills(matched, unmatched []string) model.MatchExplain {
	explain := model.MatchExplain{UnmatchedSkills: unmatched}
	if len(matched) > 3 {
		explain.MatchedSkills = matched[:3]
	} else {
		explain.MatchedSkills = matched
	}
	return explain
}

// categoryServiceMap translates opportunity categories onto the offering
// service-category vocabulary.
var categoryServiceMap = map[string]string{
	"construction":        "construction-services",
	"infrastructure":      "construction-services",
	"engineering":         "engineering-services",
	"design":              "engineering-services",
	"consulting":          "advisory-services",
	"advisory":            "advisory-services",
	"supervision":         "site-services",
	"site-management":     "site-services",
	"materials":           "supply-services",
	"equipment":           "supply-services",
	"maintenance":         "maintenance-services",
	"facility-management": "maintenance-services",
}

func categoriesMatch(oppCategory, offCategory string) bool {
	a := strings.ToLower(strings.TrimSpace(oppCategory))
	b := strings.ToLower(strings.TrimSpace(offCategory))
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	return categoryServiceMap[a] == b
}

// scoreExperience averages the ordinal level fit and the minimum-years fit.
func scoreExperience(opp model.Opportunity, provider model.Provider) float64 {
	levelScore := 100.0
	if opp.RequiredExperience != "" {
		required := opp.RequiredExperience.Rank()
		actual := provider.ExperienceLevel.Rank()
		if actual < required && required > 0 {
			levelScore = float64(actual) / float64(required) * 100
		}
	}

	yearsScore := 100.0
	if opp.MinExperienceYears > 0 {
		if provider.ExperienceYears < opp.MinExperienceYears {
			yearsScore = float64(provider.ExperienceYears) / float64(opp.MinExperienceYears) * 100
		}
	}

	return (levelScore + yearsScore) / 2
}

// scoreBudget compares the opportunity budget range against the offering's
// rate range.
func scoreBudget(need, rate model.BudgetRange) float64 {
	if need.IsZero() || rate.IsZero() {
		return NeutralScore
	}

	needMin, needMax := orderedRange(need.Min, need.Max)
	rateMin, rateMax := orderedRange(rate.Min, rate.Max)

	// Offering fully contained in the opportunity budget.
	if rateMin >= needMin && rateMax <= needMax {
		return 100
	}

	overlap := math.Min(needMax, rateMax) - math.Max(needMin, rateMin)
	if overlap > 0 {
		width := needMax - needMin
		if width <= 0 {
			return 100
		}
		return math.Min(100, overlap/width*100)
	}

	// Disjoint ranges: decay from 50 by midpoint distance.
	needMid := (needMin + needMax) / 2
	rateMid := (rateMin + rateMax) / 2
	if needMid <= 0 {
		return 0
	}
	distance := math.Abs(rateMid-needMid) / needMid
	return math.Max(0, 50*(1-distance))
}

// orderedRange normalizes a budget range. An unset max means a single-point
// range at min, so it must be checked before the swap.
func orderedRange(min, max float64) (float64, float64) {
	if max == 0 {
		return min, min
	}
	if max < min {
		return max, min
	}
	return min, max
}

// Timeline halves: start alignment and duration coverage. Days-late credit
// runs out 110 days past the desired start.
const lateCutoffDays = 110

func scoreTimeline(need model.Timeline, avail model.Availability) float64 {
	if need.StartDate == nil {
		return NeutralScore
	}
	if avail.From == nil && avail.To == nil && avail.LeadTimeDays == 0 {
		return NeutralScore
	}

	startScore := scoreStartAlignment(*need.StartDate, avail)
	coverageScore := scoreDurationCoverage(need, avail)
	return startScore*0.5 + coverageScore*0.5
}

func scoreStartAlignment(needStart time.Time, avail model.Availability) float64 {
	offerStart := avail.From
	if offerStart == nil && avail.LeadTimeDays > 0 {
		// Only lead-time metadata: treat lead time as days late.
		daysLate := float64(avail.LeadTimeDays)
		return math.Max(0, 100*(1-daysLate/lateCutoffDays))
	}
	if offerStart == nil {
		return NeutralScore
	}
	if !offerStart.After(needStart) {
		return 100
	}
	daysLate := offerStart.Sub(needStart).Hours() / 24
	return math.Max(0, 100*(1-daysLate/lateCutoffDays))
}

func scoreDurationCoverage(need model.Timeline, avail model.Availability) float64 {
	needEnd := need.EndDate()
	if needEnd == nil {
		return NeutralScore
	}
	if avail.To == nil {
		if avail.LeadTimeDays > 0 {
			return 60
		}
		// Open-ended availability covers any duration.
		if avail.From != nil {
			return 100
		}
		return NeutralScore
	}
	if !avail.To.Before(*needEnd) {
		return 100
	}

	start := *need.StartDate
	if avail.From != nil && avail.From.After(start) {
		start = *avail.From
	}
	overlapDays := avail.To.Sub(start).Hours() / 24
	if overlapDays <= 0 {
		return 0
	}
	needDays := needEnd.Sub(*need.StartDate).Hours() / 24
	if needDays <= 0 {
		return 100
	}
	return math.Min(100, overlapDays/needDays*100)
}

// scoreLocation applies the fixed city/country/remote table.
func scoreLocation(need, offer model.Location) float64 {
	if need.IsZero() || offer.IsZero() {
		return NeutralScore
	}

	sameCountry := strings.EqualFold(need.Country, offer.Country)
	sameCity := sameCountry &&
		need.City != "" && offer.City != "" &&
		strings.EqualFold(need.City, offer.City)
	remote := need.RemoteAllowed || offer.RemoteAllowed

	switch {
	case sameCity:
		return 100
	case sameCountry && remote:
		return 70
	case sameCountry:
		return 40
	case remote:
		return 20
	default:
		return 0
	}
}

func scoreReputation(score *float64) float64 {
	if score == nil {
		return NeutralScore
	}
	return math.Max(0, math.Min(100, *score))
}
