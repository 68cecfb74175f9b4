package model

import (
	"time"

	"github.com/google/uuid"
)

// SubScores holds the five weighted components of a match score, each 0-100.
type SubScores struct {
	Attributes float64 `json:"attributes"`
	Budget     float64 `json:"budget"`
	Timeline   float64 `json:"timeline"`
	Location   float64 `json:"location"`
	Reputation float64 `json:"reputation"`
}

// ScoreWeights are the fixed component weights; they sum to 1.0.
type ScoreWeights struct {
	Attributes float64 `json:"attributes"`
	Budget     float64 `json:"budget"`
	Timeline   float64 `json:"timeline"`
	Location   float64 `json:"location"`
	Reputation float64 `json:"reputation"`
}

// MatchExplain carries the audit data shown next to a score.
type MatchExplain struct {
	MatchedSkills   []string `json:"matchedSkills,omitempty"`
	UnmatchedSkills []string `json:"unmatchedSkills,omitempty"`
}

type Match struct {
	ID            uuid.UUID    `json:"id"`
	OpportunityID uuid.UUID    `json:"opportunityId"`
	ProviderID    uuid.UUID    `json:"providerId"`
	OfferingID    uuid.UUID    `json:"offeringId"`
	Score         int          `json:"score"`
	SubScores     SubScores    `json:"subScores"`
	Weights       ScoreWeights `json:"weights"`
	Explain       MatchExplain `json:"explain"`
	Notified      bool         `json:"notified"`
	CreatedAt     time.Time    `json:"createdAt"`
}
