package model

import "github.com/google/uuid"

type ExperienceLevel string

const (
	ExperienceJunior       ExperienceLevel = "JUNIOR"
	ExperienceIntermediate ExperienceLevel = "INTERMEDIATE"
	ExperienceSenior       ExperienceLevel = "SENIOR"
	ExperienceExpert       ExperienceLevel = "EXPERT"
)

// Rank maps the level onto an ordinal scale for comparisons; unknown levels
// rank lowest.
func (l ExperienceLevel) Rank() int {
	switch l {
	case ExperienceJunior:
		return 1
	case ExperienceIntermediate:
		return 2
	case ExperienceSenior:
		return 3
	case ExperienceExpert:
		return 4
	default:
		return 0
	}
}

type Provider struct {
	ID              uuid.UUID       `json:"id"`
	Approved        bool            `json:"approved"`
	ExperienceLevel ExperienceLevel `json:"experienceLevel"`
	ExperienceYears int             `json:"experienceYears"`
	// ReputationScore is supplied by the external reputation provider, 0-100.
	ReputationScore *float64      `json:"reputationScore,omitempty"`
	Location        Location      `json:"location"`
	PaymentModes    []PaymentMode `json:"paymentModes,omitempty"`
}

// Principal is the authenticated actor resolved from the access token.
type Principal struct {
	UserID   uuid.UUID
	Role     string
	Approved bool
}

func (p Principal) IsProvider() bool {
	return p.Role == "PROVIDER"
}

func (p Principal) IsAdmin() bool {
	return p.Role == "ADMIN"
}
