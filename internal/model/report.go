package model

import "time"

// MatchReport feeds the XLSX export of an opportunity's matches.
type MatchReport struct {
	Opportunity Opportunity
	Matches     []Match
	GeneratedAt time.Time
}

// ContractDocument feeds the PDF summary of a contract's structured terms.
type ContractDocument struct {
	Contract Contract
}
