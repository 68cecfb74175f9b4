package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bina-platform/marketplace-engine/internal/model"
)

// MatchReportGenerator renders a match report workbook.
type MatchReportGenerator interface {
	Generate(report model.MatchReport) ([]byte, error)
}

// ContractDocumentGenerator renders a contract summary document.
type ContractDocumentGenerator interface {
	Generate(doc model.ContractDocument) ([]byte, error)
}

// ExportService produces the downloadable artifacts for the UI: the match
// report workbook and the contract summary PDF.
type ExportService struct {
	opportunities OpportunityStore
	matches       MatchStore
	contracts     ContractStore
	excel         MatchReportGenerator
	pdf           ContractDocumentGenerator
}

func NewExportService(
	opportunities OpportunityStore,
	matches MatchStore,
	contracts ContractStore,
	excel MatchReportGenerator,
	pdf ContractDocumentGenerator,
) *ExportService {
	return &ExportService{
		opportunities: opportunities,
		matches:       matches,
		contracts:     contracts,
		excel:         excel,
		pdf:           pdf,
	}
}

type ExportResult struct {
	FileName string
	Content  []byte
}

func (s *ExportService) ExportMatches(ctx context.Context, opportunityID uuid.UUID) (*ExportResult, error) {
	opp, err := s.opportunities.GetOpportunity(ctx, opportunityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: opportunity %s", ErrNotFound, opportunityID)
		}
		return nil, fmt.Errorf("%w: load opportunity: %v", ErrStoreUnavailable, err)
	}

	matches, err := s.matches.ListByOpportunity(ctx, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("%w: list matches: %v", ErrStoreUnavailable, err)
	}

	report := model.MatchReport{
		Opportunity: *opp,
		Matches:     matches,
		GeneratedAt: time.Now().UTC(),
	}
	content, err := s.excel.Generate(report)
	if err != nil {
		return nil, err
	}

	name := sanitizeFileName(opp.Category)
	if name == "" {
		name = opp.ID.String()
	}
	return &ExportResult{
		FileName: fmt.Sprintf("matches-%s-%s.xlsx", name, report.GeneratedAt.Format("20060102")),
		Content:  content,
	}, nil
}

func (s *ExportService) ExportContractSummary(ctx context.Context, contractID uuid.UUID) (*ExportResult, error) {
	contract, err := s.contracts.Get(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract %s", ErrNotFound, contractID)
		}
		return nil, fmt.Errorf("%w: load contract: %v", ErrStoreUnavailable, err)
	}

	content, err := s.pdf.Generate(model.ContractDocument{Contract: *contract})
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		FileName: fmt.Sprintf("contract-%s.pdf", contract.ID.String()),
		Content:  content,
	}, nil
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
