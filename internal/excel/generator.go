package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/bina-platform/marketplace-engine/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(report model.MatchReport) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, report); err != nil {
		return nil, err
	}

	detailSheet := "Matches"
	file.NewSheet(detailSheet)
	if err := g.writeMatches(file, detailSheet, report); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, report model.MatchReport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	opp := report.Opportunity

	set("A1", "Opportunity")
	set("B1", opp.ID.String())
	set("A2", "Kind")
	set("B2", string(opp.Kind))
	set("A3", "Category")
	set("B3", opp.Category)
	set("A4", "Required skills")
	set("B4", strings.Join(opp.SkillTags, ", "))
	set("A5", "Budget")
	set("B5", formatBudget(opp.Budget))
	set("A6", "Location")
	set("B6", formatLocation(opp.Location))
	set("A7", "Matches")
	set("B7", len(report.Matches))
	set("A8", "Generated at")
	set("B8", report.GeneratedAt.Format(time.RFC3339))

	return nil
}

func (g *Generator) writeMatches(file *excelize.File, sheet string, report model.MatchReport) error {
	headers := []string{
		"Provider", "Offering", "Score",
		"Attributes", "Budget", "Timeline", "Location", "Reputation",
		"Matched skills", "Unmatched skills", "Notified", "Created at",
	}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}

	for rowIdx, match := range report.Matches {
		values := []interface{}{
			match.ProviderID.String(),
			match.OfferingID.String(),
			match.Score,
			match.SubScores.Attributes,
			match.SubScores.Budget,
			match.SubScores.Timeline,
			match.SubScores.Location,
			match.SubScores.Reputation,
			strings.Join(match.Explain.MatchedSkills, ", "),
			strings.Join(match.Explain.UnmatchedSkills, ", "),
			match.Notified,
			match.CreatedAt.Format("2006-01-02 15:04"),
		}
		for colIdx, value := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func formatBudget(budget model.BudgetRange) string {
	if budget.IsZero() {
		return "not specified"
	}
	currency := budget.Currency
	if currency == "" {
		currency = "-"
	}
	return fmt.Sprintf("%.0f - %.0f %s", budget.Min, budget.Max, currency)
}

func formatLocation(location model.Location) string {
	if location.IsZero() {
		return "not specified"
	}
	parts := []string{}
	if location.City != "" {
		parts = append(parts, location.City)
	}
	if location.Country != "" {
		parts = append(parts, location.Country)
	}
	joined := strings.Join(parts, ", ")
	if location.RemoteAllowed {
		joined += " (remote allowed)"
	}
	return joined
}
