package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/bina-platform/marketplace-engine/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() (*Generator, error) {
	return &Generator{fontName: "Helvetica"}, nil
}

func (g *Generator) Generate(doc model.ContractDocument) ([]byte, error) {
	contract := doc.Contract

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Contract Summary", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Contract %s (%s)", contract.ID, contract.ContractType), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Status: %s", contract.Status), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Parties", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	if contract.IsMultiParty {
		for _, party := range contract.Parties {
			line := fmt.Sprintf("%s  %s  share %.2f%%  consent %s",
				party.PartyID, party.PartyType, party.SharePercent, party.ConsentStatus)
			pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
		}
	} else {
		pdf.CellFormat(0, 6, fmt.Sprintf("Buyer: %s (%s)", contract.BuyerID, contract.BuyerPartyType), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 6, fmt.Sprintf("Provider: %s (%s)", contract.ProviderID, contract.ProviderPartyType), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Term", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("From %s to %s", formatDate(contract.StartDate), formatDate(contract.EndDate)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Services schedule", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 9)

	headers := []string{"Description", "Qty", "Unit price", "Total", "Delivery"}
	colWidths := []float64{80, 20, 30, 30, 25}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)
	for _, item := range contract.ServicesSchedule {
		row := []string{
			item.Description,
			formatAmount(item.Quantity, 2),
			formatAmount(item.UnitPrice, 2),
			formatAmount(item.Total, 2),
			formatDate(item.DeliveryDate),
		}
		drawTableRow(pdf, g.fontName, row, colWidths, false)
	}
	pdf.Ln(2)

	pdf.SetFont(g.fontName, "B", 11)
	total := fmt.Sprintf("Total: %s %s", formatAmount(contract.Terms.PricingTotal, 2), contract.Terms.Currency)
	pdf.CellFormat(0, 6, total, "", 1, "R", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Payment terms", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Mode: %s", contract.PaymentTerms.Mode), "", 1, "L", false, 0, "")
	if contract.PaymentTerms.BarterRule != "" {
		pdf.CellFormat(0, 6, fmt.Sprintf("Barter rule: %s", contract.PaymentTerms.BarterRule), "", 1, "L", false, 0, "")
	}
	if contract.PaymentTerms.CashSettlement != 0 {
		pdf.CellFormat(0, 6, fmt.Sprintf("Cash settlement: %s", formatAmount(contract.PaymentTerms.CashSettlement, 2)), "", 1, "L", false, 0, "")
	}

	if contract.Governance != nil {
		pdf.Ln(2)
		pdf.SetFont(g.fontName, "B", 12)
		pdf.CellFormat(0, 8, "Governance", "", 1, "L", false, 0, "")
		pdf.SetFont(g.fontName, "", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("Entity: %s", contract.Governance.EntityType), "", 1, "L", false, 0, "")
		if contract.Governance.DecisionRule != "" {
			pdf.CellFormat(0, 6, fmt.Sprintf("Decision rule: %s", contract.Governance.DecisionRule), "", 1, "L", false, 0, "")
		}
		if contract.Governance.LeadPartyID != nil {
			pdf.CellFormat(0, 6, fmt.Sprintf("Lead party: %s", contract.Governance.LeadPartyID), "", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cells []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 9)
	for i, cell := range cells {
		pdf.CellFormat(widths[i], 7, cell, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("02.01.2006")
}

func formatAmount(value float64, decimals int) string {
	return fmt.Sprintf("%.*f", decimals, value)
}
