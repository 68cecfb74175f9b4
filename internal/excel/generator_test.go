package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bina-platform/marketplace-engine/internal/model"
)

func TestGenerate(t *testing.T) {
	providerID := uuid.New()
	report := model.MatchReport{
		Opportunity: model.Opportunity{
			ID:        uuid.New(),
			Kind:      model.OpportunityKindProject,
			Category:  "construction",
			SkillTags: []string{"civil", "hse"},
			Budget:    model.BudgetRange{Min: 100_000, Max: 200_000, Currency: "USD"},
			Location:  model.Location{Country: "AE", City: "Dubai"},
		},
		Matches: []model.Match{
			{
				ID:         uuid.New(),
				ProviderID: providerID,
				OfferingID: uuid.New(),
				Score:      91,
				SubScores:  model.SubScores{Attributes: 95, Budget: 100, Timeline: 80, Location: 100, Reputation: 50},
				Explain:    model.MatchExplain{MatchedSkills: []string{"civil", "hse"}},
				Notified:   true,
				CreatedAt:  time.Now().UTC(),
			},
		},
		GeneratedAt: time.Now().UTC(),
	}

	content, err := NewGenerator().Generate(report)
	require.NoError(t, err)
	require.NotEmpty(t, content)

	file, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer file.Close()

	assert.ElementsMatch(t, []string{"Summary", "Matches"}, file.GetSheetList())

	category, err := file.GetCellValue("Summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "construction", category)

	count, err := file.GetCellValue("Summary", "B7")
	require.NoError(t, err)
	assert.Equal(t, "1", count)

	provider, err := file.GetCellValue("Matches", "A2")
	require.NoError(t, err)
	assert.Equal(t, providerID.String(), provider)

	score, err := file.GetCellValue("Matches", "C2")
	require.NoError(t, err)
	assert.Equal(t, "91", score)
}

func TestFormatBudget(t *testing.T) {
	assert.Equal(t, "not specified", formatBudget(model.BudgetRange{}))
	assert.Equal(t, "100 - 200 USD", formatBudget(model.BudgetRange{Min: 100, Max: 200, Currency: "USD"}))
	assert.Equal(t, "100 - 200 -", formatBudget(model.BudgetRange{Min: 100, Max: 200}))
}

func TestFormatLocation(t *testing.T) {
	assert.Equal(t, "not specified", formatLocation(model.Location{}))
	assert.Equal(t, "Dubai, AE", formatLocation(model.Location{Country: "AE", City: "Dubai"}))
	assert.Equal(t, "AE (remote allowed)", formatLocation(model.Location{Country: "AE", RemoteAllowed: true}))
}
