package processors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/gestorb3/src/models"
)

func testThresholds() AlertThresholds {
	return AlertThresholds{
		TaxDueMin:        10,
		ConcentrationPct: 30,
		LossFloor:        -1000,
		MinTickers:       5,
	}
}

func hasAlert(alerts []models.Alert, severity, substring string) bool {
	for _, a := range alerts {
		if a.Severity == severity && strings.Contains(a.Message, substring) {
			return true
		}
	}
	return false
}

func TestAlertsTaxDue(t *testing.T) {
	p := NewAlertProcessor(testThresholds())

	alerts := p.Generate(nil, []models.MonthlyTaxSummary{
		{Month: "2024-01", TotalTax: 150.0},
	})
	assert.True(t, hasAlert(alerts, models.AlertWarning, "2024-01"))

	alerts = p.Generate(nil, []models.MonthlyTaxSummary{
		{Month: "2024-01", TotalTax: 5.0},
	})
	assert.False(t, hasAlert(alerts, models.AlertWarning, "2024-01"))
}

func TestAlertsAccumulatedLosses(t *testing.T) {
	p := NewAlertProcessor(testThresholds())

	alerts := p.Generate(nil, []models.MonthlyTaxSummary{
		{
			Month:      "2024-02",
			DayTrade:   models.TaxBucket{CarriedOut: -800},
			SwingStock: models.TaxBucket{CarriedOut: -400},
		},
	})
	assert.True(t, hasAlert(alerts, models.AlertError, "Accumulated losses"))
}

func TestAlertsShortPosition(t *testing.T) {
	p := NewAlertProcessor(testThresholds())

	alerts := p.Generate([]models.Position{
		{Ticker: "PETR4", Quantity: -50, AvgCost: 0},
	}, nil)
	assert.True(t, hasAlert(alerts, models.AlertWarning, "Short position"))
}

func TestAlertsConcentration(t *testing.T) {
	p := NewAlertProcessor(testThresholds())

	alerts := p.Generate([]models.Position{
		{Ticker: "VALE3", Quantity: 100, AvgCost: 60, Total: 6000},
		{Ticker: "PETR4", Quantity: 100, AvgCost: 10, Total: 1000},
	}, nil)
	assert.True(t, hasAlert(alerts, models.AlertInfo, "VALE3"))
	assert.False(t, hasAlert(alerts, models.AlertInfo, "Concentration: PETR4"))
}

func TestAlertsNoConcentrationForSingleHolding(t *testing.T) {
	p := NewAlertProcessor(testThresholds())

	alerts := p.Generate([]models.Position{
		{Ticker: "VALE3", Quantity: 100, AvgCost: 60, Total: 6000},
	}, nil)
	assert.False(t, hasAlert(alerts, models.AlertInfo, "Concentration"))
}

func TestAlertsDiversification(t *testing.T) {
	p := NewAlertProcessor(testThresholds())

	alerts := p.Generate([]models.Position{
		{Ticker: "VALE3", Quantity: 100, Total: 6000},
		{Ticker: "PETR4", Quantity: 100, Total: 6000},
	}, nil)
	assert.True(t, hasAlert(alerts, models.AlertInfo, "consider diversifying"))

	// An empty portfolio triggers nothing.
	alerts = p.Generate(nil, nil)
	assert.Empty(t, alerts)
}
