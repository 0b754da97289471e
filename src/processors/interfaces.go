package processors

import (
	"github.com/username/gestorb3/src/models"
)

// ResultProcessor replays the full operation history into the realized
// day-trade/swing-trade log and the final open positions.
type ResultProcessor interface {
	Process(operations []models.Operation) ([]models.Realization, []models.Position)
}

// TaxProcessor folds the realization log into the monthly tax report.
type TaxProcessor interface {
	Process(realizations []models.Realization) []models.MonthlyTaxSummary
}

// EarningsProcessor aggregates dividend/JCP/yield payments.
type EarningsProcessor interface {
	TotalsByTicker(earnings []models.Earning) map[string]float64
	AnalyticReport(realizations []models.Realization, earnings []models.Earning) []models.AnalyticRow
}

// AlertProcessor derives advisory alerts from the computed reports.
type AlertProcessor interface {
	Generate(positions []models.Position, summaries []models.MonthlyTaxSummary) []models.Alert
}
