package processors

import (
	"fmt"

	"github.com/username/gestorb3/src/models"
)

// AlertThresholds tunes when advisory alerts fire.
type AlertThresholds struct {
	TaxDueMin        float64
	ConcentrationPct float64
	LossFloor        float64
	MinTickers       int
}

type alertProcessorImpl struct {
	thresholds AlertThresholds
}

func NewAlertProcessor(thresholds AlertThresholds) AlertProcessor {
	return &alertProcessorImpl{thresholds: thresholds}
}

// Generate derives advisory alerts from the computed reports. Alerts are
// informational only; nothing here ever blocks a write or a computation.
func (p *alertProcessorImpl) Generate(positions []models.Position, summaries []models.MonthlyTaxSummary) []models.Alert {
	var alerts []models.Alert

	if len(summaries) > 0 {
		latest := summaries[len(summaries)-1]
		if latest.TotalTax > p.thresholds.TaxDueMin {
			alerts = append(alerts, models.Alert{
				Severity: models.AlertWarning,
				Message:  fmt.Sprintf("Estimated tax due for %s: R$ %.2f", latest.Month, latest.TotalTax),
			})
		}

		accumulated := latest.DayTrade.CarriedOut + latest.SwingStock.CarriedOut +
			latest.SwingFII.CarriedOut + latest.SwingBDR.CarriedOut
		if accumulated < p.thresholds.LossFloor {
			alerts = append(alerts, models.Alert{
				Severity: models.AlertError,
				Message:  fmt.Sprintf("Accumulated losses carried forward: R$ %.2f", -accumulated),
			})
		}
	}

	var total float64
	held := 0
	for _, pos := range positions {
		if pos.Quantity > 0 {
			total += pos.Total
			held++
		}
		if pos.Quantity < 0 {
			alerts = append(alerts, models.Alert{
				Severity: models.AlertWarning,
				Message:  fmt.Sprintf("Short position open on %s: %d shares", pos.Ticker, -pos.Quantity),
			})
		}
	}

	if held > 1 && total > 0 {
		for _, pos := range positions {
			if pos.Quantity <= 0 {
				continue
			}
			pct := pos.Total / total * 100
			if pct > p.thresholds.ConcentrationPct {
				alerts = append(alerts, models.Alert{
					Severity: models.AlertInfo,
					Message:  fmt.Sprintf("Concentration: %s is %.1f%% of the portfolio", pos.Ticker, pct),
				})
			}
		}
	}

	if held > 0 && held < p.thresholds.MinTickers {
		alerts = append(alerts, models.Alert{
			Severity: models.AlertInfo,
			Message:  fmt.Sprintf("Portfolio holds only %d tickers; consider diversifying", held),
		})
	}

	return alerts
}
