package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/gestorb3/src/models"
)

func TestTotalsByTicker(t *testing.T) {
	p := NewEarningsProcessor()

	totals := p.TotalsByTicker([]models.Earning{
		{Ticker: "PETR4", Kind: models.EarningDividend, Amount: 100.505},
		{Ticker: "PETR4", Kind: models.EarningJCP, Amount: 50.0},
		{Ticker: "HGLG11", Kind: models.EarningYield, Amount: 80.0},
	})

	assert.InDelta(t, 150.51, totals["PETR4"], 1e-9)
	assert.InDelta(t, 80.0, totals["HGLG11"], 1e-9)
}

func TestAnalyticReportMergesGainsAndEarnings(t *testing.T) {
	p := NewEarningsProcessor()

	rows := p.AnalyticReport(
		[]models.Realization{
			{Ticker: "PETR4", Result: 200.0},
			{Ticker: "VALE3", Result: -50.0},
		},
		[]models.Earning{
			{Ticker: "PETR4", Amount: 30.0},
			{Ticker: "HGLG11", Amount: 90.0},
		},
	)

	require.Len(t, rows, 3)
	// Rows come back sorted by ticker.
	assert.Equal(t, "HGLG11", rows[0].Ticker)
	assert.InDelta(t, 90.0, rows[0].Earnings, 1e-9)
	assert.InDelta(t, 0.0, rows[0].CapitalGains, 1e-9)

	assert.Equal(t, "PETR4", rows[1].Ticker)
	assert.InDelta(t, 200.0, rows[1].CapitalGains, 1e-9)
	assert.InDelta(t, 30.0, rows[1].Earnings, 1e-9)

	assert.Equal(t, "VALE3", rows[2].Ticker)
	assert.InDelta(t, -50.0, rows[2].CapitalGains, 1e-9)
}
