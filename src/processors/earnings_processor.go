package processors

import (
	"sort"

	"github.com/username/gestorb3/src/models"
	"github.com/username/gestorb3/src/utils"
)

type earningsProcessorImpl struct{}

func NewEarningsProcessor() EarningsProcessor {
	return &earningsProcessorImpl{}
}

// TotalsByTicker sums the received earnings per ticker.
func (p *earningsProcessorImpl) TotalsByTicker(earnings []models.Earning) map[string]float64 {
	totals := make(map[string]float64)
	for _, e := range earnings {
		totals[e.Ticker] += e.Amount
	}
	for ticker, amount := range totals {
		totals[ticker] = utils.RoundFloat(amount, 2)
	}
	return totals
}

// AnalyticReport merges realized capital gains and earnings per ticker,
// one row per ticker that appears in either input, sorted by ticker.
func (p *earningsProcessorImpl) AnalyticReport(realizations []models.Realization, earnings []models.Earning) []models.AnalyticRow {
	gains := make(map[string]float64)
	for _, r := range realizations {
		gains[r.Ticker] += r.Result
	}
	received := p.TotalsByTicker(earnings)

	tickers := make(map[string]bool)
	for t := range gains {
		tickers[t] = true
	}
	for t := range received {
		tickers[t] = true
	}

	rows := make([]models.AnalyticRow, 0, len(tickers))
	for t := range tickers {
		rows = append(rows, models.AnalyticRow{
			Ticker:       t,
			CapitalGains: utils.RoundFloat(gains[t], 2),
			Earnings:     received[t],
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Ticker < rows[j].Ticker })
	return rows
}
