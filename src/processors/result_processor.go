package processors

import (
	"sort"

	"github.com/username/gestorb3/src/models"
	"github.com/username/gestorb3/src/utils"
)

// dayAggregate collapses one ticker's operations on one calendar day.
// Only day totals and weighted means matter; the order of individual
// fills within the day does not.
type dayAggregate struct {
	buyQty       int
	buyCost      float64 // sum of quantity*price over buys
	buyFees      float64
	sellQty      int
	sellProceeds float64 // sum of quantity*price over sells
	sellFees     float64
	firstSell    string // earliest sell time-of-day, "" if no sells
}

// netBuyAvg is the volume-weighted buy price with fees folded in as a
// per-unit increment.
func (a *dayAggregate) netBuyAvg() float64 {
	if a.buyQty == 0 {
		return 0
	}
	return (a.buyCost + a.buyFees) / float64(a.buyQty)
}

// netSellAvg is the volume-weighted sell price net of fees.
func (a *dayAggregate) netSellAvg() float64 {
	if a.sellQty == 0 {
		return 0
	}
	return (a.sellProceeds - a.sellFees) / float64(a.sellQty)
}

// grossSellAvg is the fee-free weighted sell price; the exemption volume
// is measured against gross proceeds, not fee-adjusted ones.
func (a *dayAggregate) grossSellAvg() float64 {
	if a.sellQty == 0 {
		return 0
	}
	return a.sellProceeds / float64(a.sellQty)
}

type resultProcessorImpl struct {
	classifier *AssetClassifier
}

// NewResultProcessor builds the realized-result engine. It replays the
// full operation history on every call; there is no incremental state.
func NewResultProcessor(classifier *AssetClassifier) ResultProcessor {
	return &resultProcessorImpl{classifier: classifier}
}

// Process folds the chronologically ordered operations into the
// realization log and the final open positions.
//
// Days are processed strictly in ascending date order: the ledger's
// average cost is path dependent, so reordering days changes every
// subsequent result. Tickers within a day do not interact; they are
// visited in sorted order only for deterministic output.
func (p *resultProcessorImpl) Process(operations []models.Operation) ([]models.Realization, []models.Position) {
	byDay := make(map[string]map[string]*dayAggregate)
	for _, op := range operations {
		day, ok := byDay[op.Date]
		if !ok {
			day = make(map[string]*dayAggregate)
			byDay[op.Date] = day
		}
		agg, ok := day[op.Ticker]
		if !ok {
			agg = &dayAggregate{}
			day[op.Ticker] = agg
		}
		switch op.Side {
		case models.SideBuy:
			agg.buyQty += op.Quantity
			agg.buyCost += float64(op.Quantity) * op.Price
			agg.buyFees += op.Fees()
		case models.SideSell:
			agg.sellQty += op.Quantity
			agg.sellProceeds += float64(op.Quantity) * op.Price
			agg.sellFees += op.Fees()
			if agg.firstSell == "" || op.Time < agg.firstSell {
				agg.firstSell = op.Time
			}
		}
	}

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)

	ledger := NewPositionLedger()
	var realizations []models.Realization

	for _, day := range days {
		month := monthKey(day)
		tickers := make([]string, 0, len(byDay[day]))
		for t := range byDay[day] {
			tickers = append(tickers, t)
		}
		sort.Strings(tickers)

		for _, ticker := range tickers {
			agg := byDay[day][ticker]
			if agg.buyQty == 0 && agg.sellQty == 0 {
				continue
			}

			dayTradeQty := utils.MinInt(agg.buyQty, agg.sellQty)
			sellTime := agg.firstSell
			if sellTime == "" {
				sellTime = "00:00:00"
			}
			assetClass := p.classifier.Classify(ticker)

			if dayTradeQty > 0 {
				realizations = append(realizations, models.Realization{
					Date:       day,
					Time:       sellTime,
					Ticker:     ticker,
					Kind:       models.KindDayTrade,
					AssetClass: assetClass,
					Quantity:   dayTradeQty,
					Result:     (agg.netSellAvg() - agg.netBuyAvg()) * float64(dayTradeQty),
					SellVolume: agg.grossSellAvg() * float64(dayTradeQty),
					Month:      month,
				})
			}

			// Both legs are priced against the average cost as it
			// stood before this day's residual buy is absorbed.
			avgCostBefore := ledger.AvgCost(ticker)

			if residualBuy := agg.buyQty - dayTradeQty; residualBuy > 0 {
				ledger.AbsorbBuy(ticker, residualBuy, agg.netBuyAvg(), 0)
			}

			if residualSell := agg.sellQty - dayTradeQty; residualSell > 0 {
				realizations = append(realizations, models.Realization{
					Date:       day,
					Time:       sellTime,
					Ticker:     ticker,
					Kind:       models.KindSwingTrade,
					AssetClass: assetClass,
					Quantity:   residualSell,
					Result:     (agg.netSellAvg() - avgCostBefore) * float64(residualSell),
					SellVolume: agg.grossSellAvg() * float64(residualSell),
					Month:      month,
				})
				ledger.ReleaseSell(ticker, residualSell)
			}
		}
	}

	var positions []models.Position
	for _, ticker := range ledger.Tickers() {
		qty := ledger.Quantity(ticker)
		avg := ledger.AvgCost(ticker)
		positions = append(positions, models.Position{
			Ticker:     ticker,
			AssetClass: p.classifier.Classify(ticker),
			Quantity:   qty,
			AvgCost:    avg,
			Total:      float64(qty) * avg,
		})
	}

	return realizations, positions
}

// monthKey turns a "2006-01-02" date into its "2006-01" month bucket.
func monthKey(date string) string {
	if len(date) >= 7 {
		return date[:7]
	}
	return date
}
