package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/gestorb3/src/models"
)

func buyOp(date, ticker string, qty int, price float64) models.Operation {
	return models.Operation{Date: date, Time: "10:00:00", Ticker: ticker, Side: models.SideBuy, Quantity: qty, Price: price}
}

func sellOp(date, ticker string, qty int, price float64) models.Operation {
	return models.Operation{Date: date, Time: "11:00:00", Ticker: ticker, Side: models.SideSell, Quantity: qty, Price: price}
}

func newTestResultProcessor() ResultProcessor {
	return NewResultProcessor(NewAssetClassifier())
}

func TestProcessPureSwingTrade(t *testing.T) {
	ops := []models.Operation{
		buyOp("2024-01-10", "PETR4", 100, 10.0),
		sellOp("2024-02-15", "PETR4", 100, 12.0),
	}

	realizations, positions := newTestResultProcessor().Process(ops)

	require.Len(t, realizations, 1)
	r := realizations[0]
	assert.Equal(t, models.KindSwingTrade, r.Kind)
	assert.Equal(t, models.AssetStock, r.AssetClass)
	assert.Equal(t, 100, r.Quantity)
	assert.InDelta(t, 200.0, r.Result, 1e-9)
	assert.InDelta(t, 1200.0, r.SellVolume, 1e-9)
	assert.Equal(t, "2024-02", r.Month)

	assert.Empty(t, positions)
}

func TestProcessPureDayTrade(t *testing.T) {
	ops := []models.Operation{
		buyOp("2024-03-05", "VALE3", 50, 10.0),
		sellOp("2024-03-05", "VALE3", 50, 11.0),
	}

	realizations, positions := newTestResultProcessor().Process(ops)

	require.Len(t, realizations, 1)
	r := realizations[0]
	assert.Equal(t, models.KindDayTrade, r.Kind)
	assert.Equal(t, 50, r.Quantity)
	assert.InDelta(t, 50.0, r.Result, 1e-9)
	assert.InDelta(t, 550.0, r.SellVolume, 1e-9)
	assert.Equal(t, "11:00:00", r.Time)

	assert.Empty(t, positions)
}

func TestProcessMixedDayResidualBuyGoesToPosition(t *testing.T) {
	ops := []models.Operation{
		buyOp("2024-03-05", "ITUB4", 200, 10.0),
		sellOp("2024-03-05", "ITUB4", 50, 12.0),
	}

	realizations, positions := newTestResultProcessor().Process(ops)

	require.Len(t, realizations, 1)
	assert.Equal(t, models.KindDayTrade, realizations[0].Kind)
	assert.InDelta(t, 100.0, realizations[0].Result, 1e-9)

	require.Len(t, positions, 1)
	assert.Equal(t, "ITUB4", positions[0].Ticker)
	assert.Equal(t, 150, positions[0].Quantity)
	assert.InDelta(t, 10.0, positions[0].AvgCost, 1e-9)
}

func TestProcessResidualSellPricedAgainstPriorAverage(t *testing.T) {
	// Day one builds a position at 10. On day two the matched quantity
	// nets out as a day trade and the excess sell must realize against
	// the 10 average from day one, not against day two's buy price.
	ops := []models.Operation{
		buyOp("2024-01-10", "BBDC4", 100, 10.0),
		buyOp("2024-02-20", "BBDC4", 50, 20.0),
		sellOp("2024-02-20", "BBDC4", 150, 20.0),
	}

	realizations, positions := newTestResultProcessor().Process(ops)

	require.Len(t, realizations, 2)

	dayTrade := realizations[0]
	assert.Equal(t, models.KindDayTrade, dayTrade.Kind)
	assert.Equal(t, 50, dayTrade.Quantity)
	assert.InDelta(t, 0.0, dayTrade.Result, 1e-9)

	swing := realizations[1]
	assert.Equal(t, models.KindSwingTrade, swing.Kind)
	assert.Equal(t, 100, swing.Quantity)
	assert.InDelta(t, 1000.0, swing.Result, 1e-9)

	assert.Empty(t, positions)
}

func TestProcessFeesAdjustBothLegs(t *testing.T) {
	ops := []models.Operation{
		{Date: "2024-01-10", Time: "10:00:00", Ticker: "PETR4", Side: models.SideBuy, Quantity: 100, Price: 10.0, BrokerageFee: 6.0, ExchangeFee: 4.0},
		{Date: "2024-01-20", Time: "11:00:00", Ticker: "PETR4", Side: models.SideSell, Quantity: 100, Price: 12.0, BrokerageFee: 7.0, ExchangeFee: 5.0},
	}

	realizations, _ := newTestResultProcessor().Process(ops)

	require.Len(t, realizations, 1)
	// Buy averages to 10.10 with fees, sell nets 11.88 after fees.
	assert.InDelta(t, 178.0, realizations[0].Result, 1e-9)
	// Exemption volume stays on gross proceeds.
	assert.InDelta(t, 1200.0, realizations[0].SellVolume, 1e-9)
}

func TestProcessDaysOrderedRegardlessOfInputOrder(t *testing.T) {
	ordered := []models.Operation{
		buyOp("2024-01-10", "PETR4", 100, 10.0),
		sellOp("2024-03-15", "PETR4", 100, 12.0),
	}
	shuffled := []models.Operation{
		sellOp("2024-03-15", "PETR4", 100, 12.0),
		buyOp("2024-01-10", "PETR4", 100, 10.0),
	}

	a, _ := newTestResultProcessor().Process(ordered)
	b, _ := newTestResultProcessor().Process(shuffled)

	assert.Equal(t, a, b)
}

func TestProcessMultipleFillsAggregatePerDay(t *testing.T) {
	// Two buys and two sells on the same day collapse into weighted
	// averages before matching; fill ordering inside the day is moot.
	ops := []models.Operation{
		buyOp("2024-05-02", "MGLU3", 100, 2.00),
		buyOp("2024-05-02", "MGLU3", 100, 3.00),
		sellOp("2024-05-02", "MGLU3", 50, 2.80),
		sellOp("2024-05-02", "MGLU3", 150, 2.60),
	}

	realizations, positions := newTestResultProcessor().Process(ops)

	require.Len(t, realizations, 1)
	r := realizations[0]
	assert.Equal(t, models.KindDayTrade, r.Kind)
	assert.Equal(t, 200, r.Quantity)
	// Weighted buy 2.50, weighted sell 2.65.
	assert.InDelta(t, 30.0, r.Result, 1e-9)
	assert.Empty(t, positions)
}

func TestProcessShortResidualSellGoesNegative(t *testing.T) {
	ops := []models.Operation{
		sellOp("2024-06-03", "PETR4", 100, 30.0),
	}

	realizations, positions := newTestResultProcessor().Process(ops)

	require.Len(t, realizations, 1)
	// Nothing in the ledger: the whole sale realizes against a zero
	// cost basis and the position goes short.
	assert.InDelta(t, 3000.0, realizations[0].Result, 1e-9)
	require.Len(t, positions, 1)
	assert.Equal(t, -100, positions[0].Quantity)
}

func TestProcessClassifiesPerTicker(t *testing.T) {
	ops := []models.Operation{
		buyOp("2024-01-10", "HGLG11", 10, 160.0),
		sellOp("2024-02-10", "HGLG11", 10, 170.0),
		buyOp("2024-01-10", "AAPL34", 10, 50.0),
		sellOp("2024-02-10", "AAPL34", 10, 55.0),
	}

	realizations, _ := newTestResultProcessor().Process(ops)

	require.Len(t, realizations, 2)
	byTicker := map[string]models.Realization{}
	for _, r := range realizations {
		byTicker[r.Ticker] = r
	}
	assert.Equal(t, models.AssetBDR, byTicker["AAPL34"].AssetClass)
	assert.Equal(t, models.AssetFII, byTicker["HGLG11"].AssetClass)
}
