package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionLedgerWeightedAverage(t *testing.T) {
	ledger := NewPositionLedger()

	ledger.AbsorbBuy("PETR4", 100, 10.0, 0)
	assert.Equal(t, 100, ledger.Quantity("PETR4"))
	assert.InDelta(t, 10.0, ledger.AvgCost("PETR4"), 1e-9)

	// 100@10 + 100@20 averages to 15.
	ledger.AbsorbBuy("PETR4", 100, 20.0, 0)
	assert.Equal(t, 200, ledger.Quantity("PETR4"))
	assert.InDelta(t, 15.0, ledger.AvgCost("PETR4"), 1e-9)
}

func TestPositionLedgerFeesRaiseAverage(t *testing.T) {
	ledger := NewPositionLedger()

	// 100@10 with R$10 of fees is 10.10 per share.
	ledger.AbsorbBuy("VALE3", 100, 10.0, 10.0)
	assert.InDelta(t, 10.10, ledger.AvgCost("VALE3"), 1e-9)
}

func TestPositionLedgerSellKeepsAverage(t *testing.T) {
	ledger := NewPositionLedger()

	ledger.AbsorbBuy("ITUB4", 100, 10.0, 0)
	ledger.AbsorbBuy("ITUB4", 100, 20.0, 0)
	ledger.ReleaseSell("ITUB4", 150)

	assert.Equal(t, 50, ledger.Quantity("ITUB4"))
	assert.InDelta(t, 15.0, ledger.AvgCost("ITUB4"), 1e-9)
}

func TestPositionLedgerResetOnFullExit(t *testing.T) {
	ledger := NewPositionLedger()

	ledger.AbsorbBuy("BBAS3", 100, 10.0, 0)
	ledger.ReleaseSell("BBAS3", 100)

	assert.Equal(t, 0, ledger.Quantity("BBAS3"))
	assert.InDelta(t, 0.0, ledger.AvgCost("BBAS3"), 1e-9)

	// The next buy starts a fresh lot at its own price.
	ledger.AbsorbBuy("BBAS3", 50, 30.0, 0)
	assert.InDelta(t, 30.0, ledger.AvgCost("BBAS3"), 1e-9)
}

func TestPositionLedgerFoldOrderIndependentWithinBuys(t *testing.T) {
	a := NewPositionLedger()
	a.AbsorbBuy("WEGE3", 100, 10.0, 5.0)
	a.AbsorbBuy("WEGE3", 200, 13.0, 7.0)

	b := NewPositionLedger()
	b.AbsorbBuy("WEGE3", 200, 13.0, 7.0)
	b.AbsorbBuy("WEGE3", 100, 10.0, 5.0)

	assert.Equal(t, a.Quantity("WEGE3"), b.Quantity("WEGE3"))
	assert.InDelta(t, a.AvgCost("WEGE3"), b.AvgCost("WEGE3"), 1e-9)
}

func TestPositionLedgerTickers(t *testing.T) {
	ledger := NewPositionLedger()
	ledger.AbsorbBuy("VALE3", 10, 60.0, 0)
	ledger.AbsorbBuy("PETR4", 10, 30.0, 0)
	ledger.AbsorbBuy("ITUB4", 10, 25.0, 0)
	ledger.ReleaseSell("ITUB4", 10)

	assert.Equal(t, []string{"PETR4", "VALE3"}, ledger.Tickers())
}
