package processors

import "sort"

// positionState is the running holding of one ticker: quantity and the
// single blended average unit cost shared by all outstanding shares.
type positionState struct {
	Quantity int
	AvgCost  float64
}

// PositionLedger tracks quantity and weighted-average cost per ticker.
// It is a pure state machine: no I/O, mutated only by the daily matcher.
type PositionLedger struct {
	states map[string]*positionState
}

func NewPositionLedger() *PositionLedger {
	return &PositionLedger{states: make(map[string]*positionState)}
}

func (l *PositionLedger) state(ticker string) *positionState {
	s, ok := l.states[ticker]
	if !ok {
		s = &positionState{}
		l.states[ticker] = s
	}
	return s
}

// AbsorbBuy folds a non-day-traded purchase into the average cost. The
// per-order fees are spread over the bought quantity as a per-unit add-on.
func (l *PositionLedger) AbsorbBuy(ticker string, quantity int, unitPrice, fees float64) {
	s := l.state(ticker)
	unitCost := unitPrice
	if quantity > 0 {
		unitCost += fees / float64(quantity)
	}
	newTotal := float64(s.Quantity)*s.AvgCost + float64(quantity)*unitCost
	s.Quantity += quantity
	if s.Quantity != 0 {
		s.AvgCost = newTotal / float64(s.Quantity)
	} else {
		// Quantity back at zero: the average has no economic meaning
		// until the ticker is repurchased.
		s.AvgCost = 0
	}
}

// ReleaseSell decrements the held quantity. The average cost of the
// remaining shares is unchanged; the realized gain is the caller's
// business. Quantity may go negative when short sales are allowed.
func (l *PositionLedger) ReleaseSell(ticker string, quantity int) {
	s := l.state(ticker)
	s.Quantity -= quantity
	if s.Quantity == 0 {
		s.AvgCost = 0
	}
}

// AvgCost returns the current weighted-average unit cost for a ticker,
// zero if it was never bought.
func (l *PositionLedger) AvgCost(ticker string) float64 {
	if s, ok := l.states[ticker]; ok {
		return s.AvgCost
	}
	return 0
}

// Quantity returns the currently held quantity for a ticker.
func (l *PositionLedger) Quantity(ticker string) int {
	if s, ok := l.states[ticker]; ok {
		return s.Quantity
	}
	return 0
}

// Tickers returns every ticker with a non-zero quantity, sorted.
func (l *PositionLedger) Tickers() []string {
	tickers := make([]string, 0, len(l.states))
	for t, s := range l.states {
		if s.Quantity != 0 {
			tickers = append(tickers, t)
		}
	}
	sort.Strings(tickers)
	return tickers
}
