package models

const (
	AlertInfo    = "info"
	AlertWarning = "warning"
	AlertError   = "error"
)

// Alert is an advisory notification derived from the computed reports.
// Alerts never block any computation or write.
type Alert struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// AnalyticRow merges realized capital gains and earnings for one ticker.
type AnalyticRow struct {
	Ticker       string  `json:"ticker"`
	CapitalGains float64 `json:"capital_gains"`
	Earnings     float64 `json:"earnings"`
}

// TickerHistory is everything recorded for a single ticker.
type TickerHistory struct {
	Ticker     string        `json:"ticker"`
	Operations []Operation   `json:"operations"`
	Earnings   []Earning     `json:"earnings"`
	Position   *Position     `json:"position,omitempty"`
	Realized   []Realization `json:"realized"`
}
