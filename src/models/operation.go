package models

const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Earning kinds as recorded by the user (proventos).
const (
	EarningDividend = "dividend"
	EarningJCP      = "jcp"
	EarningYield    = "yield"
)

// Operation represents a single buy or sell order as entered by the user.
// Dates are stored as "2006-01-02" and times as "15:04:05"; the engine
// only ever orders by (date, time), it never does timezone math.
type Operation struct {
	ID           int64   `json:"id,omitempty"`
	UserID       int64   `json:"-"`
	Date         string  `json:"date"`
	Time         string  `json:"time"`
	Ticker       string  `json:"ticker"`
	Side         string  `json:"side"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	BrokerageFee float64 `json:"brokerage_fee"`
	ExchangeFee  float64 `json:"exchange_fee"`
}

// Fees returns the total per-order cost charged on top of the price.
func (o Operation) Fees() float64 {
	return o.BrokerageFee + o.ExchangeFee
}

// Earning represents a dividend, JCP or fund yield payment received.
type Earning struct {
	ID     int64   `json:"id,omitempty"`
	UserID int64   `json:"-"`
	Date   string  `json:"date"`
	Ticker string  `json:"ticker"`
	Kind   string  `json:"kind"`
	Amount float64 `json:"amount"`
}
