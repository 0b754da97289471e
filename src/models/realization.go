package models

// Asset classes recognized by the suffix classifier.
const (
	AssetStock = "STOCK"
	AssetFII   = "FII"
	AssetBDR   = "BDR"
)

const (
	KindDayTrade   = "DAY_TRADE"
	KindSwingTrade = "SWING_TRADE"
)

// Realization is one realized gain/loss event. A trading day produces at
// most two per ticker: one day-trade entry for the matched quantity and
// one swing-trade entry for the residual sold out of the carried position.
type Realization struct {
	Date       string  `json:"date"`
	Time       string  `json:"time"`
	Ticker     string  `json:"ticker"`
	Kind       string  `json:"kind"`
	AssetClass string  `json:"asset_class"`
	Quantity   int     `json:"quantity"`
	Result     float64 `json:"result"`
	SellVolume float64 `json:"sell_volume"`
	Month      string  `json:"month"` // "2006-01"
}

// Position is the running holding of one ticker after all operations.
type Position struct {
	Ticker       string  `json:"ticker"`
	AssetClass   string  `json:"asset_class"`
	Quantity     int     `json:"quantity"`
	AvgCost      float64 `json:"avg_cost"`
	Total        float64 `json:"total"`
	PortfolioPct float64 `json:"portfolio_pct"`
}
