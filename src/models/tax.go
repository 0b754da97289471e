package models

// TaxBucket is the per-month outcome for one (kind, asset class) bucket.
// CarriedIn/CarriedOut are the accumulated losses entering and leaving the
// month; both are zero or negative.
type TaxBucket struct {
	Gross      float64 `json:"gross"`
	SellVolume float64 `json:"sell_volume"`
	CarriedIn  float64 `json:"carried_in"`
	Taxable    float64 `json:"taxable"`
	Exempt     bool    `json:"exempt"`
	Tax        float64 `json:"tax"`
	CarriedOut float64 `json:"carried_out"`
}

// MonthlyTaxSummary is one row of the month-by-month tax report.
type MonthlyTaxSummary struct {
	Month      string    `json:"month"`
	DayTrade   TaxBucket `json:"day_trade"`
	SwingStock TaxBucket `json:"swing_stock"`
	SwingFII   TaxBucket `json:"swing_fii"`
	SwingBDR   TaxBucket `json:"swing_bdr"`
	TotalTax   float64   `json:"total_tax"`
}
