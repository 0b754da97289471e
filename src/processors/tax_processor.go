package processors

import (
	"sort"

	"github.com/username/gestorb3/src/models"
	"github.com/username/gestorb3/src/utils"
)

// TaxPolicy holds the rates and thresholds applied by the monthly fold.
// Everything here is configuration, not law: the output is an estimate.
type TaxPolicy struct {
	DayTradeRate         float64
	SwingStockRate       float64
	SwingFIIRate         float64
	SwingBDRRate         float64
	StockExemptionVolume float64
	// CarryBDRLosses controls whether swing-trade BDR losses accumulate
	// across months or each month is computed independently.
	CarryBDRLosses bool
}

// DefaultTaxPolicy mirrors the Receita Federal equity rules.
func DefaultTaxPolicy() TaxPolicy {
	return TaxPolicy{
		DayTradeRate:         0.20,
		SwingStockRate:       0.15,
		SwingFIIRate:         0.20,
		SwingBDRRate:         0.15,
		StockExemptionVolume: 20000,
		CarryBDRLosses:       true,
	}
}

type taxProcessorImpl struct {
	policy TaxPolicy
}

func NewTaxProcessor(policy TaxPolicy) TaxProcessor {
	return &taxProcessorImpl{policy: policy}
}

// monthTotals accumulates one month's gross result and sell volume for
// a single bucket before the carry-forward rules are applied.
type monthTotals struct {
	gross  float64
	volume float64
}

// Process folds the realization log, grouped by month ascending, into
// the monthly tax report. The fold is strictly left to right: each
// month's carried-in loss is the previous month's carried-out loss of
// the same bucket.
func (p *taxProcessorImpl) Process(realizations []models.Realization) []models.MonthlyTaxSummary {
	byMonth := make(map[string]map[string]*monthTotals)
	for _, r := range realizations {
		bucket := bucketFor(r)
		if bucket == "" {
			continue
		}
		month, ok := byMonth[r.Month]
		if !ok {
			month = make(map[string]*monthTotals)
			byMonth[r.Month] = month
		}
		totals, ok := month[bucket]
		if !ok {
			totals = &monthTotals{}
			month[bucket] = totals
		}
		totals.gross += r.Result
		totals.volume += r.SellVolume
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	carried := map[string]float64{
		bucketDayTrade:   0,
		bucketSwingStock: 0,
		bucketSwingFII:   0,
		bucketSwingBDR:   0,
	}

	summaries := make([]models.MonthlyTaxSummary, 0, len(months))
	for _, month := range months {
		totals := func(bucket string) monthTotals {
			if t, ok := byMonth[month][bucket]; ok {
				return *t
			}
			return monthTotals{}
		}

		summary := models.MonthlyTaxSummary{Month: month}

		summary.DayTrade = settleBucket(totals(bucketDayTrade), p.policy.DayTradeRate, carried, bucketDayTrade)
		summary.SwingStock = p.settleSwingStock(totals(bucketSwingStock), carried)
		summary.SwingFII = settleBucket(totals(bucketSwingFII), p.policy.SwingFIIRate, carried, bucketSwingFII)
		summary.SwingBDR = p.settleSwingBDR(totals(bucketSwingBDR), carried)

		summary.TotalTax = utils.RoundFloat(
			summary.DayTrade.Tax+summary.SwingStock.Tax+summary.SwingFII.Tax+summary.SwingBDR.Tax, 2)
		summaries = append(summaries, summary)
	}

	return summaries
}

const (
	bucketDayTrade   = "DT"
	bucketSwingStock = "ST_STOCK"
	bucketSwingFII   = "ST_FII"
	bucketSwingBDR   = "ST_BDR"
)

func bucketFor(r models.Realization) string {
	if r.Kind == models.KindDayTrade {
		return bucketDayTrade
	}
	switch r.AssetClass {
	case models.AssetStock:
		return bucketSwingStock
	case models.AssetFII:
		return bucketSwingFII
	case models.AssetBDR:
		return bucketSwingBDR
	}
	return ""
}

// settleBucket applies the standard carry-forward rule: the month's
// gross plus the loss carried in is the taxable result; a positive
// taxable result is taxed and clears the carry, a non-positive one
// becomes the new carried loss.
func settleBucket(totals monthTotals, rate float64, carried map[string]float64, bucket string) models.TaxBucket {
	out := models.TaxBucket{
		Gross:      totals.gross,
		SellVolume: totals.volume,
		CarriedIn:  carried[bucket],
	}
	out.Taxable = totals.gross + carried[bucket]
	if out.Taxable > 0 {
		out.Tax = utils.RoundFloat(out.Taxable*rate, 2)
		carried[bucket] = 0
	} else {
		carried[bucket] = out.Taxable
	}
	out.CarriedOut = carried[bucket]
	return out
}

// settleSwingStock adds the monthly sell-volume exemption: at or below
// the threshold the whole month is exempt and the carried loss is left
// untouched, neither consumed nor increased.
func (p *taxProcessorImpl) settleSwingStock(totals monthTotals, carried map[string]float64) models.TaxBucket {
	if totals.volume <= p.policy.StockExemptionVolume {
		return models.TaxBucket{
			Gross:      totals.gross,
			SellVolume: totals.volume,
			CarriedIn:  carried[bucketSwingStock],
			Exempt:     true,
			CarriedOut: carried[bucketSwingStock],
		}
	}
	return settleBucket(totals, p.policy.SwingStockRate, carried, bucketSwingStock)
}

// settleSwingBDR honors the CarryBDRLosses policy switch: with the carry
// disabled each month stands alone and losses are simply dropped.
func (p *taxProcessorImpl) settleSwingBDR(totals monthTotals, carried map[string]float64) models.TaxBucket {
	if p.policy.CarryBDRLosses {
		return settleBucket(totals, p.policy.SwingBDRRate, carried, bucketSwingBDR)
	}
	out := models.TaxBucket{
		Gross:      totals.gross,
		SellVolume: totals.volume,
		Taxable:    totals.gross,
	}
	if totals.gross > 0 {
		out.Tax = utils.RoundFloat(totals.gross*p.policy.SwingBDRRate, 2)
	}
	return out
}
