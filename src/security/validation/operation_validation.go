package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/username/gestorb3/src/models"
	"github.com/username/gestorb3/src/utils"
)

// tickerPattern is the B3 ticker shape: four letters plus a one- or
// two-digit listing suffix, e.g. PETR4, HGLG11.
var tickerPattern = regexp.MustCompile(`^[A-Z]{4}[0-9]{1,2}$`)

// NormalizeTicker uppercases and trims a ticker before validation.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// ValidateOperation checks an operation before it reaches the store.
// It returns every human-readable reason the record is malformed;
// an empty slice means the operation is acceptable. Nothing is
// persisted or computed when any reason is returned.
func ValidateOperation(op models.Operation, now time.Time) []string {
	var reasons []string

	if !tickerPattern.MatchString(op.Ticker) {
		reasons = append(reasons, fmt.Sprintf("invalid ticker %q: expected four letters followed by one or two digits", op.Ticker))
	}
	if op.Side != models.SideBuy && op.Side != models.SideSell {
		reasons = append(reasons, fmt.Sprintf("invalid side %q: must be %s or %s", op.Side, models.SideBuy, models.SideSell))
	}
	if op.Quantity <= 0 {
		reasons = append(reasons, "quantity must be a positive integer")
	}
	if op.Price <= 0 {
		reasons = append(reasons, "price must be positive")
	}
	if op.BrokerageFee < 0 || op.ExchangeFee < 0 {
		reasons = append(reasons, "fees cannot be negative")
	}

	date := utils.ParseDate(op.Date)
	if date.IsZero() {
		reasons = append(reasons, fmt.Sprintf("invalid date %q: expected %s", op.Date, utils.DefaultDateFormat))
	} else if date.After(now) {
		reasons = append(reasons, "date cannot be in the future")
	}
	if op.Time != "" && !utils.ValidTime(op.Time) {
		reasons = append(reasons, fmt.Sprintf("invalid time %q: expected %s", op.Time, utils.DefaultTimeFormat))
	}

	return reasons
}

// ValidateEarning checks an earnings record before it reaches the store.
func ValidateEarning(e models.Earning, now time.Time) []string {
	var reasons []string

	if !tickerPattern.MatchString(e.Ticker) {
		reasons = append(reasons, fmt.Sprintf("invalid ticker %q: expected four letters followed by one or two digits", e.Ticker))
	}
	switch e.Kind {
	case models.EarningDividend, models.EarningJCP, models.EarningYield:
	default:
		reasons = append(reasons, fmt.Sprintf("invalid kind %q: must be %s, %s or %s",
			e.Kind, models.EarningDividend, models.EarningJCP, models.EarningYield))
	}
	if e.Amount <= 0 {
		reasons = append(reasons, "amount must be positive")
	}

	date := utils.ParseDate(e.Date)
	if date.IsZero() {
		reasons = append(reasons, fmt.Sprintf("invalid date %q: expected %s", e.Date, utils.DefaultDateFormat))
	} else if date.After(now) {
		reasons = append(reasons, "date cannot be in the future")
	}

	return reasons
}

// ShortSaleCheck is the outcome of the pre-save short-sale verification.
type ShortSaleCheck struct {
	Short     bool `json:"short"`
	Available int  `json:"available"`
	Missing   int  `json:"missing"`
}

// CheckShortSale reports whether selling quantity of ticker would exceed
// the quantity currently held according to the operation history. This
// is a boundary policy, not a ledger rule: the accounting core itself
// tolerates negative positions.
func CheckShortSale(operations []models.Operation, ticker string, quantity int) ShortSaleCheck {
	available := 0
	for _, op := range operations {
		if op.Ticker != ticker {
			continue
		}
		switch op.Side {
		case models.SideBuy:
			available += op.Quantity
		case models.SideSell:
			available -= op.Quantity
		}
	}
	if quantity > available {
		return ShortSaleCheck{Short: true, Available: available, Missing: quantity - available}
	}
	return ShortSaleCheck{Available: available}
}
