package processors

import (
	"strings"

	"github.com/username/gestorb3/src/models"
)

// AssetClassifier maps a B3 ticker to an asset class by looking at its
// numeric suffix. The table is injectable so new listing types can be
// added without touching code.
type AssetClassifier struct {
	suffixes map[string]string
}

// DefaultSuffixTable covers the common B3 conventions: "11" for FIIs,
// "31"-"35" and "39" for BDRs, everything else is an ordinary stock.
func DefaultSuffixTable() map[string]string {
	return map[string]string{
		"11": models.AssetFII,
		"31": models.AssetBDR,
		"32": models.AssetBDR,
		"33": models.AssetBDR,
		"34": models.AssetBDR,
		"35": models.AssetBDR,
		"39": models.AssetBDR,
	}
}

func NewAssetClassifier() *AssetClassifier {
	return &AssetClassifier{suffixes: DefaultSuffixTable()}
}

func NewAssetClassifierWithTable(table map[string]string) *AssetClassifier {
	return &AssetClassifier{suffixes: table}
}

// Classify returns the asset class for a normalized ticker. Unknown
// suffixes classify as stock.
func (c *AssetClassifier) Classify(ticker string) string {
	digits := trailingDigits(ticker)
	if class, ok := c.suffixes[digits]; ok {
		return class
	}
	return models.AssetStock
}

func trailingDigits(ticker string) string {
	i := len(ticker)
	for i > 0 && ticker[i-1] >= '0' && ticker[i-1] <= '9' {
		i--
	}
	return strings.TrimSpace(ticker[i:])
}
