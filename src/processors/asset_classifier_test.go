package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/gestorb3/src/models"
)

func TestClassifyDefaultTable(t *testing.T) {
	cases := []struct {
		ticker string
		want   string
	}{
		{"PETR4", models.AssetStock},
		{"VALE3", models.AssetStock},
		{"BBAS3", models.AssetStock},
		{"HGLG11", models.AssetFII},
		{"MXRF11", models.AssetFII},
		{"AAPL34", models.AssetBDR},
		{"MSFT34", models.AssetBDR},
		{"GOGL35", models.AssetBDR},
		{"ROXO34", models.AssetBDR},
		{"A1MD34", models.AssetBDR},
		{"TSLA34", models.AssetBDR},
		{"DISB39", models.AssetBDR},
		{"PETR31", models.AssetBDR},
		// Unknown suffix defaults to stock.
		{"XXXX99", models.AssetStock},
		{"SANB11", models.AssetFII},
	}

	classifier := NewAssetClassifier()
	for _, tc := range cases {
		t.Run(tc.ticker, func(t *testing.T) {
			assert.Equal(t, tc.want, classifier.Classify(tc.ticker))
		})
	}
}

func TestClassifyCustomTable(t *testing.T) {
	classifier := NewAssetClassifierWithTable(map[string]string{
		"11": models.AssetStock, // units reclassified by the user
	})

	assert.Equal(t, models.AssetStock, classifier.Classify("SANB11"))
	assert.Equal(t, models.AssetStock, classifier.Classify("AAPL34"))
}
