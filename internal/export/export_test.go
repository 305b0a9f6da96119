package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/haulquote/internal/model"
	"github.com/erazemk/haulquote/internal/quote"
)

func sampleQuote() *model.Quote {
	w := 120.0
	return &model.Quote{
		ID:             "1a2b3c4d-5e6f-7081-92a3-b4c5d6e7f809",
		CustomerName:   "Jane  Doe",
		CustomerHandle: "@jane",
		OrderID:        "A-17",
		Status:         model.QuoteStatusSent,
		CreatedAt:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Pricing:        model.Pricing{ExchangeRate: 7, ShippingPerKgUSD: 10, InsuranceRate: 0.03, HaulFeeUSD: 10},
		Items: []model.Item{
			{ID: "i1", Name: "Tee, black", Link: "https://weidian.com/item?id=1", Yuan: 350, Type: model.ItemTypeTee, Include: true},
			{ID: "i2", Name: `Cap "logo"`, Yuan: 70.5, Type: model.ItemTypeCustom, WeightGrams: &w, Include: true, Status: model.ItemStatusRefunded},
			{ID: "i3", Name: "Skipped", Yuan: 700, Type: model.ItemTypeShoes, Include: false},
		},
	}
}

func TestWriteJSON(t *testing.T) {
	q := sampleQuote()
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, q, quote.ComputeTotals(q)))

	assert.True(t, strings.HasPrefix(buf.String(), "{\n  \"quote\": {\n"))

	var doc struct {
		Quote struct {
			ID       string `json:"id"`
			Status   string `json:"status"`
			Settings struct {
				ExchangeRate float64 `json:"exchangeRate"`
				HaulFeeUSD   float64 `json:"haulFeeUsd"`
			} `json:"settings"`
			Items []struct {
				Name        string  `json:"name"`
				USD         float64 `json:"usd"`
				WeightGrams float64 `json:"weightGrams"`
				Included    bool    `json:"included"`
			} `json:"items"`
			Totals map[string]float64 `json:"totals"`
		} `json:"quote"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, q.ID, doc.Quote.ID)
	assert.Equal(t, "sent", doc.Quote.Status)
	assert.Equal(t, 7.0, doc.Quote.Settings.ExchangeRate)
	assert.Equal(t, 10.0, doc.Quote.Settings.HaulFeeUSD)

	require.Len(t, doc.Quote.Items, 3)
	assert.Equal(t, "Tee, black", doc.Quote.Items[0].Name)
	assert.Equal(t, 50.0, doc.Quote.Items[0].USD)
	assert.Equal(t, 250.0, doc.Quote.Items[0].WeightGrams)
	assert.Equal(t, 120.0, doc.Quote.Items[1].WeightGrams)
	assert.Equal(t, 1400.0, doc.Quote.Items[2].WeightGrams)
	assert.False(t, doc.Quote.Items[2].Included)

	assert.Equal(t, 60.07, doc.Quote.Totals["totalItemCost"])
	assert.Equal(t, 0.37, doc.Quote.Totals["totalWeightKg"])
	assert.Equal(t, 10.07, doc.Quote.Totals["totalCredit"])
	assert.Contains(t, doc.Quote.Totals, "shippingEstimate")
	assert.Contains(t, doc.Quote.Totals, "insuranceEstimate")
}

func TestWriteCSV(t *testing.T) {
	q := sampleQuote()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, q, quote.ComputeTotals(q)))

	want := strings.Join([]string{
		"Name,Link,Yuan,USD,Type,Weight (g),Included",
		`"Tee, black",https://weidian.com/item?id=1,350,50.00,tee,250,Yes`,
		`"Cap ""logo""",,70.5,10.07,custom,120,Yes`,
		"Skipped,,700,100.00,shoes,1400,No",
		"",
		"Total Item Cost,$60.07",
		"Haul Fee,$10.00",
		"Total Weight,0.4kg",
		"Shipping Estimate,$3.70",
		"Insurance Estimate,$1.80",
		"Grand Total,$75.57",
		"Total Credit,$10.07",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVNoCredit(t *testing.T) {
	q := sampleQuote()
	q.Items = q.Items[:1]
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, q, quote.ComputeTotals(q)))
	assert.NotContains(t, buf.String(), "Total Credit")
}

func TestWriteCSVWeightRoundsHalfUp(t *testing.T) {
	q := sampleQuote()
	w := 1250.0
	q.Items = []model.Item{{ID: "i1", Name: "Parcel", Yuan: 70, Type: model.ItemTypeCustom, WeightGrams: &w, Include: true}}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, q, quote.ComputeTotals(q)))
	assert.Contains(t, buf.String(), "\nTotal Weight,1.3kg\n")
}

func TestFilename(t *testing.T) {
	q := sampleQuote()
	assert.Equal(t, "order-jane-doe-1a2b3c4d.json", Filename(q, "json"))

	q.ID = "abc"
	q.CustomerName = "Li\tWei"
	assert.Equal(t, "order-li-wei-abc.csv", Filename(q, "csv"))
}
