package quote

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erazemk/haulquote/internal/model"
)

func TestFormatMessage(t *testing.T) {
	q := newQuote(model.Pricing{ExchangeRate: 7, ShippingPerKgUSD: 10, InsuranceRate: 0.03, HaulFeeUSD: 10},
		model.Item{ID: "a", Name: "Tee", Yuan: 350, Type: model.ItemTypeTee, Include: true},
		model.Item{ID: "b", Name: "Hoodie", Yuan: 700, Type: model.ItemTypeHoodie, Include: true, Status: model.ItemStatusOrdered},
		model.Item{ID: "c", Name: "Hidden", Yuan: 70, Type: model.ItemTypeTee, Include: false},
	)

	msg := FormatMessage(q, ComputeTotals(q))

	want := strings.Join([]string{
		"Tee - $50.00",
		"Hoodie - $100.00 [ORDERED]",
		"",
		"Flat Rate Haul Fee - $10",
		"",
		"Total Item Cost + Fees - $160.00",
		"",
		"International Shipping - TBD (Estimate: 1.1kg * $10/kg = $11.00)",
		"",
		"International Shipping Insurance (3% of item cost, full refund if lost/seized): TBD (Estimate: $4.50)",
		"",
		"Estimated Grand Total - $175.50",
		"",
		upfrontNotice,
	}, "\n")
	assert.Equal(t, want, msg)
	assert.NotContains(t, msg, "Hidden")
	assert.NotContains(t, msg, "Refunds")
}

func TestFormatMessageRefunds(t *testing.T) {
	q := newQuote(model.Pricing{ExchangeRate: 7, ShippingPerKgUSD: 12.5, InsuranceRate: 0.05, HaulFeeUSD: 7.5},
		model.Item{ID: "a", Name: "Shoes", Yuan: 210, Type: model.ItemTypeShoes, Include: true, Status: model.ItemStatusRefunded},
		model.Item{ID: "b", Name: "Cap", Yuan: 70, Type: model.ItemTypeAccessory, Include: true},
	)

	msg := FormatMessage(q, ComputeTotals(q))

	assert.Contains(t, msg, "Shoes - $30.00 [REFUNDED]\n")
	assert.Contains(t, msg, "Flat Rate Haul Fee - $7.5\n")
	assert.Contains(t, msg, "1.7kg * $12.5/kg = $21.25")
	assert.Contains(t, msg, "(5% of item cost")
	assert.Contains(t, msg, "\n--- Refunds ---\nShoes - -$30.00\nTotal Credit - -$30.00\nNet Total - $")
	assert.True(t, strings.HasSuffix(msg, "\n\n"+upfrontNotice))
}

func TestFormatMessageWeightRoundsHalfUp(t *testing.T) {
	q := newQuote(model.Pricing{ExchangeRate: 7, ShippingPerKgUSD: 10, InsuranceRate: 0.03, HaulFeeUSD: 10},
		model.Item{ID: "a", Name: "Tee", Yuan: 350, Type: model.ItemTypeTee, Include: true},
	)

	msg := FormatMessage(q, ComputeTotals(q))

	assert.Contains(t, msg, "(Estimate: 0.3kg * $10/kg = $2.50)")
}
