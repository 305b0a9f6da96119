package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/haulquote/internal/model"
)

func grams(g float64) *float64 { return &g }

func newQuote(p model.Pricing, items ...model.Item) *model.Quote {
	return &model.Quote{ID: "q1", CustomerName: "Mei", Status: model.QuoteStatusDraft, Pricing: p, Items: items}
}

func TestComputeItemUSD(t *testing.T) {
	assert.Equal(t, 102.00, ComputeItemUSD(700, 7.0, 2.0))
	assert.Equal(t, 0.33, ComputeItemUSD(1, 3, 0))
	assert.Equal(t, 14.29, ComputeItemUSD(100, 7, 0))
}

func TestComputeItemUSDZeroYuanIsFee(t *testing.T) {
	for _, rate := range []float64{0.5, 1, 6.9, 7.25, 100} {
		for _, fee := range []float64{0, 1.5, 2, 9.99} {
			assert.Equal(t, fee, ComputeItemUSD(0, rate, fee), "rate=%v fee=%v", rate, fee)
		}
	}
}

func TestComputeItemUSDMonotonic(t *testing.T) {
	prev := ComputeItemUSD(0, 7.1, 0)
	for yuan := 1.0; yuan <= 5000; yuan += 7.3 {
		got := ComputeItemUSD(yuan, 7.1, 0)
		assert.GreaterOrEqual(t, got, prev, "yuan=%v", yuan)
		prev = got
	}
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, -0.13, Round2(-0.125))
	assert.Equal(t, 1.0, Round3(0.9999999))
	assert.Equal(t, 2.5, Round3(2.5))
	assert.Equal(t, 0.3, Round1(0.25))
	assert.Equal(t, 1.3, Round1(1.25))
}

func TestFormatKg(t *testing.T) {
	assert.Equal(t, "0.3", FormatKg(0.25))
	assert.Equal(t, "1.3", FormatKg(1.25))
	assert.Equal(t, "0.4", FormatKg(0.37))
	assert.Equal(t, "0.0", FormatKg(0))
	assert.Equal(t, "2.0", FormatKg(1.96))
}

func TestItemWeight(t *testing.T) {
	assert.Equal(t, 250.0, ItemWeight(model.Item{Type: model.ItemTypeTee}))
	assert.Equal(t, 1400.0, ItemWeight(model.Item{Type: model.ItemTypeShoes}))
	assert.Equal(t, 0.0, ItemWeight(model.Item{Type: model.ItemTypeCustom}))
	assert.Equal(t, 512.0, ItemWeight(model.Item{Type: model.ItemTypeCustom, WeightGrams: grams(512)}))
	// An explicit zero is an override, not "unset".
	assert.Equal(t, 0.0, ItemWeight(model.Item{Type: model.ItemTypeShoes, WeightGrams: grams(0)}))
}

func TestComputeTotalsScenario(t *testing.T) {
	q := newQuote(model.Pricing{
		ExchangeRate:     7,
		FixedFeeUSD:      0,
		ShippingPerKgUSD: 20,
		InsuranceRate:    0.05,
		HaulFeeUSD:       10,
	},
		model.Item{ID: "a", Name: "Tee A", Yuan: 350, Type: model.ItemTypeTee, Include: true},
		model.Item{ID: "b", Name: "Tee B", Yuan: 350, Type: model.ItemTypeTee, Include: true},
	)

	got := ComputeTotals(q)

	require.Len(t, got.ItemCosts, 2)
	assert.Equal(t, 50.0, got.ItemCosts[0].USD)
	assert.Equal(t, 100.0, got.TotalItemCost)
	assert.Equal(t, 0.5, got.TotalWeightKg)
	assert.Equal(t, 10.0, got.Shipping)
	assert.Equal(t, 5.0, got.Insurance)
	assert.Equal(t, 10.0, got.HaulFee)
	assert.Equal(t, 125.0, got.GrandTotal)
	assert.Empty(t, got.RefundedItems)
	assert.Zero(t, got.TotalCredit)
}

func TestComputeTotalsExcludedItem(t *testing.T) {
	q := newQuote(model.DefaultPricing(),
		model.Item{ID: "x", Name: "Skipped", Yuan: 100, Type: model.ItemTypeShoes, WeightGrams: grams(2000), Include: false},
	)

	got := ComputeTotals(q)

	require.Len(t, got.ItemCosts, 1)
	assert.False(t, got.ItemCosts[0].Included)
	assert.Equal(t, 14.29, got.ItemCosts[0].USD)
	assert.Zero(t, got.TotalItemCost)
	assert.Zero(t, got.TotalWeightKg)
	assert.Zero(t, got.Shipping)
	assert.Zero(t, got.Insurance)
	assert.Equal(t, q.HaulFeeUSD, got.GrandTotal)
}

func TestComputeTotalsRefundIsSeparateCredit(t *testing.T) {
	q := newQuote(model.Pricing{ExchangeRate: 7, InsuranceRate: 0.1, ShippingPerKgUSD: 10},
		model.Item{ID: "r", Name: "Refunded", Yuan: 210, Type: model.ItemTypeTee, Include: true, Status: model.ItemStatusRefunded},
		model.Item{ID: "n", Name: "Normal", Yuan: 490, Type: model.ItemTypeTee, Include: true},
		model.Item{ID: "e", Name: "Excluded refund", Yuan: 70, Type: model.ItemTypeTee, Include: false, Status: model.ItemStatusRefunded},
	)

	got := ComputeTotals(q)

	assert.Equal(t, 100.0, got.TotalItemCost)
	assert.Equal(t, 0.5, got.TotalWeightKg)
	assert.Equal(t, 5.0, got.Shipping)
	assert.Equal(t, 10.0, got.Insurance)
	assert.Equal(t, 115.0, got.GrandTotal)
	assert.Equal(t, []Credit{{ID: "r", Name: "Refunded", USD: 30}}, got.RefundedItems)
	assert.Equal(t, 30.0, got.TotalCredit)
	assert.Equal(t, 85.0, got.NetTotal())
	assert.Equal(t, model.ItemStatusRefunded, got.ItemCosts[0].Status)
}

func TestComputeTotalsRoundsEachAggregate(t *testing.T) {
	// Three items of 1/3 USD each: each rounds to 0.33 before summing.
	q := newQuote(model.Pricing{ExchangeRate: 3, ShippingPerKgUSD: 3.33, InsuranceRate: 0.015, HaulFeeUSD: 2.5},
		model.Item{ID: "1", Yuan: 1, Type: model.ItemTypeAccessory, Include: true},
		model.Item{ID: "2", Yuan: 1, Type: model.ItemTypeAccessory, Include: true},
		model.Item{ID: "3", Yuan: 1, Type: model.ItemTypeCustom, WeightGrams: grams(333.3333), Include: true},
	)

	got := ComputeTotals(q)

	assert.Equal(t, 0.99, got.TotalItemCost)
	assert.Equal(t, 0.933, got.TotalWeightKg)
	assert.Equal(t, 3.11, got.Shipping)
	assert.Equal(t, 0.01, got.Insurance)
	assert.InDelta(t, got.TotalItemCost+got.HaulFee+got.Shipping+got.Insurance, got.GrandTotal, 1e-9)
	assert.Equal(t, 6.61, got.GrandTotal)
}

func TestComputeTotalsCustomWithoutWeight(t *testing.T) {
	q := newQuote(model.DefaultPricing(),
		model.Item{ID: "c", Name: "Mystery", Yuan: 70, Type: model.ItemTypeCustom, Include: true},
		model.Item{ID: "w", Name: "Weighed", Yuan: 70, Type: model.ItemTypeCustom, WeightGrams: grams(100), Include: true},
		model.Item{ID: "o", Name: "Off", Yuan: 70, Type: model.ItemTypeCustom, Include: false},
	)

	got := ComputeTotals(q)
	assert.Equal(t, 0.1, got.TotalWeightKg)

	missing := MissingWeights(q)
	require.Len(t, missing, 1)
	assert.Equal(t, "c", missing[0].ID)
}

func TestComputeTotalsEmptyQuote(t *testing.T) {
	got := ComputeTotals(newQuote(model.DefaultPricing()))
	assert.NotNil(t, got.ItemCosts)
	assert.NotNil(t, got.RefundedItems)
	assert.Zero(t, got.TotalItemCost)
	assert.Equal(t, 10.0, got.GrandTotal)
}

func TestComputeTotalsIdempotent(t *testing.T) {
	q := newQuote(model.DefaultPricing(),
		model.Item{ID: "a", Name: "Hoodie", Yuan: 289, Type: model.ItemTypeHoodie, Include: true},
		model.Item{ID: "b", Name: "Pants", Yuan: 199.5, Type: model.ItemTypePants, Include: true, Status: model.ItemStatusRefunded},
	)
	assert.Equal(t, ComputeTotals(q), ComputeTotals(q))
}
