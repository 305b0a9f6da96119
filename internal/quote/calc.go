// Package quote computes quote totals and renders the customer message.
//
// Everything here is pure: no I/O, no shared state. Totals are derived from
// a quote's items and pricing on every call and are never persisted.
package quote

import (
	"math"

	"github.com/erazemk/haulquote/internal/model"
)

// ItemCost is the priced view of a single item.
type ItemCost struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	USD      float64          `json:"usd"`
	Included bool             `json:"included"`
	Status   model.ItemStatus `json:"status,omitempty"`
}

// Credit is a refunded item reported against the grand total.
type Credit struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	USD  float64 `json:"usd"`
}

// Totals is the cost and weight breakdown of a quote.
type Totals struct {
	ItemCosts     []ItemCost `json:"itemCosts"`
	TotalItemCost float64    `json:"totalItemCost"`
	TotalWeightKg float64    `json:"totalWeightKg"`
	Shipping      float64    `json:"shipping"`
	Insurance     float64    `json:"insurance"`
	HaulFee       float64    `json:"haulFee"`
	GrandTotal    float64    `json:"grandTotal"`
	RefundedItems []Credit   `json:"refundedItems"`
	TotalCredit   float64    `json:"totalCredit"`
}

// NetTotal is the grand total less refund credits.
func (t Totals) NetTotal() float64 {
	return Round2(t.GrandTotal - t.TotalCredit)
}

// ComputeItemUSD converts a CNY price to USD and adds the per-item fee.
// exchangeRate must be non-zero.
func ComputeItemUSD(yuan, exchangeRate, fixedFeeUSD float64) float64 {
	return Round2(yuan/exchangeRate + fixedFeeUSD)
}

// ItemWeight returns the item's weight override in grams, or the default
// weight for its type.
func ItemWeight(item model.Item) float64 {
	if item.WeightGrams != nil {
		return *item.WeightGrams
	}
	return item.Type.DefaultWeightGrams()
}

// ComputeTotals prices every item of q and aggregates the included ones.
// Each aggregate is rounded where it is computed, not once at the end.
// Refunded items stay in the item cost, shipping and insurance and are
// reported separately as credit.
func ComputeTotals(q *model.Quote) Totals {
	t := Totals{
		ItemCosts:     make([]ItemCost, 0, len(q.Items)),
		RefundedItems: []Credit{},
		HaulFee:       q.HaulFeeUSD,
	}

	var itemSum, gramSum, creditSum float64
	for _, item := range q.Items {
		cost := ItemCost{
			ID:       item.ID,
			Name:     item.Name,
			USD:      ComputeItemUSD(item.Yuan, q.ExchangeRate, q.FixedFeeUSD),
			Included: item.Include,
			Status:   item.Status,
		}
		t.ItemCosts = append(t.ItemCosts, cost)

		if !cost.Included {
			continue
		}
		itemSum += cost.USD
		gramSum += ItemWeight(item)
		if cost.Status == model.ItemStatusRefunded {
			t.RefundedItems = append(t.RefundedItems, Credit{ID: cost.ID, Name: cost.Name, USD: cost.USD})
			creditSum += cost.USD
		}
	}

	t.TotalItemCost = Round2(itemSum)
	t.TotalWeightKg = Round3(gramSum / 1000)
	t.Shipping = Round2(t.TotalWeightKg * q.ShippingPerKgUSD)
	t.Insurance = Round2(t.TotalItemCost * q.InsuranceRate)
	t.GrandTotal = Round2(t.TotalItemCost + t.HaulFee + t.Shipping + t.Insurance)
	t.TotalCredit = Round2(creditSum)
	return t
}

// MissingWeights returns the included custom items that have no weight
// override and therefore count as weightless.
func MissingWeights(q *model.Quote) []model.Item {
	var missing []model.Item
	for _, item := range q.Items {
		if item.Include && item.Type == model.ItemTypeCustom && item.WeightGrams == nil {
			missing = append(missing, item)
		}
	}
	return missing
}

// Round1 rounds to one decimal, half away from zero.
func Round1(v float64) float64 {
	return round(v, 10)
}

// Round2 rounds to cents, half away from zero.
func Round2(v float64) float64 {
	return round(v, 100)
}

// Round3 rounds to three decimals, half away from zero.
func Round3(v float64) float64 {
	return round(v, 1000)
}

func round(v, scale float64) float64 {
	return math.Round(v*scale) / scale
}
