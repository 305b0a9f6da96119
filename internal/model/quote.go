package model

import "time"

// Quote is a priced order for one customer.
type Quote struct {
	ID             string      `json:"id"`
	CustomerName   string      `json:"customerName"`
	CustomerHandle string      `json:"customerHandle"`
	OrderID        string      `json:"orderId"`
	CustomerID     *string     `json:"customerId"`
	Status         QuoteStatus `json:"status"`
	Notes          string      `json:"notes"`
	Pricing
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Pricing is the per-quote pricing configuration.
type Pricing struct {
	ExchangeRate     float64 `json:"exchangeRate"`     // CNY per USD
	FixedFeeUSD      float64 `json:"fixedFeeUsd"`      // per item
	ShippingPerKgUSD float64 `json:"shippingPerKgUsd"`
	InsuranceRate    float64 `json:"insuranceRate"`    // fraction of item cost
	HaulFeeUSD       float64 `json:"haulFeeUsd"`       // flat, per quote
}

// DefaultPricing is used for new quotes when no configuration overrides it.
func DefaultPricing() Pricing {
	return Pricing{
		ExchangeRate:     7.0,
		FixedFeeUSD:      0,
		ShippingPerKgUSD: 10,
		InsuranceRate:    0.03,
		HaulFeeUSD:       10,
	}
}

// QuoteStatus is the workflow state of a quote. Transitions are unconstrained.
type QuoteStatus string

// Quote statuses.
const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusPaid     QuoteStatus = "paid"
	QuoteStatusShipped  QuoteStatus = "shipped"
	QuoteStatusComplete QuoteStatus = "complete"
)

// QuoteStatuses lists every quote status in workflow order.
var QuoteStatuses = []QuoteStatus{
	QuoteStatusDraft,
	QuoteStatusSent,
	QuoteStatusPaid,
	QuoteStatusShipped,
	QuoteStatusComplete,
}

// Valid reports whether s is a known quote status.
func (s QuoteStatus) Valid() bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusPaid, QuoteStatusShipped, QuoteStatusComplete:
		return true
	}
	return false
}
