package model

import "time"

// Item is one purchasable line within a quote.
type Item struct {
	ID          string     `json:"id"`
	QuoteID     string     `json:"quoteId"`
	Link        string     `json:"link"`
	Name        string     `json:"name"`
	Yuan        float64    `json:"yuan"`
	Type        ItemType   `json:"type"`
	WeightGrams *float64   `json:"weightGrams"`
	Include     bool       `json:"include"`
	Status      ItemStatus `json:"status,omitempty"`
	Position    int        `json:"position"`
	HasImage    bool       `json:"hasImage"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ItemType determines the default shipping weight of an item.
type ItemType string

// Item types.
const (
	ItemTypeTee       ItemType = "tee"
	ItemTypeHoodie    ItemType = "hoodie"
	ItemTypePants     ItemType = "pants"
	ItemTypeShoes     ItemType = "shoes"
	ItemTypeAccessory ItemType = "accessory"
	ItemTypeCustom    ItemType = "custom"
)

// ItemTypes lists every item type in display order.
var ItemTypes = []ItemType{
	ItemTypeTee,
	ItemTypeHoodie,
	ItemTypePants,
	ItemTypeShoes,
	ItemTypeAccessory,
	ItemTypeCustom,
}

// DefaultWeightGrams returns the shipping weight used when an item has no
// explicit override. Custom and unknown types weigh nothing.
func (t ItemType) DefaultWeightGrams() float64 {
	switch t {
	case ItemTypeTee:
		return 250
	case ItemTypeHoodie:
		return 850
	case ItemTypePants:
		return 700
	case ItemTypeShoes:
		return 1400
	case ItemTypeAccessory:
		return 300
	case ItemTypeCustom:
		return 0
	}
	return 0
}

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeTee, ItemTypeHoodie, ItemTypePants, ItemTypeShoes, ItemTypeAccessory, ItemTypeCustom:
		return true
	}
	return false
}

// ItemStatus tracks an item after the quote has been paid. The empty value
// means no status.
type ItemStatus string

// Item statuses.
const (
	ItemStatusNone       ItemStatus = ""
	ItemStatusOrdered    ItemStatus = "ordered"
	ItemStatusArrived    ItemStatus = "arrived"
	ItemStatusReturning  ItemStatus = "returning"
	ItemStatusExchanging ItemStatus = "exchanging"
	ItemStatusRefunded   ItemStatus = "refunded"
)

// ItemStatuses lists every non-empty item status.
var ItemStatuses = []ItemStatus{
	ItemStatusOrdered,
	ItemStatusArrived,
	ItemStatusReturning,
	ItemStatusExchanging,
	ItemStatusRefunded,
}

// Valid reports whether s is a known status or empty.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusNone, ItemStatusOrdered, ItemStatusArrived, ItemStatusReturning, ItemStatusExchanging, ItemStatusRefunded:
		return true
	}
	return false
}
