// Package export serialises a priced quote to JSON and CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/haulquote/internal/model"
	"github.com/erazemk/haulquote/internal/quote"
)

type document struct {
	Quote quoteDoc `json:"quote"`
}

type quoteDoc struct {
	ID             string            `json:"id"`
	CustomerName   string            `json:"customerName"`
	CustomerHandle string            `json:"customerHandle"`
	OrderID        string            `json:"orderId"`
	Status         model.QuoteStatus `json:"status"`
	CreatedAt      time.Time         `json:"createdAt"`
	Settings       model.Pricing     `json:"settings"`
	Items          []itemDoc         `json:"items"`
	Totals         totalsDoc         `json:"totals"`
}

type itemDoc struct {
	Name        string           `json:"name"`
	Link        string           `json:"link"`
	Yuan        float64          `json:"yuan"`
	USD         float64          `json:"usd"`
	Type        model.ItemType   `json:"type"`
	WeightGrams float64          `json:"weightGrams"`
	Included    bool             `json:"included"`
	Status      model.ItemStatus `json:"status,omitempty"`
}

type totalsDoc struct {
	TotalItemCost     float64 `json:"totalItemCost"`
	HaulFee           float64 `json:"haulFee"`
	TotalWeightKg     float64 `json:"totalWeightKg"`
	ShippingEstimate  float64 `json:"shippingEstimate"`
	InsuranceEstimate float64 `json:"insuranceEstimate"`
	GrandTotal        float64 `json:"grandTotal"`
	TotalCredit       float64 `json:"totalCredit"`
}

// WriteJSON writes the quote, its pricing, its items with their effective
// weight, and the totals as an indented JSON document.
func WriteJSON(w io.Writer, q *model.Quote, t quote.Totals) error {
	usd := costsByID(t)
	doc := document{Quote: quoteDoc{
		ID:             q.ID,
		CustomerName:   q.CustomerName,
		CustomerHandle: q.CustomerHandle,
		OrderID:        q.OrderID,
		Status:         q.Status,
		CreatedAt:      q.CreatedAt,
		Settings:       q.Pricing,
		Items:          make([]itemDoc, 0, len(q.Items)),
		Totals: totalsDoc{
			TotalItemCost:     t.TotalItemCost,
			HaulFee:           t.HaulFee,
			TotalWeightKg:     t.TotalWeightKg,
			ShippingEstimate:  t.Shipping,
			InsuranceEstimate: t.Insurance,
			GrandTotal:        t.GrandTotal,
			TotalCredit:       t.TotalCredit,
		},
	}}

	for _, item := range q.Items {
		doc.Quote.Items = append(doc.Quote.Items, itemDoc{
			Name:        item.Name,
			Link:        item.Link,
			Yuan:        item.Yuan,
			USD:         usd[item.ID],
			Type:        item.Type,
			WeightGrams: quote.ItemWeight(item),
			Included:    item.Include,
			Status:      item.Status,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding quote: %w", err)
	}
	return nil
}

// WriteCSV writes one row per item followed by a summary block.
func WriteCSV(w io.Writer, q *model.Quote, t quote.Totals) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Name", "Link", "Yuan", "USD", "Type", "Weight (g)", "Included"}); err != nil {
		return err
	}

	usd := costsByID(t)
	for _, item := range q.Items {
		if err := writer.Write([]string{
			item.Name,
			item.Link,
			formatFloat(item.Yuan),
			money(usd[item.ID]),
			string(item.Type),
			formatFloat(quote.ItemWeight(item)),
			yesNo(item.Include),
		}); err != nil {
			return err
		}
	}

	records := [][]string{
		nil,
		{"Total Item Cost", "$" + money(t.TotalItemCost)},
		{"Haul Fee", "$" + money(t.HaulFee)},
		{"Total Weight", quote.FormatKg(t.TotalWeightKg) + "kg"},
		{"Shipping Estimate", "$" + money(t.Shipping)},
		{"Insurance Estimate", "$" + money(t.Insurance)},
		{"Grand Total", "$" + money(t.GrandTotal)},
	}
	if t.TotalCredit > 0 {
		records = append(records, []string{"Total Credit", "$" + money(t.TotalCredit)})
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

var whitespace = regexp.MustCompile(`\s+`)

// Filename returns the download name for an export of q, e.g.
// "order-jane-doe-1a2b3c4d.csv".
func Filename(q *model.Quote, ext string) string {
	slug := whitespace.ReplaceAllString(strings.ToLower(q.CustomerName), "-")
	id := q.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("order-%s-%s.%s", slug, id, ext)
}

func costsByID(t quote.Totals) map[string]float64 {
	m := make(map[string]float64, len(t.ItemCosts))
	for _, c := range t.ItemCosts {
		m[c.ID] = c.USD
	}
	return m
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
