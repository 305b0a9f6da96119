package quote

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/erazemk/haulquote/internal/model"
)

const upfrontNotice = "Total Item Cost + Fees are paid upfront, and once everything arrives at the China warehouse, I'll provide an accurate shipping and insurance quote."

// FormatMessage renders the customer-facing quote message. Only included
// items are listed; the refund section appears only when there is credit.
func FormatMessage(q *model.Quote, t Totals) string {
	var lines []string

	for _, cost := range t.ItemCosts {
		if !cost.Included {
			continue
		}
		line := fmt.Sprintf("%s - $%.2f", cost.Name, cost.USD)
		if cost.Status != model.ItemStatusNone {
			line += " [" + strings.ToUpper(string(cost.Status)) + "]"
		}
		lines = append(lines, line)
	}

	lines = append(lines,
		"",
		"Flat Rate Haul Fee - $"+plain(t.HaulFee),
		"",
		fmt.Sprintf("Total Item Cost + Fees - $%.2f", Round2(t.TotalItemCost+t.HaulFee)),
		"",
		fmt.Sprintf("International Shipping - TBD (Estimate: %skg * $%s/kg = $%.2f)",
			FormatKg(t.TotalWeightKg), plain(q.ShippingPerKgUSD), t.Shipping),
		"",
		fmt.Sprintf("International Shipping Insurance (%d%% of item cost, full refund if lost/seized): TBD (Estimate: $%.2f)",
			int(math.Round(q.InsuranceRate*100)), t.Insurance),
		"",
		fmt.Sprintf("Estimated Grand Total - $%.2f", t.GrandTotal),
	)

	if len(t.RefundedItems) > 0 {
		lines = append(lines, "", "--- Refunds ---")
		for _, credit := range t.RefundedItems {
			lines = append(lines, fmt.Sprintf("%s - -$%.2f", credit.Name, credit.USD))
		}
		lines = append(lines,
			fmt.Sprintf("Total Credit - -$%.2f", t.TotalCredit),
			fmt.Sprintf("Net Total - $%.2f", t.NetTotal()),
		)
	}

	lines = append(lines, "", upfrontNotice)
	return strings.Join(lines, "\n")
}

// FormatKg formats a weight in kilograms to one decimal, rounding ties up:
// 0.25 becomes "0.3".
func FormatKg(kg float64) string {
	return strconv.FormatFloat(Round1(kg), 'f', 1, 64)
}

// plain formats a configured amount the way it was entered: 10, 10.5, 12.25.
func plain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
