package plans

import (
	"fmt"
	"math"
	"time"
)

// LivePrice is the pricing a catalog entry resolves to at runtime, fetched
// from the payment platform. Amount is in the minor currency unit.
type LivePrice struct {
	ID            string `json:"id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Interval      string `json:"interval"`
	IntervalCount int    `json:"intervalCount"`
	ProductName   string `json:"productName"`
	ProductID     string `json:"productId"`
}

// BillingPeriodMonths converts the recurrence to a period length in months.
func (p LivePrice) BillingPeriodMonths() int {
	if p.Interval == "year" {
		return p.IntervalCount * 12
	}
	return p.IntervalCount
}

// TotalPrice is the charge per billing period in the major currency unit.
func (p LivePrice) TotalPrice() float64 {
	return float64(p.Amount) / 100
}

// MonthlyPrice is the per-month price in the major currency unit, rounded
// half-up to 2 decimals.
func (p LivePrice) MonthlyPrice() float64 {
	months := p.BillingPeriodMonths()
	if months <= 0 {
		return 0
	}
	return math.Round(p.TotalPrice()/float64(months)*100) / 100
}

// MonthlyPriceDisplay renders the per-month price for plan cards,
// e.g. "1.42€/mois".
func (p LivePrice) MonthlyPriceDisplay() string {
	return fmt.Sprintf("%.2f€/mois", p.MonthlyPrice())
}

// BillingPeriodLabel renders the billing period suffix shown next to the
// total amount on the confirmation view.
func BillingPeriodLabel(months int) string {
	switch months {
	case 1:
		return "/mois"
	case 6:
		return "/6 mois"
	case 12:
		return "/an"
	default:
		return fmt.Sprintf("/%d mois", months)
	}
}

// NextPaymentDate computes the renewal date one billing period after now.
func NextPaymentDate(now time.Time, billingPeriodMonths int) time.Time {
	return now.AddDate(0, billingPeriodMonths, 0)
}

// ResolvedPlan is a catalog entry merged with its live price, carrying
// everything step 2 needs to complete.
type ResolvedPlan struct {
	Entry CatalogEntry
	Price LivePrice
}

// Resolve cross-references the catalog with live prices. Entries whose
// price has not loaded are omitted; step 2 cannot complete with them.
func Resolve(prices []LivePrice) []ResolvedPlan {
	byID := make(map[string]LivePrice, len(prices))
	for _, p := range prices {
		byID[p.ID] = p
	}

	var resolved []ResolvedPlan
	for _, e := range Catalog {
		price, ok := byID[e.StripePriceID]
		if !ok {
			continue
		}
		resolved = append(resolved, ResolvedPlan{Entry: e, Price: price})
	}
	return resolved
}
