// Package plans holds the subscription plan catalog and the price display
// rules. The catalog is static reference data; amounts, currency and
// recurrence always come from live payment-platform pricing.
package plans

// Variant tags the visual treatment of a plan card.
type Variant string

const (
	VariantGreen Variant = "green"
	VariantPink  Variant = "pink"
	VariantGray  Variant = "gray"
)

// CatalogEntry describes one selectable plan.
type CatalogEntry struct {
	ID            string
	StripePriceID string
	Name          string
	Variant       Variant
	Discount      string
	Description   string
}

// Catalog is the plan lineup, in display order.
var Catalog = []CatalogEntry{
	{
		ID:            "mensuel",
		StripePriceID: "price_1SJbhV1H0zcejTt5FrRJtZzQ",
		Name:          "Plan Mensuel",
		Variant:       VariantGreen,
		Description:   "Facturé mensuellement.",
	},
	{
		ID:            "semestriel",
		StripePriceID: "price_1SJbjH1H0zcejTt5LCoNTjUM",
		Name:          "Plan Semestriel",
		Variant:       VariantPink,
		Discount:      "12% de réduction",
		Description:   "Facturé semestriellement.",
	},
	{
		ID:            "annuel",
		StripePriceID: "price_1SJbjr1H0zcejTt5bnVqtmJJ",
		Name:          "Plan Annuel",
		Variant:       VariantGray,
		Discount:      "30% de réduction",
		Description:   "Facturé annuellement.",
	},
}

// ByID returns the catalog entry for a plan identifier.
func ByID(id string) (CatalogEntry, bool) {
	for _, e := range Catalog {
		if e.ID == id {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

// ByPriceID returns the catalog entry for a payment-platform price.
func ByPriceID(priceID string) (CatalogEntry, bool) {
	for _, e := range Catalog {
		if e.StripePriceID == priceID {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

// IsValidPriceID reports whether priceID belongs to the catalog. Checkout
// and subscription creation refuse price IDs outside this allowlist.
func IsValidPriceID(priceID string) bool {
	_, ok := ByPriceID(priceID)
	return ok
}

// PriceIDs lists all catalog price identifiers, in display order.
func PriceIDs() []string {
	ids := make([]string, len(Catalog))
	for i, e := range Catalog {
		ids[i] = e.StripePriceID
	}
	return ids
}
