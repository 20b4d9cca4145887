// Package offer holds the normalized product listing every store fetcher produces.
package offer

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Offer is one product listing from one store, it only lives for the duration of a search.
type Offer struct {
	Store string
	Name  string
	Price decimal.Decimal
	Link  string
	// Image is empty when the store did not provide one.
	Image string
}

// Valid reports whether the offer has a price strictly greater than zero.
func (o Offer) Valid() bool {
	return o.Price.IsPositive()
}

// Filter returns the valid offers of the list, in order. The result is never nil.
func Filter(offers []Offer) []Offer {
	out := make([]Offer, 0, len(offers))
	for _, o := range offers {
		if o.Valid() {
			out = append(out, o)
		}
	}
	return out
}

// SortByPrice sorts ascending by price, offers with equal prices keep their relative order.
func SortByPrice(offers []Offer) {
	slices.SortStableFunc(offers, func(a, b Offer) int {
		return a.Price.Cmp(b.Price)
	})
}
