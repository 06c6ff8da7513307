package entity

import (
	"math"
	"strings"
)

// TripPatch is a sparse suggestion for a TripRecord produced by the extractor.
// Empty strings, nil pointers and empty slices mean "no suggestion", never "clear".
type TripPatch struct {
	Name                    string
	Justification           string
	Currency                string
	Budget                  *float64
	DestinationCity         string
	DestinationCountry      string
	DepartureDate           string
	ReturnDate              string
	Purpose                 string
	AccommodationType       string
	AccommodationPreference string
	IsUrgent                *bool
	Attendees               string
	Notes                   string
	Attachments             []string
	PreferredSupplier       string
}

// IsEmpty reports whether the patch carries no usable value at all.
func (p TripPatch) IsEmpty() bool {
	return !present(p.Name) && !present(p.Justification) && !present(p.Currency) &&
		!UsableAmount(p.Budget) && p.IsUrgent == nil && len(p.Attachments) == 0 &&
		!present(p.Purpose) && !present(p.Notes) && !present(p.PreferredSupplier) &&
		!p.HasTravelFields()
}

// HasTravelFields reports whether the patch suggests any itinerary value.
func (p TripPatch) HasTravelFields() bool {
	return present(p.DestinationCity) || present(p.DestinationCountry) ||
		present(p.DepartureDate) || present(p.ReturnDate) ||
		present(p.AccommodationType) || present(p.AccommodationPreference) ||
		present(p.Attendees) || UsableAmount(p.Budget)
}

// ReceiptLine is a single line on an extracted receipt
type ReceiptLine struct {
	Description string
	Amount      float64
}

// ReceiptPatch is the sparse result of a receipt extraction.
type ReceiptPatch struct {
	Merchant      string
	VendorAddress string
	Date          string
	Total         *float64
	TaxAmount     *float64
	Currency      string
	PaymentMethod string
	Category      string
	LineItems     []ReceiptLine
}

// IsEmpty reports whether the receipt extraction produced nothing usable.
func (p ReceiptPatch) IsEmpty() bool {
	return !present(p.Merchant) && !present(p.VendorAddress) && !present(p.Date) &&
		p.Total == nil && p.TaxAmount == nil && !present(p.Currency) &&
		!present(p.PaymentMethod) && !present(p.Category) && len(p.LineItems) == 0
}

// UsableAmount reports whether an extracted amount is a defined, non-negative number.
func UsableAmount(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) && *v >= 0
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}
