package openai

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/travel-expense-portal/internal/application/port"
	"github.com/garyjia/travel-expense-portal/internal/domain/entity"
)

// tripResponse is the JSON object requested by the trip extraction prompt
type tripResponse struct {
	DestinationCity         string   `json:"destination_city"`
	DestinationCountry      string   `json:"destination_country"`
	DepartureDate           string   `json:"departure_date"`
	ReturnDate              string   `json:"return_date"`
	Purpose                 string   `json:"purpose"`
	EstimatedBudget         *float64 `json:"estimated_budget"`
	Summary                 string   `json:"summary"`
	Attendees               string   `json:"attendees"`
	AccommodationPreference string   `json:"accommodation_preference"`
}

// toPatch maps the response onto trip fields. The summary becomes the
// justification; purpose is requested for context only and is not applied.
func (r tripResponse) toPatch() *entity.TripPatch {
	return &entity.TripPatch{
		Justification:           strings.TrimSpace(r.Summary),
		Budget:                  r.EstimatedBudget,
		DestinationCity:         strings.TrimSpace(r.DestinationCity),
		DestinationCountry:      strings.TrimSpace(r.DestinationCountry),
		DepartureDate:           isoDate(r.DepartureDate),
		ReturnDate:              isoDate(r.ReturnDate),
		Attendees:               strings.TrimSpace(r.Attendees),
		AccommodationPreference: strings.TrimSpace(r.AccommodationPreference),
	}
}

type receiptLineResponse struct {
	Description string   `json:"description"`
	Amount      *float64 `json:"amount"`
}

// receiptResponse is the JSON object requested by the receipt extraction prompt
type receiptResponse struct {
	Merchant      string                `json:"merchant"`
	VendorAddress string                `json:"vendor_address"`
	Date          string                `json:"date"`
	Total         *float64              `json:"total"`
	TaxAmount     *float64              `json:"tax_amount"`
	Currency      string                `json:"currency"`
	PaymentMethod string                `json:"payment_method"`
	Category      string                `json:"category"`
	LineItems     []receiptLineResponse `json:"line_items"`
}

func (r receiptResponse) toPatch() *entity.ReceiptPatch {
	patch := &entity.ReceiptPatch{
		Merchant:      strings.TrimSpace(r.Merchant),
		VendorAddress: strings.TrimSpace(r.VendorAddress),
		Date:          isoDate(r.Date),
		Total:         r.Total,
		TaxAmount:     r.TaxAmount,
		Currency:      strings.ToUpper(strings.TrimSpace(r.Currency)),
		PaymentMethod: strings.TrimSpace(r.PaymentMethod),
		Category:      strings.TrimSpace(r.Category),
	}
	for _, line := range r.LineItems {
		desc := strings.TrimSpace(line.Description)
		if desc == "" && line.Amount == nil {
			continue
		}
		item := entity.ReceiptLine{Description: desc}
		if line.Amount != nil {
			item.Amount = *line.Amount
		}
		patch.LineItems = append(patch.LineItems, item)
	}
	return patch
}

// isoDate keeps s only when it is a calendar date in YYYY-MM-DD form
func isoDate(s string) string {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(entity.DateLayout, s); err != nil {
		return ""
	}
	return s
}

// decodeResponse parses content into out. It reports false when the model
// answered with nothing at all. Content that is not the requested object,
// even after stripping surrounding prose, is an extraction failure.
func decodeResponse(content string, out interface{}) (bool, error) {
	content = strings.TrimSpace(content)
	if content == "" || content == "null" {
		return false, nil
	}

	err := json.Unmarshal([]byte(content), out)
	if err == nil {
		return true, nil
	}

	if embedded, ok := extractJSON(content); ok {
		if err2 := json.Unmarshal([]byte(embedded), out); err2 == nil {
			return true, nil
		}
	}
	return false, fmt.Errorf("%w: unparsable response: %v", port.ErrExtractionFailed, err)
}

// extractJSON returns the outermost JSON object embedded in text, such as a
// reply wrapped in a markdown code fence.
func extractJSON(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
