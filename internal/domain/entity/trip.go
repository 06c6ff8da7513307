package entity

import (
	"strings"
	"time"
)

// TripRecord is the working copy of a travel request. It has no server id
// until it is submitted.
type TripRecord struct {
	Name                    string   `json:"name"`
	Justification           string   `json:"justification"`
	Currency                string   `json:"currency"`
	Budget                  float64  `json:"budget"`
	DestinationCity         string   `json:"destination_city"`
	DestinationCountry      string   `json:"destination_country"`
	DepartureDate           string   `json:"departure_date"`
	ReturnDate              string   `json:"return_date"`
	Purpose                 string   `json:"purpose"`
	AccommodationType       string   `json:"accommodation_type"`
	AccommodationPreference string   `json:"accommodation_preference"`
	IsUrgent                bool     `json:"is_urgent"`
	Attendees               string   `json:"attendees"`
	Notes                   string   `json:"notes"`
	Attachments             []string `json:"attachments"`
	PreferredSupplier       string   `json:"preferred_supplier"`
}

// NewTripRecord returns an empty draft with the portal defaults.
func NewTripRecord() TripRecord {
	return TripRecord{
		Currency:          DefaultCurrency,
		Purpose:           DefaultPurpose,
		AccommodationType: DefaultAccommodationType,
		Attachments:       []string{},
	}
}

// Clone returns a deep copy; the attachments slice is never shared.
func (t TripRecord) Clone() TripRecord {
	c := t
	c.Attachments = append([]string{}, t.Attachments...)
	return c
}

// AttendeesOrSelf returns the attendee list, treating an empty value as the requester alone.
func (t TripRecord) AttendeesOrSelf() string {
	if strings.TrimSpace(t.Attendees) == "" {
		return DefaultAttendees
	}
	return t.Attendees
}

// TripSubmission is the frozen snapshot produced by a successful submit.
type TripSubmission struct {
	ReferenceID string     `json:"reference_id"`
	Record      TripRecord `json:"record"`
	SubmittedAt time.Time  `json:"submitted_at"`
}
