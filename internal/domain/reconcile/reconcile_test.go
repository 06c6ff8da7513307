package reconcile

import (
	"math"
	"testing"

	"github.com/garyjia/travel-expense-portal/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func filledRecord() entity.TripRecord {
	return entity.TripRecord{
		Name:                    "Offsite",
		Justification:           "Planning",
		Currency:                "EUR",
		Budget:                  1200,
		DestinationCity:         "Lisbon",
		DestinationCountry:      "Portugal",
		DepartureDate:           "2026-06-01",
		ReturnDate:              "2026-06-03",
		Purpose:                 "Business",
		AccommodationType:       "Hotel",
		AccommodationPreference: "near venue",
		IsUrgent:                true,
		Attendees:               "Ana, Raj",
		Notes:                   "bring badge",
		Attachments:             []string{"agenda.pdf"},
		PreferredSupplier:       "Acme Travel",
	}
}

func fullPatch() entity.TripPatch {
	return entity.TripPatch{
		Name:                    "Summit",
		Justification:           "Quarterly summit",
		Currency:                "USD",
		Budget:                  ptr(3000.0),
		DestinationCity:         "Berlin",
		DestinationCountry:      "Germany",
		DepartureDate:           "2026-05-01",
		ReturnDate:              "2026-05-04",
		Purpose:                 "Conference",
		AccommodationType:       "Apartment",
		AccommodationPreference: "hotel near airport",
		IsUrgent:                ptr(false),
		Attendees:               "Self",
		Notes:                   "visa needed",
		Attachments:             []string{"invite.pdf"},
		PreferredSupplier:       "Globex",
	}
}

func TestTrip_EmptyPatchIsIdentity(t *testing.T) {
	tests := []struct {
		name   string
		record entity.TripRecord
	}{
		{"fresh draft", entity.NewTripRecord()},
		{"filled record", filledRecord()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Trip(tt.record, entity.TripPatch{})
			assert.Equal(t, tt.record, got, "got %+v", got)
		})
	}
}

func TestTrip_BlankValuesNeverClear(t *testing.T) {
	patch := entity.TripPatch{
		Name:            "   ",
		DestinationCity: "",
		Budget:          ptr(math.NaN()),
		Attachments:     []string{},
	}

	got := Trip(filledRecord(), patch)

	assert.Equal(t, filledRecord(), got)
}

func TestTrip_PresentValuesReplace(t *testing.T) {
	got := Trip(filledRecord(), fullPatch())

	assert.Equal(t, "Summit", got.Name)
	assert.Equal(t, "Berlin", got.DestinationCity)
	assert.Equal(t, 3000.0, got.Budget)
	assert.False(t, got.IsUrgent)
	assert.Equal(t, []string{"invite.pdf"}, got.Attachments)
	assert.Equal(t, "Globex", got.PreferredSupplier)
}

func TestTrip_EachFieldIsPresenceGated(t *testing.T) {
	full := fullPatch()
	base := filledRecord()

	// Dropping any single field from the patch leaves that field untouched.
	clears := map[string]func(p *entity.TripPatch) (got func(entity.TripRecord) any){
		"justification": func(p *entity.TripPatch) func(entity.TripRecord) any {
			p.Justification = ""
			return func(r entity.TripRecord) any { return r.Justification }
		},
		"country": func(p *entity.TripPatch) func(entity.TripRecord) any {
			p.DestinationCountry = ""
			return func(r entity.TripRecord) any { return r.DestinationCountry }
		},
		"budget": func(p *entity.TripPatch) func(entity.TripRecord) any {
			p.Budget = nil
			return func(r entity.TripRecord) any { return r.Budget }
		},
		"urgent": func(p *entity.TripPatch) func(entity.TripRecord) any {
			p.IsUrgent = nil
			return func(r entity.TripRecord) any { return r.IsUrgent }
		},
		"attachments": func(p *entity.TripPatch) func(entity.TripRecord) any {
			p.Attachments = nil
			return func(r entity.TripRecord) any { return r.Attachments }
		},
		"return date": func(p *entity.TripPatch) func(entity.TripRecord) any {
			p.ReturnDate = ""
			return func(r entity.TripRecord) any { return r.ReturnDate }
		},
	}

	for name, clear := range clears {
		t.Run(name, func(t *testing.T) {
			p := full
			pick := clear(&p)
			got := Trip(base, p)
			assert.Equal(t, pick(base), pick(got))
		})
	}
}

func TestTrip_DerivesNameOnlyWhenEmpty(t *testing.T) {
	empty := entity.NewTripRecord()
	got := Trip(empty, entity.TripPatch{DestinationCity: "Berlin"})
	assert.Equal(t, "Trip to Berlin", got.Name)

	typed := entity.NewTripRecord()
	typed.Name = "My summit"
	got = Trip(typed, entity.TripPatch{DestinationCity: "Berlin"})
	assert.Equal(t, "My summit", got.Name)
}

func TestTrip_SuggestedNameBeatsDerivedName(t *testing.T) {
	got := Trip(entity.NewTripRecord(), entity.TripPatch{Name: "Summit", DestinationCity: "Berlin"})

	assert.Equal(t, "Summit", got.Name)
}

func TestTrip_Idempotent(t *testing.T) {
	patches := []entity.TripPatch{
		{},
		fullPatch(),
		{DestinationCity: "Paris, Lyon"},
		{Budget: ptr(0.0), Attendees: "Self"},
	}
	records := []entity.TripRecord{entity.NewTripRecord(), filledRecord()}

	for _, r := range records {
		for _, p := range patches {
			once := Trip(r, p)
			twice := Trip(once, p)
			assert.Equal(t, twice, once, "patch %+v", p)
		}
	}
}

func TestTrip_DoesNotAliasInputs(t *testing.T) {
	r := filledRecord()
	p := entity.TripPatch{Attachments: []string{"a.pdf"}}

	got := Trip(r, p)
	got.Attachments[0] = "changed"

	require.Equal(t, "a.pdf", p.Attachments[0])
	require.Equal(t, "agenda.pdf", r.Attachments[0])
}

func TestUsableAmount(t *testing.T) {
	assert.False(t, UsableAmount(nil))
	assert.False(t, UsableAmount(ptr(-1.0)))
	assert.False(t, UsableAmount(ptr(math.Inf(1))))
	assert.True(t, UsableAmount(ptr(0.0)))
	assert.True(t, UsableAmount(ptr(42.5)))
}
