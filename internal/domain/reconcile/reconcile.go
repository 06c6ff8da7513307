// Package reconcile merges extractor suggestions into live form state
// without ever overwriting a value with an absent one.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/garyjia/travel-expense-portal/internal/domain/entity"
)

// NameTemplate derives a request name from the destination city
const NameTemplate = "Trip to %s"

// Trip applies patch to current. A patch value wins only when it is present
// and non-empty; everything else keeps the current value. The result shares
// no memory with either argument.
func Trip(current entity.TripRecord, patch entity.TripPatch) entity.TripRecord {
	next := current.Clone()

	mergeString(&next.Name, patch.Name)
	mergeString(&next.Justification, patch.Justification)
	mergeString(&next.Currency, patch.Currency)
	mergeString(&next.DestinationCity, patch.DestinationCity)
	mergeString(&next.DestinationCountry, patch.DestinationCountry)
	mergeString(&next.DepartureDate, patch.DepartureDate)
	mergeString(&next.ReturnDate, patch.ReturnDate)
	mergeString(&next.Purpose, patch.Purpose)
	mergeString(&next.AccommodationType, patch.AccommodationType)
	mergeString(&next.AccommodationPreference, patch.AccommodationPreference)
	mergeString(&next.Attendees, patch.Attendees)
	mergeString(&next.Notes, patch.Notes)
	mergeString(&next.PreferredSupplier, patch.PreferredSupplier)

	if UsableAmount(patch.Budget) {
		next.Budget = *patch.Budget
	}
	if patch.IsUrgent != nil {
		next.IsUrgent = *patch.IsUrgent
	}
	if len(patch.Attachments) > 0 {
		next.Attachments = append([]string{}, patch.Attachments...)
	}

	// derived after the direct merges so a typed or suggested name always wins
	if present(patch.DestinationCity) && !present(next.Name) {
		next.Name = fmt.Sprintf(NameTemplate, patch.DestinationCity)
	}

	return next
}

// UsableAmount reports whether an extracted amount is a defined, non-negative number.
func UsableAmount(v *float64) bool {
	return entity.UsableAmount(v)
}

func mergeString(dst *string, v string) {
	if present(v) {
		*dst = v
	}
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}
