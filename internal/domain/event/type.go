package event

// Type identifies the type of domain event
type Type string

const (
	TypeTripSubmitted      Type = "trip.submitted"
	TypeTripReset          Type = "trip.reset"
	TypeDraftStatusChanged Type = "draft.status_changed"
	TypeExtractionFailed   Type = "extraction.failed"
	TypeExtractionApplied  Type = "extraction.applied"
	TypeLineItemAdded      Type = "claim.item_added"
	TypeLineItemRemoved    Type = "claim.item_removed"
	TypeCategoryRegistered Type = "claim.category_registered"
	TypeClaimExported      Type = "claim.exported"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeTripSubmitted,
		TypeTripReset,
		TypeDraftStatusChanged,
		TypeExtractionFailed,
		TypeExtractionApplied,
		TypeLineItemAdded,
		TypeLineItemRemoved,
		TypeCategoryRegistered,
		TypeClaimExported:
		return true
	default:
		return false
	}
}
