package entity

// Field names a TripRecord field. Values match the JSON keys of the record.
type Field string

const (
	FieldName                    Field = "name"
	FieldJustification           Field = "justification"
	FieldCurrency                Field = "currency"
	FieldBudget                  Field = "budget"
	FieldDestinationCity         Field = "destination_city"
	FieldDestinationCountry      Field = "destination_country"
	FieldDepartureDate           Field = "departure_date"
	FieldReturnDate              Field = "return_date"
	FieldPurpose                 Field = "purpose"
	FieldAccommodationType       Field = "accommodation_type"
	FieldAccommodationPreference Field = "accommodation_preference"
	FieldIsUrgent                Field = "is_urgent"
	FieldAttendees               Field = "attendees"
	FieldNotes                   Field = "notes"
	FieldAttachments             Field = "attachments"
	FieldPreferredSupplier       Field = "preferred_supplier"
)

// Section is a logical tab of the travel request form
type Section string

const (
	SectionBasic     Section = "BASIC"
	SectionTravel    Section = "TRAVEL"
	SectionNotes     Section = "NOTES"
	SectionSuppliers Section = "SUPPLIERS"
)

// RoutingOrder is the order in which sections are searched for the first error
var RoutingOrder = []Section{SectionBasic, SectionTravel, SectionNotes}

var fieldSections = map[Field]Section{
	FieldName:                    SectionBasic,
	FieldJustification:           SectionBasic,
	FieldCurrency:                SectionBasic,
	FieldPurpose:                 SectionBasic,
	FieldIsUrgent:                SectionBasic,
	FieldDestinationCity:         SectionTravel,
	FieldDestinationCountry:      SectionTravel,
	FieldBudget:                  SectionTravel,
	FieldDepartureDate:           SectionTravel,
	FieldReturnDate:              SectionTravel,
	FieldAccommodationType:       SectionTravel,
	FieldAccommodationPreference: SectionTravel,
	FieldAttendees:               SectionTravel,
	FieldNotes:                   SectionNotes,
	FieldAttachments:             SectionNotes,
	FieldPreferredSupplier:       SectionSuppliers,
}

// Section returns the form section that owns the field.
func (f Field) Section() Section {
	return fieldSections[f]
}

// IsValid reports whether f names a TripRecord field.
func (f Field) IsValid() bool {
	_, ok := fieldSections[f]
	return ok
}

// String returns the string representation of the field
func (f Field) String() string {
	return string(f)
}

// IsValid reports whether s is a known section
func (s Section) IsValid() bool {
	switch s {
	case SectionBasic, SectionTravel, SectionNotes, SectionSuppliers:
		return true
	default:
		return false
	}
}

// String returns the string representation of the section
func (s Section) String() string {
	return string(s)
}
