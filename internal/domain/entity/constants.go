package entity

// Trip record defaults applied to a fresh draft
const (
	DefaultCurrency          = "INR"
	DefaultPurpose           = "Business"
	DefaultAccommodationType = "Hotel"
	DefaultAttendees         = "Self"
)

// Expense line item defaults
const (
	DefaultCategory        = "General"
	DefaultItemDescription = "Expense Item"
)

// Storage keys for the persisted draft and the category registry
const (
	DraftKey      = "travelRequestDraft"
	CategoriesKey = "expenseCategories"
)

// DateLayout is the ISO calendar date format used by every date field
const DateLayout = "2006-01-02"

// BuiltinCategories is the seed set of the category registry
var BuiltinCategories = []string{
	"Meals",
	"Transport",
	"Accommodation",
	"Flights",
	"Supplies",
	"Entertainment",
	"General",
}

// SupportedCurrencies lists the currency codes offered by the claim editor
var SupportedCurrencies = []string{"INR", "USD", "EUR", "GBP", "AUD", "CAD", "SGD", "JPY"}
