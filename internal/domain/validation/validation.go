// Package validation checks a travel request before submission and routes
// the first failure to the form section that owns it.
package validation

import (
	"strings"
	"time"

	"github.com/garyjia/travel-expense-portal/internal/domain/entity"
)

// Error messages reported by Validate
const (
	MsgNameRequired        = "Request Name is required"
	MsgJustificationReq    = "Justification is required"
	MsgCityRequired        = "Destination City is required"
	MsgCountryRequired     = "Country is required"
	MsgDepartureRequired   = "Departure Date is required"
	MsgReturnRequired      = "Return Date is required"
	MsgBudgetNegative      = "Budget cannot be negative"
	MsgReturnBeforeDeparts = "Return date cannot be before departure date"
)

// FieldError is a single failed rule
type FieldError struct {
	Field   entity.Field `json:"field"`
	Message string       `json:"message"`
}

// Result holds every failed rule in a fixed field order.
type Result struct {
	Errors []FieldError `json:"errors"`
}

// Valid reports whether no rule failed
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Message returns the error recorded for field, if any.
func (r Result) Message(field entity.Field) (string, bool) {
	for _, e := range r.Errors {
		if e.Field == field {
			return e.Message, true
		}
	}
	return "", false
}

// Map returns the errors keyed by field
func (r Result) Map() map[entity.Field]string {
	m := make(map[entity.Field]string, len(r.Errors))
	for _, e := range r.Errors {
		m[e.Field] = e.Message
	}
	return m
}

// Without returns a copy of r with the error for field removed.
func (r Result) Without(field entity.Field) Result {
	out := Result{Errors: make([]FieldError, 0, len(r.Errors))}
	for _, e := range r.Errors {
		if e.Field != field {
			out.Errors = append(out.Errors, e)
		}
	}
	return out
}

// Section returns the first section, in routing order, that owns an error.
func (r Result) Section() (entity.Section, bool) {
	for _, s := range entity.RoutingOrder {
		for _, e := range r.Errors {
			if e.Field.Section() == s {
				return s, true
			}
		}
	}
	return "", false
}

// Validate runs every rule against the record. It never short-circuits, so
// all current problems are reported together.
func Validate(t entity.TripRecord) Result {
	var errs []FieldError
	add := func(f entity.Field, msg string) {
		errs = append(errs, FieldError{Field: f, Message: msg})
	}

	if blank(t.Name) {
		add(entity.FieldName, MsgNameRequired)
	}
	if blank(t.Justification) {
		add(entity.FieldJustification, MsgJustificationReq)
	}
	if blank(t.DestinationCity) {
		add(entity.FieldDestinationCity, MsgCityRequired)
	}
	if blank(t.DestinationCountry) {
		add(entity.FieldDestinationCountry, MsgCountryRequired)
	}
	if blank(t.DepartureDate) {
		add(entity.FieldDepartureDate, MsgDepartureRequired)
	}

	switch {
	case blank(t.ReturnDate):
		add(entity.FieldReturnDate, MsgReturnRequired)
	case !blank(t.DepartureDate) && returnsBeforeDeparture(t.DepartureDate, t.ReturnDate):
		add(entity.FieldReturnDate, MsgReturnBeforeDeparts)
	}
	if t.Budget < 0 {
		add(entity.FieldBudget, MsgBudgetNegative)
	}

	return Result{Errors: errs}
}

// returnsBeforeDeparture compares two ISO dates. Unparsable dates never
// produce an ordering error.
func returnsBeforeDeparture(departure, ret string) bool {
	d, err := time.Parse(entity.DateLayout, strings.TrimSpace(departure))
	if err != nil {
		return false
	}
	r, err := time.Parse(entity.DateLayout, strings.TrimSpace(ret))
	if err != nil {
		return false
	}
	return r.Before(d)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
