package service

import "errors"

var (
	// ErrUnknownField is returned when an edit names a field the record does not have
	ErrUnknownField = errors.New("unknown field")

	// ErrInvalidValue is returned when an edit value has the wrong type or range
	ErrInvalidValue = errors.New("invalid value")

	// ErrItemNotFound is returned when a line item id is not in the ledger
	ErrItemNotFound = errors.New("line item not found")

	// ErrNoExporter is returned by Export when no exporter is configured
	ErrNoExporter = errors.New("no claim exporter configured")
)
