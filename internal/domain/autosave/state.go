package autosave

// Status is the user-visible save state of one draft editing session
type Status string

const (
	StatusIdle    Status = "IDLE"
	StatusUnsaved Status = "UNSAVED"
	StatusSaving  Status = "SAVING"
	StatusSaved   Status = "SAVED"
)

var validStatuses = map[Status]bool{
	StatusIdle:    true,
	StatusUnsaved: true,
	StatusSaving:  true,
	StatusSaved:   true,
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if the status is a known save status
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// Label returns the indicator text shown next to the form title.
func (s Status) Label() string {
	switch s {
	case StatusUnsaved:
		return "Unsaved changes"
	case StatusSaving:
		return "Saving..."
	case StatusSaved:
		return "Saved"
	default:
		return ""
	}
}
