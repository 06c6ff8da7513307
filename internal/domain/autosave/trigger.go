package autosave

// Trigger represents an event that can move the save status
type Trigger string

const (
	// TriggerMutate is a change to the observed record
	TriggerMutate    Trigger = "MUTATE"
	// TriggerFlush starts a write, either from the debounce timer or an explicit save
	TriggerFlush     Trigger = "FLUSH"
	// TriggerSettle marks a write that completed and was not superseded
	TriggerSettle    Trigger = "SETTLE"
	// TriggerSupersede marks a write that completed while newer edits arrived
	TriggerSupersede Trigger = "SUPERSEDE"
	// TriggerFail marks a write the store rejected
	TriggerFail      Trigger = "FAIL"
	// TriggerRevert clears the Saved indicator after its display window
	TriggerRevert    Trigger = "REVERT"
	// TriggerDiscard drops the draft and any pending write
	TriggerDiscard   Trigger = "DISCARD"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
