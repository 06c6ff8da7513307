package autosave

import "fmt"

// GuardFunc decides whether a guarded transition may proceed
type GuardFunc func() bool

// Machine tracks the current status and validates transitions
type Machine interface {
	// Status returns the current status
	Status() Status

	// CanFire returns true if the trigger has a transition from the current status
	CanFire(trigger Trigger) bool

	// Fire applies the trigger, returning the new status
	Fire(trigger Trigger) (Status, error)
}

type transition struct {
	to    Status
	guard GuardFunc
}

type table map[Status]map[Trigger]transition

type machine struct {
	current Status
	table   table
}

// NewMachine returns a machine in Idle wired with the autosave transition table.
// canRevert guards Saved -> Idle; a nil guard always allows it.
func NewMachine(canRevert GuardFunc) Machine {
	return &machine{current: StatusIdle, table: transitions(canRevert)}
}

func transitions(canRevert GuardFunc) table {
	return table{
		StatusIdle: {
			TriggerMutate:  {to: StatusUnsaved},
			TriggerFlush:   {to: StatusSaving},
			TriggerDiscard: {to: StatusIdle},
		},
		StatusUnsaved: {
			TriggerMutate:  {to: StatusUnsaved},
			TriggerFlush:   {to: StatusSaving},
			TriggerDiscard: {to: StatusIdle},
		},
		StatusSaving: {
			// edits during a write stay pending until it settles
			TriggerMutate:    {to: StatusSaving},
			TriggerFlush:     {to: StatusSaving},
			TriggerSettle:    {to: StatusSaved},
			TriggerSupersede: {to: StatusUnsaved},
			TriggerFail:      {to: StatusUnsaved},
			TriggerDiscard:   {to: StatusIdle},
		},
		StatusSaved: {
			TriggerMutate:  {to: StatusUnsaved},
			TriggerFlush:   {to: StatusSaving},
			TriggerRevert:  {to: StatusIdle, guard: canRevert},
			TriggerDiscard: {to: StatusIdle},
		},
	}
}

// Next is the pure transition function with every guard passing.
func Next(from Status, trigger Trigger) (Status, error) {
	m := &machine{current: from, table: transitions(nil)}
	return m.Fire(trigger)
}

func (m *machine) Status() Status {
	return m.current
}

func (m *machine) CanFire(trigger Trigger) bool {
	_, ok := m.table[m.current][trigger]
	return ok
}

func (m *machine) Fire(trigger Trigger) (Status, error) {
	t, ok := m.table[m.current][trigger]
	if !ok {
		return m.current, fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}
	if t.guard != nil && !t.guard() {
		return m.current, fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.current)
	}
	m.current = t.to
	return m.current, nil
}
