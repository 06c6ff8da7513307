package port

import "time"

// Clock supplies the current time and one-shot timers
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending callback scheduled by a Clock
type Timer interface {
	// Stop cancels the callback, reporting false if it already ran or was stopped
	Stop() bool
}
