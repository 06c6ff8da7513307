// Package clock provides the wall clock used in production and a manual
// clock that tests advance explicitly.
package clock

import (
	"time"

	"github.com/garyjia/travel-expense-portal/internal/application/port"
)

// System is the real clock
type System struct{}

// NewSystem returns the wall clock
func NewSystem() System {
	return System{}
}

func (System) Now() time.Time {
	return time.Now()
}

func (System) AfterFunc(d time.Duration, f func()) port.Timer {
	return time.AfterFunc(d, f)
}
