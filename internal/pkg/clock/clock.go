// Package clock lets usecases read the current time through an interface so
// tests can pin it.
package clock

import "time"

type Clocker interface {
	Now() time.Time
}

// Func adapts a plain function, e.g. clock.Func(func() time.Time { return fixed }).
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// New returns the wall clock in the process time zone (app.tz).
func New() Clocker {
	return Func(time.Now)
}
