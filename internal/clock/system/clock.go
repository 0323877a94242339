// Package system provides the wall-clock implementation of the Clock interface.
package system

import "time"

// Clock reports real time.
type Clock struct{}

// New returns a system Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current UTC time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
