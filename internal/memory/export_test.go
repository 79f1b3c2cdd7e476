package memory

import "time"

// SetClock replaces the store clock and returns a restore func.
// This file only compiles during `go test`.
func SetClock(now func() time.Time) func() {
	prev := timeNow
	timeNow = now
	return func() { timeNow = prev }
}
