// Package clock provides the epoch-millisecond time source used across the app.
// Injectable so tests can pin "now".
package clock

import "time"

type Clock interface {
	// NowMillis returns current Unix time in milliseconds.
	NowMillis() int64
}

type systemClock struct{}

func (systemClock) NowMillis() int64 { return time.Now().UnixMilli() }

// System returns a Clock backed by the wall clock.
func System() Clock { return systemClock{} }

// Fixed returns a Clock frozen at the given millisecond timestamp.
type Fixed int64

func (f Fixed) NowMillis() int64 { return int64(f) }
