package calculation

import "time"

// seedFunc supplies a Monte Carlo seed when none is configured.
var seedFunc = func() int64 { return time.Now().UnixNano() }

// SetSeedFunc overrides the seed provider and returns a function restoring the
// previous one (use only in tests).
func SetSeedFunc(f func() int64) (restore func()) {
	prev := seedFunc
	seedFunc = f
	return func() { seedFunc = prev }
}
