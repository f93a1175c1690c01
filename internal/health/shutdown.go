package health

import "sync/atomic"

// ready starts true so probes pass as soon as the listener is up; graceful
// shutdown flips it off before draining so load balancers stop routing here.
var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady toggles the readiness gate independently of dependency probes.
func SetReady(v bool) {
	ready.Store(v)
}

// IsReady reports whether the readiness gate is open.
func IsReady() bool {
	return ready.Load()
}
