package util

import (
	"sync/atomic"
)

// NewRunOnce wraps the given "f" in a function that calls it at most once
//
// The wrapper returns true when "f" is actually invoked. Used to protect resource
// closing and cleanup that must happen exactly once.
func NewRunOnce(f func()) func() bool {
	var invoked int32
	return func() bool {
		if atomic.CompareAndSwapInt32(&invoked, 0, 1) {
			f()
			return true
		}
		return false
	}
}
