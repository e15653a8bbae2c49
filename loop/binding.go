package loop

import "sync"

var (
	bindingMutex sync.Mutex
	boundLooper  *Looper
)

// Bind installs the looper in the process-wide binding slot, making it the
// active looper for code that locates the loop ambiently. Only one looper
// occupies the slot at a time; binding replaces any previous occupant
// without checking.
func Bind(l *Looper) {
	bindingMutex.Lock()
	boundLooper = l
	bindingMutex.Unlock()
}

// Bound returns the looper currently installed in the binding slot, or nil
// if no looper is bound.
func Bound() *Looper {
	bindingMutex.Lock()
	l := boundLooper
	bindingMutex.Unlock()

	return l
}

// ResetBinding clears the binding slot. Test harnesses call this during
// teardown so that a later test starts from an empty slot.
func ResetBinding() {
	Bind(nil)
}
