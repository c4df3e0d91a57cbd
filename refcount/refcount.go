package refcount

import (
	"sync"
)

// Ref is a reference counter that calls ReleaseFunc once the last reference is dropped.
// The zero value holds no references; call Init before sharing it.
type Ref struct {
	mutex    sync.Mutex
	count    uint
	released bool

	// ReleaseFunc will be called exactly once, when the count drops to zero.
	// It runs without the internal lock held, so it may inspect the Ref.
	ReleaseFunc func()
}

// Init sets the count to one and installs the release callback
func (r *Ref) Init(release func()) {
	r.mutex.Lock()
	r.count = 1
	r.released = false
	r.ReleaseFunc = release
	r.mutex.Unlock()
}

// Acquire takes an additional reference
func (r *Ref) Acquire() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.count == 0 {
		panic("refcount: acquire on released object")
	}
	r.count++
}

// Release drops a reference. The release callback is run by the call that drops the last one.
func (r *Ref) Release() {
	r.mutex.Lock()
	if r.count == 0 {
		r.mutex.Unlock()
		panic("refcount: release on released object")
	}
	r.count--
	last := r.count == 0
	if last {
		r.released = true
	}
	r.mutex.Unlock()

	if last && r.ReleaseFunc != nil {
		r.ReleaseFunc()
	}
}

// Count returns the number of references currently held
func (r *Ref) Count() uint {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.count
}

// IsReleased returns true once the last reference was dropped
func (r *Ref) IsReleased() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.released
}
