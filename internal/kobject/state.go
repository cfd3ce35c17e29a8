package kobject

import "sync"

// State is the kobject state machine, a small bit set tracking how far an
// object has progressed through registration.
type State uint8

const (
	// StateInitialized is set once the object has been initialized.
	StateInitialized State = 1 << iota
	// StateInSysfs is set while the object has attribute nodes in the
	// kernel filesystem.
	StateInSysfs
	// StateAddUeventSent is set after the add event has been emitted.
	StateAddUeventSent
	// StateRemoveUeventSent is set after the remove event has been emitted.
	StateRemoveUeventSent
)

func (s State) Has(flag State) bool { return s&flag != 0 }

// StateLock guards a kobject's state word with a lock of its own,
// deliberately independent from the object's data lock: state inspection
// must never contend with data mutation. Callers must not hold a state
// guard across an operation that takes the data lock.
type StateLock struct {
	mu    sync.RWMutex
	state State
}

func NewStateLock(initial State) *StateLock {
	return &StateLock{state: initial}
}

// Get returns the current state under the read lock.
func (l *StateLock) Get() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Set replaces the state under the write lock.
func (l *StateLock) Set(s State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = s
}

// Update applies fn to the state under the write lock. This is the scoped
// mutable access path; fn must not touch the owning object's data lock.
func (l *StateLock) Update(fn func(State) State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = fn(l.state)
}
