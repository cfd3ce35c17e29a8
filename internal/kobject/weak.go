package kobject

import "sync/atomic"

// Life is the liveness token behind every kernel object. Go's collector
// cannot tell us "the referent was destroyed", so destruction is explicit:
// whoever owns the strongest reference (a kset, a bus device list, a
// driver's bound set) calls Release when it drops the object. From that
// point every weak upgrade fails.
type Life struct {
	dead atomic.Bool
}

func NewLife() *Life { return &Life{} }

// Release marks the object destroyed. Safe to call more than once.
func (l *Life) Release() {
	if l != nil {
		l.dead.Store(true)
	}
}

func (l *Life) Alive() bool {
	return l != nil && !l.dead.Load()
}

// Holder is anything that exposes a liveness token. KObject embeds it.
type Holder interface {
	Life() *Life
}

// Weak is a non-owning back-reference to a kernel object. The zero value
// is the empty reference; Upgrade on it fails. A Weak never keeps its
// referent registered: once the referent's Life is released, Upgrade
// returns false forever.
type Weak[T Holder] struct {
	target T
	life   *Life
}

// WeakOf captures a weak reference to target.
func WeakOf[T Holder](target T) Weak[T] {
	return Weak[T]{target: target, life: target.Life()}
}

// Upgrade returns a usable strong handle, or false if the referent has
// been destroyed or the reference is empty. Callers must treat false as a
// valid, non-error outcome.
func (w Weak[T]) Upgrade() (T, bool) {
	var zero T
	if !w.life.Alive() {
		return zero, false
	}
	return w.target, true
}

// Empty reports whether the reference was never set.
func (w Weak[T]) Empty() bool { return w.life == nil }
