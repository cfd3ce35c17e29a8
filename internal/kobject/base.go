package kobject

import (
	"sync"

	"github.com/ZZJJWarth/DragonOS/internal/kernfs"
)

// Base is a reusable KObject implementation. Concrete devices, drivers and
// buses embed it (by pointer) and add their role-specific fields behind
// their own data locks. Base keeps its own data lock and an independent
// state lock per the two-lock rule.
type Base struct {
	life  *Life
	state *StateLock

	mu        sync.RWMutex
	name      string
	fixedName bool
	inode     *kernfs.Inode
	parent    Weak[KObject]
	kset      *KSet
	objType   *Type
}

// NewBase creates a kobject base with a mutable name.
func NewBase(name string) *Base {
	return &Base{life: NewLife(), state: NewStateLock(0), name: name}
}

// NewFixedBase creates a kobject base whose name is assigned at
// construction; SetName on it is a no-op.
func NewFixedBase(name string) *Base {
	b := NewBase(name)
	b.fixedName = true
	return b
}

func (b *Base) Life() *Life { return b.life }

func (b *Base) Name() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.name
}

func (b *Base) SetName(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fixedName {
		return
	}
	b.name = name
}

func (b *Base) Inode() *kernfs.Inode {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.inode
}

func (b *Base) SetInode(inode *kernfs.Inode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inode = inode
}

func (b *Base) Parent() Weak[KObject] {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.parent
}

func (b *Base) SetParent(parent Weak[KObject]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.parent = parent
}

func (b *Base) KSet() *KSet {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.kset
}

func (b *Base) SetKSet(set *KSet) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.kset = set
}

func (b *Base) ObjType() *Type {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.objType
}

func (b *Base) SetObjType(t *Type) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objType = t
}

func (b *Base) State() State                    { return b.state.Get() }
func (b *Base) SetState(s State)                { b.state.Set(s) }
func (b *Base) UpdateState(fn func(State) State) { b.state.Update(fn) }
