// Package kobject provides the common base shared by every registrable
// kernel entity: identity, hierarchical placement and a state machine.
// Devices, drivers, buses and ksets all satisfy KObject.
package kobject

import "github.com/ZZJJWarth/DragonOS/internal/kernfs"

// Type is a statically known descriptor shared by every kobject of one
// kind. Instances live for the whole process and are referenced, never
// copied.
type Type struct {
	Name string
	// Release, if set, runs when the object is finally destroyed.
	Release func(KObject)
}

// KObject is the common contract. None of its operations fail; absence is
// a nil or false result, never an error.
//
// Ownership rules: the strongest holder (the kset, a bus device list, a
// driver's bound set or an external registry) governs lifetime. Parent
// links are weak so a child never keeps its parent alive.
type KObject interface {
	Holder

	// Name returns the display name. Some implementations fix their
	// identity at construction and make SetName a no-op; that is
	// intentional for objects whose name must never drift.
	Name() string
	SetName(name string)

	// Inode stores the opaque filesystem node handle, set once the
	// object is attached to the kernel filesystem.
	Inode() *kernfs.Inode
	SetInode(inode *kernfs.Inode)

	// Parent is the weak link to the hierarchical parent. Replacing it
	// does not touch the previous parent's child bookkeeping; that
	// bookkeeping, if any, lives in the kset or bus.
	Parent() Weak[KObject]
	SetParent(parent Weak[KObject])

	// KSet is the owning grouping construct, held strongly.
	KSet() *KSet
	SetKSet(set *KSet)

	// ObjType is the shared type descriptor, possibly nil.
	ObjType() *Type
	SetObjType(t *Type)

	// State accessors go through the dedicated state lock, never the
	// data lock.
	State() State
	SetState(s State)
	UpdateState(fn func(State) State)
}

// Same reports whether two kobjects are the same underlying object.
// Identity, not value equality: all implementations use pointer receivers,
// so comparing the interface values compares the pointers.
func Same(a, b KObject) bool { return a == b }
