package kernfs

import "sync"

// Inode is a handle to a node in the kernel filesystem tree. The driver
// core only creates and removes attribute nodes through it; everything
// else about the tree (lookup, read/write dispatch, lifetimes of open
// files) belongs to the filesystem layer.
type Inode struct {
	name string
	mode uint16

	mu       sync.Mutex
	children map[string]*Inode
}

// NewInode creates a detached inode, typically the directory node handed
// to a kernel object when it is registered.
func NewInode(name string, mode uint16) *Inode {
	return &Inode{name: name, mode: mode}
}

func (i *Inode) Name() string {
	if i == nil {
		return ""
	}
	return i.name
}

func (i *Inode) Mode() uint16 {
	if i == nil {
		return 0
	}
	return i.mode
}

// NewChild creates (or replaces) a child node under this inode.
func (i *Inode) NewChild(name string, mode uint16) *Inode {
	child := &Inode{name: name, mode: mode}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.children == nil {
		i.children = make(map[string]*Inode)
	}
	i.children[name] = child
	return child
}

// RemoveChild removes the named child. Removing an absent child is a no-op.
func (i *Inode) RemoveChild(name string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.children, name)
}

// Child returns the named child node, if present.
func (i *Inode) Child(name string) (*Inode, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	c, ok := i.children[name]
	return c, ok
}

// ChildCount returns the number of direct children.
func (i *Inode) ChildCount() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.children)
}
