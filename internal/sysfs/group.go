package sysfs

import (
	"errors"
	"fmt"

	"github.com/ZZJJWarth/DragonOS/internal/kobject"
)

// ErrNoInode is returned when group creation is attempted on an object
// that has not been attached to the kernel filesystem yet.
var ErrNoInode = errors.New("sysfs: kobject has no filesystem node")

// CreateGroups materializes a filesystem node for every visible attribute
// of each group under the object's inode. Named groups get a subdirectory;
// the anonymous group attaches directly under the object.
func CreateGroups(kobj kobject.KObject, groups []AttributeGroup) error {
	root := kobj.Inode()
	if root == nil {
		return ErrNoInode
	}
	for _, g := range groups {
		parent := root
		if name := g.Name(); name != "" {
			parent = root.NewChild(name, uint16(ModeRO)|0o111)
		}
		for _, attr := range g.Attributes() {
			mode, ok := g.Visible(kobj, attr)
			if !ok {
				continue
			}
			parent.NewChild(attr.Name(), uint16(mode))
		}
	}
	kobj.UpdateState(func(s kobject.State) kobject.State {
		return s | kobject.StateInSysfs
	})
	return nil
}

// RemoveGroups tears down the nodes created by CreateGroups. Removing
// groups that were never created is a no-op.
func RemoveGroups(kobj kobject.KObject, groups []AttributeGroup) {
	root := kobj.Inode()
	if root == nil {
		return
	}
	for _, g := range groups {
		if name := g.Name(); name != "" {
			root.RemoveChild(name)
			continue
		}
		for _, attr := range g.Attributes() {
			root.RemoveChild(attr.Name())
		}
	}
	kobj.UpdateState(func(s kobject.State) kobject.State {
		return s &^ kobject.StateInSysfs
	})
}

// EmitInt is a convenience wrapper over Emit for integer-valued shows.
func EmitInt(buf []byte, v int64) (int, error) {
	return Emit(buf, fmt.Sprintf("%d\n", v))
}

// EmitHex emits v with the given per-value nibble width, e.g. "0x1af4\n".
func EmitHex(buf []byte, v uint64, width int) (int, error) {
	return Emit(buf, fmt.Sprintf("0x%0*x\n", width, v))
}
