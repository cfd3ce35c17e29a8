// Package sysfs implements the attribute exposure layer: declarative
// read/write introspection endpoints attached to kernel objects, plus the
// text emission helper every show path serializes through.
package sysfs

import (
	"errors"

	"github.com/ZZJJWarth/DragonOS/internal/kobject"
)

var (
	// ErrUnsupported is returned when an attribute's support set
	// excludes the requested operation.
	ErrUnsupported = errors.New("sysfs: operation not supported by attribute")
	// ErrNotImplemented marks a write path that is pending implementation.
	ErrNotImplemented = errors.New("sysfs: attribute operation not implemented")
	// ErrBufferTooSmall is returned by Emit when the value does not fit
	// the caller-supplied buffer.
	ErrBufferTooSmall = errors.New("sysfs: buffer too small")
)

// Mode is the access mode of an attribute node, in the usual permission
// bit layout.
type Mode uint16

const (
	ModeRO Mode = 0o444
	ModeRW Mode = 0o644
	ModeWO Mode = 0o200
)

// OpsSupport declares which of show/store an attribute actually backs.
type OpsSupport uint8

const (
	SupportShow OpsSupport = 1 << iota
	SupportStore
)

func (s OpsSupport) Has(flag OpsSupport) bool { return s&flag != 0 }

// Attribute is a single named introspection endpoint on a kernel object.
// Show serializes the current value into buf and returns the bytes
// written; Store parses buf and applies it to the backing state.
// Implementations are invoked through ShowAttribute/StoreAttribute, which
// enforce the support set.
type Attribute interface {
	Name() string
	Mode() Mode
	Support() OpsSupport
	Show(kobj kobject.KObject, buf []byte) (int, error)
	Store(kobj kobject.KObject, buf []byte) (int, error)
}

// AttributeGroup is a named bundle of attributes. Name may be empty for
// the anonymous default group, which attaches its attributes directly
// under the object's node instead of a subdirectory.
type AttributeGroup interface {
	Name() string
	Attributes() []Attribute

	// Visible returns the effective mode of attr on this specific
	// object, or false to hide it for that instance.
	Visible(kobj kobject.KObject, attr Attribute) (Mode, bool)
}

// ShowAttribute runs attr.Show with capability gating.
func ShowAttribute(attr Attribute, kobj kobject.KObject, buf []byte) (int, error) {
	if !attr.Support().Has(SupportShow) {
		return 0, ErrUnsupported
	}
	return attr.Show(kobj, buf)
}

// StoreAttribute runs attr.Store with capability gating.
func StoreAttribute(attr Attribute, kobj kobject.KObject, buf []byte) (int, error) {
	if !attr.Support().Has(SupportStore) {
		return 0, ErrUnsupported
	}
	return attr.Store(kobj, buf)
}

// Emit serializes s into the caller-supplied buffer and returns the bytes
// written. The buffer must hold the whole value; sysfs values are not
// emitted piecewise.
func Emit(buf []byte, s string) (int, error) {
	if len(s) > len(buf) {
		return 0, ErrBufferTooSmall
	}
	return copy(buf, s), nil
}
